package models

import "strconv"

type Role string

const (
	RoleTutor   Role = "tutor"
	RoleStudent Role = "student"
)

// Score is a value in [0,1] or undefined. Undefined means "no verdict" and is
// never coerced to zero.
type Score struct {
	Value float64
	Valid bool
}

func Defined(v float64) Score {
	return Score{Value: v, Valid: true}
}

func (s Score) String() string {
	if !s.Valid {
		return ""
	}
	return strconv.FormatFloat(s.Value, 'f', -1, 64)
}

// ParseScore reads a cell written by Score.String.
func ParseScore(cell string) (Score, error) {
	if cell == "" {
		return Score{}, nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return Score{}, err
	}
	return Defined(v), nil
}

type Triple struct {
	Precision Score
	Recall    Score
	F1        Score
}

// RoleScores holds both scoring paths for one role's summary.
type RoleScores struct {
	Judge      Triple
	Similarity Triple
}

type Accumulators struct {
	Rounds       int
	TutorChars   int
	StudentChars int
}

// TutorAverage is the integer mean utterance length per round.
func (a Accumulators) TutorAverage() int {
	if a.Rounds == 0 {
		return 0
	}
	return a.TutorChars / a.Rounds
}

func (a Accumulators) StudentAverage() int {
	if a.Rounds == 0 {
		return 0
	}
	return a.StudentChars / a.Rounds
}

type LogRow struct {
	SessionID      string
	ProfileKey     string
	ChatHistory    string
	TutorSummary   string
	StudentSummary string
	Engagement     string
	Knowledge      string
	Expressiveness string
	Pacing         string
	Confidence     string
	Rounds         int
	TutorAverage   int
	StudentAverage int
	Tutor          RoleScores
	Student        RoleScores
}

var Header = []string{
	"session_id",
	"student_profile", "chat_history", "tutor_summary", "student_summary",
	"engagement_level", "knowledge_level", "expressiveness_level",
	"pacing_style", "confidence_level", "conversation_counter",
	"tutor_response_avg", "student_response_avg",
	"LLM_Precision_Tutor", "LLM_Recall_Tutor", "LLM_score_Tutor",
	"BERT_Precision_Tutor", "BERT_Recall_Tutor", "BERT_score_Tutor",
	"LLM_Precision_Student", "LLM_Recall_Student", "LLM_score_Student",
	"BERT_Precision_Student", "BERT_Recall_Student", "BERT_score_Student",
}

// Columns flattens the row in Header order.
func (r LogRow) Columns() []string {
	cols := []string{
		r.SessionID,
		r.ProfileKey, r.ChatHistory, r.TutorSummary, r.StudentSummary,
		r.Engagement, r.Knowledge, r.Expressiveness,
		r.Pacing, r.Confidence, strconv.Itoa(r.Rounds),
		strconv.Itoa(r.TutorAverage), strconv.Itoa(r.StudentAverage),
	}
	for _, t := range []Triple{r.Tutor.Judge, r.Tutor.Similarity, r.Student.Judge, r.Student.Similarity} {
		cols = append(cols, t.Precision.String(), t.Recall.String(), t.F1.String())
	}
	return cols
}
