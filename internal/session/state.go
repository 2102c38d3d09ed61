package session

type State int

// The AwaitingX states name whose utterance is pending: in
// StateAwaitingStudentTurn the tutor is about to consume the latest student
// utterance, in StateAwaitingTutorTurn the student is about to consume the
// tutor's.
const (
	StateAwaitingStudentTurn State = iota
	StateAwaitingTutorTurn
	StateSummarizing
	StateScoring
	StateDone
)

func (s State) String() string {
	switch s {
	case StateAwaitingStudentTurn:
		return "awaiting-student-turn"
	case StateAwaitingTutorTurn:
		return "awaiting-tutor-turn"
	case StateSummarizing:
		return "summarizing"
	case StateScoring:
		return "scoring"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}
