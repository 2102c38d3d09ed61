package agent

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/llm"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/persona"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/scenario"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/pkg/logger"
)

// ChatModel is the remote completion endpoint an agent talks to. *llm.Client
// satisfies it.
type ChatModel interface {
	Chat(ctx context.Context, messages []llm.Message) (*llm.CompletionResponse, error)
}

// Agent produces one utterance per incoming utterance and keeps its own view
// of the conversation.
type Agent interface {
	Respond(ctx context.Context, incoming string) (string, error)
	History() *History
}

type Tutor struct {
	model   ChatModel
	history *History
}

func NewTutor(model ChatModel, sc *scenario.Scenario) *Tutor {
	return &Tutor{model: model, history: NewHistory(sc.Prompts.TutorSystem)}
}

// Respond sends the full history plus the student's utterance. The pair is
// committed to the history only when the call succeeds.
func (t *Tutor) Respond(ctx context.Context, incoming string) (string, error) {
	messages := append(t.history.Messages(), llm.Message{Role: llm.RoleUser, Content: incoming})

	resp, err := t.model.Chat(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("tutor turn failed: %w", err)
	}

	t.history.commit(incoming, resp.Content)
	logger.Debug("Tutor responded", zap.Int("history_len", t.history.Len()))
	return resp.Content, nil
}

func (t *Tutor) History() *History {
	return t.history
}

type Student struct {
	model   ChatModel
	profile persona.Profile
	problem string
	system  string
	turn    *template.Template
	history *History
}

type studentTurn struct {
	Profile  string
	Problem  string
	History  string
	Question string
}

// NewStudent picks the system instruction matching the profile variant and
// compiles the per-turn prompt template.
func NewStudent(model ChatModel, sc *scenario.Scenario, profile persona.Profile) (*Student, error) {
	var system string
	switch profile.(type) {
	case persona.FullProfile:
		system = sc.Prompts.StudentSystem
	case persona.SimplifiedProfile:
		system = sc.Prompts.SimplifiedStudentSystem
	default:
		return nil, fmt.Errorf("unsupported profile type %T", profile)
	}

	turn, err := template.New("studentTurn").Option("missingkey=error").Parse(sc.Prompts.StudentTurn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse student turn template: %w", err)
	}

	return &Student{
		model:   model,
		profile: profile,
		problem: strings.TrimSpace(sc.Problem),
		system:  system,
		turn:    turn,
		history: NewHistory(system),
	}, nil
}

// Respond renders persona, problem, the conversation so far and the tutor's
// question into a single user message sent under the student system prompt.
func (s *Student) Respond(ctx context.Context, incoming string) (string, error) {
	var prompt strings.Builder
	err := s.turn.Execute(&prompt, studentTurn{
		Profile:  persona.Render(s.profile),
		Problem:  s.problem,
		History:  s.history.transcript("Tutor", "Student"),
		Question: incoming,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render student turn: %w", err)
	}

	resp, err := s.model.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: s.system},
		{Role: llm.RoleUser, Content: prompt.String()},
	})
	if err != nil {
		return "", fmt.Errorf("student turn failed: %w", err)
	}

	s.history.commit(incoming, resp.Content)
	logger.Debug("Student responded", zap.Int("history_len", s.history.Len()))
	return resp.Content, nil
}

func (s *Student) History() *History {
	return s.history
}
