package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/agent"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/llm"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/metrics"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/persona"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/scenario"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/storage/models"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/pkg/logger"
)

type Scorer interface {
	Evaluate(ctx context.Context, role models.Role, summary string) (models.RoleScores, error)
}

type Sink interface {
	Append(row models.LogRow) error
}

type Deps struct {
	Scenario   *scenario.Scenario
	Profile    persona.Profile
	Tutor      agent.Agent
	Student    agent.Agent
	Evaluator  Scorer
	Sink       Sink
	Controller Controller
	Metrics    *metrics.Metrics
}

// Event is one utterance as it happens.
type Event struct {
	Role    models.Role
	Text    string
	Round   int
	Summary bool
}

type Options struct {
	// CountSummaryRound adds the summary utterance lengths to the length
	// accumulators. The round counter never includes the summary.
	CountSummaryRound bool
	OnStateChange     func(id string, from, to State)
	Observer          func(Event)
}

type Result struct {
	Row         models.LogRow
	Interrupted bool
}

// Session runs one tutoring dialogue from the opening line to the logged
// row. It is single-use.
type Session struct {
	id   string
	deps Deps
	opts Options

	ran         bool
	state       State
	acc         models.Accumulators
	interrupted bool
}

func New(deps Deps, opts Options) (*Session, error) {
	switch {
	case deps.Scenario == nil:
		return nil, errors.New("session requires a scenario")
	case deps.Profile == nil:
		return nil, errors.New("session requires a student profile")
	case deps.Tutor == nil || deps.Student == nil:
		return nil, errors.New("session requires both agents")
	case deps.Evaluator == nil:
		return nil, errors.New("session requires an evaluator")
	case deps.Sink == nil:
		return nil, errors.New("session requires a sink")
	case deps.Controller == nil:
		return nil, errors.New("session requires a controller")
	}

	return &Session{
		id:    uuid.New().String(),
		deps:  deps,
		opts:  opts,
		state: StateAwaitingStudentTurn,
	}, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) Accumulators() models.Accumulators {
	return s.acc
}

// Run drives the loop until the controller stops it or ctx is cancelled.
// Cancellation is an interrupt: the partial transcript is still summarised,
// scored and logged. Any other remote failure aborts the session.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	if s.ran {
		return nil, errors.New("session already ran")
	}
	s.ran = true

	logger.Info("Session started",
		zap.String("session_id", s.id),
		zap.String("profile", s.deps.Profile.Key()),
	)

	if err := s.converse(ctx); err != nil {
		s.deps.Metrics.ObserveSession("failed", s.acc.Rounds)
		logger.Error("Session aborted", zap.String("session_id", s.id), zap.Error(err))
		return nil, err
	}

	// summaries and scores must survive the interrupt that ended the loop
	finishCtx := context.WithoutCancel(ctx)

	s.transition(StateSummarizing)
	transcript := s.deps.Tutor.History().Messages()

	tutorSummary, studentSummary, err := s.summarize(finishCtx)
	if err != nil {
		s.deps.Metrics.ObserveSession("failed", s.acc.Rounds)
		return nil, err
	}

	s.transition(StateScoring)
	row, err := s.score(finishCtx, transcript, tutorSummary, studentSummary)
	if err != nil {
		s.deps.Metrics.ObserveSession("failed", s.acc.Rounds)
		return nil, err
	}

	if err := s.deps.Sink.Append(row); err != nil {
		s.deps.Metrics.ObserveSession("failed", s.acc.Rounds)
		return nil, fmt.Errorf("failed to log session: %w", err)
	}

	s.transition(StateDone)

	outcome := "completed"
	if s.interrupted {
		outcome = "interrupted"
	}
	s.deps.Metrics.ObserveSession(outcome, s.acc.Rounds)

	logger.Info("Session finished",
		zap.String("session_id", s.id),
		zap.String("outcome", outcome),
		zap.Int("rounds", s.acc.Rounds),
	)

	return &Result{Row: row, Interrupted: s.interrupted}, nil
}

func (s *Session) converse(ctx context.Context) error {
	incoming := s.deps.Scenario.Opening
	s.emit(Event{Role: models.RoleStudent, Text: incoming})

	for {
		if ctx.Err() != nil {
			return s.interrupt()
		}

		tutorOut, err := s.deps.Tutor.Respond(ctx, incoming)
		if err != nil {
			if ctx.Err() != nil {
				return s.interrupt()
			}
			return err
		}
		s.emit(Event{Role: models.RoleTutor, Text: tutorOut, Round: s.acc.Rounds + 1})
		s.transition(StateAwaitingTutorTurn)

		studentOut, err := s.deps.Student.Respond(ctx, tutorOut)
		if err != nil {
			if ctx.Err() != nil {
				return s.interrupt()
			}
			return err
		}

		s.acc.Rounds++
		s.acc.TutorChars += utf8.RuneCountInString(tutorOut)
		s.acc.StudentChars += utf8.RuneCountInString(studentOut)
		s.emit(Event{Role: models.RoleStudent, Text: studentOut, Round: s.acc.Rounds})
		s.transition(StateAwaitingStudentTurn)
		incoming = studentOut

		more, err := s.deps.Controller.Continue(ctx, s.acc.Rounds)
		if err != nil {
			if ctx.Err() != nil {
				return s.interrupt()
			}
			return fmt.Errorf("termination control failed: %w", err)
		}
		if !more {
			logger.Info("Session loop stopped", zap.String("session_id", s.id), zap.Int("rounds", s.acc.Rounds))
			return nil
		}
	}
}

func (s *Session) interrupt() error {
	s.interrupted = true
	logger.Warn("Session interrupted, moving to summary",
		zap.String("session_id", s.id),
		zap.Int("rounds", s.acc.Rounds),
	)
	return nil
}

func (s *Session) summarize(ctx context.Context) (string, string, error) {
	prompts := s.deps.Scenario.Prompts

	tutorSummary, err := s.deps.Tutor.Respond(ctx, prompts.TutorSummary)
	if err != nil {
		return "", "", fmt.Errorf("failed to get tutor summary: %w", err)
	}
	s.emit(Event{Role: models.RoleTutor, Text: tutorSummary, Summary: true})

	studentSummary, err := s.deps.Student.Respond(ctx, prompts.StudentSummary)
	if err != nil {
		return "", "", fmt.Errorf("failed to get student summary: %w", err)
	}
	s.emit(Event{Role: models.RoleStudent, Text: studentSummary, Summary: true})

	if s.opts.CountSummaryRound {
		s.acc.TutorChars += utf8.RuneCountInString(tutorSummary)
		s.acc.StudentChars += utf8.RuneCountInString(studentSummary)
	}

	return tutorSummary, studentSummary, nil
}

func (s *Session) score(ctx context.Context, transcript []llm.Message, tutorSummary, studentSummary string) (models.LogRow, error) {
	tutorScores, err := s.deps.Evaluator.Evaluate(ctx, models.RoleTutor, tutorSummary)
	if err != nil {
		return models.LogRow{}, err
	}
	studentScores, err := s.deps.Evaluator.Evaluate(ctx, models.RoleStudent, studentSummary)
	if err != nil {
		return models.LogRow{}, err
	}

	history, err := json.Marshal(transcript)
	if err != nil {
		return models.LogRow{}, fmt.Errorf("failed to encode transcript: %w", err)
	}

	cols := s.deps.Profile.Columns()
	return models.LogRow{
		SessionID:      s.id,
		ProfileKey:     s.deps.Profile.Key(),
		ChatHistory:    string(history),
		TutorSummary:   tutorSummary,
		StudentSummary: studentSummary,
		Engagement:     cols.Engagement,
		Knowledge:      cols.Knowledge,
		Expressiveness: cols.Expressiveness,
		Pacing:         cols.Pacing,
		Confidence:     cols.Confidence,
		Rounds:         s.acc.Rounds,
		TutorAverage:   s.acc.TutorAverage(),
		StudentAverage: s.acc.StudentAverage(),
		Tutor:          tutorScores,
		Student:        studentScores,
	}, nil
}

func (s *Session) transition(to State) {
	from := s.state
	if from == to {
		return
	}
	s.state = to

	logger.Debug("Session state changed",
		zap.String("session_id", s.id),
		zap.Stringer("from", from),
		zap.Stringer("to", to),
	)

	if s.opts.OnStateChange != nil {
		s.opts.OnStateChange(s.id, from, to)
	}
}

func (s *Session) emit(e Event) {
	if s.opts.Observer != nil {
		s.opts.Observer(e)
	}
}
