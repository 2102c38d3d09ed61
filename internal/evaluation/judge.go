package evaluation

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/llm"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/scenario"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/storage/models"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/pkg/logger"
)

type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)
}

// Judge scores a candidate summary. Implementations hold no per-call state.
type Judge interface {
	Score(ctx context.Context, candidate string) (models.Triple, error)
}

// RubricJudge asks a language model to grade a summary against the scenario
// reference. Every call is a fresh two-message request.
type RubricJudge struct {
	model     Completer
	system    string
	user      *template.Template
	reference string
}

type judgePrompt struct {
	Reference string
	Summary   string
}

func NewRubricJudge(model Completer, sc *scenario.Scenario) (*RubricJudge, error) {
	user, err := template.New("judgeUser").Option("missingkey=error").Parse(sc.Prompts.JudgeUser)
	if err != nil {
		return nil, fmt.Errorf("failed to parse judge template: %w", err)
	}
	return &RubricJudge{
		model:     model,
		system:    sc.Prompts.JudgeSystem,
		user:      user,
		reference: strings.TrimSpace(sc.Reference),
	}, nil
}

func (j *RubricJudge) Score(ctx context.Context, candidate string) (models.Triple, error) {
	var prompt strings.Builder
	if err := j.user.Execute(&prompt, judgePrompt{Reference: j.reference, Summary: candidate}); err != nil {
		return models.Triple{}, fmt.Errorf("failed to render judge prompt: %w", err)
	}

	resp, err := j.model.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: j.system,
		UserPrompt:   prompt.String(),
	})
	if err != nil {
		return models.Triple{}, fmt.Errorf("failed to get rubric verdict: %w", err)
	}

	scores := ExtractScores(resp.Content)
	if !scores.Precision.Valid || !scores.Recall.Valid || !scores.F1.Valid {
		logger.Warn("Rubric verdict incomplete", zap.String("reply", resp.Content))
	}
	return scores, nil
}
