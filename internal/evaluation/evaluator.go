package evaluation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/metrics"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/storage/models"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/pkg/logger"
)

// Evaluator runs both scoring paths against one summary. It holds no state
// between calls.
type Evaluator struct {
	judge      Judge
	similarity SimilarityScorer
	reference  string
	metrics    *metrics.Metrics
}

func NewEvaluator(judge Judge, similarity SimilarityScorer, reference string, m *metrics.Metrics) *Evaluator {
	return &Evaluator{
		judge:      judge,
		similarity: similarity,
		reference:  strings.TrimSpace(reference),
		metrics:    m,
	}
}

// Evaluate scores a role's summary. An empty summary yields undefined scores
// without any remote call; transport errors are returned.
func (e *Evaluator) Evaluate(ctx context.Context, role models.Role, summary string) (models.RoleScores, error) {
	var scores models.RoleScores
	if strings.TrimSpace(summary) == "" {
		logger.Warn("Empty summary, scores undefined", zap.String("role", string(role)))
		e.observe(role, scores)
		return scores, nil
	}

	logger.Info("Evaluating summary", zap.String("role", string(role)), zap.String("similarity", e.similarity.Name()))

	judged, err := e.judge.Score(ctx, summary)
	if err != nil {
		return models.RoleScores{}, fmt.Errorf("failed to judge %s summary: %w", role, err)
	}
	scores.Judge = judged

	similar, err := e.similarity.Score(ctx, summary, e.reference)
	if err != nil {
		return models.RoleScores{}, fmt.Errorf("failed to score %s summary similarity: %w", role, err)
	}
	scores.Similarity = similar

	e.observe(role, scores)

	logger.Info("Summary evaluated",
		zap.String("role", string(role)),
		zap.String("judge_f1", scores.Judge.F1.String()),
		zap.String("similarity_f1", scores.Similarity.F1.String()),
	)

	return scores, nil
}

func (e *Evaluator) observe(role models.Role, scores models.RoleScores) {
	for judge, t := range map[string]models.Triple{"llm": scores.Judge, e.similarity.Name(): scores.Similarity} {
		e.metrics.ObserveScore(judge, string(role), "precision", t.Precision.Value, t.Precision.Valid)
		e.metrics.ObserveScore(judge, string(role), "recall", t.Recall.Value, t.Recall.Valid)
		e.metrics.ObserveScore(judge, string(role), "f1", t.F1.Value, t.F1.Valid)
	}
}
