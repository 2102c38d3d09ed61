package evaluation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/cache/memory"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/llm"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/metrics"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/scenario"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/storage/models"
)

type fakeCompleter struct {
	reply    string
	err      error
	requests []llm.CompletionRequest
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.reply}, nil
}

// fakeEmbedder maps each text onto a bag-of-keywords vector.
type fakeEmbedder struct {
	calls int
	texts int
	err   error
}

var keywords = []string{"force", "equilibrium", "weight", "pile", "slab", "friction", "banana"}

func (f *fakeEmbedder) GenerateBatchEmbeddings(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	f.texts += len(texts)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, len(keywords))
		for j, k := range keywords {
			if strings.Contains(strings.ToLower(text), k) {
				vec[j] = 1
			}
		}
		out[i] = vec
	}
	return out, nil
}

func TestRubricJudgeIsStateless(t *testing.T) {
	sc := scenario.Default()
	model := &fakeCompleter{reply: "Recall: 0.8\nPrecision: 0.65\nF1 Score: 0.71"}
	judge, err := NewRubricJudge(model, sc)
	require.NoError(t, err)

	first, err := judge.Score(context.Background(), "summary one")
	require.NoError(t, err)
	second, err := judge.Score(context.Background(), "summary two")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, models.Defined(0.65), first.Precision)

	require.Len(t, model.requests, 2)
	for _, req := range model.requests {
		assert.Equal(t, sc.Prompts.JudgeSystem, req.SystemPrompt)
		assert.Contains(t, req.UserPrompt, "static equilibrium")
	}
	assert.Contains(t, model.requests[1].UserPrompt, "summary two")
	assert.NotContains(t, model.requests[1].UserPrompt, "summary one")
}

func TestRubricJudgeMalformedReply(t *testing.T) {
	judge, err := NewRubricJudge(&fakeCompleter{reply: "I cannot grade this."}, scenario.Default())
	require.NoError(t, err)

	got, err := judge.Score(context.Background(), "summary")
	require.NoError(t, err)
	assert.Equal(t, models.Triple{}, got)
}

func TestRubricJudgePropagatesTransportError(t *testing.T) {
	boom := errors.New("rate limited")
	judge, err := NewRubricJudge(&fakeCompleter{err: boom}, scenario.Default())
	require.NoError(t, err)

	_, err = judge.Score(context.Background(), "summary")
	require.ErrorIs(t, err, boom)
}

func TestScorersRejectUnsupportedLanguage(t *testing.T) {
	_, err := NewLexicalScorer("de")
	require.ErrorIs(t, err, ErrUnsupportedLanguage)

	_, err = NewEmbeddingScorer(&fakeEmbedder{}, nil, "m", "fr", nil)
	require.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestLexicalScorer(t *testing.T) {
	s, err := NewLexicalScorer("en")
	require.NoError(t, err)
	ctx := context.Background()

	same, err := s.Score(ctx, "The pile is in static equilibrium.", "The pile is in static equilibrium.")
	require.NoError(t, err)
	assert.Equal(t, models.Defined(1), same.F1)

	partial, err := s.Score(ctx, "friction balances weight", "the friction force balances the total weight")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, partial.Precision.Value, 1e-9)
	assert.InDelta(t, 3.0/7.0, partial.Recall.Value, 1e-9)
	assert.InDelta(t, 0.6, partial.F1.Value, 1e-9)

	clipped, err := s.Score(ctx, "pile pile pile pile", "pile slab")
	require.NoError(t, err)
	assert.InDelta(t, 0.25, clipped.Precision.Value, 1e-9)
	assert.InDelta(t, 0.5, clipped.Recall.Value, 1e-9)

	empty, err := s.Score(ctx, "  ", "reference")
	require.NoError(t, err)
	assert.Equal(t, models.Triple{}, empty)

	again, err := s.Score(ctx, "friction balances weight", "the friction force balances the total weight")
	require.NoError(t, err)
	assert.Equal(t, partial, again)
}

func TestEmbeddingScorerUsesCache(t *testing.T) {
	embedder := &fakeEmbedder{}
	cache := memory.New()
	m := metrics.New()
	s, err := NewEmbeddingScorer(embedder, cache, "text-embedding-3-large", "en", m)
	require.NoError(t, err)

	ref := "Use static equilibrium on a single pile. Add the slab weight."
	cand := "Balance the friction force on each pile. Bananas are yellow."

	first, err := s.Score(context.Background(), cand, ref)
	require.NoError(t, err)
	require.True(t, first.F1.Valid)
	assert.GreaterOrEqual(t, first.Precision.Value, 0.0)
	assert.LessOrEqual(t, first.Recall.Value, 1.0)
	assert.Equal(t, 1, embedder.calls)
	assert.Equal(t, 4, cache.Len())

	second, err := s.Score(context.Background(), cand, ref)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, embedder.calls, "second run is served from cache")
	assert.Equal(t, 4.0, testutil.ToFloat64(m.CacheHits.WithLabelValues("embedding")))
}

func TestEmbeddingScorerIdenticalTexts(t *testing.T) {
	s, err := NewEmbeddingScorer(&fakeEmbedder{}, nil, "m", "en", nil)
	require.NoError(t, err)

	text := "The friction force holds each pile. The slab adds weight."
	got, err := s.Score(context.Background(), text, text)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got.F1.Value, 1e-9)
}

func TestEmbeddingScorerPropagatesErrors(t *testing.T) {
	boom := errors.New("quota exceeded")
	s, err := NewEmbeddingScorer(&fakeEmbedder{err: boom}, nil, "m", "en", nil)
	require.NoError(t, err)

	_, err = s.Score(context.Background(), "a pile.", "a slab.")
	require.ErrorIs(t, err, boom)
}

func TestEvaluator(t *testing.T) {
	sc := scenario.Default()
	judge, err := NewRubricJudge(&fakeCompleter{reply: "Recall: 0.8\nF1 Score: 0.71"}, sc)
	require.NoError(t, err)
	lexical, err := NewLexicalScorer("en")
	require.NoError(t, err)
	m := metrics.New()

	e := NewEvaluator(judge, lexical, sc.Reference, m)

	got, err := e.Evaluate(context.Background(), models.RoleTutor, "Use static equilibrium to balance the weights against friction.")
	require.NoError(t, err)
	assert.False(t, got.Judge.Precision.Valid)
	assert.Equal(t, models.Defined(0.8), got.Judge.Recall)
	assert.True(t, got.Similarity.F1.Valid)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UndefinedScores.WithLabelValues("llm", "tutor", "precision")))
}

func TestEvaluatorEmptySummaryIsUndefined(t *testing.T) {
	model := &fakeCompleter{reply: "Recall: 1"}
	judge, err := NewRubricJudge(model, scenario.Default())
	require.NoError(t, err)
	lexical, err := NewLexicalScorer("en")
	require.NoError(t, err)

	got, err := NewEvaluator(judge, lexical, "reference", nil).Evaluate(context.Background(), models.RoleStudent, "")
	require.NoError(t, err)
	assert.Equal(t, models.RoleScores{}, got)
	assert.Empty(t, model.requests)
}

func TestEvaluatorPropagatesJudgeErrors(t *testing.T) {
	boom := errors.New("unauthorized")
	judge, err := NewRubricJudge(&fakeCompleter{err: boom}, scenario.Default())
	require.NoError(t, err)
	lexical, err := NewLexicalScorer("en")
	require.NoError(t, err)

	_, err = NewEvaluator(judge, lexical, "reference", nil).Evaluate(context.Background(), models.RoleTutor, "summary")
	require.ErrorIs(t, err, boom)
}
