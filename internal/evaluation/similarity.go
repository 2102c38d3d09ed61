package evaluation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"
	"go.uber.org/zap"

	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/metrics"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/storage/models"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/pkg/logger"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/pkg/utils"
)

var ErrUnsupportedLanguage = errors.New("unsupported language")

// SimilarityScorer compares a candidate against a reference text and returns
// precision, recall and F1 in [0,1]. Scores are undefined when either side
// has no content.
type SimilarityScorer interface {
	Name() string
	Score(ctx context.Context, candidate, reference string) (models.Triple, error)
}

type Embedder interface {
	GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

type Cache interface {
	GetEmbedding(ctx context.Context, key string) ([]float32, bool, error)
	SetEmbedding(ctx context.Context, key string, embedding []float32) error
}

func checkLanguage(lang string) error {
	if lang != "en" {
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
	return nil
}

// EmbeddingScorer splits both texts into sentences, embeds them and greedily
// matches each sentence to its most similar counterpart on the other side.
// Precision averages over candidate sentences, recall over reference
// sentences.
type EmbeddingScorer struct {
	embedder Embedder
	cache    Cache
	model    string
	metrics  *metrics.Metrics
}

func NewEmbeddingScorer(embedder Embedder, cache Cache, model, lang string, m *metrics.Metrics) (*EmbeddingScorer, error) {
	if err := checkLanguage(lang); err != nil {
		return nil, err
	}
	return &EmbeddingScorer{embedder: embedder, cache: cache, model: model, metrics: m}, nil
}

func (s *EmbeddingScorer) Name() string {
	return "embedding"
}

func (s *EmbeddingScorer) Score(ctx context.Context, candidate, reference string) (models.Triple, error) {
	cand, err := sentences(candidate)
	if err != nil {
		return models.Triple{}, err
	}
	ref, err := sentences(reference)
	if err != nil {
		return models.Triple{}, err
	}
	if len(cand) == 0 || len(ref) == 0 {
		return models.Triple{}, nil
	}

	vectors, err := s.embed(ctx, append(append([]string(nil), cand...), ref...))
	if err != nil {
		return models.Triple{}, err
	}
	candVecs, refVecs := vectors[:len(cand)], vectors[len(cand):]

	precision := greedyMatch(candVecs, refVecs)
	recall := greedyMatch(refVecs, candVecs)
	return triple(precision, recall), nil
}

// embed resolves vectors through the cache and fetches the misses in one
// batch. Cache failures are logged and treated as misses.
func (s *EmbeddingScorer) embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var (
		missing []string
		slots   []int
	)

	for i, text := range texts {
		if s.cache != nil {
			emb, ok, err := s.cache.GetEmbedding(ctx, utils.EmbeddingKey(s.model, text))
			if err != nil {
				logger.Warn("Embedding cache lookup failed", zap.Error(err))
			}
			s.metrics.CacheResult("embedding", ok)
			if ok {
				out[i] = emb
				continue
			}
		}
		missing = append(missing, text)
		slots = append(slots, i)
	}

	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := s.embedder.GenerateBatchEmbeddings(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("failed to embed summary segments: %w", err)
	}
	if len(fetched) != len(missing) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, expected %d", len(fetched), len(missing))
	}

	for j, emb := range fetched {
		out[slots[j]] = emb
		if s.cache != nil {
			if err := s.cache.SetEmbedding(ctx, utils.EmbeddingKey(s.model, missing[j]), emb); err != nil {
				logger.Warn("Embedding cache store failed", zap.Error(err))
			}
		}
	}
	return out, nil
}

func greedyMatch(from, to [][]float32) float64 {
	var total float64
	for _, a := range from {
		best := 0.0
		for _, b := range to {
			best = max(best, cosineSimilarity(a, b))
		}
		total += best
	}
	return total / float64(len(from))
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// LexicalScorer is the offline backend: clipped unigram overlap between the
// lower-cased word tokens of both texts.
type LexicalScorer struct{}

func NewLexicalScorer(lang string) (*LexicalScorer, error) {
	if err := checkLanguage(lang); err != nil {
		return nil, err
	}
	return &LexicalScorer{}, nil
}

func (s *LexicalScorer) Name() string {
	return "lexical"
}

func (s *LexicalScorer) Score(_ context.Context, candidate, reference string) (models.Triple, error) {
	cand, err := words(candidate)
	if err != nil {
		return models.Triple{}, err
	}
	ref, err := words(reference)
	if err != nil {
		return models.Triple{}, err
	}
	if len(cand) == 0 || len(ref) == 0 {
		return models.Triple{}, nil
	}

	refCounts := make(map[string]int, len(ref))
	for _, w := range ref {
		refCounts[w]++
	}

	overlap := 0
	for _, w := range cand {
		if refCounts[w] > 0 {
			refCounts[w]--
			overlap++
		}
	}

	return triple(float64(overlap)/float64(len(cand)), float64(overlap)/float64(len(ref))), nil
}

func triple(precision, recall float64) models.Triple {
	precision, recall = clamp(precision), clamp(recall)
	f1 := 0.0
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return models.Triple{
		Precision: models.Defined(precision),
		Recall:    models.Defined(recall),
		F1:        models.Defined(clamp(f1)),
	}
}

func clamp(v float64) float64 {
	return min(max(v, 0), 1)
}

func segment(text string) (*prose.Document, error) {
	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to segment text: %w", err)
	}
	return doc, nil
}

func sentences(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	doc, err := segment(text)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, s := range doc.Sentences() {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	return out, nil
}

func words(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	doc, err := segment(text)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, tok := range doc.Tokens() {
		if strings.IndexFunc(tok.Text, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) < 0 {
			continue
		}
		out = append(out, strings.ToLower(tok.Text))
	}
	return out, nil
}
