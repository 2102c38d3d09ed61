package report

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/storage/models"
)

func row(profile, knowledge string, rounds int, tutorF1 models.Score) models.LogRow {
	return models.LogRow{
		ProfileKey: profile,
		Knowledge:  knowledge,
		Rounds:     rounds,
		Tutor:      models.RoleScores{Judge: models.Triple{F1: tutorF1}},
	}
}

func TestSummarizeByProfile(t *testing.T) {
	rows := []models.LogRow{
		row("1_lowMotivation", "1", 2, models.Defined(0.6)),
		row("1_lowMotivation", "1", 4, models.Defined(0.8)),
		row("1_lowMotivation", "1", 3, models.Score{}),
		row("5_highMotivation", "5", 6, models.Defined(0.9)),
	}

	groups, err := Summarize(rows, ByProfile)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	low := groups[0]
	assert.Equal(t, "1_lowMotivation", low.Key)
	assert.Equal(t, 3, low.Sessions)

	f1 := low.Stats["LLM_score_Tutor"]
	assert.Equal(t, 2, f1.N, "undefined scores are skipped")
	assert.InDelta(t, 0.7, f1.Mean, 1e-9)
	assert.InDelta(t, math.Sqrt(0.02)/math.Sqrt(2), f1.SEM, 1e-9)

	counter := low.Stats["conversation_counter"]
	assert.Equal(t, 3, counter.N)
	assert.InDelta(t, 3.0, counter.Mean, 1e-9)

	high := groups[1]
	assert.Equal(t, Stat{N: 1, Mean: 0.9}, high.Stats["LLM_score_Tutor"])
	assert.Equal(t, Stat{}, high.Stats["BERT_score_Student"])
}

func TestSummarizeByKnowledge(t *testing.T) {
	rows := []models.LogRow{
		row("a", "1", 1, models.Defined(0.1)),
		row("b", "1", 1, models.Defined(0.3)),
	}

	groups, err := Summarize(rows, ByKnowledge)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "1", groups[0].Key)
	assert.InDelta(t, 0.2, groups[0].Stats["LLM_score_Tutor"].Mean, 1e-9)
}

func TestMetricsStartAtCounter(t *testing.T) {
	assert.Equal(t, "conversation_counter", Metrics[0])
	assert.Equal(t, "BERT_score_Student", Metrics[len(Metrics)-1])
	assert.Len(t, Metrics, 15)
}
