package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/storage/models"
)

func TestExtractScores(t *testing.T) {
	undefined := models.Score{}

	tests := []struct {
		name  string
		reply string
		want  models.Triple
	}{
		{
			name:  "canonical order",
			reply: "Recall: 0.8\nPrecision: 0.65\nF1 Score: 0.71",
			want:  models.Triple{Recall: models.Defined(0.8), Precision: models.Defined(0.65), F1: models.Defined(0.71)},
		},
		{
			name:  "shuffled with extra spacing",
			reply: "F1 Score:   0.71\n\n  Precision:0.65\nSome commentary.\nRecall :\t0.8",
			want:  models.Triple{Recall: models.Defined(0.8), Precision: models.Defined(0.65), F1: models.Defined(0.71)},
		},
		{
			name:  "markdown bullets and bold",
			reply: "Scores:\n- **Recall:** 0.8\n- **Precision**: 0.65\n* F1 Score: **0.71**",
			want:  models.Triple{Recall: models.Defined(0.8), Precision: models.Defined(0.65), F1: models.Defined(0.71)},
		},
		{
			name:  "missing precision",
			reply: "Recall: 0.8\nF1 Score: 0.71",
			want:  models.Triple{Recall: models.Defined(0.8), Precision: undefined, F1: models.Defined(0.71)},
		},
		{
			name:  "malformed value",
			reply: "Recall: high\nPrecision: 0.65\nF1 Score: 0.71",
			want:  models.Triple{Recall: undefined, Precision: models.Defined(0.65), F1: models.Defined(0.71)},
		},
		{
			name:  "out of range",
			reply: "Recall: 85\nPrecision: 0.65\nF1 Score: 1.0",
			want:  models.Triple{Recall: undefined, Precision: models.Defined(0.65), F1: models.Defined(1.0)},
		},
		{
			name:  "label mid-sentence is not a verdict",
			reply: "The Recall: 0.9 figure is generous.\nPrecision: 0.5",
			want:  models.Triple{Recall: undefined, Precision: models.Defined(0.5), F1: undefined},
		},
		{
			name:  "leading dot decimal",
			reply: "Recall: .5\nPrecision: 0\nF1 Score: 1",
			want:  models.Triple{Recall: models.Defined(0.5), Precision: models.Defined(0), F1: models.Defined(1)},
		},
		{
			name:  "empty reply",
			reply: "",
			want:  models.Triple{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractScores(tt.reply))
		})
	}
}
