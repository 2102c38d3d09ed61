package csvlog

import (
	"encoding/csv"
	"fmt"
	"os"
	"slices"
	"strconv"

	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/storage/models"
)

// LoadRows reads every row of a session log. Files written before the
// session_id column existed are accepted and yield empty session IDs.
func LoadRows(path string) ([]models.LogRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	offset := 0
	switch header := records[0]; {
	case slices.Equal(header, models.Header):
	case slices.Equal(header, models.Header[1:]):
		offset = 1
	default:
		return nil, fmt.Errorf("%w: unrecognised header with %d columns", ErrColumnMismatch, len(header))
	}

	rows := make([]models.LogRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		if offset == 1 {
			rec = append([]string{""}, rec...)
		}
		row, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRecord(rec []string) (models.LogRow, error) {
	if len(rec) != len(models.Header) {
		return models.LogRow{}, fmt.Errorf("%w: got %d, want %d", ErrColumnMismatch, len(rec), len(models.Header))
	}

	row := models.LogRow{
		SessionID:      rec[0],
		ProfileKey:     rec[1],
		ChatHistory:    rec[2],
		TutorSummary:   rec[3],
		StudentSummary: rec[4],
		Engagement:     rec[5],
		Knowledge:      rec[6],
		Expressiveness: rec[7],
		Pacing:         rec[8],
		Confidence:     rec[9],
	}

	ints := []*int{&row.Rounds, &row.TutorAverage, &row.StudentAverage}
	for i, dst := range ints {
		v, err := strconv.Atoi(rec[10+i])
		if err != nil {
			return models.LogRow{}, fmt.Errorf("invalid %s: %w", models.Header[10+i], err)
		}
		*dst = v
	}

	triples := []*models.Triple{&row.Tutor.Judge, &row.Tutor.Similarity, &row.Student.Judge, &row.Student.Similarity}
	col := 13
	for _, t := range triples {
		for _, dst := range []*models.Score{&t.Precision, &t.Recall, &t.F1} {
			s, err := models.ParseScore(rec[col])
			if err != nil {
				return models.LogRow{}, fmt.Errorf("invalid %s: %w", models.Header[col], err)
			}
			*dst = s
			col++
		}
	}

	return row, nil
}
