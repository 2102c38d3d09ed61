package report

import (
	"fmt"
	"math"
	"sort"

	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/storage/models"
)

// firstMetric is the index in models.Header of the first numeric column.
const firstMetric = 10

// Metrics lists the numeric log columns that are aggregated, in log order.
var Metrics = models.Header[firstMetric:]

type GroupBy func(models.LogRow) string

var (
	ByProfile    GroupBy = func(r models.LogRow) string { return r.ProfileKey }
	ByKnowledge  GroupBy = func(r models.LogRow) string { return r.Knowledge }
	ByEngagement GroupBy = func(r models.LogRow) string { return r.Engagement }
)

// Stat is the mean and standard error of the mean over the defined values.
// SEM uses the sample standard deviation and is zero below two values.
type Stat struct {
	N    int
	Mean float64
	SEM  float64
}

type Group struct {
	Key      string
	Sessions int
	Stats    map[string]Stat
}

// Summarize aggregates rows per group. Undefined scores are skipped, never
// counted as zero.
func Summarize(rows []models.LogRow, by GroupBy) ([]Group, error) {
	values := map[string]map[string][]float64{}
	sessions := map[string]int{}

	for i, row := range rows {
		key := by(row)
		if values[key] == nil {
			values[key] = map[string][]float64{}
		}
		sessions[key]++

		cols := row.Columns()[firstMetric:]
		for j, cell := range cols {
			s, err := models.ParseScore(cell)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid %s: %w", i+1, Metrics[j], err)
			}
			if s.Valid {
				values[key][Metrics[j]] = append(values[key][Metrics[j]], s.Value)
			}
		}
	}

	groups := make([]Group, 0, len(values))
	for key, byMetric := range values {
		g := Group{Key: key, Sessions: sessions[key], Stats: make(map[string]Stat, len(Metrics))}
		for _, name := range Metrics {
			g.Stats[name] = describe(byMetric[name])
		}
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })

	return groups, nil
}

func describe(xs []float64) Stat {
	n := len(xs)
	if n == 0 {
		return Stat{}
	}

	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(n)
	if n < 2 {
		return Stat{N: n, Mean: mean}
	}

	var ss float64
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	sd := math.Sqrt(ss / float64(n-1))
	return Stat{N: n, Mean: mean, SEM: sd / math.Sqrt(float64(n))}
}
