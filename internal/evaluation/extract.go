package evaluation

import (
	"regexp"
	"strconv"

	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/storage/models"
)

// Each pattern is anchored to the start of a line and tolerates list bullets,
// headings and bold/italic markers around the label.
var (
	recallPattern    = scorePattern(`(?:Information\s+)?Recall`)
	precisionPattern = scorePattern(`(?:Information\s+)?Precision`)
	f1Pattern        = scorePattern(`F1(?:\s+Score)?`)
)

func scorePattern(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?mi)^[ \t>#*_-]*` + label + `[ \t*_]*:[ \t*_]*([0-9]*\.?[0-9]+)\b`)
}

// ExtractScores pulls the rubric verdict out of a judge reply. A missing,
// malformed or out-of-range value leaves that score undefined.
func ExtractScores(reply string) models.Triple {
	return models.Triple{
		Precision: match(precisionPattern, reply),
		Recall:    match(recallPattern, reply),
		F1:        match(f1Pattern, reply),
	}
}

func match(re *regexp.Regexp, text string) models.Score {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return models.Score{}
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v < 0 || v > 1 {
		return models.Score{}
	}
	return models.Defined(v)
}
