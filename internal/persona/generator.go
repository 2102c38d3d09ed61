package persona

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/scenario"
)

var ErrUnknownLabel = errors.New("unknown trait label")

// Selection pins trait dimensions for Full. Empty fields are drawn uniformly.
type Selection struct {
	Knowledge      string
	Engagement     string
	Confidence     string
	Expressiveness string
	Pacing         string
	Misconceptions []string
}

type Generator struct {
	traits         scenario.Traits
	misconceptions []string
}

func NewGenerator(sc *scenario.Scenario) *Generator {
	return &Generator{
		traits:         sc.Traits,
		misconceptions: append([]string(nil), sc.Misconceptions...),
	}
}

// Random draws every dimension independently and uniformly, which is a
// uniform draw over the Cartesian product of the label sets. It fails only
// when a trait table is empty.
func (g *Generator) Random(rng *rand.Rand) (FullProfile, error) {
	return g.Full(Selection{}, rng)
}

func (g *Generator) Full(sel Selection, rng *rand.Rand) (FullProfile, error) {
	var (
		p   FullProfile
		err error
	)
	if p.Knowledge, err = pick(g.traits.Knowledge, "knowledge", sel.Knowledge, rng); err != nil {
		return FullProfile{}, err
	}
	if p.Engagement, err = pick(g.traits.Engagement, "engagement", sel.Engagement, rng); err != nil {
		return FullProfile{}, err
	}
	if p.Confidence, err = pick(g.traits.Confidence, "confidence", sel.Confidence, rng); err != nil {
		return FullProfile{}, err
	}
	if p.Expressiveness, err = pick(g.traits.Expressiveness, "expressiveness", sel.Expressiveness, rng); err != nil {
		return FullProfile{}, err
	}
	if p.Pacing, err = pick(g.traits.Pacing, "pacing", sel.Pacing, rng); err != nil {
		return FullProfile{}, err
	}

	if sel.Misconceptions != nil {
		p.misconceptions = append([]string(nil), sel.Misconceptions...)
	} else {
		p.misconceptions = append([]string(nil), g.misconceptions...)
	}
	return p, nil
}

// Simplified builds the reduced profile. The traits text comes from the
// motivation table and falls back to the engagement description.
func (g *Generator) Simplified(knowledge, engagement string) (SimplifiedProfile, error) {
	k, err := lookup(g.traits.Knowledge, "knowledge", knowledge)
	if err != nil {
		return SimplifiedProfile{}, err
	}
	e, err := lookup(g.traits.Engagement, "engagement", engagement)
	if err != nil {
		return SimplifiedProfile{}, err
	}

	traits, ok := g.traits.MotivationTraits[e.Key]
	if !ok {
		traits = e.Description
	}
	return SimplifiedProfile{Knowledge: k, Engagement: e, Traits: traits}, nil
}

func pick(labels []scenario.Label, dimension, key string, rng *rand.Rand) (scenario.Label, error) {
	if key != "" {
		return lookup(labels, dimension, key)
	}
	if len(labels) == 0 {
		return scenario.Label{}, fmt.Errorf("%w: no %s labels to draw from", ErrUnknownLabel, dimension)
	}
	return labels[rng.IntN(len(labels))], nil
}

func lookup(labels []scenario.Label, dimension, key string) (scenario.Label, error) {
	desc, ok := scenario.Describe(labels, key)
	if !ok {
		return scenario.Label{}, fmt.Errorf("%w: %s %q (want one of %s)",
			ErrUnknownLabel, dimension, key, strings.Join(scenario.Keys(labels), ", "))
	}
	return scenario.Label{Key: key, Description: desc}, nil
}
