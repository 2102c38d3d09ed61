package scenario

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

var ErrInvalidScenario = errors.New("invalid scenario")

// Scenario is the immutable set of texts and trait tables a session runs
// against: the physics problem, the reference solution used for scoring and
// every prompt handed to the three models.
type Scenario struct {
	Name           string   `yaml:"name"`
	Problem        string   `yaml:"problem"`
	Reference      string   `yaml:"reference"`
	Opening        string   `yaml:"opening"`
	Misconceptions []string `yaml:"misconceptions"`
	Prompts        Prompts  `yaml:"prompts"`
	Traits         Traits   `yaml:"traits"`
}

type Prompts struct {
	TutorSystem             string `yaml:"tutorSystem"`
	StudentSystem           string `yaml:"studentSystem"`
	SimplifiedStudentSystem string `yaml:"simplifiedStudentSystem"`
	StudentTurn             string `yaml:"studentTurn"`
	JudgeSystem             string `yaml:"judgeSystem"`
	JudgeUser               string `yaml:"judgeUser"`
	TutorSummary            string `yaml:"tutorSummary"`
	StudentSummary          string `yaml:"studentSummary"`
}

type Label struct {
	Key         string `yaml:"key"`
	Description string `yaml:"description"`
}

type Traits struct {
	Knowledge        []Label           `yaml:"knowledge"`
	Engagement       []Label           `yaml:"engagement"`
	Confidence       []Label           `yaml:"confidence"`
	Expressiveness   []Label           `yaml:"expressiveness"`
	Pacing           []Label           `yaml:"pacing"`
	MotivationTraits map[string]string `yaml:"motivationTraits"`
}

// Default returns a fresh copy of the built-in Millennium Tower scenario.
func Default() *Scenario {
	s, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("built-in scenario is broken: %v", err))
	}
	return s
}

// Load reads a scenario override from disk. An empty path yields Default.
func Load(path string) (*Scenario, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scenario) Validate() error {
	required := map[string]string{
		"problem":                         s.Problem,
		"reference":                       s.Reference,
		"opening":                         s.Opening,
		"prompts.tutorSystem":             s.Prompts.TutorSystem,
		"prompts.studentSystem":           s.Prompts.StudentSystem,
		"prompts.simplifiedStudentSystem": s.Prompts.SimplifiedStudentSystem,
		"prompts.studentTurn":             s.Prompts.StudentTurn,
		"prompts.judgeSystem":             s.Prompts.JudgeSystem,
		"prompts.judgeUser":               s.Prompts.JudgeUser,
		"prompts.tutorSummary":            s.Prompts.TutorSummary,
		"prompts.studentSummary":          s.Prompts.StudentSummary,
	}
	for name, value := range required {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: %s cannot be empty", ErrInvalidScenario, name)
		}
	}

	tables := map[string][]Label{
		"traits.knowledge":      s.Traits.Knowledge,
		"traits.engagement":     s.Traits.Engagement,
		"traits.confidence":     s.Traits.Confidence,
		"traits.expressiveness": s.Traits.Expressiveness,
		"traits.pacing":         s.Traits.Pacing,
	}
	for name, labels := range tables {
		if len(labels) == 0 {
			return fmt.Errorf("%w: %s cannot be empty", ErrInvalidScenario, name)
		}
		seen := make(map[string]bool, len(labels))
		for _, l := range labels {
			if l.Key == "" {
				return fmt.Errorf("%w: %s has an empty key", ErrInvalidScenario, name)
			}
			if seen[l.Key] {
				return fmt.Errorf("%w: %s has duplicate key %q", ErrInvalidScenario, name, l.Key)
			}
			seen[l.Key] = true
		}
	}

	return nil
}

// Describe returns the description for key in labels.
func Describe(labels []Label, key string) (string, bool) {
	for _, l := range labels {
		if l.Key == key {
			return l.Description, true
		}
	}
	return "", false
}

func Keys(labels []Label) []string {
	keys := make([]string, len(labels))
	for i, l := range labels {
		keys[i] = l.Key
	}
	return keys
}
