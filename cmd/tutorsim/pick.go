package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/scenario"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/pkg/config"
)

type pickedProfile struct {
	Kind       string
	Knowledge  string
	Engagement string
}

// pickProfile asks the operator for the persona selectors.
func pickProfile(in io.Reader, out io.Writer, sc *scenario.Scenario) (*pickedProfile, error) {
	picked := pickedProfile{Kind: config.ProfileSimplified}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Profile kind").
				Options(
					huh.NewOption("simplified (knowledge + engagement)", config.ProfileSimplified),
					huh.NewOption("full (remaining traits drawn at random)", config.ProfileSelect),
				).
				Value(&picked.Kind),
			huh.NewSelect[string]().
				Title("Knowledge level").
				Options(labelOptions(sc.Traits.Knowledge)...).
				Value(&picked.Knowledge),
			huh.NewSelect[string]().
				Title("Engagement style").
				Options(labelOptions(sc.Traits.Engagement)...).
				Value(&picked.Engagement),
		),
	).
		WithInput(in).
		WithOutput(out)

	if !isTerminal(in) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("persona picker failed: %w", err)
	}
	return &picked, nil
}

func labelOptions(labels []scenario.Label) []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(labels))
	for _, l := range labels {
		opts = append(opts, huh.NewOption(l.Key+" - "+l.Description, l.Key))
	}
	return opts
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
