package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/persona"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/scenario"
)

var (
	sampleProfile    string
	sampleKnowledge  string
	sampleEngagement string
	sampleSeed       int64
)

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "Inspect the student persona space",
}

var personasListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every trait dimension and its labels",
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := scenario.Load(cfg.Scenario.Path)
		if err != nil {
			return err
		}
		printTraits(cmd.OutOrStdout(), sc.Traits)
		return nil
	},
}

var personasSampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Generate a persona and print the block the student model sees",
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := scenario.Load(cfg.Scenario.Path)
		if err != nil {
			return err
		}

		s := cfg.Session
		f := cmd.Flags()
		if f.Changed("profile") {
			s.Profile = sampleProfile
		}
		if f.Changed("knowledge") {
			s.KnowledgeLevel = sampleKnowledge
		}
		if f.Changed("engagement") {
			s.EngagementStyle = sampleEngagement
		}
		if f.Changed("seed") {
			s.Seed = sampleSeed
		}

		profile, err := buildProfile(sc, s)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, headerStyle.Render(profile.Key()))
		fmt.Fprintln(out, persona.Render(profile))
		return nil
	},
}

func init() {
	f := personasSampleCmd.Flags()
	f.StringVar(&sampleProfile, "profile", "", "Persona mode: random, select or simplified")
	f.StringVar(&sampleKnowledge, "knowledge", "", "Knowledge level label (1-5)")
	f.StringVar(&sampleEngagement, "engagement", "", "Engagement style label")
	f.Int64Var(&sampleSeed, "seed", 0, "Seed for persona sampling (0 draws a fresh seed)")

	personasCmd.AddCommand(personasListCmd, personasSampleCmd)
	rootCmd.AddCommand(personasCmd)
}

func printTraits(out io.Writer, traits scenario.Traits) {
	dimensions := []struct {
		name   string
		labels []scenario.Label
	}{
		{"Knowledge", traits.Knowledge},
		{"Engagement", traits.Engagement},
		{"Confidence", traits.Confidence},
		{"Expressiveness", traits.Expressiveness},
		{"Pacing", traits.Pacing},
	}

	for _, d := range dimensions {
		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%s (%d)", d.name, len(d.labels))))
		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		for _, l := range d.labels {
			fmt.Fprintf(w, "  %s\t%s\n", titleStyle.Render(l.Key), l.Description)
		}
		_ = w.Flush()
		fmt.Fprintln(out)
	}
}
