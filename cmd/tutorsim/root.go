package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/pkg/config"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/pkg/logger"
)

var (
	configPath string
	logLevel   string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "tutorsim",
	Short: "Simulate Socratic physics tutoring sessions between two LLM agents",
	Long: `tutorsim pairs a Socratic physics tutor with a simulated student persona,
lets them talk until the operator or a round limit stops the session, then
asks both for a summary and scores the summaries with an LLM rubric judge and
a reference-similarity metric. Every session is appended as one CSV row.

Quick Start:
  tutorsim run                                   # interactive, random persona
  tutorsim run --mode fixed --rounds 2 \
    --profile simplified --knowledge 1 --engagement lowMotivation
  tutorsim personas sample --seed 7              # preview a persona
  tutorsim report ./data/student_tutor_sim.csv   # per-profile statistics`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			loaded.Logging.Level = logLevel
		}
		if err := logger.Init(loaded.Logging.Level, loaded.Logging.Format, loaded.Logging.OutputPath); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		cfg = loaded
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a tutorsim.yaml config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")
}
