package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/agent"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/cache/memory"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/cache/redis"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/evaluation"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/llm"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/metrics"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/persona"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/scenario"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/session"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/storage/csvlog"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/pkg/config"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/pkg/logger"
)

var (
	runMode         string
	runRounds       int
	runProfile      string
	runKnowledge    string
	runEngagement   string
	runSeed         int64
	runCountSummary bool
	runCSV          string
	runSimilarity   string
	runPick         bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one tutoring session and append it to the CSV log",
	Long: `Run one tutor/student session.

In interactive mode press Enter after each round to continue, or type 'z' to
stop. Ctrl-C at any point ends the conversation early; the partial transcript
is still summarised, scored and logged.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyRunFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		return runSession(cmd, cfg)
	},
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runMode, "mode", "", "Termination policy: interactive or fixed")
	f.IntVar(&runRounds, "rounds", 0, "Rounds to run in fixed mode")
	f.StringVar(&runProfile, "profile", "", "Persona mode: random, select or simplified")
	f.StringVar(&runKnowledge, "knowledge", "", "Knowledge level label (1-5)")
	f.StringVar(&runEngagement, "engagement", "", "Engagement style label")
	f.Int64Var(&runSeed, "seed", 0, "Seed for persona sampling (0 draws a fresh seed)")
	f.BoolVar(&runCountSummary, "count-summary", false, "Count summary utterances in the length averages")
	f.StringVar(&runCSV, "csv", "", "Session log path")
	f.StringVar(&runSimilarity, "similarity", "", "Similarity backend: embedding or lexical")
	f.BoolVar(&runPick, "pick", false, "Choose the persona interactively")
	rootCmd.AddCommand(runCmd)
}

func applyRunFlags(cmd *cobra.Command, c *config.Config) {
	f := cmd.Flags()
	if f.Changed("mode") {
		c.Session.Mode = runMode
	}
	if f.Changed("rounds") {
		c.Session.Rounds = runRounds
	}
	if f.Changed("profile") {
		c.Session.Profile = runProfile
	}
	if f.Changed("knowledge") {
		c.Session.KnowledgeLevel = runKnowledge
	}
	if f.Changed("engagement") {
		c.Session.EngagementStyle = runEngagement
	}
	if f.Changed("seed") {
		c.Session.Seed = runSeed
	}
	if f.Changed("count-summary") {
		c.Session.CountSummaryRound = runCountSummary
	}
	if f.Changed("csv") {
		c.Output.CSVPath = runCSV
	}
	if f.Changed("similarity") {
		c.Similarity.Backend = runSimilarity
	}
}

func runSession(cmd *cobra.Command, c *config.Config) error {
	out := cmd.OutOrStdout()
	m := metrics.New()
	defer func() {
		if err := m.WriteTextfile(c.Metrics.TextfilePath); err != nil {
			logger.Warn("Failed to export metrics", zap.Error(err))
		}
	}()

	sc, err := scenario.Load(c.Scenario.Path)
	if err != nil {
		return err
	}

	if runPick {
		picked, err := pickProfile(cmd.InOrStdin(), out, sc)
		if err != nil {
			return err
		}
		c.Session.Profile = picked.Kind
		c.Session.KnowledgeLevel = picked.Knowledge
		c.Session.EngagementStyle = picked.Engagement
	}

	profile, err := buildProfile(sc, c.Session)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, headerStyle.Render("Student persona "+profile.Key()))
	fmt.Fprintln(out, dimStyle.Render(persona.Render(profile)))
	fmt.Fprintln(out)

	tutorClient := newLLMClient("tutor", c.Tutor, "", m)
	studentClient := newLLMClient("student", c.Student, "", m)
	judgeClient := newLLMClient("judge", c.Judge, c.Similarity.EmbeddingModel, m)
	logger.Info("Models configured",
		zap.String("tutor", tutorClient.Model()),
		zap.String("student", studentClient.Model()),
		zap.String("judge", judgeClient.Model()),
	)

	tutor := agent.NewTutor(tutorClient, sc)
	student, err := agent.NewStudent(studentClient, sc, profile)
	if err != nil {
		return err
	}

	evaluator, closeCache, err := buildEvaluator(commandContext(cmd), c, sc, judgeClient, m)
	if err != nil {
		return err
	}
	defer closeCache()

	sink, err := csvlog.NewWriter(c.Output.CSVPath, m)
	if err != nil {
		return err
	}

	var controller session.Controller = session.FixedRounds{N: c.Session.Rounds}
	if c.Session.Mode == config.ModeInteractive {
		in := cmd.InOrStdin()
		if !isTerminal(in) {
			logger.Warn("Interactive mode without a terminal; end of input stops the session")
			fmt.Fprintln(out, warnStyle.Render("No terminal attached: end of input stops the session."))
		}
		controller = session.NewInteractive(in, out)
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		// a second Ctrl-C after the first kills the process
		<-ctx.Done()
		stop()
	}()

	s, err := session.New(session.Deps{
		Scenario:   sc,
		Profile:    profile,
		Tutor:      tutor,
		Student:    student,
		Evaluator:  evaluator,
		Sink:       sink,
		Controller: controller,
		Metrics:    m,
	}, session.Options{
		CountSummaryRound: c.Session.CountSummaryRound,
		Observer:          printEvents(out),
		OnStateChange: func(id string, from, to session.State) {
			if to == session.StateSummarizing {
				fmt.Fprintln(out, dimStyle.Render("Requesting summaries..."))
			}
			if to == session.StateScoring {
				fmt.Fprintln(out, dimStyle.Render("Scoring summaries..."))
			}
		},
	})
	if err != nil {
		return err
	}

	res, err := s.Run(ctx)
	if err != nil {
		return err
	}

	printResult(out, res)
	fmt.Fprintln(out, dimStyle.Render("Logged to "+sink.Path()))
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newLLMClient(role string, c config.LLMConfig, embeddingModel string, m *metrics.Metrics) *llm.Client {
	return llm.NewClient(llm.Options{
		Role:           role,
		APIKey:         c.APIKey,
		BaseURL:        c.BaseURL,
		Model:          c.Model,
		EmbeddingModel: embeddingModel,
		Temperature:    c.Temperature,
		MaxTokens:      c.MaxTokens,
		Timeout:        time.Duration(c.TimeoutSec) * time.Second,
		Metrics:        m,
	})
}

func buildProfile(sc *scenario.Scenario, s config.SessionConfig) (persona.Profile, error) {
	gen := persona.NewGenerator(sc)

	switch s.Profile {
	case config.ProfileSimplified:
		return gen.Simplified(s.KnowledgeLevel, s.EngagementStyle)
	case config.ProfileSelect:
		return gen.Full(persona.Selection{
			Knowledge:  s.KnowledgeLevel,
			Engagement: s.EngagementStyle,
		}, newRand(s.Seed))
	default:
		return gen.Random(newRand(s.Seed))
	}
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
}

func buildEvaluator(ctx context.Context, c *config.Config, sc *scenario.Scenario, judgeClient *llm.Client, m *metrics.Metrics) (*evaluation.Evaluator, func(), error) {
	judge, err := evaluation.NewRubricJudge(judgeClient, sc)
	if err != nil {
		return nil, nil, err
	}

	closeCache := func() {}
	var scorer evaluation.SimilarityScorer

	switch c.Similarity.Backend {
	case config.SimilarityLexical:
		scorer, err = evaluation.NewLexicalScorer(c.Similarity.Language)
	default:
		var cache evaluation.Cache = memory.New()
		if c.Redis.Enabled {
			rc, rerr := newRedisCache(ctx, c.Redis)
			if rerr != nil {
				return nil, nil, rerr
			}
			cache = rc
			closeCache = func() { _ = rc.Close() }
		}
		scorer, err = evaluation.NewEmbeddingScorer(judgeClient, cache, c.Similarity.EmbeddingModel, c.Similarity.Language, m)
	}
	if err != nil {
		closeCache()
		return nil, nil, err
	}

	return evaluation.NewEvaluator(judge, scorer, sc.Reference, m), closeCache, nil
}

func newRedisCache(ctx context.Context, r config.RedisConfig) (*redis.Client, error) {
	ttl := time.Duration(r.TTLHours) * time.Hour
	return redis.NewClient(ctx, r.Host, r.Port, r.Password, r.DB, ttl)
}
