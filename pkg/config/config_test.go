package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "tutorsim.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, "gpt-4-turbo", cfg.Tutor.Model)
	assert.Equal(t, "claude-3-5-sonnet-20241022", cfg.Student.Model)
	assert.Equal(t, "https://api.anthropic.com/v1/", cfg.Student.BaseURL)
	assert.Equal(t, float32(0), cfg.Tutor.Temperature)
	assert.Equal(t, 1000, cfg.Judge.MaxTokens)
	assert.Equal(t, "sk-openai", cfg.Tutor.APIKey)
	assert.Equal(t, "sk-openai", cfg.Judge.APIKey)
	assert.Equal(t, "sk-ant", cfg.Student.APIKey)
	assert.Equal(t, ModeInteractive, cfg.Session.Mode)
	assert.Equal(t, ProfileRandom, cfg.Session.Profile)
	assert.False(t, cfg.Session.CountSummaryRound)
	assert.Equal(t, SimilarityEmbedding, cfg.Similarity.Backend)
	assert.Equal(t, "en", cfg.Similarity.Language)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadMissingKeysIsNotAnError(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Tutor.APIKey)
	assert.Empty(t, cfg.Student.APIKey)
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
session:
  mode: fixed
  rounds: 3
  profile: simplified
  knowledgeLevel: "1"
  engagementStyle: lowMotivation
  countSummaryRound: true
similarity:
  backend: lexical
output:
  csvPath: /tmp/out.csv
`)
	t.Setenv("TUTORSIM_SESSION_ROUNDS", "5")
	t.Setenv("TUTORSIM_TUTOR_MODEL", "gpt-4o")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ModeFixed, cfg.Session.Mode)
	assert.Equal(t, 5, cfg.Session.Rounds)
	assert.Equal(t, ProfileSimplified, cfg.Session.Profile)
	assert.Equal(t, "1", cfg.Session.KnowledgeLevel)
	assert.Equal(t, "lowMotivation", cfg.Session.EngagementStyle)
	assert.True(t, cfg.Session.CountSummaryRound)
	assert.Equal(t, SimilarityLexical, cfg.Similarity.Backend)
	assert.Equal(t, "/tmp/out.csv", cfg.Output.CSVPath)
	assert.Equal(t, "gpt-4o", cfg.Tutor.Model)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Tutor:      LLMConfig{Model: "m", MaxTokens: 10},
			Student:    LLMConfig{Model: "m", MaxTokens: 10},
			Judge:      LLMConfig{Model: "m", MaxTokens: 10},
			Similarity: SimilarityConfig{Backend: SimilarityLexical},
			Session:    SessionConfig{Mode: ModeInteractive, Profile: ProfileRandom},
			Output:     OutputConfig{CSVPath: "out.csv"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "fixed without rounds", mutate: func(c *Config) { c.Session.Mode = ModeFixed }, wantErr: "session.rounds"},
		{name: "unknown mode", mutate: func(c *Config) { c.Session.Mode = "auto" }, wantErr: "session.mode"},
		{name: "select draws unset selectors", mutate: func(c *Config) { c.Session.Profile = ProfileSelect }},
		{name: "select with one selector", mutate: func(c *Config) {
			c.Session.Profile = ProfileSelect
			c.Session.KnowledgeLevel = "4"
		}},
		{name: "simplified without selectors", mutate: func(c *Config) { c.Session.Profile = ProfileSimplified }, wantErr: "knowledgeLevel"},
		{name: "simplified without engagement", mutate: func(c *Config) {
			c.Session.Profile = ProfileSimplified
			c.Session.KnowledgeLevel = "4"
		}, wantErr: "engagementStyle"},
		{name: "unknown profile", mutate: func(c *Config) { c.Session.Profile = "weighted" }, wantErr: "session.profile"},
		{name: "unknown backend", mutate: func(c *Config) { c.Similarity.Backend = "bert" }, wantErr: "similarity.backend"},
		{name: "empty model", mutate: func(c *Config) { c.Judge.Model = "" }, wantErr: "judge.model"},
		{name: "zero max tokens", mutate: func(c *Config) { c.Student.MaxTokens = 0 }, wantErr: "student.maxTokens"},
		{name: "empty csv path", mutate: func(c *Config) { c.Output.CSVPath = "" }, wantErr: "output.csvPath"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
