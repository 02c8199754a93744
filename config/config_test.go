package config

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powellquiring/wordleplayer/wordle"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "entropy", cfg.Solver.Strategy)
	assert.Equal(t, wordle.DefaultMaxTurns, cfg.Solver.MaxTurns)
	assert.Equal(t, runtime.NumCPU(), cfg.Batch.Workers)
	assert.Equal(t, 30*time.Second, cfg.GetRequestTimeout())
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wdl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
solver:
  strategy: frequency
  opener: crane
batch:
  workers: 3
server:
  cors_origins: [http://localhost:3000]
`), 0o644))
	t.Setenv("WDL_WORKERS", "5")
	t.Setenv("WDL_GUESS_POOL", "candidates")
	t.Setenv("WDL_PROGRESS", "true")
	t.Setenv("WDL_GAME_TTL", "1h")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("WDL_LOG_FORMAT", "console")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "frequency", cfg.Solver.Strategy)
	assert.Equal(t, "crane", cfg.Solver.Opener)
	assert.Equal(t, 5, cfg.Batch.Workers)
	assert.Equal(t, "candidates", cfg.Solver.GuessPool)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Batch.Progress)
	assert.Equal(t, time.Hour, cfg.GetGameTTL())
	// the WDL_ name is looked up first
	assert.Equal(t, "console", cfg.Log.Format)
	// untouched values keep their defaults
	assert.Equal(t, wordle.DefaultMaxTurns, cfg.Solver.MaxTurns)
	require.NoError(t, cfg.Validate())
}

func TestLoadEnvList(t *testing.T) {
	t.Setenv("WDL_CORS_ORIGINS", "http://a.example,http://b.example")
	t.Setenv("WDL_STRATEGY", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Server.CORSOrigins)
	// an empty variable does not override
	assert.Equal(t, "entropy", cfg.Solver.Strategy)
}

func TestLoadErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("solver: [\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)

	t.Setenv("WDL_MAX_TURNS", "six")
	_, err = Load("")
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "wdl.yaml")
	cfg := DefaultConfig()
	cfg.Solver.Strategy = "expected"
	require.NoError(t, cfg.Save(path))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"strategy", func(c *Config) { c.Solver.Strategy = "guess" }},
		{"pool", func(c *Config) { c.Solver.GuessPool = "some" }},
		{"max turns", func(c *Config) { c.Solver.MaxTurns = 0 }},
		{"workers", func(c *Config) { c.Batch.Workers = 0 }},
		{"timeout", func(c *Config) { c.Server.RequestTimeout = "soon" }},
		{"game ttl", func(c *Config) { c.Server.GameTTL = "forever" }},
		{"max games", func(c *Config) { c.Server.MaxGames = 0 }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSolver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Solver.Strategy = "expected"
	cfg.Solver.Opener = "raise"
	d, err := cfg.Dictionary()
	require.NoError(t, err)
	s, err := cfg.Solver(d)
	require.NoError(t, err)
	assert.Equal(t, "expected", s.Strategy().Name())
	guess, err := s.NextGuess(d.WordlistAll())
	require.NoError(t, err)
	assert.Equal(t, "raise", d.String(guess))

	cfg.Solver.Opener = "qqqqq"
	_, err = cfg.Solver(d)
	assert.ErrorIs(t, err, wordle.ErrInvalidGuess)
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DefaultConfig().Write(&buf))
	assert.Contains(t, buf.String(), "strategy: entropy")
	assert.Contains(t, buf.String(), "cors_origins:")
}

func TestFrequencySolver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "freq.csv")
	require.NoError(t, os.WriteFile(path, []byte("word,count\nslate,10\nraise,1\n"), 0o644))
	cfg := DefaultConfig()
	cfg.Solver.Strategy = "frequency"
	cfg.Words.FrequencyFile = path
	d, err := cfg.Dictionary()
	require.NoError(t, err)
	s, err := cfg.Solver(d)
	require.NoError(t, err)
	strategy, ok := s.Strategy().(wordle.FrequencyStrategy)
	require.True(t, ok)
	assert.InDelta(t, 10.0/11, strategy.Prior["slate"], 1e-9)

	cfg.Words.FrequencyFile = filepath.Join(t.TempDir(), "missing.csv")
	_, err = cfg.Solver(d)
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)
	var buf bytes.Buffer
	logger, err := NewLogger("warn", "json", &buf)
	require.NoError(t, err)
	logger.Info().Msg("hidden")
	logger.Warn().Str("word", "cigar").Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"word":"cigar"`)

	_, err = NewLogger("warn", "xml", &buf)
	assert.Error(t, err)
	_, err = NewLogger("loud", "json", &buf)
	assert.Error(t, err)
}
