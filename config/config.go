// Package config holds the settings shared by the command line and the server.
// Values come from the defaults, then an optional YAML file, then WDL_* environment
// variables bound with viper (a .env file is loaded by the command line), then command
// line flags.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/powellquiring/wordleplayer/wordle"
	"github.com/powellquiring/wordleplayer/words"
)

type Config struct {
	Words  WordsConfig  `yaml:"words" mapstructure:"words"`
	Solver SolverConfig `yaml:"solver" mapstructure:"solver"`
	Batch  BatchConfig  `yaml:"batch" mapstructure:"batch"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// WordsConfig names the word files, empty uses the embedded lists.
type WordsConfig struct {
	SolutionsFile string `yaml:"solutions_file" mapstructure:"solutions_file"`
	GuessesFile   string `yaml:"guesses_file" mapstructure:"guesses_file"`
	FrequencyFile string `yaml:"frequency_file" mapstructure:"frequency_file"` // word frequencies, csv or json
}

type SolverConfig struct {
	Strategy  string `yaml:"strategy" mapstructure:"strategy"`     // entropy, expected or frequency
	GuessPool string `yaml:"guess_pool" mapstructure:"guess_pool"` // all or candidates
	Opener    string `yaml:"opener" mapstructure:"opener"`         // fixed first guess, empty to score it
	MaxTurns  int    `yaml:"max_turns" mapstructure:"max_turns"`
}

type BatchConfig struct {
	Workers  int  `yaml:"workers" mapstructure:"workers"`
	Progress bool `yaml:"progress" mapstructure:"progress"`
}

type StoreConfig struct {
	DatabasePath string `yaml:"database_path" mapstructure:"database_path"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr" mapstructure:"addr"`
	CORSOrigins    []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	RequestTimeout string   `yaml:"request_timeout" mapstructure:"request_timeout"`
	MaxGames       int      `yaml:"max_games" mapstructure:"max_games"` // games kept in memory
	GameTTL        string   `yaml:"game_ttl" mapstructure:"game_ttl"`   // idle games older than this are dropped
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // console or json
}

func DefaultConfig() *Config {
	return &Config{
		Solver: SolverConfig{
			Strategy:  "entropy",
			GuessPool: "all",
			MaxTurns:  wordle.DefaultMaxTurns,
		},
		Batch: BatchConfig{
			Workers: runtime.NumCPU(),
		},
		Store: StoreConfig{
			DatabasePath: "./data/wdl.db",
		},
		Server: ServerConfig{
			Addr:           ":5175",
			CORSOrigins:    []string{"*"},
			RequestTimeout: "30s",
			MaxGames:       10000,
			GameTTL:        "24h",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// envKeys binds each setting to the environment variables that override it.
var envKeys = map[string][]string{
	"words.solutions_file":   {"WDL_SOLUTIONS_FILE"},
	"words.guesses_file":     {"WDL_GUESSES_FILE"},
	"words.frequency_file":   {"WDL_FREQUENCY_FILE"},
	"solver.strategy":        {"WDL_STRATEGY"},
	"solver.guess_pool":      {"WDL_GUESS_POOL"},
	"solver.opener":          {"WDL_OPENER"},
	"solver.max_turns":       {"WDL_MAX_TURNS"},
	"batch.workers":          {"WDL_WORKERS"},
	"batch.progress":         {"WDL_PROGRESS"},
	"store.database_path":    {"WDL_DB"},
	"server.addr":            {"WDL_ADDR"},
	"server.cors_origins":    {"WDL_CORS_ORIGINS"},
	"server.request_timeout": {"WDL_REQUEST_TIMEOUT"},
	"server.max_games":       {"WDL_MAX_GAMES"},
	"server.game_ttl":        {"WDL_GAME_TTL"},
	"log.level":              {"WDL_LOG_LEVEL", "LOG_LEVEL"},
	"log.format":             {"WDL_LOG_FORMAT", "LOG_FORMAT"},
}

// Load reads a YAML file over the defaults, then the environment over both.  An empty path
// or a missing file leaves the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())
	for key, env := range envKeys {
		if err := v.BindEnv(append([]string{key}, env...)...); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("words.solutions_file", d.Words.SolutionsFile)
	v.SetDefault("words.guesses_file", d.Words.GuessesFile)
	v.SetDefault("words.frequency_file", d.Words.FrequencyFile)
	v.SetDefault("solver.strategy", d.Solver.Strategy)
	v.SetDefault("solver.guess_pool", d.Solver.GuessPool)
	v.SetDefault("solver.opener", d.Solver.Opener)
	v.SetDefault("solver.max_turns", d.Solver.MaxTurns)
	v.SetDefault("batch.workers", d.Batch.Workers)
	v.SetDefault("batch.progress", d.Batch.Progress)
	v.SetDefault("store.database_path", d.Store.DatabasePath)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout)
	v.SetDefault("server.max_games", d.Server.MaxGames)
	v.SetDefault("server.game_ttl", d.Server.GameTTL)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Write writes the config as YAML, the format Load reads.
func (c *Config) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return enc.Close()
}

func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := c.Write(f); err != nil {
		return err
	}
	return f.Close()
}

// Validate checks the values that can be wrong before anything is loaded.
func (c *Config) Validate() error {
	if _, err := wordle.StrategyByName(c.Solver.Strategy); err != nil {
		return err
	}
	if _, err := wordle.ParseGuessPool(c.Solver.GuessPool); err != nil {
		return err
	}
	if c.Solver.MaxTurns < 1 {
		return fmt.Errorf("max turns must be at least 1, got %d", c.Solver.MaxTurns)
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Batch.Workers)
	}
	if _, err := time.ParseDuration(c.Server.RequestTimeout); err != nil {
		return fmt.Errorf("request timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.Server.GameTTL); err != nil {
		return fmt.Errorf("game ttl: %w", err)
	}
	if c.Server.MaxGames < 1 {
		return fmt.Errorf("max games must be at least 1, got %d", c.Server.MaxGames)
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	return nil
}

// GetRequestTimeout returns the server request timeout as a duration.
func (c *Config) GetRequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.RequestTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetGameTTL returns how long an idle server game is kept.
func (c *Config) GetGameTTL() time.Duration {
	d, err := time.ParseDuration(c.Server.GameTTL)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

func (c *Config) Sources() words.Sources {
	return words.Sources{SolutionsFile: c.Words.SolutionsFile, GuessesFile: c.Words.GuessesFile}
}

// Dictionary loads the configured word lists.
func (c *Config) Dictionary() (*wordle.Dictionary, error) {
	return words.Dictionary(c.Sources())
}

// Frequencies loads the word frequency file, nil when none is configured.
func (c *Config) Frequencies() (words.Frequencies, error) {
	if c.Words.FrequencyFile == "" {
		return nil, nil
	}
	return words.LoadFrequencies(c.Words.FrequencyFile)
}

// Solver builds a solver for the dictionary with the configured strategy, pool and opener.
// The frequency strategy gets the word frequencies as its prior when a file is configured.
func (c *Config) Solver(d *wordle.Dictionary) (*wordle.Solver, error) {
	strategy, err := wordle.StrategyByName(c.Solver.Strategy)
	if err != nil {
		return nil, err
	}
	if _, ok := strategy.(wordle.FrequencyStrategy); ok {
		freqs, err := c.Frequencies()
		if err != nil {
			return nil, err
		}
		strategy = wordle.NewFrequencyStrategy(freqs)
	}
	pool, err := wordle.ParseGuessPool(c.Solver.GuessPool)
	if err != nil {
		return nil, err
	}
	opts := []wordle.Option{wordle.WithStrategy(strategy), wordle.WithGuessPool(pool)}
	if c.Solver.Opener != "" {
		opts = append(opts, wordle.WithOpener(c.Solver.Opener))
	}
	return wordle.NewSolver(d, opts...)
}

// NewLogger builds the logger for level and format and installs it as the global logger.
// format is console for people and json for everything else.
func NewLogger(level, format string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level: %w", err)
	}
	out := w
	switch strings.ToLower(format) {
	case "console", "":
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	case "json":
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q, want console or json", format)
	}
	zerolog.SetGlobalLevel(lvl)
	logger := zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	log.Logger = logger
	return logger, nil
}
