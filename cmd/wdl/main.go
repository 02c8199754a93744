package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"runtime/pprof"
	"strconv"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3" // imports as package "cli"

	"github.com/powellquiring/wordleplayer/batch"
	"github.com/powellquiring/wordleplayer/config"
	"github.com/powellquiring/wordleplayer/gowordle"
	"github.com/powellquiring/wordleplayer/render"
	"github.com/powellquiring/wordleplayer/server"
	"github.com/powellquiring/wordleplayer/store"
	"github.com/powellquiring/wordleplayer/wordle"
)

type GlobalConfiguration struct {
	config     *config.Config
	dictionary *wordle.Dictionary
	solver     *wordle.Solver
	logger     zerolog.Logger
}

// globalConfiguration layers .env, the config file, the environment and the flags that were set.
func globalConfiguration(cmd *cli.Command) (*GlobalConfiguration, error) {
	// a missing .env is fine
	_ = godotenv.Load()
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if cmd.IsSet("solutions") {
		cfg.Words.SolutionsFile = cmd.String("solutions")
	}
	if cmd.IsSet("guesses") {
		cfg.Words.GuessesFile = cmd.String("guesses")
	}
	if cmd.IsSet("frequencies") {
		cfg.Words.FrequencyFile = cmd.String("frequencies")
	}
	if cmd.IsSet("strategy") {
		cfg.Solver.Strategy = cmd.String("strategy")
	}
	if cmd.IsSet("pool") {
		cfg.Solver.GuessPool = cmd.String("pool")
	}
	if cmd.IsSet("opener") {
		cfg.Solver.Opener = cmd.String("opener")
	}
	if cmd.IsSet("max-turns") {
		cfg.Solver.MaxTurns = cmd.Int("max-turns")
	}
	if cmd.IsSet("progress") {
		cfg.Batch.Progress = cmd.Bool("progress")
	}
	if cmd.IsSet("db") {
		cfg.Store.DatabasePath = cmd.String("db")
	}
	if cmd.IsSet("log-level") {
		cfg.Log.Level = cmd.String("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := config.NewLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return nil, err
	}
	d, err := cfg.Dictionary()
	if err != nil {
		return nil, err
	}
	solver, err := cfg.Solver(d)
	if err != nil {
		return nil, err
	}
	logger.Debug().
		Int("solutions", d.SolutionCount()).
		Int("words", d.Len()).
		Str("strategy", solver.Strategy().Name()).
		Msg("dictionary loaded")
	return &GlobalConfiguration{config: cfg, dictionary: d, solver: solver, logger: logger}, nil
}

func (g *GlobalConfiguration) newGame() *wordle.Game {
	return wordle.NewGame(g.solver, wordle.WithMaxTurns(g.config.Solver.MaxTurns))
}

// playWordle with guess/feedback pairs provided, prints the next guess and the possible words
func playWordle(g *GlobalConfiguration, pairs []string) error {
	game := g.newGame()
	for i := 0; i < len(pairs); i += 2 {
		feedback, err := gowordle.ParseFeedback(pairs[i+1])
		if err != nil {
			return err
		}
		if _, err := game.Apply(pairs[i], feedback); err != nil {
			return err
		}
	}
	if game.State() == wordle.Solved {
		fmt.Println("solved in", game.Turn())
		return nil
	}
	nextGuess, err := game.Suggest()
	if err != nil {
		return err
	}
	fmt.Print(nextGuess, ":")
	for _, word := range game.Candidates() {
		fmt.Print(" ", word)
	}
	fmt.Println()
	return nil
}

// solve plays one puzzle and prints the board and the share grid
func solve(g *GlobalConfiguration, puzzle *wordle.Puzzle) error {
	game := g.newGame()
	state, err := game.Play(puzzle.Target)
	if err != nil {
		return err
	}
	fmt.Println(puzzle)
	fmt.Println(render.Board(game.History()))
	fmt.Println()
	fmt.Print(render.ShareGrid(puzzle.Number, game.History(), state == wordle.Solved, game.MaxTurns()))
	return nil
}

// puzzleNumbers turns wordle numbers or solution words into wordle numbers
func puzzleNumbers(d *wordle.Dictionary, args []string) ([]int, error) {
	numbers := make([]int, 0, len(args))
	for _, arg := range args {
		if number, err := strconv.Atoi(arg); err == nil {
			numbers = append(numbers, number)
			continue
		}
		number, ok := d.SolutionNumber(arg)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a solution", wordle.ErrInvalidWord, arg)
		}
		numbers = append(numbers, number)
	}
	return numbers, nil
}

// randomPuzzle picks a solution weighted by the word frequencies, uniformly without them
func randomPuzzle(g *GlobalConfiguration, seed uint64) (*wordle.Puzzle, error) {
	freqs, err := g.config.Frequencies()
	if err != nil {
		return nil, err
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return g.dictionary.RandomPuzzle(rand.New(rand.NewPCG(seed, seed>>32)), freqs)
}

type simOptions struct {
	workers  int
	jsonPath string
	fromJSON string
	save     bool
	verbose  bool
}

func printReport(report *batch.Report, verbose bool) {
	if verbose {
		for _, result := range report.Results {
			fmt.Print(result.Number, " ", result.Target, ":")
			for _, guess := range result.Guesses {
				fmt.Print(" ", guess)
			}
			fmt.Println()
		}
		fmt.Println("---------------------")
	}
	fmt.Println(render.Histogram(report.Summary))
	fmt.Println(render.Summary(report.Summary))
}

// replay prints a report written by sim --json without playing the games again
func replay(path string, verbose bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	report, err := batch.ReadJSON(f)
	if err != nil {
		return err
	}
	printReport(report, verbose)
	return nil
}

func simulate(ctx context.Context, g *GlobalConfiguration, opts simOptions, args []string) error {
	if opts.fromJSON != "" {
		return replay(opts.fromJSON, opts.verbose)
	}
	numbers, err := puzzleNumbers(g.dictionary, args)
	if err != nil {
		return err
	}
	runner := batch.NewRunner(g.solver, g.logger)
	runner.MaxTurns = g.config.Solver.MaxTurns
	runner.Workers = g.config.Batch.Workers
	if opts.workers > 0 {
		runner.Workers = opts.workers
	}
	runner.Progress = g.config.Batch.Progress
	report, err := runner.Run(ctx, numbers)
	if err != nil {
		return err
	}
	printReport(report, opts.verbose)
	if opts.jsonPath != "" {
		f, err := os.Create(opts.jsonPath)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := report.WriteJSON(f); err != nil {
			return err
		}
	}
	if opts.save {
		runs, err := store.Open(g.config.Store.DatabasePath, g.logger)
		if err != nil {
			return err
		}
		defer runs.Close()
		id, err := runs.SaveRun(ctx, report)
		if err != nil {
			return err
		}
		fmt.Println("saved run", id)
	}
	return nil
}

// first prints the top scoring opening guesses
func first(g *GlobalConfiguration, top int) {
	d := g.dictionary
	for i, ws := range g.solver.SortedGuesses(d.WordlistAll()) {
		if top > 0 && i >= top {
			break
		}
		fmt.Println(d.String(ws.Value), ws.Score)
	}
}

func history(ctx context.Context, g *GlobalConfiguration, limit int, deletes []string) error {
	runs, err := store.Open(g.config.Store.DatabasePath, g.logger)
	if err != nil {
		return err
	}
	defer runs.Close()
	for _, id := range deletes {
		if err := runs.DeleteRun(ctx, id); err != nil {
			return err
		}
		fmt.Println("deleted run", id)
	}
	if len(deletes) > 0 {
		return nil
	}
	list, err := runs.Runs(ctx, limit)
	if err != nil {
		return err
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "STARTED", "STRATEGY", "GAMES", "SOLVED", "MEAN")
	for _, run := range list {
		t.Row(run.ID, run.Started.Local().Format(time.DateTime), run.Strategy,
			strconv.Itoa(run.Summary.Games), strconv.Itoa(run.Summary.Solved), fmt.Sprintf("%.3f", run.Summary.MeanSolved))
	}
	fmt.Println(t.Render())
	return nil
}

func serve(ctx context.Context, g *GlobalConfiguration, withRuns bool) error {
	opts := server.Options{
		CORSOrigins:    g.config.Server.CORSOrigins,
		RequestTimeout: g.config.GetRequestTimeout(),
		MaxTurns:       g.config.Solver.MaxTurns,
		MaxGames:       g.config.Server.MaxGames,
		GameTTL:        g.config.GetGameTTL(),
		Logger:         g.logger,
	}
	if withRuns {
		runs, err := store.Open(g.config.Store.DatabasePath, g.logger)
		if err != nil {
			return err
		}
		defer runs.Close()
		opts.Runs = runs
	}
	return server.New(g.solver, opts).ListenAndServe(ctx, g.config.Server.Addr)
}

func cpuProfile() func() {
	f, err := os.Create("cpu.prof")
	if err != nil {
		panic(err)
	}
	pprof.StartCPUProfile(f)
	return func() {
		pprof.StopCPUProfile()
		f.Close()
	}
}

func main() {
	var global *GlobalConfiguration
	stopProfile := func() {}
	// command specific flags
	sim := simOptions{}
	top := 0
	date := ""
	random := false
	seed := 0
	limit := 0
	withRuns := false

	cmd := &cli.Command{
		Name:  "wdl",
		Usage: "wordle",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "wdl.yaml",
				Usage:   "yaml config file, missing is fine",
				Sources: cli.EnvVars("WDL_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "solutions",
				Usage: "solutions word file (.txt, .json or .yaml), default is the embedded list",
			},
			&cli.StringFlag{
				Name:  "guesses",
				Usage: "extra guess word file, default is the embedded list",
			},
			&cli.StringFlag{
				Name:  "frequencies",
				Usage: "word frequency file (.csv, .json or .yaml) for the frequency strategy and --random",
			},
			&cli.StringFlag{
				Name:    "strategy",
				Aliases: []string{"s"},
				Usage:   "guess scoring: entropy, expected or frequency",
			},
			&cli.StringFlag{
				Name:  "pool",
				Usage: "guesses to score: all or candidates",
			},
			&cli.StringFlag{
				Name:    "opener",
				Aliases: []string{"first", "f"},
				Usage:   "first word to guess, default is the best scoring word",
			},
			&cli.IntFlag{
				Name:  "max-turns",
				Usage: "guesses allowed per game",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "sqlite database for saved runs",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
			&cli.BoolFlag{
				Name:    "progress",
				Aliases: []string{"p"},
				Usage:   "show progress bar",
			},
			&cli.BoolFlag{
				Name:  "profile",
				Usage: "store profile data to analyze",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			var err error
			if global, err = globalConfiguration(cmd); err != nil {
				return ctx, cli.Exit(err, 1)
			}
			if cmd.Bool("profile") {
				stopProfile = cpuProfile()
			}
			return ctx, nil
		},
		After: func(ctx context.Context, cmd *cli.Command) error {
			stopProfile()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name: "play",
				Usage: `play a game of wordle by entering pairs of [guess feedback]...
				https://www.nytimes.com/games/wordle/index.html
				feedback is r (gray), y (yellow), g (green) for each letter like rrggy
				`,
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.NArg()%2 != 0 {
						return cli.Exit("must have pairs of guess feedback", 1)
					} else if cmd.NArg() < 2 {
						return cli.Exit("must have at least one guess feedback", 2)
					}
					if err := playWordle(global, cmd.Args().Slice()); err != nil {
						return cli.Exit(err, 1)
					}
					return nil
				},
			},
			{
				Name:      "solve",
				Usage:     "solve one wordle, by number, by --date, --random or today's when none is given",
				ArgsUsage: "[number]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "date",
						Usage:       "YYYY-MM-DD",
						Destination: &date,
					},
					&cli.BoolFlag{
						Name:        "random",
						Usage:       "a random solution, common words are more likely with --frequencies",
						Destination: &random,
					},
					&cli.IntFlag{
						Name:        "seed",
						Usage:       "seed for --random, 0 is the clock",
						Destination: &seed,
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if random {
						puzzle, err := randomPuzzle(global, uint64(seed))
						if err != nil {
							return cli.Exit(err, 1)
						}
						if err := solve(global, puzzle); err != nil {
							return cli.Exit(err, 1)
						}
						return nil
					}
					number := wordle.NumberForDate(time.Now())
					switch {
					case cmd.NArg() > 0:
						n, err := strconv.Atoi(cmd.Args().First())
						if err != nil {
							return cli.Exit("wordle number must be an integer", 1)
						}
						number = n
					case date != "":
						t, err := time.Parse(time.DateOnly, date)
						if err != nil {
							return cli.Exit(err, 1)
						}
						number = wordle.NumberForDate(t)
					}
					puzzle, err := global.dictionary.Puzzle(number)
					if err != nil {
						return cli.Exit(err, 1)
					}
					if err := solve(global, puzzle); err != nil {
						return cli.Exit(err, 1)
					}
					return nil
				},
			},
			{
				Name: "sim",
				Usage: `sim [number|solution] ...
				Simulate a game for each wordle number or solution word.  If none are provided,
				simulate all solutions.  Prints the guess histogram and the averages.
				`,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:        "workers",
						Aliases:     []string{"w"},
						Usage:       "games played in parallel, default is the config value",
						Destination: &sim.workers,
					},
					&cli.StringFlag{
						Name:        "json",
						Usage:       "write the report to this file",
						Destination: &sim.jsonPath,
					},
					&cli.StringFlag{
						Name:        "from-json",
						Usage:       "print a report written by --json instead of playing",
						Destination: &sim.fromJSON,
					},
					&cli.BoolFlag{
						Name:        "save",
						Usage:       "save the run in the database",
						Destination: &sim.save,
					},
					&cli.BoolFlag{
						Name:        "verbose",
						Aliases:     []string{"v"},
						Usage:       "print the guesses of every game",
						Destination: &sim.verbose,
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
					defer cancel()
					if err := simulate(ctx, global, sim, cmd.Args().Slice()); err != nil {
						return cli.Exit(err, 1)
					}
					return nil
				},
			},
			{
				Name: "first",
				Usage: `first
				Sort first words by score, best first
				`,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:        "top",
						Aliases:     []string{"n"},
						Value:       20,
						Usage:       "number of words to print, 0 is all",
						Destination: &top,
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					first(global, top)
					return nil
				},
			},
			{
				Name:      "check",
				Usage:     "print the feedback for guesses against a wordle number",
				ArgsUsage: "number guess...",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.NArg() < 2 {
						return cli.Exit("must have a wordle number and at least one guess", 1)
					}
					number, err := strconv.Atoi(cmd.Args().First())
					if err != nil {
						return cli.Exit("wordle number must be an integer", 1)
					}
					puzzle, err := global.dictionary.Puzzle(number)
					if err != nil {
						return cli.Exit(err, 1)
					}
					for _, guess := range cmd.Args().Tail() {
						feedback, err := puzzle.Check(guess)
						if err != nil {
							return cli.Exit(err, 1)
						}
						fmt.Println(render.Tiles(guess, feedback), feedback)
					}
					return nil
				},
			},
			{
				Name:  "serve",
				Usage: "serve the json api",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "runs",
						Usage:       "serve saved runs from the database",
						Destination: &withRuns,
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
					defer cancel()
					if err := serve(ctx, global, withRuns); err != nil {
						return cli.Exit(err, 1)
					}
					return nil
				},
			},
			{
				Name:  "history",
				Usage: "list saved runs, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:        "limit",
						Value:       20,
						Destination: &limit,
					},
					&cli.StringSliceFlag{
						Name:  "delete",
						Usage: "delete the run with this id, may be repeated",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if err := history(ctx, global, limit, cmd.StringSlice("delete")); err != nil {
						return cli.Exit(err, 1)
					}
					return nil
				},
			},
			{
				Name:      "config",
				Usage:     "print the effective configuration as yaml, or write it to a file",
				ArgsUsage: "[path]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					var err error
					if cmd.NArg() > 0 {
						err = global.config.Save(cmd.Args().First())
					} else {
						err = global.config.Write(os.Stdout)
					}
					if err != nil {
						return cli.Exit(err, 1)
					}
					return nil
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
