// Package batch plays many puzzles in parallel and summarizes how the solver did.
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/powellquiring/wordleplayer/wordle"
)

// Result is one game played against a known target.
type Result struct {
	Number   int           `json:"number"`
	Target   string        `json:"target"`
	Guesses  []string      `json:"guesses"`
	Feedback []string      `json:"feedback"`
	Turns    int           `json:"turns"`
	Solved   bool          `json:"solved"`
	Elapsed  time.Duration `json:"elapsed_ns"`
}

type Report struct {
	Strategy string        `json:"strategy"`
	MaxTurns int           `json:"max_turns"`
	Started  time.Time     `json:"started"`
	Elapsed  time.Duration `json:"elapsed_ns"`
	Summary  Summary       `json:"summary"`
	Results  []Result      `json:"results"`
}

// Runner plays the solver against puzzles, Workers games at a time.
type Runner struct {
	Solver   *wordle.Solver
	Workers  int  // defaults to the number of CPUs
	MaxTurns int  // defaults to wordle.DefaultMaxTurns
	Progress bool // show a progress bar on stderr
	Logger   zerolog.Logger
}

func NewRunner(solver *wordle.Solver, logger zerolog.Logger) *Runner {
	return &Runner{
		Solver:   solver,
		Workers:  runtime.NumCPU(),
		MaxTurns: wordle.DefaultMaxTurns,
		Logger:   logger,
	}
}

// Run plays every wordle number in numbers, all of the solutions when numbers is empty.
// Results are in the order of numbers.  The first game that fails with an error stops the
// run and the error is returned.
func (r *Runner) Run(ctx context.Context, numbers []int) (*Report, error) {
	d := r.Solver.Dictionary()
	if len(numbers) == 0 {
		numbers = make([]int, d.SolutionCount())
		for i := range numbers {
			numbers[i] = i
		}
	}
	targets := make([]string, len(numbers))
	for i, number := range numbers {
		target, err := d.Solution(number)
		if err != nil {
			return nil, err
		}
		targets[i] = target
	}
	workers := r.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	maxTurns := r.MaxTurns
	if maxTurns < 1 {
		maxTurns = wordle.DefaultMaxTurns
	}

	advance := func() {}
	if r.Progress {
		bar := progressbar.Default(int64(len(numbers)), "playing")
		advance = func() { _ = bar.Add(1) }
		defer func() { _ = bar.Finish() }()
	}

	report := &Report{
		Strategy: r.Solver.Strategy().Name(),
		MaxTurns: maxTurns,
		Started:  time.Now(),
		Results:  make([]Result, len(numbers)),
	}
	r.Logger.Info().Int("games", len(numbers)).Int("workers", workers).Str("strategy", report.Strategy).Msg("batch started")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range numbers {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := r.play(numbers[i], targets[i], maxTurns)
			if err != nil {
				return err
			}
			report.Results[i] = result
			advance()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.Logger.Error().Err(err).Msg("batch stopped")
		return nil, err
	}
	// Wait cancels gctx, a cancel by the caller shows on ctx
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	report.Elapsed = time.Since(report.Started)
	report.Summary = Summarize(report.Results, maxTurns, report.Elapsed)
	r.Logger.Info().
		Int("games", report.Summary.Games).
		Int("solved", report.Summary.Solved).
		Float64("mean", report.Summary.MeanSolved).
		Dur("elapsed", report.Elapsed).
		Msg("batch done")
	return report, nil
}

func (r *Runner) play(number int, target string, maxTurns int) (Result, error) {
	start := time.Now()
	game := wordle.NewGame(r.Solver, wordle.WithMaxTurns(maxTurns))
	state, err := game.Play(target)
	if err != nil {
		return Result{}, fmt.Errorf("wordle %d %s: %w", number, target, err)
	}
	result := Result{
		Number:  number,
		Target:  target,
		Turns:   game.Turn(),
		Solved:  state == wordle.Solved,
		Elapsed: time.Since(start),
	}
	for _, turn := range game.History() {
		result.Guesses = append(result.Guesses, turn.Guess)
		result.Feedback = append(result.Feedback, turn.Feedback.String())
	}
	r.Logger.Debug().Int("number", number).Str("target", target).Strs("guesses", result.Guesses).Bool("solved", result.Solved).Msg("game")
	return result, nil
}

// WriteJSON writes the report as indented json.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func ReadJSON(rd io.Reader) (*Report, error) {
	ret := &Report{}
	if err := json.NewDecoder(rd).Decode(ret); err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	return ret, nil
}
