package wordle

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/powellquiring/wordleplayer/gowordle"
)

// FirstWordleDate is the date of wordle number 0
var FirstWordleDate = time.Date(2021, time.June, 19, 0, 0, 0, 0, time.UTC)

const day = 24 * time.Hour

// NumberForDate is the wordle number played on the calendar day of t.
func NumberForDate(t time.Time) int {
	date := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int(date.Sub(FirstWordleDate) / day)
}

func DateForNumber(number int) time.Time {
	return FirstWordleDate.AddDate(0, 0, number)
}

// Puzzle is a wordle number with a known target, it referees guesses.
type Puzzle struct {
	Number int
	Target string
	dict   *Dictionary
}

func (d *Dictionary) Puzzle(number int) (*Puzzle, error) {
	target, err := d.Solution(number)
	if err != nil {
		return nil, err
	}
	return &Puzzle{Number: number, Target: target, dict: d}, nil
}

// RandomPuzzle picks a solution with probability proportional to its weight, words without
// a weight are never picked.  With no positive weight every solution is equally likely.
func (d *Dictionary) RandomPuzzle(r *rand.Rand, weights map[string]float64) (*Puzzle, error) {
	total := 0.0
	for _, word := range d.solutionWords {
		total += max(weights[word], 0)
	}
	if total == 0 {
		return d.Puzzle(r.IntN(len(d.solutionWords)))
	}
	pick := r.Float64() * total
	last := 0
	for number, word := range d.solutionWords {
		weight := max(weights[word], 0)
		if weight == 0 {
			continue
		}
		last = number
		if pick < weight {
			break
		}
		pick -= weight
	}
	return d.Puzzle(last)
}

func (p *Puzzle) Date() time.Time {
	return DateForNumber(p.Number)
}

// Check returns the feedback for a guess, the guess must be in the dictionary.
func (p *Puzzle) Check(guess string) (gowordle.Feedback, error) {
	word, err := p.dict.Validate(guess)
	if err != nil {
		return nil, err
	}
	return gowordle.Evaluate(p.dict.String(word), p.Target), nil
}

func (p *Puzzle) String() string {
	return fmt.Sprintf("Wordle %d %s", p.Number, p.Date().Format(time.DateOnly))
}
