package wordle

import (
	"errors"
	"fmt"
	"slices"

	"github.com/powellquiring/wordleplayer/gowordle"
)

const DefaultMaxTurns = 6

type State int

const (
	AwaitingGuess State = iota
	AwaitingFeedback
	Solved
	Failed
)

func (s State) String() string {
	switch s {
	case AwaitingGuess:
		return "awaiting_guess"
	case AwaitingFeedback:
		return "awaiting_feedback"
	case Solved:
		return "solved"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Done is true for Solved and Failed
func (s State) Done() bool {
	return s == Solved || s == Failed
}

// Turn is a guess, the feedback it got and the number of candidates left after it.
type Turn struct {
	Guess     string
	Feedback  gowordle.Feedback
	Remaining int
}

// Game is one puzzle: the guesses so far and the solutions still consistent with them.
//
//	AwaitingGuess --NextGuess/Guess--> AwaitingFeedback
//	AwaitingFeedback --all correct--> Solved
//	AwaitingFeedback --turn == max--> Failed
//	AwaitingFeedback --otherwise--> AwaitingGuess
type Game struct {
	dict       *Dictionary
	solver     *Solver
	maxTurns   int
	state      State
	turn       int
	candidates *WordList
	history    []Turn
	pending    WordleWord
}

type GameOption func(*Game)

// WithMaxTurns changes the number of guesses allowed, values below 1 are ignored.
func WithMaxTurns(maxTurns int) GameOption {
	return func(g *Game) {
		if maxTurns >= 1 {
			g.maxTurns = maxTurns
		}
	}
}

func NewGame(solver *Solver, opts ...GameOption) *Game {
	ret := &Game{
		dict:       solver.dict,
		solver:     solver,
		maxTurns:   DefaultMaxTurns,
		state:      AwaitingGuess,
		candidates: solver.dict.WordlistAll(),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (g *Game) State() State {
	return g.state
}

// Turn is the number of guesses made
func (g *Game) Turn() int {
	return g.turn
}

func (g *Game) MaxTurns() int {
	return g.maxTurns
}

func (g *Game) History() []Turn {
	return slices.Clone(g.history)
}

func (g *Game) CandidateCount() int {
	return g.candidates.Len()
}

func (g *Game) Candidates() []string {
	return g.dict.WordlistStrings(g.candidates)
}

// Pending is the guess waiting for feedback.
func (g *Game) Pending() (string, bool) {
	if g.state != AwaitingFeedback {
		return "", false
	}
	return g.dict.String(g.pending), true
}

func (g *Game) expect(state State) error {
	if g.state != state {
		return fmt.Errorf("%w: game is %s, not %s", ErrWrongState, g.state, state)
	}
	return nil
}

// Suggest returns the solver's guess without playing it.
func (g *Game) Suggest() (string, error) {
	if err := g.expect(AwaitingGuess); err != nil {
		return "", err
	}
	guess, err := g.solver.NextGuess(g.candidates)
	if err != nil {
		return "", g.inconsistent(err)
	}
	return g.dict.String(guess), nil
}

// NextGuess plays the solver's guess.
func (g *Game) NextGuess() (string, error) {
	if err := g.expect(AwaitingGuess); err != nil {
		return "", err
	}
	guess, err := g.solver.NextGuess(g.candidates)
	if err != nil {
		return "", g.inconsistent(err)
	}
	g.commit(guess)
	return g.dict.String(guess), nil
}

// Guess plays a word chosen by the caller.  An invalid word returns ErrInvalidGuess and
// does not use up a turn.
func (g *Game) Guess(word string) error {
	if err := g.expect(AwaitingGuess); err != nil {
		return err
	}
	guess, err := g.dict.Validate(word)
	if err != nil {
		return err
	}
	g.commit(guess)
	return nil
}

func (g *Game) commit(guess WordleWord) {
	g.pending = guess
	g.turn++
	g.state = AwaitingFeedback
}

// Feedback records the answer to the pending guess and narrows the candidates.
func (g *Game) Feedback(feedback gowordle.Feedback) (State, error) {
	if err := g.expect(AwaitingFeedback); err != nil {
		return g.state, err
	}
	if len(feedback) != g.dict.wordLen {
		return g.state, fmt.Errorf("%w: %q has %d marks, want %d", ErrInvalidFeedback, feedback, len(feedback), g.dict.wordLen)
	}
	turn := Turn{Guess: g.dict.String(g.pending), Feedback: slices.Clone(feedback)}
	if feedback.Solved() {
		turn.Remaining = 1
		g.history = append(g.history, turn)
		g.candidates = g.dict.WordlistEmpty()
		if number, ok := g.dict.SolutionNumber(turn.Guess); ok {
			g.candidates.Insert(number)
		}
		g.state = Solved
		return g.state, nil
	}
	remaining := g.dict.Filter(g.candidates, g.pending, feedback)
	if remaining.Len() == 0 {
		// the game is unchanged, the guess still waits for its feedback
		return g.state, &InconsistencyError{History: append(g.History(), turn)}
	}
	turn.Remaining = remaining.Len()
	g.history = append(g.history, turn)
	g.candidates = remaining
	if g.turn >= g.maxTurns {
		g.state = Failed
	} else {
		g.state = AwaitingGuess
	}
	return g.state, nil
}

// Apply plays a guess and its feedback in one step, feedback is checked before the guess
// is played.  When the feedback is inconsistent the guess is taken back, so the pair can be
// sent again with corrected feedback.
func (g *Game) Apply(guess string, feedback gowordle.Feedback) (State, error) {
	if len(feedback) != g.dict.wordLen {
		return g.state, fmt.Errorf("%w: %q has %d marks, want %d", ErrInvalidFeedback, feedback, len(feedback), g.dict.wordLen)
	}
	if err := g.Guess(guess); err != nil {
		return g.state, err
	}
	state, err := g.Feedback(feedback)
	var inconsistency *InconsistencyError
	if errors.As(err, &inconsistency) {
		g.turn--
		g.state = AwaitingGuess
		return g.state, err
	}
	return state, err
}

// Play lets the solver play until the game is over against a known target.
func (g *Game) Play(target string) (State, error) {
	if _, ok := g.dict.SolutionNumber(target); !ok {
		return g.state, fmt.Errorf("%w: target %q is not a solution", ErrInvalidWord, target)
	}
	target = normalize(target)
	for !g.state.Done() {
		guess, err := g.NextGuess()
		if err != nil {
			return g.state, err
		}
		if _, err := g.Feedback(gowordle.Evaluate(guess, target)); err != nil {
			return g.state, err
		}
	}
	return g.state, nil
}

// the solver only fails when no candidate is left
func (g *Game) inconsistent(error) error {
	return &InconsistencyError{History: g.History()}
}
