package wordle

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	mapset "github.com/deckarep/golang-set"

	"github.com/powellquiring/wordleplayer/gowordle"
)

// Strategy scores guesses against a candidate set.  Lower scores are better.
type Strategy interface {
	Name() string
	// Scorer prepares the per candidate set tables.  The returned function is used by one
	// goroutine at a time.
	Scorer(d *Dictionary, candidates []int) func(guess WordleWord) float64
}

// EntropyStrategy scores a guess by the information it is expected to reveal: the
// entropy of the partition of the candidates by the feedback the guess would get.
type EntropyStrategy struct{}

func (EntropyStrategy) Name() string { return "entropy" }

func (EntropyStrategy) Scorer(d *Dictionary, candidates []int) func(guess WordleWord) float64 {
	counts := make([]int, gowordle.PatternCount(d.wordLen))
	touched := make([]gowordle.Pattern, 0, len(counts))
	n := float64(len(candidates))
	return func(guess WordleWord) float64 {
		row := d.patternRow(guess)
		touched = touched[:0]
		for _, solution := range candidates {
			p := row[solution]
			if counts[p] == 0 {
				touched = append(touched, p)
			}
			counts[p]++
		}
		// H = log2(n) - sum(k log2 k)/n
		sum := 0.0
		for _, p := range touched {
			k := float64(counts[p])
			sum += k * math.Log2(k)
			counts[p] = 0
		}
		return -(math.Log2(n) - sum/n)
	}
}

// ExpectedSizeStrategy scores a guess by the expected number of candidates left after it,
// the sum over the solutions of the number of candidates giving the same answer.
type ExpectedSizeStrategy struct{}

func (ExpectedSizeStrategy) Name() string { return "expected" }

func (ExpectedSizeStrategy) Scorer(d *Dictionary, candidates []int) func(guess WordleWord) float64 {
	counts := make([]int, gowordle.PatternCount(d.wordLen))
	touched := make([]gowordle.Pattern, 0, len(counts))
	n := float64(len(candidates))
	return func(guess WordleWord) float64 {
		row := d.patternRow(guess)
		touched = touched[:0]
		for _, solution := range candidates {
			p := row[solution]
			if counts[p] == 0 {
				touched = append(touched, p)
			}
			counts[p]++
		}
		score := 0
		for _, p := range touched {
			score += counts[p] * counts[p]
			counts[p] = 0
		}
		return float64(score) / n
	}
}

// FrequencyStrategy favors guesses made of letters common at their position among the
// candidates, weighted by the number of distinct letters.  With Prior set, how common the
// word is in English is added on top, so of two equally good guesses the familiar one wins.
type FrequencyStrategy struct {
	Prior map[string]float64 // word frequencies summing to 1, see NewFrequencyStrategy
}

// NewFrequencyStrategy scales the word counts so they sum to 1.
func NewFrequencyStrategy(counts map[string]float64) FrequencyStrategy {
	total := 0.0
	for _, count := range counts {
		total += count
	}
	if total == 0 {
		return FrequencyStrategy{}
	}
	prior := make(map[string]float64, len(counts))
	for word, count := range counts {
		prior[word] = count / total
	}
	return FrequencyStrategy{Prior: prior}
}

func (FrequencyStrategy) Name() string { return "frequency" }

func (fs FrequencyStrategy) Scorer(d *Dictionary, candidates []int) func(guess WordleWord) float64 {
	freq := make([][26]int, d.wordLen)
	for _, solution := range candidates {
		word := d.solutionWords[solution]
		for i := 0; i < len(word); i++ {
			freq[i][word[i]-'a']++
		}
	}
	maxFreq := 1
	for i := range freq {
		for _, f := range freq[i] {
			maxFreq = max(maxFreq, f)
		}
	}
	return func(guess WordleWord) float64 {
		word := d.words[guess]
		letters := mapset.NewThreadUnsafeSet()
		score := 0.0
		for i := 0; i < len(word); i++ {
			score += float64(freq[i][word[i]-'a']) / float64(maxFreq)
			letters.Add(word[i])
		}
		return -((score/float64(len(word)))*float64(letters.Cardinality()) + fs.Prior[word])
	}
}

var strategies = []Strategy{EntropyStrategy{}, ExpectedSizeStrategy{}, FrequencyStrategy{}}

// StrategyByName looks up entropy, expected or frequency.
func StrategyByName(name string) (Strategy, error) {
	for _, strategy := range strategies {
		if strategy.Name() == strings.ToLower(name) {
			return strategy, nil
		}
	}
	return nil, fmt.Errorf("unknown strategy %q, want one of %s", name, strings.Join(StrategyNames(), ", "))
}

func StrategyNames() []string {
	ret := make([]string, len(strategies))
	for i, strategy := range strategies {
		ret[i] = strategy.Name()
	}
	return ret
}

// GuessPool selects the words considered as guesses.
type GuessPool int

const (
	GuessPoolAll        GuessPool = iota // every valid guess
	GuessPoolCandidates                  // only the remaining candidates
)

func ParseGuessPool(s string) (GuessPool, error) {
	switch strings.ToLower(s) {
	case "", "all":
		return GuessPoolAll, nil
	case "candidates":
		return GuessPoolCandidates, nil
	}
	return 0, fmt.Errorf("unknown guess pool %q, want all or candidates", s)
}

type WordScore struct {
	Value     WordleWord
	Score     float64 // The priority of the item lower is better.
	Candidate bool    // the guess could be the solution
}

// better is the tie break: lower score, then a guess that could be the solution, then the
// lower index which is the alphabetically first word.
func (ws WordScore) better(other WordScore) bool {
	if ws.Score != other.Score {
		return ws.Score < other.Score
	}
	if ws.Candidate != other.Candidate {
		return ws.Candidate
	}
	return ws.Value < other.Value
}

// Solver picks the next guess for a set of candidates.  It is safe for concurrent use.
type Solver struct {
	dict     *Dictionary
	strategy Strategy
	pool     GuessPool
	opener   string

	openingOnce  sync.Once
	openingGuess WordleWord
}

type Option func(*Solver)

func WithStrategy(strategy Strategy) Option {
	return func(s *Solver) { s.strategy = strategy }
}

func WithGuessPool(pool GuessPool) Option {
	return func(s *Solver) { s.pool = pool }
}

// WithOpener fixes the first guess instead of scoring the whole dictionary.
func WithOpener(word string) Option {
	return func(s *Solver) { s.opener = word }
}

func NewSolver(d *Dictionary, opts ...Option) (*Solver, error) {
	ret := &Solver{dict: d, strategy: EntropyStrategy{}}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.opener != "" {
		opener, err := d.Validate(ret.opener)
		if err != nil {
			return nil, fmt.Errorf("opener: %w", err)
		}
		ret.openingGuess = opener
		ret.openingOnce.Do(func() {})
	}
	return ret, nil
}

func (s *Solver) Dictionary() *Dictionary {
	return s.dict
}

func (s *Solver) Strategy() Strategy {
	return s.strategy
}

// NextGuess returns the guess to play against the candidates.
func (s *Solver) NextGuess(candidates *WordList) (WordleWord, error) {
	switch candidates.Len() {
	case 0:
		return 0, fmt.Errorf("no candidates left: %w", ErrInternalInconsistency)
	case 1, 2:
		// just guess it, with two either word is 1 guess for one solution and 2 for the other
		return s.dict.solutions[candidates.FirstWord()], nil
	}
	if candidates.Len() == len(s.dict.solutions) {
		// every game starts here, score the whole dictionary once
		s.openingOnce.Do(func() {
			s.openingGuess = s.best(candidates)
		})
		return s.openingGuess, nil
	}
	return s.best(candidates), nil
}

func (s *Solver) best(candidates *WordList) WordleWord {
	var best WordScore
	first := true
	s.scoreAll(candidates, func(ws WordScore) {
		if first || ws.better(best) {
			best = ws
			first = false
		}
	})
	return best.Value
}

func (s *Solver) scoreAll(candidates *WordList, visit func(WordScore)) {
	solutions := candidates.Words()
	isCandidate := make([]bool, len(s.dict.words))
	for _, solution := range solutions {
		isCandidate[s.dict.solutions[solution]] = true
	}
	score := s.strategy.Scorer(s.dict, solutions)
	if s.pool == GuessPoolCandidates {
		for _, solution := range solutions {
			guess := s.dict.solutions[solution]
			visit(WordScore{Value: guess, Score: score(guess), Candidate: true})
		}
		return
	}
	for i := range s.dict.words {
		guess := WordleWord(i)
		visit(WordScore{Value: guess, Score: score(guess), Candidate: isCandidate[i]})
	}
}

// SortedGuesses scores every guess against the candidates, best first.
func (s *Solver) SortedGuesses(candidates *WordList) []WordScore {
	ret := make([]WordScore, 0, len(s.dict.words))
	if candidates.Len() == 0 {
		return ret
	}
	s.scoreAll(candidates, func(ws WordScore) {
		ret = append(ret, ws)
	})
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].better(ret[j])
	})
	return ret
}
