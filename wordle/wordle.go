package wordle

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bitset"
	mapset "github.com/deckarep/golang-set"

	"github.com/powellquiring/wordleplayer/gowordle"
)

// WordleWord is an index into the dictionary guess list
type WordleWord uint16

// WordList is a set of solutions, a bit for each index into the solution list
type WordList bitset.BitSet

// Dictionary holds the valid guesses and the ordered solutions.  It is read only once
// built and safe for concurrent use.
type Dictionary struct {
	wordLen        int
	words          []string // sorted guesses, a superset of the solutions
	stringToWord   map[string]WordleWord
	valid          mapset.Set
	solutions      []WordleWord // historical order, solution index is the wordle number
	solutionWords  []string
	stringToNumber map[string]int
	matcher        *gowordle.Matcher
	patterns       []patternRow // patterns[guess][solution], built on first use
}

type patternRow struct {
	once     sync.Once
	patterns []gowordle.Pattern
}

func normalize(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

func checkWord(word string, wordLen int) error {
	if len(word) != wordLen {
		return fmt.Errorf("%w: %q is not %d letters", ErrInvalidWord, word, wordLen)
	}
	for i := 0; i < len(word); i++ {
		if word[i] < 'a' || word[i] > 'z' {
			return fmt.Errorf("%w: %q has a character outside a-z", ErrInvalidWord, word)
		}
	}
	return nil
}

// NewDictionary builds a dictionary from the ordered solutions and the extra valid guesses.
// Solutions are always valid guesses.  Words are trimmed and lower cased, every word must
// have the same length and only the letters a-z.
func NewDictionary(solutions, guesses []string) (*Dictionary, error) {
	if len(solutions) == 0 {
		return nil, fmt.Errorf("%w: no solutions", ErrInvalidWord)
	}
	wordLen := len(normalize(solutions[0]))
	if wordLen < 1 || wordLen > gowordle.MaxWordLen {
		return nil, fmt.Errorf("%w: word length %d must be 1 to %d", ErrInvalidWord, wordLen, gowordle.MaxWordLen)
	}
	ret := &Dictionary{
		wordLen:        wordLen,
		stringToWord:   make(map[string]WordleWord),
		valid:          mapset.NewSet(),
		stringToNumber: make(map[string]int, len(solutions)),
	}
	for _, word := range solutions {
		word = normalize(word)
		if err := checkWord(word, wordLen); err != nil {
			return nil, err
		}
		if _, ok := ret.stringToNumber[word]; ok {
			return nil, fmt.Errorf("%w: duplicate solution %q", ErrInvalidWord, word)
		}
		ret.stringToNumber[word] = len(ret.solutionWords)
		ret.solutionWords = append(ret.solutionWords, word)
		ret.valid.Add(word)
	}
	for _, word := range guesses {
		word = normalize(word)
		if word == "" {
			continue
		}
		if err := checkWord(word, wordLen); err != nil {
			return nil, err
		}
		ret.valid.Add(word)
	}
	if ret.valid.Cardinality() > math.MaxUint16 {
		return nil, fmt.Errorf("%w: %d words, at most %d are supported", ErrInvalidWord, ret.valid.Cardinality(), math.MaxUint16)
	}
	ret.words = make([]string, 0, ret.valid.Cardinality())
	for word := range ret.valid.Iter() {
		ret.words = append(ret.words, word.(string))
	}
	slices.Sort(ret.words)
	for i, word := range ret.words {
		ret.stringToWord[word] = WordleWord(i)
	}
	ret.solutions = make([]WordleWord, len(ret.solutionWords))
	for i, word := range ret.solutionWords {
		ret.solutions[i] = ret.stringToWord[word]
	}
	ret.matcher = gowordle.NewMatcher(ret.solutionWords)
	ret.patterns = make([]patternRow, len(ret.words))
	return ret, nil
}

// Len is the number of valid guesses
func (d *Dictionary) Len() int {
	return len(d.words)
}

func (d *Dictionary) WordLen() int {
	return d.wordLen
}

func (d *Dictionary) SolutionCount() int {
	return len(d.solutions)
}

func (d *Dictionary) Word(wordleWordString string) (WordleWord, bool) {
	ret, ok := d.stringToWord[normalize(wordleWordString)]
	return ret, ok
}

func (d *Dictionary) String(wordleWord WordleWord) string {
	return d.words[wordleWord]
}

func (d *Dictionary) IsValid(word string) bool {
	return d.valid.Contains(normalize(word))
}

// Solution returns the solution for a wordle number, the index into the solution list.
func (d *Dictionary) Solution(number int) (string, error) {
	if number < 0 || number >= len(d.solutionWords) {
		return "", fmt.Errorf("%w: wordle number %d, have 0 to %d", ErrOutOfRange, number, len(d.solutionWords)-1)
	}
	return d.solutionWords[number], nil
}

// SolutionNumber is the wordle number of a solution word.
func (d *Dictionary) SolutionNumber(word string) (int, bool) {
	ret, ok := d.stringToNumber[normalize(word)]
	return ret, ok
}

func (d *Dictionary) Solutions() []string {
	return slices.Clone(d.solutionWords)
}

// Validate checks that a guess can be played and returns its index.
func (d *Dictionary) Validate(guess string) (WordleWord, error) {
	word := normalize(guess)
	if err := checkWord(word, d.wordLen); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidGuess, err)
	}
	wordleWord, ok := d.stringToWord[word]
	if !ok {
		return 0, fmt.Errorf("%w: %q is not in the word list", ErrInvalidGuess, word)
	}
	return wordleWord, nil
}

// Pattern is the feedback guess would get if the solution at index solution were the target.
// Rows of the table are computed the first time a guess is scored.
func (d *Dictionary) Pattern(guess WordleWord, solution int) gowordle.Pattern {
	return d.patternRow(guess)[solution]
}

func (d *Dictionary) patternRow(guess WordleWord) []gowordle.Pattern {
	row := &d.patterns[guess]
	row.once.Do(func() {
		guessString := d.words[guess]
		row.patterns = make([]gowordle.Pattern, len(d.solutionWords))
		for i, solution := range d.solutionWords {
			row.patterns[i] = gowordle.EvaluatePattern(guessString, solution)
		}
	})
	return row.patterns
}

// Filter returns the candidates w for which Evaluate(guess, w) is exactly feedback.  The
// matcher narrows the set with bitset operations, the pattern table has the last word.
// The candidates are not modified.
func (d *Dictionary) Filter(candidates *WordList, guess WordleWord, feedback gowordle.Feedback) *WordList {
	matching := d.matcher.Matching(d.words[guess], feedback)
	matching.InPlaceIntersection(candidates.bits())
	want := feedback.Pattern()
	row := d.patternRow(guess)
	for solution, ok := matching.NextSet(0); ok; solution, ok = matching.NextSet(solution + 1) {
		if row[solution] != want {
			matching.Clear(solution)
		}
	}
	return (*WordList)(matching)
}

func (d *Dictionary) WordlistAll() *WordList {
	length := uint(len(d.solutions))
	ret := bitset.New(length)
	ret.FlipRange(0, length)
	return (*WordList)(ret)
}

func (d *Dictionary) WordlistEmpty() *WordList {
	return (*WordList)(bitset.New(uint(len(d.solutions))))
}

func (d *Dictionary) WordlistFromStrings(strings []string) (*WordList, error) {
	ret := d.WordlistEmpty()
	for _, word := range strings {
		number, ok := d.SolutionNumber(word)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a solution", ErrInvalidWord, word)
		}
		ret.Insert(number)
	}
	return ret, nil
}

func (d *Dictionary) WordlistStrings(wordlist *WordList) []string {
	ret := make([]string, 0, wordlist.Len())
	for _, solution := range wordlist.Range {
		ret = append(ret, d.solutionWords[solution])
	}
	return ret
}

// SolutionWord is the guess index of a solution.
func (d *Dictionary) SolutionWord(solution int) WordleWord {
	return d.solutions[solution]
}

func (wl *WordList) bits() *bitset.BitSet {
	return (*bitset.BitSet)(wl)
}

// Range iterates over the solution indices in ascending order
func (wl *WordList) Range(yield func(i int, solution int) bool) {
	bs := wl.bits()
	i := 0
	for solution, ok := bs.NextSet(0); ok; solution, ok = bs.NextSet(solution + 1) {
		// Call the yield function (which is the loop body)
		if !yield(i, int(solution)) {
			return // Stop iteration if yield returns false (e.g., break in the loop)
		}
		i++
	}
}

func (wl *WordList) Words() []int {
	ret := make([]int, 0, wl.Len())
	for _, solution := range wl.Range {
		ret = append(ret, solution)
	}
	return ret
}

func (wl *WordList) FirstWord() int {
	solution, ok := wl.bits().NextSet(0)
	if !ok {
		panic("no first word")
	}
	return int(solution)
}

func (wl *WordList) Len() int {
	return int(wl.bits().Count())
}

func (wl *WordList) Contains(solution int) bool {
	return wl.bits().Test(uint(solution))
}

func (wl *WordList) Insert(solution int) {
	wl.bits().Set(uint(solution))
}

func (wl *WordList) Clone() *WordList {
	return (*WordList)(wl.bits().Clone())
}

func (wl *WordList) Equal(other *WordList) bool {
	return wl.bits().Equal(other.bits())
}
