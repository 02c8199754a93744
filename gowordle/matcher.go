package gowordle

import (
	"github.com/bits-and-blooms/bitset"
)

/*
Matcher indexes a word list so the words consistent with a guess/feedback pair can be found
with a handful of bitset operations instead of evaluating every word.

letters[0]['a'-'a'] all words whose first letter is an a, [1] second letter is an a, ...
count['a'-'a'][0] words with 1 or more a, count['b'-'b'][1] words with 2 or more b

a word is represented by it's index into words
*/
type Matcher struct {
	words   []string
	wordLen int
	letters [MaxWordLen][26]*bitset.BitSet
	count   [26][]*bitset.BitSet
}

// LetterCount is a letter and how many of it the target holds.
type LetterCount struct {
	Letter byte
	Count  int
}

// NewMatcher takes a slice of equal length a-z words and builds the index.
func NewMatcher(words []string) *Matcher {
	ret := &Matcher{words: words}
	if len(words) > 0 {
		ret.wordLen = len(words[0])
	}
	length := uint(len(words))
	for w, word := range words {
		var wordLetters [26]int
		for l := 0; l < len(word); l++ {
			letter := word[l] - 'a'
			if ret.letters[l][letter] == nil {
				ret.letters[l][letter] = bitset.New(length)
			}
			ret.letters[l][letter].Set(uint(w))
			wordLetters[letter]++
		}
		for letter, count := range wordLetters {
			for c := 0; c < count; c++ {
				if len(ret.count[letter]) <= c {
					ret.count[letter] = append(ret.count[letter], bitset.New(length))
				}
				ret.count[letter][c].Set(uint(w))
			}
		}
	}
	return ret
}

func (m *Matcher) Len() int {
	return len(m.words)
}

// LetterCounts turns a guess and its feedback into count constraints.
//
// must: a yellow copy means the target holds at least Count of the letter (one per yellow or green).
// mustNot: a red copy of the letter caps the target at exactly the yellow/green count,
// aaabb/ryggg means that all words with 3 or more a's can be eliminated.
//
// ok is false when no target can give the feedback: yellows are handed out left to right,
// so a red copy of a letter can not come before a yellow copy of the same letter.
func LetterCounts(guess string, feedback Feedback) (must, mustNot []LetterCount, ok bool) {
	var yellowGreen [26]int
	var hasRed, hasYellow [26]bool
	for i := 0; i < len(guess); i++ {
		letter := guess[i] - 'a'
		switch feedback[i] {
		case Correct:
			yellowGreen[letter]++
		case Present:
			if hasRed[letter] {
				return nil, nil, false
			}
			yellowGreen[letter]++
			hasYellow[letter] = true
		default:
			hasRed[letter] = true
		}
	}
	// walk the guess so the constraint order is deterministic
	var seen [26]bool
	for i := 0; i < len(guess); i++ {
		letter := guess[i] - 'a'
		if seen[letter] {
			continue
		}
		seen[letter] = true
		if hasYellow[letter] {
			must = append(must, LetterCount{guess[i], yellowGreen[letter]})
		}
		if hasRed[letter] {
			mustNot = append(mustNot, LetterCount{guess[i], yellowGreen[letter]})
		}
	}
	return must, mustNot, true
}

// Matching returns the set of words, by index, that would produce feedback for guess.
// guess must have the matcher's word length; feedback must have one mark per letter.
func (m *Matcher) Matching(guess string, feedback Feedback) *bitset.BitSet {
	if len(guess) != m.wordLen || len(feedback) != m.wordLen {
		panic("guess/feedback length does not match the dictionary: " + guess + " " + feedback.String())
	}
	ret := bitset.New(uint(len(m.words)))
	ret.FlipRange(0, uint(len(m.words)))

	// if there are greens then the starting point only contains words with matching letter
	// yellow or red letters can not be in the same position, those would have been green
	for i, color := range feedback {
		set := m.letters[i][guess[i]-'a']
		if color == Correct {
			if set == nil {
				ret.ClearAll()
				return ret
			}
			ret.InPlaceIntersection(set)
		} else if set != nil {
			ret.InPlaceDifference(set)
		}
	}

	must, mustNot, ok := LetterCounts(guess, feedback)
	if !ok {
		ret.ClearAll()
		return ret
	}
	for _, letterCount := range must {
		counts := m.count[letterCount.Letter-'a']
		if len(counts) < letterCount.Count {
			ret.ClearAll()
			return ret
		}
		ret.InPlaceIntersection(counts[letterCount.Count-1])
	}
	// red letters remove the words holding more copies than were yellow/green
	for _, letterCount := range mustNot {
		counts := m.count[letterCount.Letter-'a']
		if len(counts) > letterCount.Count {
			ret.InPlaceDifference(counts[letterCount.Count])
		}
	}
	return ret
}
