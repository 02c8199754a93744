package gowordle

import (
	"errors"
	"fmt"
	"strings"
)

// MaxWordLen is the longest word a Pattern can encode (3^10 fits in a uint16).
const MaxWordLen = 10

// Mark is the color given to one letter of a guess.
type Mark uint8

const (
	Absent  Mark = iota // r: letter not in the target (after accounting for duplicates)
	Present             // y: letter in the target at another position
	Correct             // g: letter in the target at this position
)

var ErrBadFeedback = errors.New("bad feedback")

func (m Mark) Rune() rune {
	switch m {
	case Absent:
		return 'r'
	case Present:
		return 'y'
	case Correct:
		return 'g'
	}
	panic(fmt.Sprintf("Can not parse Mark: %d", m))
}

// Feedback has one Mark per letter of the guess
type Feedback []Mark

// Pattern is a Feedback packed as a base 3 number, position 0 is the least significant digit.
type Pattern uint16

// ParseFeedback accepts the r/y/g letters, plus b (black) or n (not in word) for Absent,
// p (present) for Present and c (correct) for Correct.  Case is ignored.
func ParseFeedback(colors string) (Feedback, error) {
	colors = strings.ToLower(strings.TrimSpace(colors))
	if colors == "" || len(colors) > MaxWordLen {
		return nil, fmt.Errorf("%w: %q must have 1 to %d marks", ErrBadFeedback, colors, MaxWordLen)
	}
	ret := make(Feedback, 0, len(colors))
	for _, color := range colors {
		switch color {
		case 'r', 'b', 'n':
			ret = append(ret, Absent)
		case 'y', 'p':
			ret = append(ret, Present)
		case 'g', 'c':
			ret = append(ret, Correct)
		default:
			return nil, fmt.Errorf("%w: %q is not one of r,y,g like rrggy", ErrBadFeedback, colors)
		}
	}
	return ret, nil
}

func (f Feedback) String() string {
	var b strings.Builder
	for _, m := range f {
		b.WriteRune(m.Rune())
	}
	return b.String()
}

// Solved is true when every letter is Correct.
func (f Feedback) Solved() bool {
	for _, m := range f {
		if m != Correct {
			return false
		}
	}
	return len(f) > 0
}

func (f Feedback) Equal(other Feedback) bool {
	if len(f) != len(other) {
		return false
	}
	for i := range f {
		if f[i] != other[i] {
			return false
		}
	}
	return true
}

func (f Feedback) Pattern() Pattern {
	p := Pattern(0)
	for i := len(f) - 1; i >= 0; i-- {
		p = p*3 + Pattern(f[i])
	}
	return p
}

// Feedback expands the pattern back into wordLen marks.
func (p Pattern) Feedback(wordLen int) Feedback {
	ret := make(Feedback, wordLen)
	for i := range wordLen {
		ret[i] = Mark(p % 3)
		p /= 3
	}
	return ret
}

// AllCorrect is the pattern of a solved guess of the given length.
func AllCorrect(wordLen int) Pattern {
	p := Pattern(0)
	for range wordLen {
		p = p*3 + Pattern(Correct)
	}
	return p
}

// PatternCount is the number of distinct patterns for words of the given length.
func PatternCount(wordLen int) int {
	n := 1
	for range wordLen {
		n *= 3
	}
	return n
}

// Evaluate returns the wordle answer for the guess given the target.
// Both words must be the same length and made of the letters a-z.
func Evaluate(guess, target string) Feedback {
	return EvaluatePattern(guess, target).Feedback(len(guess))
}

// EvaluatePattern is Evaluate without the allocation.
//
// Greens are marked first and consume their target letter, then the remaining guess
// letters left to right turn yellow while unconsumed copies of the letter remain in
// the target.  A duplicated guess letter is only yellow/green as many times as the
// target has it.
func EvaluatePattern(guess, target string) Pattern {
	if len(guess) != len(target) {
		panic("guess and target differ in length: " + guess + " " + target)
	}
	if len(guess) > MaxWordLen {
		panic("word too long: " + guess)
	}
	var targetNotGreen [26]int8
	var marks [MaxWordLen]Mark
	for i := 0; i < len(guess); i++ {
		if guess[i] == target[i] {
			marks[i] = Correct
		} else {
			targetNotGreen[target[i]-'a']++
		}
	}
	// turn the red to yellow if in the word but not green
	for i := 0; i < len(guess); i++ {
		if marks[i] == Correct {
			continue
		}
		if letter := guess[i] - 'a'; targetNotGreen[letter] > 0 {
			marks[i] = Present
			targetNotGreen[letter]--
		}
	}
	p := Pattern(0)
	for i := len(guess) - 1; i >= 0; i-- {
		p = p*3 + Pattern(marks[i])
	}
	return p
}
