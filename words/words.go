// Package words loads the solution and guess lists that make up a dictionary.
//
// Word files can be:
//   - .txt one word per line, blank lines and lines starting with # are skipped
//   - .json an array of words, or an object with "solutions" and any of
//     "other_valid_words", "herrings" or "guesses"
//   - .yaml/.yml the same shapes as json
//
// Without files small embedded lists are used.
package words

import (
	"bufio"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	mapset "github.com/deckarep/golang-set"
	"gopkg.in/yaml.v3"

	"github.com/powellquiring/wordleplayer/wordle"
)

//go:embed default_solutions.txt
var embeddedSolutions string

//go:embed default_guesses.txt
var embeddedGuesses string

var ErrUnknownFormat = errors.New("unknown word file format")

// List is the content of a word file.  A plain list of words only fills Solutions.
type List struct {
	Solutions       []string `json:"solutions" yaml:"solutions"`
	OtherValidWords []string `json:"other_valid_words" yaml:"other_valid_words"`
	Herrings        []string `json:"herrings" yaml:"herrings"`
	Guesses         []string `json:"guesses" yaml:"guesses"`
}

// Valid is every word besides the solutions that can be guessed.
func (l *List) Valid() []string {
	ret := make([]string, 0, len(l.OtherValidWords)+len(l.Herrings)+len(l.Guesses))
	ret = append(ret, l.OtherValidWords...)
	ret = append(ret, l.Herrings...)
	return append(ret, l.Guesses...)
}

// All is the solutions followed by the other valid words.
func (l *List) All() []string {
	return append(append([]string{}, l.Solutions...), l.Valid()...)
}

// Sources names the files to load, empty names use the embedded lists.
//
//	SolutionsFile and GuessesFile: solutions from the first, guesses from the second
//	SolutionsFile only: the file may carry its own guesses
//	GuessesFile only: every word in it is a solution
type Sources struct {
	SolutionsFile string
	GuessesFile   string
}

func Default() *List {
	solutions, _ := readLines(strings.NewReader(embeddedSolutions))
	guesses, _ := readLines(strings.NewReader(embeddedGuesses))
	return &List{Solutions: solutions, Guesses: guesses}
}

func readLines(r io.Reader) ([]string, error) {
	var ret []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		ret = append(ret, strings.ToLower(s))
	}
	return ret, sc.Err()
}

// unique drops repeated words, keeping the first
func unique(words []string) []string {
	seen := mapset.NewThreadUnsafeSet()
	ret := make([]string, 0, len(words))
	for _, word := range words {
		word = strings.ToLower(strings.TrimSpace(word))
		if seen.Add(word) {
			ret = append(ret, word)
		}
	}
	return ret
}

// Parse reads a word list in the format named by ext: .txt, .json, .yaml or .yml.
func Parse(r io.Reader, ext string) (*List, error) {
	switch strings.ToLower(ext) {
	case ".txt", "":
		solutions, err := readLines(r)
		if err != nil {
			return nil, err
		}
		return &List{Solutions: solutions}, nil
	case ".json":
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		var words []string
		if err := json.Unmarshal(data, &words); err == nil {
			return &List{Solutions: words}, nil
		}
		ret := &List{}
		if err := json.Unmarshal(data, ret); err != nil {
			return nil, fmt.Errorf("json word list: %w", err)
		}
		return ret, nil
	case ".yaml", ".yml":
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		var words []string
		if err := yaml.Unmarshal(data, &words); err == nil {
			return &List{Solutions: words}, nil
		}
		ret := &List{}
		if err := yaml.Unmarshal(data, ret); err != nil {
			return nil, fmt.Errorf("yaml word list: %w", err)
		}
		return ret, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
}

func LoadFile(path string) (*List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ret, err := Parse(f, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ret, nil
}

// Load resolves the sources into one list.
func Load(sources Sources) (*List, error) {
	switch {
	case sources.SolutionsFile != "" && sources.GuessesFile != "":
		solutions, err := LoadFile(sources.SolutionsFile)
		if err != nil {
			return nil, err
		}
		guesses, err := LoadFile(sources.GuessesFile)
		if err != nil {
			return nil, err
		}
		solutions.Guesses = append(solutions.Guesses, guesses.All()...)
		return solutions, nil
	case sources.SolutionsFile != "":
		return LoadFile(sources.SolutionsFile)
	case sources.GuessesFile != "":
		guesses, err := LoadFile(sources.GuessesFile)
		if err != nil {
			return nil, err
		}
		return &List{Solutions: unique(guesses.All())}, nil
	}
	return Default(), nil
}

// Dictionary loads the sources and builds the dictionary.
func Dictionary(sources Sources) (*wordle.Dictionary, error) {
	list, err := Load(sources)
	if err != nil {
		return nil, err
	}
	if len(list.Solutions) == 0 {
		return nil, fmt.Errorf("%w: the word list has no solutions", wordle.ErrInvalidWord)
	}
	return wordle.NewDictionary(list.Solutions, list.Valid())
}
