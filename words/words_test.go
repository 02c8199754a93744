package words

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powellquiring/wordleplayer/wordle"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	list := Default()
	require.NotEmpty(t, list.Solutions)
	assert.Equal(t, "cigar", list.Solutions[0])
	assert.Contains(t, list.Guesses, "raise")
	d, err := Dictionary(Sources{})
	require.NoError(t, err)
	assert.Equal(t, len(list.Solutions), d.SolutionCount())
	assert.True(t, d.IsValid("crane"))
}

func TestParse(t *testing.T) {
	tests := []struct {
		name, ext, content string
		want               *List
	}{
		{"txt", ".txt", "# comment\nCigar\n\n rebut \n", &List{Solutions: []string{"cigar", "rebut"}}},
		{"json array", ".json", `["cigar", "rebut"]`, &List{Solutions: []string{"cigar", "rebut"}}},
		{"json object", ".json", `{"solutions": ["cigar"], "herrings": ["raise"], "other_valid_words": ["crane"]}`,
			&List{Solutions: []string{"cigar"}, Herrings: []string{"raise"}, OtherValidWords: []string{"crane"}}},
		{"yaml array", ".yaml", "- cigar\n- rebut\n", &List{Solutions: []string{"cigar", "rebut"}}},
		{"yaml object", ".yml", "solutions: [cigar]\nguesses:\n  - raise\n", &List{Solutions: []string{"cigar"}, Guesses: []string{"raise"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(strings.NewReader(tt.content), tt.ext)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	_, err := Parse(strings.NewReader("cigar"), ".csv")
	assert.ErrorIs(t, err, ErrUnknownFormat)
	_, err = Parse(strings.NewReader(`{"solutions": 3}`), ".json")
	assert.Error(t, err)
	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad(t *testing.T) {
	solutions := writeFile(t, "solutions.txt", "cigar\nrebut\n")
	guesses := writeFile(t, "guesses.json", `{"solutions": ["sissy"], "herrings": ["raise"]}`)

	list, err := Load(Sources{SolutionsFile: solutions, GuessesFile: guesses})
	require.NoError(t, err)
	assert.Equal(t, []string{"cigar", "rebut"}, list.Solutions)
	assert.ElementsMatch(t, []string{"sissy", "raise"}, list.Valid())

	list, err = Load(Sources{GuessesFile: writeFile(t, "all.txt", "cigar\nrebut\ncigar\n")})
	require.NoError(t, err)
	assert.Equal(t, []string{"cigar", "rebut"}, list.Solutions)

	d, err := Dictionary(Sources{SolutionsFile: solutions, GuessesFile: guesses})
	require.NoError(t, err)
	assert.Equal(t, 2, d.SolutionCount())
	assert.Equal(t, 4, d.Len())
}

func TestDictionaryErrors(t *testing.T) {
	_, err := Dictionary(Sources{SolutionsFile: writeFile(t, "empty.txt", "# nothing\n")})
	assert.ErrorIs(t, err, wordle.ErrInvalidWord)
	_, err = Dictionary(Sources{SolutionsFile: writeFile(t, "bad.txt", "cigar\nrebuts\n")})
	assert.ErrorIs(t, err, wordle.ErrInvalidWord)
}
