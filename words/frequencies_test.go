package words

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrequencies(t *testing.T) {
	tests := []struct {
		name, ext, content string
		want               Frequencies
	}{
		{"csv with header", ".csv", "word,count\nthe,23135851162\nAbout ,1226734006\n", Frequencies{"the": 23135851162, "about": 1226734006}},
		{"csv no header", ".csv", "# unigrams\ncigar,3\nrebut,1.5\n", Frequencies{"cigar": 3, "rebut": 1.5}},
		{"json", ".json", `{"cigar": 3, "REBUT": 1}`, Frequencies{"cigar": 3, "rebut": 1}},
		{"yaml", ".yaml", "cigar: 3\nrebut: 1\n", Frequencies{"cigar": 3, "rebut": 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFrequencies(strings.NewReader(tt.content), tt.ext)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFrequenciesErrors(t *testing.T) {
	for _, tt := range []struct{ ext, content string }{
		{".csv", "cigar,3\nrebut,many\n"},
		{".csv", "word,count\ncigar\n"},
		{".json", `["cigar"]`},
		{".json", `{"cigar": -1}`},
		{".txt", "cigar 3"},
	} {
		_, err := ParseFrequencies(strings.NewReader(tt.content), tt.ext)
		assert.Error(t, err, tt.content)
	}
	_, err := ParseFrequencies(strings.NewReader(""), ".xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestLoadFrequencies(t *testing.T) {
	freqs, err := LoadFrequencies(writeFile(t, "unigram_freq.csv", "word,count\ncigar,7\n"))
	require.NoError(t, err)
	assert.Equal(t, Frequencies{"cigar": 7}, freqs)

	_, err = LoadFrequencies(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
