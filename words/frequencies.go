package words

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Frequencies is how often each word is used in English, as a count or a share.
type Frequencies map[string]float64

// ParseFrequencies reads word frequencies in the format named by ext:
//   - .csv a word,count table, a header row is skipped (the Google unigram layout)
//   - .json/.yaml an object of word: count
//
// Words are trimmed and lower-cased like the word lists.
func ParseFrequencies(r io.Reader, ext string) (Frequencies, error) {
	raw := map[string]float64{}
	switch strings.ToLower(ext) {
	case ".csv":
		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1
		reader.Comment = '#'
		for line := 1; ; line++ {
			record, err := reader.Read()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, err
			}
			if len(record) < 2 {
				return nil, fmt.Errorf("line %d: want word,count", line)
			}
			count, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
			if err != nil {
				if line == 1 {
					continue
				}
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			raw[record[0]] = count
		}
	case ".json":
		if err := json.NewDecoder(r).Decode(&raw); err != nil {
			return nil, fmt.Errorf("json frequencies: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
			return nil, fmt.Errorf("yaml frequencies: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
	ret := make(Frequencies, len(raw))
	for word, count := range raw {
		if count < 0 {
			return nil, fmt.Errorf("%q has a negative frequency", word)
		}
		ret[strings.ToLower(strings.TrimSpace(word))] = count
	}
	return ret, nil
}

func LoadFrequencies(path string) (Frequencies, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ret, err := ParseFrequencies(f, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ret, nil
}
