package rewrite

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// maxSynonyms caps how many synonyms expand from one token.
const maxSynonyms = 2

// SynonymTable is an in-memory word → synonyms map loaded from a CSV
// of `word,syn1;syn2;...` rows.
type SynonymTable struct {
	synonyms map[string][]string
}

// NewSynonymTable returns an empty table.
func NewSynonymTable() *SynonymTable {
	return &SynonymTable{synonyms: make(map[string][]string)}
}

// LoadCSV populates the table from path. Each row is `word,syn1;syn2`;
// only the first maxSynonyms entries of the synonym list are kept.
func (t *SynonymTable) LoadCSV(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open synonyms %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("parse synonyms %s: %w", path, err)
	}

	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		word := strings.ToLower(strings.TrimSpace(row[0]))
		syns := strings.Split(row[1], ";")
		var kept []string
		for _, s := range syns {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			kept = append(kept, s)
			if len(kept) == maxSynonyms {
				break
			}
		}
		if len(kept) > 0 {
			t.synonyms[word] = kept
		}
	}
	return nil
}

// Lookup returns at most maxSynonyms synonyms for token.
func (t *SynonymTable) Lookup(token string) []string {
	return t.synonyms[strings.ToLower(token)]
}

// Len reports how many words have synonym entries.
func (t *SynonymTable) Len() int {
	return len(t.synonyms)
}
