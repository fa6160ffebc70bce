package rewrite

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/sajari/fuzzy"
)

// SpellCorrector is a SymSpell-style dictionary: a unigram model for
// single-token corrections and a bigram model for two-token phrase
// corrections, both restricted to edit distance <= 1 and returning
// only the single closest suggestion, never a ranked list.
type SpellCorrector struct {
	unigrams *fuzzy.Model
	bigrams  *fuzzy.Model
	trained  int
}

// NewSpellCorrector builds empty unigram/bigram models. Load populates
// them from a dictionary file.
func NewSpellCorrector() *SpellCorrector {
	unigrams := fuzzy.NewModel()
	unigrams.SetThreshold(1)
	unigrams.SetDepth(1)

	bigrams := fuzzy.NewModel()
	bigrams.SetThreshold(1)
	bigrams.SetDepth(1)

	return &SpellCorrector{unigrams: unigrams, bigrams: bigrams}
}

// LoadDictionary reads path line by line, splits each line on
// whitespace, and trains the unigram model on every field (including
// any frequency column) and the bigram model on every
// adjacent pair within a line, so phrase-level corrections (e.g. a
// common two-word confusion) are available alongside single-token
// ones.
func (s *SpellCorrector) LoadDictionary(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open dictionary %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		words := strings.Fields(line)
		for _, w := range words {
			s.unigrams.TrainWord(strings.ToLower(w))
			s.trained++
		}
		for i := 0; i+1 < len(words); i++ {
			s.bigrams.TrainWord(strings.ToLower(words[i]) + " " + strings.ToLower(words[i+1]))
		}
	}
	return scanner.Err()
}

// TrainedWords reports how many dictionary words have been trained
// into the unigram model.
func (s *SpellCorrector) TrainedWords() int {
	return s.trained
}

// Correct returns the closest unigram suggestion for token and whether
// it differs from token (distance > 0).
func (s *SpellCorrector) Correct(token string) (suggestion string, corrected bool) {
	lower := strings.ToLower(token)
	suggestion = s.unigrams.SpellCheck(lower)
	if suggestion == "" {
		return "", false
	}
	return suggestion, levenshtein(lower, suggestion) > 0
}

// CorrectBigram returns the closest bigram suggestion for the
// space-joined pair (prev, token) and whether it differs from the
// original pair.
func (s *SpellCorrector) CorrectBigram(prev, token string) (suggestion string, corrected bool) {
	pair := strings.ToLower(prev) + " " + strings.ToLower(token)
	suggestion = s.bigrams.SpellCheck(pair)
	if suggestion == "" {
		return "", false
	}
	return suggestion, levenshtein(pair, suggestion) > 0
}
