// Package rewrite applies spell correction and bounded synonym
// expansion over whitespace-separated tokens, operating on the
// untokenized user string before it reaches the query parser.
package rewrite

import "strings"

// Rewriter applies spell correction, then synonym expansion, both
// appending boosted alternates after the original token.
type Rewriter struct {
	spell    *SpellCorrector
	synonyms *SynonymTable
}

// New builds a Rewriter from a spell corrector and synonym table.
// Either may be nil, in which case that stage is a no-op.
func New(spell *SpellCorrector, synonyms *SynonymTable) *Rewriter {
	return &Rewriter{spell: spell, synonyms: synonyms}
}

// Rewrite transforms the raw query string. Per token: the original is
// always kept; a spelling correction (if distance > 0) is appended as
// "<suggestion>^0.5"; then up to two synonyms are appended as
// "<synonym>^0.1".
func (r *Rewriter) Rewrite(query string) string {
	tokens := strings.Fields(query)
	var out []string
	prev := ""

	for _, token := range tokens {
		out = append(out, token)

		if r.spell != nil {
			if suggestion, corrected := r.spell.Correct(token); corrected {
				out = append(out, suggestion+"^0.5")
			} else if prev != "" {
				if suggestion, corrected := r.spell.CorrectBigram(prev, token); corrected {
					out = append(out, suggestion+"^0.5")
				}
			}
		}

		if r.synonyms != nil {
			for _, syn := range r.synonyms.Lookup(token) {
				out = append(out, syn+"^0.1")
			}
		}

		prev = token
	}

	return strings.Join(out, " ")
}

// StripQuotes removes a single leading and trailing `"` from query, if
// present, before the rewrite stages run.
func StripQuotes(query string) string {
	query = strings.TrimPrefix(query, `"`)
	query = strings.TrimSuffix(query, `"`)
	return query
}
