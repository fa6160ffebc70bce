package searchindex

import (
	"encoding/base64"
	"encoding/binary"
	"math"
)

// Document is the per-paper index record, distinct from the store row.
type Document struct {
	Type        string `json:"_type"`
	ID          uint   `json:"id"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Authors     string `json:"authors"`
	Description string `json:"description"`
	Body        string `json:"body"`
	Embedding   string `json:"embedding"`
}

// newDocument builds the index document for one paper. description and
// title go into the first-sentence text given to the embedding model by
// the caller; this function only shapes the document itself.
func newDocument(id uint, url, title, description, body, authors string, embedding []float32) Document {
	return Document{
		Type:        DocumentType,
		ID:          id,
		URL:         url,
		Title:       title,
		Authors:     authors,
		Description: description,
		Body:        body,
		Embedding:   encodeEmbedding(embedding),
	}
}

// encodeEmbedding serializes a float32 vector to a compact base64
// string suitable for a stored, unindexed bleve field.
func encodeEmbedding(vec []float32) string {
	buf := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

// decodeEmbedding is the inverse of encodeEmbedding.
func decodeEmbedding(s string) ([]float32, error) {
	buf, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec, nil
}
