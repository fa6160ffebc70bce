// Package searchindex builds and opens the on-disk inverted index over
// the paper corpus, including per-document embeddings, and defines the
// analysis chain shared by indexing and query parsing.
package searchindex

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/token/porter"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	_ "github.com/blevesearch/bleve/v2/config"
	"github.com/blevesearch/bleve/v2/mapping"
)

// analyzerName is the shared analysis chain: tokenize, lowercase,
// English stop-word filter, Porter stemmer.
const analyzerName = "searxiv_en"

// DocumentType names the document mapping bound to every indexed
// paper.
const DocumentType = "paper"

// FieldID names the numeric, stored-only id field.
const FieldID = "id"

// FieldURL names the stored-only url field.
const FieldURL = "url"

// FieldTitle names the indexed+stored title field.
const FieldTitle = "title"

// FieldAuthors names the indexed+stored, space-joined authors field.
const FieldAuthors = "authors"

// FieldDescription names the indexed-only description field.
const FieldDescription = "description"

// FieldBody names the indexed-only body field.
const FieldBody = "body"

// FieldEmbedding names the stored-only, base64-encoded embedding
// bytes field.
const FieldEmbedding = "embedding"

// NewMapping builds the document mapping: a single custom English
// analyzer shared by every text field, stored fields kept to what the
// result list and re-rank actually read back.
func NewMapping() (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()
	if err := im.AddCustomAnalyzer(analyzerName, map[string]interface{}{
		"type":      "custom",
		"tokenizer": unicode.Name,
		"token_filters": []string{
			lowercase.Name,
			en.StopName,
			porter.Name,
		},
	}); err != nil {
		return nil, err
	}
	im.DefaultAnalyzer = analyzerName

	doc := bleve.NewDocumentMapping()

	id := bleve.NewNumericFieldMapping()
	id.Index = false
	id.Store = true
	doc.AddFieldMappingsAt(FieldID, id)

	url := bleve.NewTextFieldMapping()
	url.Index = false
	url.Store = true
	url.Analyzer = "keyword"
	doc.AddFieldMappingsAt(FieldURL, url)

	title := bleve.NewTextFieldMapping()
	title.Analyzer = analyzerName
	title.Store = true
	title.IncludeTermVectors = true
	doc.AddFieldMappingsAt(FieldTitle, title)

	authors := bleve.NewTextFieldMapping()
	authors.Analyzer = analyzerName
	authors.Store = true
	authors.IncludeTermVectors = true
	doc.AddFieldMappingsAt(FieldAuthors, authors)

	description := bleve.NewTextFieldMapping()
	description.Analyzer = analyzerName
	description.Store = false
	description.IncludeTermVectors = true
	doc.AddFieldMappingsAt(FieldDescription, description)

	body := bleve.NewTextFieldMapping()
	body.Analyzer = analyzerName
	body.Store = false
	body.IncludeTermVectors = true
	doc.AddFieldMappingsAt(FieldBody, body)

	embedding := bleve.NewTextFieldMapping()
	embedding.Index = false
	embedding.Store = true
	embedding.Analyzer = "keyword"
	doc.AddFieldMappingsAt(FieldEmbedding, embedding)

	im.AddDocumentMapping(DocumentType, doc)
	im.TypeField = "_type"
	im.DefaultType = DocumentType

	return im, nil
}
