package scrape

import (
	"bytes"
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"

	"searxiv/internal/errs"
	"searxiv/internal/ratelimit"
	"searxiv/internal/store"
)

// hyphenPattern matches a line-break hyphenation: a word char, a
// hyphen, a newline, another word char.
var hyphenPattern = regexp.MustCompile(`(\w)-\n(\w)`)

// RepairHyphenation collapses "x-\ny" into "xy", leaving every other
// hyphen and newline untouched.
func RepairHyphenation(s string) string {
	return hyphenPattern.ReplaceAllString(s, "$1$2")
}

// ScrapePaper fetches a landing page and its PDF, extracts metadata
// and full text, and ingests the result transactionally.
func ScrapePaper(ctx context.Context, gov *ratelimit.Governor, gw store.Gateway, logger *slog.Logger, landingURL string) error {
	landingBody, err := gov.Get(ctx, landingURL)
	if err != nil {
		return err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(landingBody))
	if err != nil {
		return errs.New(errs.Io, "ScrapePaper", err)
	}

	title, description, authors, subjects := parseLandingPage(doc)

	pdfURL := strings.Replace(landingURL, "abs", "pdf", 1)
	pdfBytes, err := gov.Get(ctx, pdfURL)
	if err != nil {
		return err
	}

	body, err := extractPDFText(pdfBytes)
	if err != nil {
		logger.Warn("pdf text extraction failed, recording empty body", slog.String("url", landingURL), slog.String("error", err.Error()))
		body = ""
	}
	body = RepairHyphenation(body)
	if body == "" {
		logger.Warn("paper has empty body", slog.String("url", landingURL))
	}

	_, err = gw.IngestPaperTx(ctx, store.NewPaper{
		URL:         landingURL,
		Title:       title,
		Description: description,
		Body:        body,
	}, authors, subjects)
	return err
}

func firstText(doc *goquery.Document, selector string) (string, bool) {
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", false
	}
	return sel.Text(), true
}

// parseLandingPage extracts the landing page metadata. Missing
// selectors yield empty strings/slices, never an error.
func parseLandingPage(doc *goquery.Document) (title, description string, authors, subjects []string) {
	title = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(doc.Find("h1.title").First().Text()), "Title:"))

	description = strings.TrimPrefix(strings.TrimSpace(doc.Find("blockquote.abstract").First().Text()), "Abstract:")
	description = strings.TrimSpace(collapseNewlines(description))

	doc.Find(".authors > a").Each(func(_ int, s *goquery.Selection) {
		if name := strings.TrimSpace(s.Text()); name != "" {
			authors = append(authors, name)
		}
	})

	if raw, ok := firstText(doc, "td.subjects"); ok {
		for _, part := range strings.Split(raw, ";") {
			if s := strings.TrimSpace(part); s != "" {
				subjects = append(subjects, s)
			}
		}
	}

	return title, description, authors, subjects
}

func collapseNewlines(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// extractPDFText iterates PDF pages, concatenating their extracted
// text separated by single spaces.
func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errs.New(errs.Io, "extractPDFText", err)
	}

	var parts []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " "), nil
}
