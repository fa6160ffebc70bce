// Package scrape parses the listing site's pages: listing pages into
// paper URLs plus a continuation link, landing pages into paper
// metadata and extracted PDF text.
package scrape

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"searxiv/internal/errs"
	"searxiv/internal/ratelimit"
)

// ListingResult holds the paper URLs found on one listing page, plus
// the next page's URL if one exists.
type ListingResult struct {
	PaperURLs   []string
	NextPageURL string
}

// siteOrigin is where a relative pagination link is resolved against.
const siteOrigin = "https://arxiv.org"

// ScrapeListing fetches listingURL through the governor and extracts
// paper landing URLs and the pagination-next link.
func ScrapeListing(ctx context.Context, gov *ratelimit.Governor, listingURL string) (*ListingResult, error) {
	body, err := gov.Get(ctx, listingURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, errs.New(errs.Io, "ScrapeListing", err)
	}

	var paperURLs []string
	doc.Find(".list-title > a").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok && href != "" {
			paperURLs = append(paperURLs, href)
		}
	})

	var next string
	if href, ok := doc.Find("a.pagination-next").Attr("href"); ok && href != "" {
		next = resolveAgainstOrigin(href)
	}

	return &ListingResult{PaperURLs: paperURLs, NextPageURL: next}, nil
}

func resolveAgainstOrigin(href string) string {
	base, err := url.Parse(siteOrigin)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
