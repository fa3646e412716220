package search

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

const (
	// MaxFetchedChars caps the text extracted from a page
	MaxFetchedChars = 5000

	maxPageBytes = 10 << 20
)

// FetchURLContent downloads a page and returns its readable text.
// The main article is extracted when one can be identified; otherwise all
// visible text is used. ok is false on any failure or when no text remains.
func (s *Searcher) FetchURLContent(ctx context.Context, rawURL string) (string, bool) {
	pageURL, err := url.Parse(rawURL)
	if err != nil || pageURL.Host == "" {
		s.logger.Warn("invalid url", "url", rawURL, "error", err)
		return "", false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL.String(), nil)
	if err != nil {
		s.logger.Error("failed to build request", "url", rawURL, "error", err)
		return "", false
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; FactCheckBot/1.0)")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("failed to fetch url", "url", rawURL, "error", err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Error("unexpected status fetching url", "url", rawURL, "status", resp.StatusCode)
		return "", false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		s.logger.Error("failed to read page", "url", rawURL, "error", err)
		return "", false
	}

	// resp.Request carries the final URL after redirects
	text := extractArticle(body, resp.Request.URL)
	if text == "" {
		text = extractVisibleText(body)
	}
	text = truncateRunes(text, MaxFetchedChars)

	return text, text != ""
}

func extractArticle(body []byte, pageURL *url.URL) string {
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return ""
	}
	return collapseWhitespace(article.TextContent)
}

func extractVisibleText(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()
	return collapseWhitespace(doc.Text())
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func truncateRunes(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n])
}
