package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Page is one fetched documentation page with its extracted main content.
type Page struct {
	URL  string
	Text string
}

// Crawler fetches a documentation site: the start page plus every
// same-host page it links to, one level deep, with the main content
// extracted as plain text.
type Crawler struct {
	client   *http.Client
	maxPages int
	logger   *zap.Logger
}

func NewCrawler(maxPages int, logger *zap.Logger) *Crawler {
	return &Crawler{
		client:   &http.Client{Timeout: 30 * time.Second},
		maxPages: maxPages,
		logger:   logger,
	}
}

// Crawl returns the start page and its same-host link targets as pages.
// Individual page failures are logged and skipped; only a failure to fetch
// the start page aborts the crawl.
func (c *Crawler) Crawl(ctx context.Context, baseURL string) ([]Page, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	doc, err := c.fetch(ctx, baseURL)
	if err != nil {
		return nil, fmt.Errorf("fetch start page: %w", err)
	}

	targets := c.collectLinks(doc, base)
	c.logger.Info("collected documentation links", zap.Int("count", len(targets)))

	pages := []Page{{URL: baseURL, Text: extractMainText(doc)}}

	for _, target := range targets {
		if len(pages) >= c.maxPages {
			c.logger.Warn("page limit reached, stopping crawl", zap.Int("max_pages", c.maxPages))
			break
		}

		pageDoc, err := c.fetch(ctx, target)
		if err != nil {
			c.logger.Warn("failed to fetch page, skipping",
				zap.String("url", target), zap.Error(err))
			continue
		}

		text := extractMainText(pageDoc)
		if text == "" {
			continue
		}

		pages = append(pages, Page{URL: target, Text: text})
	}

	return pages, nil
}

func (c *Crawler) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: HTTP %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	return doc, nil
}

// collectLinks resolves every anchor on the page against base and keeps
// unique same-host HTML targets, fragment and query stripped.
func (c *Crawler) collectLinks(doc *goquery.Document, base *url.URL) []string {
	seen := map[string]bool{base.String(): true}
	var targets []string

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")

		ref, err := url.Parse(href)
		if err != nil {
			return
		}

		resolved := base.ResolveReference(ref)
		resolved.Fragment = ""
		resolved.RawQuery = ""

		if resolved.Host != base.Host {
			return
		}
		if ext := strings.ToLower(resolved.Path); strings.HasSuffix(ext, ".png") ||
			strings.HasSuffix(ext, ".zip") || strings.HasSuffix(ext, ".pdf") {
			return
		}

		link := resolved.String()
		if seen[link] {
			return
		}
		seen[link] = true
		targets = append(targets, link)
	})

	return targets
}

// extractMainText pulls the text of the page's main content region,
// falling back to the whole body for pages without one.
func extractMainText(doc *goquery.Document) string {
	main := doc.Find(`div[role="main"]`)
	if main.Length() == 0 {
		main = doc.Find("main")
	}
	if main.Length() == 0 {
		main = doc.Find("body")
	}

	var parts []string
	main.Find("h1, h2, h3, h4, p, li, pre").Each(func(_ int, sel *goquery.Selection) {
		// An li already contributes the text of everything nested inside
		// it, so descendants of a matched li (paragraphs, sub-list items,
		// code blocks) must not be emitted a second time.
		if sel.ParentsFiltered("li").Length() > 0 {
			return
		}
		if text := strings.TrimSpace(sel.Text()); text != "" {
			parts = append(parts, text)
		}
	})

	return strings.Join(parts, "\n\n")
}
