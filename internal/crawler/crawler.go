// Package crawler fetches course-linked web pages depth-first within a
// bounded link distance of the seed URL.
//
// Every Crawl call builds its own collector, so the visited set lives and
// dies with the crawl: a page skipped as visited in one crawl is fetched
// fresh by the next. The collector runs synchronously, which makes the
// traversal depth-first in document order.
package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/gocolly/colly/v2"
	"github.com/temoto/robotstxt"

	"github.com/openlms/ask4summary/internal/config"
	"github.com/openlms/ask4summary/internal/log"
	"github.com/openlms/ask4summary/internal/segment"
)

// Page is one crawled page with its harvested sentences.
type Page struct {
	// URL is the fetched location after relative-link resolution.
	URL string
	// Title is the readability-extracted page title, empty when none found.
	Title string
	// Depth is the remaining link budget at this page: the seed carries the
	// full crawl depth, pages one link away carry one less, and pages whose
	// budget would be zero are never fetched.
	Depth int
	// Sentences holds the page's paragraph and bullet sentences in order.
	Sentences []string
}

// Crawler crawls seed URLs into Page batches.
type Crawler struct {
	userAgent string
	delay     time.Duration
	timeout   time.Duration
	logger    log.Logger
}

// New creates a Crawler with the given politeness settings.
func New(cfg config.CrawlerConfig, logger log.Logger) *Crawler {
	return &Crawler{
		userAgent: cfg.UserAgent,
		delay:     time.Duration(cfg.DelayMS) * time.Millisecond,
		timeout:   time.Duration(cfg.TimeoutMS) * time.Millisecond,
		logger:    logger,
	}
}

// Crawl fetches the seed page and follows links depth-first until maxDepth
// links away from the seed. Cycles and repeated links are fetched once per
// crawl. Individual page failures are logged and skipped; the crawl fails
// only when the seed itself is denied or unreachable.
func (c *Crawler) Crawl(ctx context.Context, seedURL string, maxDepth int) ([]Page, error) {
	// A zero depth budget is terminal: nothing is fetched, not even the seed.
	if maxDepth <= 0 {
		return nil, nil
	}

	seed, err := url.Parse(seedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid seed URL: %w", err)
	}

	allowed, err := c.robotsAllowed(ctx, seed)
	if err != nil {
		c.logger.Debug("robots.txt unavailable, proceeding", "url", seedURL, "error", err)
	} else if !allowed {
		return nil, fmt.Errorf("crawl of %s disallowed by robots.txt", seedURL)
	}

	// colly counts the seed as depth 1, so its MaxDepth equals the budget:
	// the seed spends one unit and pages whose budget would reach zero are
	// never fetched.
	collector := colly.NewCollector(
		colly.MaxDepth(maxDepth),
		colly.UserAgent(c.userAgent),
	)
	collector.SetRequestTimeout(c.timeout)
	if err := collector.Limit(&colly.LimitRule{DomainGlob: "*", Delay: c.delay}); err != nil {
		return nil, fmt.Errorf("failed to set crawl limits: %w", err)
	}

	var pages []Page
	var seedErr error

	collector.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		if r.Request.Depth == 1 {
			seedErr = err
		}
		c.logger.Warn("page fetch failed", "url", r.Request.URL.String(), "error", err)
	})

	collector.OnHTML("html", func(e *colly.HTMLElement) {
		page := Page{
			URL:       e.Request.URL.String(),
			Title:     pageTitle(e),
			Depth:     maxDepth - (e.Request.Depth - 1),
			Sentences: harvestSentences(e.DOM),
		}
		pages = append(pages, page)
		c.logger.Debug("crawled page",
			"url", page.URL, "depth", page.Depth, "sentences", len(page.Sentences))

		for _, href := range e.ChildAttrs("a[href]", "href") {
			// Visit resolves relative links and skips visited and
			// depth-exhausted requests.
			_ = e.Request.Visit(href)
		}
	})

	if err := collector.Visit(seedURL); err != nil {
		return nil, fmt.Errorf("failed to crawl %s: %w", seedURL, err)
	}
	if len(pages) == 0 && seedErr != nil {
		return nil, fmt.Errorf("failed to crawl %s: %w", seedURL, seedErr)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return pages, nil
}

// robotsAllowed checks the seed host's robots.txt for our user agent.
func (c *Crawler) robotsAllowed(ctx context.Context, seed *url.URL) (bool, error) {
	robotsURL := seed.Scheme + "://" + seed.Host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return true, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	client := &http.Client{Timeout: c.timeout}
	resp, err := client.Do(req)
	if err != nil {
		return true, err
	}
	defer resp.Body.Close()

	robots, err := robotstxt.FromResponse(resp)
	if err != nil {
		return true, err
	}
	return robots.TestAgent(seed.Path, c.userAgent), nil
}

// pageTitle extracts the page title, preferring the readability parse over
// the raw <title> tag.
func pageTitle(e *colly.HTMLElement) string {
	article, err := readability.FromReader(strings.NewReader(string(e.Response.Body)), e.Request.URL)
	if err == nil && article.Title != "" {
		return article.Title
	}
	return strings.TrimSpace(e.DOM.Find("title").First().Text())
}

// harvestSentences collects paragraph and bullet-list sentences. A text block
// qualifies only when it contains terminal punctuation and no tab characters,
// which filters out navigation fragments and tabular noise.
func harvestSentences(doc *goquery.Selection) []string {
	var sentences []string
	doc.Find("p, li").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text == "" || strings.ContainsRune(text, '\t') {
			return
		}
		if !strings.ContainsAny(text, ".?!") {
			return
		}
		sentences = append(sentences, segment.Split(text)...)
	})
	return sentences
}
