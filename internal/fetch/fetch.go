// Package fetch is the boundary to the page-rendering engine. Harvesters and
// the resolver only see the Renderer interface; the production implementation
// sits on colly and goquery, paced by an explicit fixed-delay scheduler so
// the politeness policy is testable without touching the network.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

// Options tune one render call.
type Options struct {
	Selector    string // scope for link extraction; empty means whole page
	Timeout     time.Duration
	BypassCache bool
}

// Link is an anchor found on the rendered page, resolved to an absolute URL.
type Link struct {
	URL  string
	Text string
}

// Page is the rendered result.
type Page struct {
	URL      string
	HTML     string
	Links    []Link
	Metadata map[string]string // meta-tag projection: "date", "title"
}

// Renderer fetches a URL and returns rendered HTML plus basic metadata.
type Renderer interface {
	Render(ctx context.Context, pageURL string, opts Options) (*Page, error)
}

// Pacer enforces a fixed delay between consecutive fetches. The sleep
// function is injectable for tests.
type Pacer struct {
	mu    sync.Mutex
	last  time.Time
	delay time.Duration
	sleep func(time.Duration)
	now   func() time.Time
}

func NewPacer(delay time.Duration) *Pacer {
	return &Pacer{delay: delay, sleep: time.Sleep, now: time.Now}
}

// Wait blocks until at least the configured delay has passed since the
// previous fetch.
func (p *Pacer) Wait() {
	p.mu.Lock()
	now := p.now()
	wait := p.delay - now.Sub(p.last)
	if wait < 0 {
		wait = 0
	}
	p.last = now.Add(wait)
	p.mu.Unlock()

	if wait > 0 {
		p.sleep(wait)
	}
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// CollyRenderer renders pages with a plain HTTP fetch through colly.
type CollyRenderer struct {
	pacer     *Pacer
	userAgent string
}

func NewCollyRenderer(pacer *Pacer) *CollyRenderer {
	return &CollyRenderer{pacer: pacer, userAgent: defaultUserAgent}
}

func (r *CollyRenderer) Render(ctx context.Context, pageURL string, opts Options) (*Page, error) {
	if r.pacer != nil {
		r.pacer.Wait()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := colly.NewCollector(
		colly.UserAgent(r.userAgent),
		colly.AllowURLRevisit(),
	)
	if opts.Timeout > 0 {
		c.SetRequestTimeout(opts.Timeout)
	}

	var body []byte
	var fetchErr error
	c.OnResponse(func(resp *colly.Response) {
		body = resp.Body
	})
	c.OnError(func(resp *colly.Response, err error) {
		fetchErr = err
	})

	if err := c.Visit(pageURL); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	c.Wait()
	if fetchErr != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, fetchErr)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("fetch %s: empty response", pageURL)
	}

	return BuildPage(pageURL, string(body), opts.Selector)
}

// BuildPage parses rendered HTML into a Page: internal links within the
// selector scope (all anchors when the selector matches nothing) and a
// meta-tag projection.
func BuildPage(pageURL, html, selector string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(html)))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse url %s: %w", pageURL, err)
	}

	page := &Page{
		URL:      pageURL,
		HTML:     html,
		Metadata: map[string]string{},
	}

	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		page.Metadata["title"] = title
	}
	if d, ok := doc.Find(`meta[property="article:published_time"], meta[name="dc.date"]`).First().Attr("content"); ok {
		page.Metadata["date"] = strings.TrimSpace(d)
	}

	scope := doc.Selection
	if selector != "" {
		if sel := doc.Find(selector); sel.Length() > 0 {
			scope = sel
		}
	}

	seen := map[string]struct{}{}
	scope.Find("a[href]").AddSelection(scope.Filter("a[href]")).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		abs, err := base.Parse(strings.TrimSpace(href))
		if err != nil || (abs.Scheme != "http" && abs.Scheme != "https") {
			return
		}
		// internal links only
		if abs.Host != base.Host {
			return
		}
		u := abs.String()
		if _, dup := seen[u]; dup {
			return
		}
		seen[u] = struct{}{}
		page.Links = append(page.Links, Link{URL: u, Text: strings.TrimSpace(s.Text())})
	})

	return page, nil
}
