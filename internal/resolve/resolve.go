// Package resolve turns surviving candidates into fully fetched, cleaned and
// validated articles. Fetches run under a bounded-parallelism guard; every
// failure is per-article and never propagates to the batch.
package resolve

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/addispulse/addispulse/internal/dates"
	"github.com/addispulse/addispulse/internal/fetch"
	"github.com/addispulse/addispulse/internal/langid"
	"github.com/addispulse/addispulse/internal/logger"
	"github.com/addispulse/addispulse/internal/metrics"
	"github.com/addispulse/addispulse/internal/news"
	"github.com/addispulse/addispulse/internal/retry"
	"github.com/addispulse/addispulse/internal/sources"
)

const (
	// MinContentLen is the inclusive acceptance boundary: 49 chars is
	// rejected, 50 is kept.
	MinContentLen = 50

	// passThroughLen: candidates that already carry this much content skip
	// the fetch entirely.
	passThroughLen = 200

	// shortTitleLen: existing titles below this are re-extracted from the page.
	shortTitleLen = 20
)

type Resolver struct {
	renderer   fetch.Renderer
	registry   *sources.Registry
	detector   *langid.Detector
	windowDays int
	timeout    time.Duration
	retryCfg   retry.Config
	maxWorkers int
	now        func() time.Time
}

func New(renderer fetch.Renderer, registry *sources.Registry, detector *langid.Detector, windowDays int, timeout time.Duration, retryCfg retry.Config, maxWorkers int) *Resolver {
	if maxWorkers <= 0 {
		maxWorkers = 3
	}
	return &Resolver{
		renderer:   renderer,
		registry:   registry,
		detector:   detector,
		windowDays: windowDays,
		timeout:    timeout,
		retryCfg:   retryCfg,
		maxWorkers: maxWorkers,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

var (
	whitespace    = regexp.MustCompile(`\s+`)
	markdownLinks = regexp.MustCompile(`\[.*?\]\(.*?\)`)
)

// CleanContent strips boilerplate phrases and markdown-link remnants, then
// collapses whitespace.
func CleanContent(content string) string {
	for _, phrase := range sources.BoilerplatePhrases {
		content = strings.ReplaceAll(content, phrase, "")
	}
	content = markdownLinks.ReplaceAllString(content, "")
	return strings.TrimSpace(whitespace.ReplaceAllString(content, " "))
}

// ResolveAll resolves candidates under the concurrency guard, preserving
// input order among survivors. Query filtering happens here only for page
// candidates; feed candidates were already query-filtered at harvest, and
// the filter must apply exactly once per article.
func (r *Resolver) ResolveAll(ctx context.Context, cands []news.Candidate, query string) []news.Article {
	results := make([]*news.Article, len(cands))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxWorkers)

	for i, cand := range cands {
		g.Go(func() error {
			art := r.Resolve(gctx, cand)
			if art == nil {
				return nil
			}
			if query != "" && cand.SourceKind != news.KindFeed && !matchesQuery(art.Title, art.Body, query) {
				return nil
			}
			results[i] = art
			return nil
		})
	}
	_ = g.Wait()

	var out []news.Article
	for _, art := range results {
		if art != nil {
			out = append(out, *art)
		}
	}
	metrics.Global.AddResolved(len(out))
	return out
}

// Resolve produces the article for one candidate, or nil when the candidate
// is rejected or the fetch fails after its single retry.
func (r *Resolver) Resolve(ctx context.Context, cand news.Candidate) *news.Article {
	if len(cand.Content) >= passThroughLen {
		return r.validate(cand, cand.Title, cand.Content, cand.PublishedRaw)
	}

	var page *fetch.Page
	err := retry.WithRetry(ctx, r.retryCfg, func() error {
		var err error
		page, err = r.renderer.Render(ctx, cand.SourceURL, fetch.Options{
			Timeout:     r.timeout,
			BypassCache: true,
		})
		if err != nil {
			metrics.Global.IncrementFetchRetries()
		}
		return err
	})
	if err != nil {
		logger.Error("failed to crawl article", "url", cand.SourceURL, "error", err)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		logger.Error("failed to parse article page", "url", cand.SourceURL, "error", err)
		return nil
	}

	rules, _ := r.registry.RulesFor(cand.SourceSite)

	title := cand.Title
	if len(strings.TrimSpace(title)) < shortTitleLen || title == "Untitled Article" {
		if t := strings.TrimSpace(doc.Find(rules.TitleSelector).First().Text()); t != "" {
			title = t
		}
	}
	if title == "" {
		title = "Untitled Article"
	}

	var parts []string
	doc.Find(rules.ContentSelector).Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	content := strings.Join(parts, " ")

	rawDate := r.extractDate(page, doc, rules, content, title)

	return r.validate(cand, title, content, rawDate)
}

// extractDate walks the priority chain: render metadata, explicit meta tags,
// the per-site date selector, then the per-site regex patterns.
func (r *Resolver) extractDate(page *fetch.Page, doc *goquery.Document, rules sources.Rules, content, title string) string {
	if d := page.Metadata["date"]; d != "" {
		return d
	}
	if d, ok := doc.Find(`meta[property="article:published_time"], meta[name="dc.date"]`).First().Attr("content"); ok && strings.TrimSpace(d) != "" {
		return strings.TrimSpace(d)
	}
	if rules.DateSelector != "" {
		sel := doc.Find(rules.DateSelector).First()
		if goquery.NodeName(sel) == "meta" {
			if d, ok := sel.Attr("content"); ok && strings.TrimSpace(d) != "" {
				return strings.TrimSpace(d)
			}
		} else if d := strings.TrimSpace(sel.Text()); d != "" {
			return d
		}
	}
	for _, pattern := range rules.DatePatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			continue
		}
		if m := re.FindString(content + " " + title); m != "" {
			return m
		}
	}
	return dates.Unknown
}

// validate applies cleaning, the recency window, the length boundary, the
// non-news keyword lists and language tagging. Rejections are silent drops.
func (r *Resolver) validate(cand news.Candidate, title, content, rawDate string) *news.Article {
	content = CleanContent(content)

	if !dates.IsRecentAt(rawDate, r.windowDays, r.now()) {
		logger.Debug("skipping stale article", "url", cand.SourceURL, "published", rawDate)
		return nil
	}

	if len(content) < MinContentLen {
		logger.Debug("skipping short article", "url", cand.SourceURL, "length", len(content))
		return nil
	}
	if sources.ContainsAny(content, sources.ExcludedContentKeywords) {
		logger.Debug("skipping non-news article", "url", cand.SourceURL)
		return nil
	}
	rules, _ := r.registry.RulesFor(cand.SourceSite)
	if len(rules.ExcludeKeywords) > 0 && sources.ContainsAny(content, rules.ExcludeKeywords) {
		logger.Debug("skipping article by site exclusion", "url", cand.SourceURL)
		return nil
	}

	published, _ := dates.Parse(rawDate)

	return &news.Article{
		ID:         news.StableID(cand.SourceURL),
		Title:      title,
		Body:       content,
		SourceURL:  cand.SourceURL,
		SourceSite: cand.SourceSite,
		SourceKind: cand.SourceKind,
		Published:  published,
		Discovered: cand.Discovered,
		Lang:       r.detector.Detect(content),
	}
}

func matchesQuery(title, body, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(title), q) ||
		strings.Contains(strings.ToLower(body), q)
}
