// Package digest harvests the Addis Standard daily-scoop page, a rolling
// digest whose layout differs from the regular homepages: items carry their
// excerpt inline, so candidates leave here with content already attached.
package digest

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/addispulse/addispulse/internal/dates"
	"github.com/addispulse/addispulse/internal/fetch"
	"github.com/addispulse/addispulse/internal/logger"
	"github.com/addispulse/addispulse/internal/news"
)

const (
	PageURL    = "https://addisstandard.com/daily-scoop"
	sourceSite = "Addis Standard"

	itemSelector    = ".td-block-span12, .td_module_wrap, .td-block-span6"
	titleSelector   = "h3 a, .entry-title a, .td-post-title a"
	excerptSelector = "p, .td-excerpt, .td-post-text-excerpt"
	dateSelector    = "time, .entry-date, .td-post-date"

	minExcerptLen = 50
)

var recentYearPath = regexp.MustCompile(`/(202[4-9])/`)

type Harvester struct {
	renderer fetch.Renderer
	timeout  time.Duration
}

func NewHarvester(renderer fetch.Renderer, timeout time.Duration) *Harvester {
	return &Harvester{renderer: renderer, timeout: timeout}
}

// Harvest scrapes the digest page once and returns its items newest-first.
// Failure yields an empty list; the digest never blocks the rest of a run.
func (h *Harvester) Harvest(ctx context.Context, query string) []news.Candidate {
	page, err := h.renderer.Render(ctx, PageURL, fetch.Options{
		Selector:    itemSelector,
		Timeout:     h.timeout,
		BypassCache: true,
	})
	if err != nil {
		logger.Error("failed to crawl daily scoop", "error", err)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		logger.Error("failed to parse daily scoop", "error", err)
		return nil
	}

	type dated struct {
		cand news.Candidate
		ts   time.Time
	}
	var items []dated

	doc.Find(itemSelector).Each(func(_ int, item *goquery.Selection) {
		titleElem := item.Find(titleSelector).First()
		title := strings.TrimSpace(titleElem.Text())
		if title == "" {
			title = "Untitled Scoop Item"
		}
		link, ok := titleElem.Attr("href")
		if !ok || !recentYearPath.MatchString(link) {
			return
		}

		content := strings.TrimSpace(item.Find(excerptSelector).First().Text())
		if len(content) < minExcerptLen {
			return
		}
		if query != "" && !matchesQuery(title, content, query) {
			return
		}

		cand := news.NewCandidate(title, link, sourceSite, news.KindCrawl)
		cand.Content = content
		cand.PublishedRaw = dates.Unknown

		// The item date, when the page exposes one, is used only to order
		// the digest; it is dropped before the candidates are returned.
		ts := time.Time{}
		if raw := strings.TrimSpace(item.Find(dateSelector).First().Text()); raw != "" {
			if parsed, ok := dates.Parse(raw); ok {
				ts = parsed
				cand.PublishedRaw = raw
			}
		}
		items = append(items, dated{cand: cand, ts: ts})
	})

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ts.After(items[j].ts)
	})

	out := make([]news.Candidate, 0, len(items))
	for _, it := range items {
		out = append(out, it.cand)
	}
	logger.Info("daily scoop harvest complete", "items", len(out))
	return out
}

func matchesQuery(title, content, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(title), q) ||
		strings.Contains(strings.ToLower(content), q)
}
