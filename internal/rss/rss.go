// Package rss harvests candidate articles from the sources' syndication
// feeds. Feed entries carry enough text to filter eagerly, so recency, query
// and genre checks all happen here; a broken feed is logged and skipped
// without aborting the run.
package rss

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/addispulse/addispulse/internal/dates"
	"github.com/addispulse/addispulse/internal/logger"
	"github.com/addispulse/addispulse/internal/news"
	"github.com/addispulse/addispulse/internal/sources"
)

// Parser is the slice of gofeed the harvester needs; tests substitute a fake.
type Parser interface {
	ParseURL(ctx context.Context, feedURL string) (*gofeed.Feed, error)
}

type gofeedParser struct {
	parser *gofeed.Parser
}

func (p gofeedParser) ParseURL(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	return p.parser.ParseURLWithContext(feedURL, ctx)
}

// NewParser wraps a gofeed parser for network use.
func NewParser() Parser {
	return gofeedParser{parser: gofeed.NewParser()}
}

type Harvester struct {
	parser     Parser
	registry   *sources.Registry
	windowDays int
	now        func() time.Time
}

func NewHarvester(parser Parser, registry *sources.Registry, windowDays int) *Harvester {
	return &Harvester{
		parser:     parser,
		registry:   registry,
		windowDays: windowDays,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

var (
	htmlTags   = regexp.MustCompile(`<[^>]*>`)
	whitespace = regexp.MustCompile(`\s+`)
)

// stripHTML reduces a feed description to plain text.
func stripHTML(s string) string {
	s = htmlTags.ReplaceAllString(s, " ")
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// feedURLsFor selects the feeds to pull for one source: the genre category
// feed when the genre has one for this source, otherwise the general feed
// plus the default category feed (both, not either).
func (h *Harvester) feedURLsFor(src sources.Source, genre string) []string {
	if genre != "" {
		if u, ok := h.registry.GenreFeed(src.Name, genre); ok {
			return []string{u}
		}
	}
	var urls []string
	if src.Feed != "" {
		urls = append(urls, src.Feed)
	}
	if src.CategoryFeed != "" {
		urls = append(urls, src.CategoryFeed)
	}
	return urls
}

// Harvest pulls all configured feeds and returns candidates newest-first.
func (h *Harvester) Harvest(ctx context.Context, srcs []sources.Source, query, genre string) []news.Candidate {
	type dated struct {
		cand news.Candidate
		ts   time.Time
	}
	var results []dated

	for _, src := range srcs {
		for _, feedURL := range h.feedURLsFor(src, genre) {
			logger.Info("fetching feed", "url", feedURL, "source", src.Name)
			feed, err := h.parser.ParseURL(ctx, feedURL)
			if err != nil {
				logger.Error("failed to parse feed", "url", feedURL, "error", err)
				continue
			}

			for _, entry := range feed.Items {
				cand, ts, ok := h.candidateFromEntry(entry, src, query, genre)
				if !ok {
					continue
				}
				results = append(results, dated{cand: cand, ts: ts})
			}
		}
	}

	// Newest first; the timestamp is a sort key only and is not carried
	// past this point.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].ts.After(results[j].ts)
	})

	out := make([]news.Candidate, 0, len(results))
	for _, r := range results {
		out = append(out, r.cand)
	}
	return out
}

func (h *Harvester) candidateFromEntry(entry *gofeed.Item, src sources.Source, query, genre string) (news.Candidate, time.Time, bool) {
	title := entry.Title
	if title == "" {
		title = "Untitled Article"
	}
	link := entry.Link
	if link == "" || sources.ContainsAny(link, sources.ExcludedLinkKeywords) {
		logger.Debug("excluding feed entry", "link", link)
		return news.Candidate{}, time.Time{}, false
	}

	// Feed entries are filtered eagerly: an absent or stale publish date
	// drops the entry here rather than at resolution.
	var ts time.Time
	if entry.PublishedParsed != nil {
		ts = entry.PublishedParsed.UTC()
	} else if parsed, ok := dates.Parse(entry.Published); ok {
		ts = parsed
	} else {
		logger.Debug("skipping feed entry without parseable date", "link", link, "published", entry.Published)
		return news.Candidate{}, time.Time{}, false
	}
	if !dates.WithinWindow(ts, h.windowDays, h.now()) {
		logger.Debug("skipping stale feed entry", "link", link, "published", ts)
		return news.Candidate{}, time.Time{}, false
	}

	content := entry.Description
	if content == "" && entry.Content != "" {
		content = entry.Content
	}
	content = stripHTML(content)

	if query != "" && !matchesQuery(title, content, query) {
		return news.Candidate{}, time.Time{}, false
	}
	if genre != "" && !h.registry.MatchesGenre(title, content, genre) {
		return news.Candidate{}, time.Time{}, false
	}

	cand := news.NewCandidate(title, link, src.Name, news.KindFeed)
	cand.Content = content
	cand.PublishedRaw = entry.Published
	if cand.PublishedRaw == "" {
		cand.PublishedRaw = ts.Format(time.RFC3339)
	}
	return cand, ts, true
}

func matchesQuery(title, content, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(title), q) ||
		(content != "" && strings.Contains(strings.ToLower(content), q))
}
