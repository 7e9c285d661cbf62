// Package homepage harvests candidate article links from source homepages.
// Homepages list articles but don't contain them, so candidates leave here
// with empty content and an unknown date; the resolver fills both in.
package homepage

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/addispulse/addispulse/internal/fetch"
	"github.com/addispulse/addispulse/internal/logger"
	"github.com/addispulse/addispulse/internal/news"
	"github.com/addispulse/addispulse/internal/retry"
	"github.com/addispulse/addispulse/internal/sources"
)

type Harvester struct {
	renderer   fetch.Renderer
	registry   *sources.Registry
	timeout    time.Duration
	retryCfg   retry.Config
	rawLinkCap int // links inspected per homepage
	keepCap    int // candidates kept per homepage
}

func NewHarvester(renderer fetch.Renderer, registry *sources.Registry, timeout time.Duration, retryCfg retry.Config, rawLinkCap, keepCap int) *Harvester {
	return &Harvester{
		renderer:   renderer,
		registry:   registry,
		timeout:    timeout,
		retryCfg:   retryCfg,
		rawLinkCap: rawLinkCap,
		keepCap:    keepCap,
	}
}

var recentYearPath = regexp.MustCompile(`/202[4-9]/`)

// looksLikeArticle applies the path heuristics: a recent-year segment or a
// newsy section keyword.
func looksLikeArticle(link string) bool {
	if recentYearPath.MatchString(link) {
		return true
	}
	return sources.ContainsAny(link, sources.ArticlePathKeywords)
}

// Harvest renders each requested homepage and emits link candidates. A
// homepage that fails after one retry is skipped; the others proceed.
func (h *Harvester) Harvest(ctx context.Context, srcs []sources.Source, requested []string, query string) []news.Candidate {
	var out []news.Candidate
	for _, src := range srcs {
		if !isRequested(src.Homepage, requested) {
			continue
		}
		cands, err := h.harvestOne(ctx, src, query)
		if err != nil {
			logger.Error("skipping homepage", "homepage", src.Homepage, "error", err)
			continue
		}
		out = append(out, cands...)
	}
	logger.Info("homepage harvest complete", "candidates", len(out))
	return out
}

func (h *Harvester) harvestOne(ctx context.Context, src sources.Source, query string) ([]news.Candidate, error) {
	rules, _ := h.registry.RulesFor(src.Name)

	var page *fetch.Page
	err := retry.WithRetry(ctx, h.retryCfg, func() error {
		var err error
		page, err = h.renderer.Render(ctx, src.Homepage, fetch.Options{
			Selector:    rules.LinkSelector,
			Timeout:     h.timeout,
			BypassCache: true,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info("scraped homepage", "homepage", src.Homepage, "links", len(page.Links))

	var cands []news.Candidate
	links := page.Links
	if len(links) > h.rawLinkCap {
		links = links[:h.rawLinkCap]
	}
	for _, link := range links {
		if len(cands) >= h.keepCap {
			break
		}
		if !h.keepLink(link, query) {
			continue
		}
		title := link.Text
		if title == "" {
			title = "Untitled Article"
		}
		cands = append(cands, newPageCandidate(title, link.URL, src.Name))
	}
	return cands, nil
}

func (h *Harvester) keepLink(link fetch.Link, query string) bool {
	href := link.URL
	// Root-relative links point at sections, not articles.
	if strings.HasSuffix(href, "/") {
		return false
	}
	if sources.ContainsAny(href, sources.ExcludedLinkKeywords) {
		logger.Debug("excluding homepage link", "href", href)
		return false
	}
	if sources.ContainsAny(link.Text, sources.ExcludedTitleKeywords) {
		logger.Debug("excluding homepage link by title", "href", href, "text", link.Text)
		return false
	}
	if !looksLikeArticle(href) {
		return false
	}
	if query != "" && !strings.Contains(strings.ToLower(link.Text), strings.ToLower(query)) {
		return false
	}
	return true
}

func newPageCandidate(title, url, site string) news.Candidate {
	c := news.NewCandidate(title, url, site, news.KindCrawl)
	c.PublishedRaw = "Not available"
	return c
}

func isRequested(homepage string, requested []string) bool {
	for _, u := range requested {
		if u == homepage || strings.TrimRight(u, "/") == strings.TrimRight(homepage, "/") {
			return true
		}
	}
	return false
}
