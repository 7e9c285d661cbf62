// Package pipeline wires the harvesters, resolver, deduplicator and index
// into the two entry points the service exposes: on-demand crawls and the
// raw-item cleaning path. The scheduler drives full runs through the same
// code.
package pipeline

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/addispulse/addispulse/internal/dates"
	"github.com/addispulse/addispulse/internal/dedup"
	"github.com/addispulse/addispulse/internal/digest"
	"github.com/addispulse/addispulse/internal/homepage"
	"github.com/addispulse/addispulse/internal/langid"
	"github.com/addispulse/addispulse/internal/logger"
	"github.com/addispulse/addispulse/internal/merge"
	"github.com/addispulse/addispulse/internal/metrics"
	"github.com/addispulse/addispulse/internal/news"
	"github.com/addispulse/addispulse/internal/resolve"
	"github.com/addispulse/addispulse/internal/rss"
	"github.com/addispulse/addispulse/internal/sources"
	"github.com/addispulse/addispulse/internal/vectorstore"
)

const telegramContentCap = 1000

type Options struct {
	PriorityURLPart     string
	CandidateCap        int
	ResultCap           int
	SimilarityThreshold float64
}

type Pipeline struct {
	registry *sources.Registry
	feeds    *rss.Harvester
	pages    *homepage.Harvester
	scoop    *digest.Harvester
	resolver *resolve.Resolver
	store    *vectorstore.Store
	detector *langid.Detector
	opts     Options
}

func New(registry *sources.Registry, feeds *rss.Harvester, pages *homepage.Harvester, scoop *digest.Harvester, resolver *resolve.Resolver, store *vectorstore.Store, detector *langid.Detector, opts Options) *Pipeline {
	return &Pipeline{
		registry: registry,
		feeds:    feeds,
		pages:    pages,
		scoop:    scoop,
		resolver: resolver,
		store:    store,
		detector: detector,
		opts:     opts,
	}
}

// Crawl runs the full ingestion path for the requested homepages: harvest,
// merge, resolve, dedup, sort, cap, index. The returned slice is what the
// caller sees; indexing happens regardless.
func (p *Pipeline) Crawl(ctx context.Context, urls []string, query, genre string) ([]news.Article, error) {
	start := time.Now()
	logger.Info("starting crawl", "urls", len(urls), "query", query, "genre", genre)

	feedCands := p.feeds.Harvest(ctx, p.registry.Sources, query, genre)

	pageCands := p.pages.Harvest(ctx, p.registry.Sources, urls, query)
	if wantsDigest(urls) {
		pageCands = append(pageCands, p.scoop.Harvest(ctx, query)...)
	}

	merged := merge.Merge(feedCands, pageCands, p.opts.PriorityURLPart, p.opts.CandidateCap)
	metrics.Global.AddCandidates(len(merged))

	articles := p.resolver.ResolveAll(ctx, merged, query)
	articles = p.finish(ctx, articles)

	metrics.Global.RecordRunDuration(time.Since(start))
	metrics.Global.SetLastRun()
	logger.Info("crawl complete", "articles", len(articles), "duration", time.Since(start))
	return articles, nil
}

// Clean normalizes externally supplied raw items (news-API results, message
// posts, replayed payloads) without fetching anything: date parsing, content
// cleaning, language tagging, stable IDs, dedup, then indexing.
func (p *Pipeline) Clean(ctx context.Context, raw []news.Candidate) []news.Article {
	var articles []news.Article
	for _, cand := range raw {
		content := resolve.CleanContent(cand.Content)
		if cand.SourceKind == news.KindTelegram {
			if r := []rune(content); len(r) > telegramContentCap {
				content = string(r[:telegramContentCap])
			}
		}
		if content == "" && cand.Title == "" {
			continue
		}

		published, _ := dates.Parse(cand.PublishedRaw)
		discovered := cand.Discovered
		if discovered.IsZero() {
			discovered = time.Now().UTC()
		}

		articles = append(articles, news.Article{
			ID:         news.StableID(cand.SourceURL),
			Title:      strings.TrimSpace(cand.Title),
			Body:       content,
			SourceURL:  cand.SourceURL,
			SourceSite: cand.SourceSite,
			SourceKind: cand.SourceKind,
			Published:  published,
			Discovered: discovered,
			Lang:       p.detector.Detect(cand.Title + " " + content),
		})
	}
	return p.finish(ctx, articles)
}

// Run is the scheduled full ingestion: every registered homepage, no query,
// no genre.
func (p *Pipeline) Run(ctx context.Context) error {
	var urls []string
	for _, src := range p.registry.Sources {
		urls = append(urls, src.Homepage)
	}
	_, err := p.Crawl(ctx, urls, "", "")
	if err != nil {
		metrics.Global.SetError(err.Error())
	}
	return err
}

// finish applies the shared tail of both paths: cross-source dedup,
// newest-first ordering, the result cap and indexing.
func (p *Pipeline) finish(ctx context.Context, articles []news.Article) []news.Article {
	articles = dedup.Deduplicate(articles, p.opts.SimilarityThreshold)

	// Undated articles sort after dated ones.
	sort.SliceStable(articles, func(i, j int) bool {
		pi, pj := articles[i].Published, articles[j].Published
		if pi.IsZero() != pj.IsZero() {
			return !pi.IsZero()
		}
		return pi.After(pj)
	})

	if p.opts.ResultCap > 0 && len(articles) > p.opts.ResultCap {
		articles = articles[:p.opts.ResultCap]
	}

	p.store.UpsertAll(ctx, articles)
	return articles
}

func wantsDigest(urls []string) bool {
	for _, u := range urls {
		if strings.Contains(strings.ToLower(u), "addisstandard.com") {
			return true
		}
	}
	return false
}
