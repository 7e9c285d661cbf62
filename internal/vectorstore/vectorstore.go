// Package vectorstore adapts the chromem persistent vector index for article
// storage and semantic search. Identifiers are stable across runs, so
// repeated ingestion of the same article overwrites instead of duplicating.
package vectorstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/philippgille/chromem-go"

	"github.com/addispulse/addispulse/internal/logger"
	"github.com/addispulse/addispulse/internal/metrics"
	"github.com/addispulse/addispulse/internal/news"
)

const collectionName = "news_articles"

// Record is the metadata projection stored alongside each embedding:
// everything a search-result row needs without re-fetching the article.
type Record struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Text          string  `json:"text"`
	SourceURL     string  `json:"source_url"`
	SourceSite    string  `json:"source_site"`
	SourceKind    string  `json:"source_type"`
	PublishedDate string  `json:"published_date"`
	Discovered    string  `json:"crawl_timestamp"`
	Lang          string  `json:"lang"`
	Similarity    float32 `json:"similarity,omitempty"`
}

type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
	mu         sync.RWMutex
}

// New opens (or creates) the persistent index at dbPath.
func New(dbPath string, embeddingFunc chromem.EmbeddingFunc) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := chromem.NewPersistentDB(dbPath, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector database: %w", err)
	}

	if embeddingFunc == nil {
		embeddingFunc = LocalEmbedding()
	}

	collection := db.GetCollection(collectionName, embeddingFunc)
	if collection == nil {
		collection, err = db.CreateCollection(collectionName, nil, embeddingFunc)
		if err != nil {
			return nil, fmt.Errorf("failed to create collection: %w", err)
		}
	}

	return &Store{db: db, collection: collection}, nil
}

// Upsert writes one article into the index. The document identifier derives
// from the source URL, and chromem replaces documents by identifier, so the
// write is idempotent.
func (s *Store) Upsert(ctx context.Context, art news.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	published := dateString(art.Published)
	doc := chromem.Document{
		ID:      art.ID,
		Content: art.Text(),
		Metadata: map[string]string{
			"title":           art.Title,
			"source_url":      art.SourceURL,
			"source_site":     art.SourceSite,
			"source_type":     art.SourceKind,
			"published_date":  published,
			"crawl_timestamp": art.Discovered.Format(time.RFC3339),
			"lang":            art.Lang,
		},
	}

	if err := s.collection.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("failed to add document: %w", err)
	}
	metrics.Global.IncrementArticlesIndexed()
	return nil
}

// UpsertAll stores a batch, logging and skipping failures: one bad article
// never blocks the rest, and the caller still gets its resolved articles
// even when storage misbehaved.
func (s *Store) UpsertAll(ctx context.Context, articles []news.Article) {
	stored := 0
	for _, art := range articles {
		if err := s.Upsert(ctx, art); err != nil {
			metrics.Global.IncrementStoreFailures()
			logger.Error("failed to store article", "title", art.Title, "error", err)
			continue
		}
		stored++
	}
	logger.Info("stored articles in vector index", "stored", stored, "failed", len(articles)-stored)
}

// Search embeds the query and returns the topK nearest records, best-first.
func (s *Store) Search(ctx context.Context, query string, topK int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := s.collection.Count()
	if count == 0 {
		return []Record{}, nil
	}
	if topK > count {
		topK = count
	}
	if topK <= 0 {
		topK = 1
	}

	results, err := s.collection.Query(ctx, query, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	records := make([]Record, 0, len(results))
	for _, res := range results {
		rec := recordFromMetadata(res.ID, res.Content, res.Metadata)
		rec.Similarity = res.Similarity
		records = append(records, rec)
	}
	return records, nil
}

// Stored returns up to limit raw records. chromem has no listing call, so
// this leans on a broad query capped at the collection size.
func (s *Store) Stored(ctx context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := s.collection.Count()
	if count == 0 {
		return []Record{}, nil
	}
	if limit <= 0 || limit > count {
		limit = count
	}

	results, err := s.collection.Query(ctx, "news", limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	records := make([]Record, 0, len(results))
	for _, res := range results {
		records = append(records, recordFromMetadata(res.ID, res.Content, res.Metadata))
	}
	return records, nil
}

// Count returns the number of indexed records.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collection.Count()
}

func recordFromMetadata(id, content string, md map[string]string) Record {
	return Record{
		ID:            id,
		Title:         md["title"],
		Text:          content,
		SourceURL:     md["source_url"],
		SourceSite:    md["source_site"],
		SourceKind:    md["source_type"],
		PublishedDate: md["published_date"],
		Discovered:    md["crawl_timestamp"],
		Lang:          md["lang"],
	}
}

func dateString(t time.Time) string {
	if t.IsZero() {
		return "Not available"
	}
	return t.Format(time.RFC3339)
}
