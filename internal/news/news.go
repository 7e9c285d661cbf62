package news

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Source kinds carried through the pipeline and into index metadata.
const (
	KindFeed     = "rss"
	KindCrawl    = "crawl"
	KindNewsAPI  = "newsapi"
	KindTelegram = "telegram"
)

// Candidate is an article reference discovered by one of the harvesters.
// Content may be empty (homepage links) or partial (feed descriptions);
// the resolver replaces the candidate wholesale with an Article.
type Candidate struct {
	ID           string    `json:"_id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	SourceURL    string    `json:"source_url"`
	SourceSite   string    `json:"source_site"`
	SourceKind   string    `json:"source_type"`
	PublishedRaw string    `json:"published_date"`
	Discovered   time.Time `json:"crawl_timestamp"`
}

// NewCandidate fills the discovery fields every harvester sets the same way.
func NewCandidate(title, url, site, kind string) Candidate {
	return Candidate{
		ID:           uuid.NewString(),
		Title:        title,
		SourceURL:    url,
		SourceSite:   site,
		SourceKind:   kind,
		PublishedRaw: "",
		Discovered:   time.Now().UTC(),
	}
}

// Article is a fully fetched, cleaned and validated news item.
type Article struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Body       string    `json:"content"`
	SourceURL  string    `json:"source_url"`
	SourceSite string    `json:"source_site"`
	SourceKind string    `json:"source_type"`
	Published  time.Time `json:"published_date"` // zero when unknown
	Discovered time.Time `json:"crawl_timestamp"`
	Lang       string    `json:"lang"`
}

// StableID derives the index identifier from the source URL so repeated
// ingestion of the same article overwrites instead of duplicating.
func StableID(sourceURL string) string {
	h := sha1.New()
	h.Write([]byte(strings.TrimRight(strings.ToLower(sourceURL), "/")))
	return hex.EncodeToString(h.Sum(nil))
}

// Text is the combined title+body string used for embedding and similarity.
func (a Article) Text() string {
	return a.Title + " " + a.Body
}
