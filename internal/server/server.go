// Package server exposes the aggregation pipeline over HTTP.
package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/addispulse/addispulse/internal/logger"
	"github.com/addispulse/addispulse/internal/metrics"
	"github.com/addispulse/addispulse/internal/news"
	"github.com/addispulse/addispulse/internal/newsapi"
	"github.com/addispulse/addispulse/internal/vectorstore"
)

const (
	defaultReadTimeout  = 30 * time.Second
	defaultWriteTimeout = 120 * time.Second
	defaultIdleTimeout  = 120 * time.Second

	defaultSearchTopK  = 5
	defaultStoredLimit = 20
)

// Ingestor is the pipeline surface the handlers drive.
type Ingestor interface {
	Crawl(ctx context.Context, urls []string, query, genre string) ([]news.Article, error)
	Clean(ctx context.Context, raw []news.Candidate) []news.Article
}

// Index is the read side of the vector store.
type Index interface {
	Search(ctx context.Context, query string, topK int) ([]vectorstore.Record, error)
	Stored(ctx context.Context, limit int) ([]vectorstore.Record, error)
	Count() int
}

// Briefer composes an LLM summary for a query.
type Briefer interface {
	Compose(ctx context.Context, query string, topK int) string
}

// APIFetcher is the external news-API client.
type APIFetcher interface {
	Fetch(ctx context.Context, req newsapi.Request) ([]news.Candidate, error)
}

// ChannelFetcher pulls posts from public message channels.
type ChannelFetcher interface {
	Fetch(ctx context.Context, channels []string, limit int) []news.Candidate
}

type Handler struct {
	pipeline Ingestor
	index    Index
	briefer  Briefer
	api      APIFetcher
	channels ChannelFetcher
}

func NewHandler(pipeline Ingestor, index Index, briefer Briefer, api APIFetcher, channels ChannelFetcher) *Handler {
	return &Handler{
		pipeline: pipeline,
		index:    index,
		briefer:  briefer,
		api:      api,
		channels: channels,
	}
}

// SetupRoutes mounts the API and monitoring endpoints.
func SetupRoutes(router *gin.Engine, h *Handler) {
	router.GET("/health", h.Health)
	router.GET("/metrics", h.Metrics)

	v1 := router.Group("/api/v1/news")
	{
		v1.POST("/gather", h.Gather)
		v1.POST("/clean", h.Clean)
		v1.POST("/search", h.Search)
		v1.GET("/briefs", h.Briefs)
		v1.GET("/stored", h.Stored)
	}
}

// NewServer wraps the router in an http.Server with sane timeouts. Write
// timeout is generous because a gather request crawls live sites.
func NewServer(addr string, h *Handler, debug bool) *http.Server {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	SetupRoutes(router, h)

	return &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}
}

// CrawlRequest selects homepages to crawl with an optional topical filter.
type CrawlRequest struct {
	URLs  []string `json:"urls"`
	Query string   `json:"query"`
	Genre string   `json:"genre"`
}

// ChannelRequest names public channels to pull recent posts from.
type ChannelRequest struct {
	Channels []string `json:"channels"`
	Limit    int      `json:"limit"`
}

// GatherRequest combines the three harvesting paths; each section is
// optional and the results are merged into one response.
type GatherRequest struct {
	Crawl    *CrawlRequest    `json:"crawl,omitempty"`
	NewsAPI  *newsapi.Request `json:"newsapi,omitempty"`
	Telegram *ChannelRequest  `json:"telegram,omitempty"`
}

type SearchRequest struct {
	Query string `json:"query" binding:"required"`
	TopK  int    `json:"top_k"`
}

// Gather handles POST /api/v1/news/gather.
func (h *Handler) Gather(c *gin.Context) {
	var req GatherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Crawl == nil && req.NewsAPI == nil && req.Telegram == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one of crawl, newsapi or telegram must be provided"})
		return
	}

	ctx := c.Request.Context()
	var articles []news.Article

	if req.Crawl != nil {
		crawled, err := h.pipeline.Crawl(ctx, req.Crawl.URLs, req.Crawl.Query, req.Crawl.Genre)
		if err != nil {
			logger.Error("crawl failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		articles = append(articles, crawled...)
	}

	if req.NewsAPI != nil {
		raw, err := h.api.Fetch(ctx, *req.NewsAPI)
		if err != nil {
			logger.Error("news API fetch failed", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		articles = append(articles, h.pipeline.Clean(ctx, raw)...)
	}

	if req.Telegram != nil {
		raw := h.channels.Fetch(ctx, req.Telegram.Channels, req.Telegram.Limit)
		articles = append(articles, h.pipeline.Clean(ctx, raw)...)
	}

	c.JSON(http.StatusOK, gin.H{
		"count":    len(articles),
		"articles": articles,
	})
}

// Clean handles POST /api/v1/news/clean: raw items in, normalized and
// indexed articles out.
func (h *Handler) Clean(c *gin.Context) {
	var raw []news.Candidate
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	articles := h.pipeline.Clean(c.Request.Context(), raw)
	c.JSON(http.StatusOK, gin.H{
		"count":    len(articles),
		"articles": articles,
	})
}

// Search handles POST /api/v1/news/search.
func (h *Handler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.TopK <= 0 {
		req.TopK = defaultSearchTopK
	}

	records, err := h.index.Search(c.Request.Context(), req.Query, req.TopK)
	if err != nil {
		logger.Error("search failed", "query", req.Query, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(records),
		"results": records,
	})
}

// Briefs handles GET /api/v1/news/briefs?query=&top_k=. LLM failure comes
// back as the sentinel text with a 200, not an error.
func (h *Handler) Briefs(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter is required"})
		return
	}
	topK := intQuery(c, "top_k", defaultSearchTopK)

	brief := h.briefer.Compose(c.Request.Context(), query, topK)
	c.JSON(http.StatusOK, gin.H{
		"query": query,
		"brief": brief,
	})
}

// Stored handles GET /api/v1/news/stored?limit=.
func (h *Handler) Stored(c *gin.Context) {
	limit := intQuery(c, "limit", defaultStoredLimit)

	records, err := h.index.Stored(c.Request.Context(), limit)
	if err != nil {
		logger.Error("stored listing failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":    len(records),
		"articles": records,
	})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
		"articles_indexed": h.index.Count(),
	})
}

func (h *Handler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, metrics.Global.GetStats())
}

func intQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
