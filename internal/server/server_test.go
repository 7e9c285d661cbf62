package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/addispulse/addispulse/internal/brief"
	"github.com/addispulse/addispulse/internal/news"
	"github.com/addispulse/addispulse/internal/newsapi"
	"github.com/addispulse/addispulse/internal/vectorstore"
)

type fakePipeline struct {
	crawled     []news.Article
	crawlErr    error
	cleanedFrom [][]news.Candidate
}

func (f *fakePipeline) Crawl(_ context.Context, urls []string, query, genre string) ([]news.Article, error) {
	return f.crawled, f.crawlErr
}

func (f *fakePipeline) Clean(_ context.Context, raw []news.Candidate) []news.Article {
	f.cleanedFrom = append(f.cleanedFrom, raw)
	out := make([]news.Article, 0, len(raw))
	for _, c := range raw {
		out = append(out, news.Article{
			ID:        news.StableID(c.SourceURL),
			Title:     c.Title,
			Body:      c.Content,
			SourceURL: c.SourceURL,
		})
	}
	return out
}

type fakeIndex struct {
	records   []vectorstore.Record
	searchErr error
	count     int
}

func (f *fakeIndex) Search(_ context.Context, _ string, topK int) ([]vectorstore.Record, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if topK < len(f.records) {
		return f.records[:topK], nil
	}
	return f.records, nil
}

func (f *fakeIndex) Stored(_ context.Context, limit int) ([]vectorstore.Record, error) {
	if limit < len(f.records) {
		return f.records[:limit], nil
	}
	return f.records, nil
}

func (f *fakeIndex) Count() int { return f.count }

type fakeBriefer struct {
	reply string
}

func (f *fakeBriefer) Compose(_ context.Context, _ string, _ int) string { return f.reply }

type fakeAPI struct {
	cands []news.Candidate
	err   error
}

func (f *fakeAPI) Fetch(_ context.Context, _ newsapi.Request) ([]news.Candidate, error) {
	return f.cands, f.err
}

type fakeChannels struct {
	cands []news.Candidate
}

func (f *fakeChannels) Fetch(_ context.Context, _ []string, _ int) []news.Candidate {
	return f.cands
}

type deps struct {
	pipeline *fakePipeline
	index    *fakeIndex
	briefer  *fakeBriefer
	api      *fakeAPI
	channels *fakeChannels
}

func newTestRouter(d deps) *gin.Engine {
	gin.SetMode(gin.TestMode)
	if d.pipeline == nil {
		d.pipeline = &fakePipeline{}
	}
	if d.index == nil {
		d.index = &fakeIndex{}
	}
	if d.briefer == nil {
		d.briefer = &fakeBriefer{reply: "brief text"}
	}
	if d.api == nil {
		d.api = &fakeAPI{}
	}
	if d.channels == nil {
		d.channels = &fakeChannels{}
	}

	router := gin.New()
	SetupRoutes(router, NewHandler(d.pipeline, d.index, d.briefer, d.api, d.channels))
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var parsed map[string]json.RawMessage
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	}
	return w, parsed
}

func TestGatherCrawl(t *testing.T) {
	p := &fakePipeline{crawled: []news.Article{{Title: "Crawled story"}}}
	router := newTestRouter(deps{pipeline: p})

	w, resp := doJSON(t, router, http.MethodPost, "/api/v1/news/gather", GatherRequest{
		Crawl: &CrawlRequest{URLs: []string{"https://site.example/"}},
	})

	require.Equal(t, http.StatusOK, w.Code)
	var count int
	require.NoError(t, json.Unmarshal(resp["count"], &count))
	assert.Equal(t, 1, count)
}

func TestGatherRequiresAtLeastOneSection(t *testing.T) {
	router := newTestRouter(deps{})
	w, _ := doJSON(t, router, http.MethodPost, "/api/v1/news/gather", GatherRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGatherCrawlFailureIsRequestError(t *testing.T) {
	p := &fakePipeline{crawlErr: fmt.Errorf("harvest blew up")}
	router := newTestRouter(deps{pipeline: p})

	w, _ := doJSON(t, router, http.MethodPost, "/api/v1/news/gather", GatherRequest{
		Crawl: &CrawlRequest{URLs: []string{"https://site.example/"}},
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGatherNewsAPIFailureIsBadGateway(t *testing.T) {
	router := newTestRouter(deps{api: &fakeAPI{err: fmt.Errorf("apiKeyInvalid")}})

	w, _ := doJSON(t, router, http.MethodPost, "/api/v1/news/gather", GatherRequest{
		NewsAPI: &newsapi.Request{Query: "ethiopia"},
	})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestGatherCombinesSections(t *testing.T) {
	p := &fakePipeline{crawled: []news.Article{{Title: "Crawled"}}}
	api := &fakeAPI{cands: []news.Candidate{{Title: "From API", SourceURL: "https://a.example/1"}}}
	ch := &fakeChannels{cands: []news.Candidate{{Title: "From channel", SourceURL: "https://t.me/c/1"}}}
	router := newTestRouter(deps{pipeline: p, api: api, channels: ch})

	w, resp := doJSON(t, router, http.MethodPost, "/api/v1/news/gather", GatherRequest{
		Crawl:    &CrawlRequest{URLs: []string{"https://site.example/"}},
		NewsAPI:  &newsapi.Request{Query: "ethiopia"},
		Telegram: &ChannelRequest{Channels: []string{"c"}},
	})

	require.Equal(t, http.StatusOK, w.Code)
	var count int
	require.NoError(t, json.Unmarshal(resp["count"], &count))
	assert.Equal(t, 3, count)
	assert.Len(t, p.cleanedFrom, 2, "API and channel items each pass through the cleaning path")
}

func TestCleanEndpoint(t *testing.T) {
	p := &fakePipeline{}
	router := newTestRouter(deps{pipeline: p})

	raw := []news.Candidate{{Title: "Raw item", SourceURL: "https://a.example/1", Content: "body"}}
	w, resp := doJSON(t, router, http.MethodPost, "/api/v1/news/clean", raw)

	require.Equal(t, http.StatusOK, w.Code)
	var articles []news.Article
	require.NoError(t, json.Unmarshal(resp["articles"], &articles))
	require.Len(t, articles, 1)
	assert.Equal(t, "Raw item", articles[0].Title)
}

func TestCleanRejectsMalformedBody(t *testing.T) {
	router := newTestRouter(deps{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/news/clean", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchEndpoint(t *testing.T) {
	idx := &fakeIndex{records: []vectorstore.Record{
		{ID: "1", Title: "Match one"},
		{ID: "2", Title: "Match two"},
	}}
	router := newTestRouter(deps{index: idx})

	w, resp := doJSON(t, router, http.MethodPost, "/api/v1/news/search", SearchRequest{Query: "drought", TopK: 1})

	require.Equal(t, http.StatusOK, w.Code)
	var results []vectorstore.Record
	require.NoError(t, json.Unmarshal(resp["results"], &results))
	require.Len(t, results, 1)
	assert.Equal(t, "Match one", results[0].Title)
}

func TestSearchRequiresQuery(t *testing.T) {
	router := newTestRouter(deps{})
	w, _ := doJSON(t, router, http.MethodPost, "/api/v1/news/search", map[string]any{"top_k": 3})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBriefsEndpoint(t *testing.T) {
	router := newTestRouter(deps{briefer: &fakeBriefer{reply: "Today's summary."}})

	w, resp := doJSON(t, router, http.MethodGet, "/api/v1/news/briefs?query=ethiopia", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var text string
	require.NoError(t, json.Unmarshal(resp["brief"], &text))
	assert.Equal(t, "Today's summary.", text)
}

func TestBriefsSentinelStillOK(t *testing.T) {
	router := newTestRouter(deps{briefer: &fakeBriefer{reply: brief.FailureSentinel}})

	w, resp := doJSON(t, router, http.MethodGet, "/api/v1/news/briefs?query=ethiopia", nil)

	require.Equal(t, http.StatusOK, w.Code, "a failed brief is content, not a transport error")
	var text string
	require.NoError(t, json.Unmarshal(resp["brief"], &text))
	assert.Equal(t, brief.FailureSentinel, text)
}

func TestBriefsRequiresQuery(t *testing.T) {
	router := newTestRouter(deps{})
	w, _ := doJSON(t, router, http.MethodGet, "/api/v1/news/briefs", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStoredEndpoint(t *testing.T) {
	idx := &fakeIndex{records: []vectorstore.Record{{ID: "1"}, {ID: "2"}, {ID: "3"}}}
	router := newTestRouter(deps{index: idx})

	w, resp := doJSON(t, router, http.MethodGet, "/api/v1/news/stored?limit=2", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var articles []vectorstore.Record
	require.NoError(t, json.Unmarshal(resp["articles"], &articles))
	assert.Len(t, articles, 2)
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(deps{index: &fakeIndex{count: 7}})

	w, resp := doJSON(t, router, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var status string
	require.NoError(t, json.Unmarshal(resp["status"], &status))
	assert.Equal(t, "healthy", status)
	var indexed int
	require.NoError(t, json.Unmarshal(resp["articles_indexed"], &indexed))
	assert.Equal(t, 7, indexed)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(deps{})

	w, resp := doJSON(t, router, http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, resp, "articles_resolved")
}
