package homepage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/addispulse/addispulse/internal/fetch"
	"github.com/addispulse/addispulse/internal/news"
	"github.com/addispulse/addispulse/internal/retry"
	"github.com/addispulse/addispulse/internal/sources"
)

type fakeRenderer struct {
	pages map[string]*fetch.Page
	calls int
	err   error
}

func (f *fakeRenderer) Render(_ context.Context, pageURL string, _ fetch.Options) (*fetch.Page, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	page, ok := f.pages[pageURL]
	if !ok {
		return nil, fmt.Errorf("no page for %s", pageURL)
	}
	return page, nil
}

func testRetry() retry.Config {
	return retry.Config{MaxAttempts: 2, Delay: time.Millisecond}
}

func testSources() []sources.Source {
	return []sources.Source{
		{Name: "Test Site", Homepage: "https://test.example/"},
		{Name: "Other Site", Homepage: "https://other.example/"},
	}
}

func newTestHarvester(r fetch.Renderer) *Harvester {
	return NewHarvester(r, sources.NewRegistry(), time.Second, testRetry(), 50, 10)
}

func TestHarvestKeepsArticleLinksOnly(t *testing.T) {
	renderer := &fakeRenderer{pages: map[string]*fetch.Page{
		"https://test.example/": {Links: []fetch.Link{
			{URL: "https://test.example/2025/08/big-story", Text: "Big Story"},
			{URL: "https://test.example/news/another-story", Text: "Another Story"},
			{URL: "https://test.example/privacy-policy-2", Text: "Privacy"},
			{URL: "https://test.example/category/sports", Text: "Sports section"},
			{URL: "https://test.example/2025/08/trailing/", Text: "Section page"},
			{URL: "https://test.example/random-page", Text: "Random"},
		}},
	}}

	got := newTestHarvester(renderer).Harvest(context.Background(), testSources(), []string{"https://test.example/"}, "")

	require.Len(t, got, 2)
	assert.Equal(t, "Big Story", got[0].Title)
	assert.Equal(t, "Another Story", got[1].Title)
	for _, c := range got {
		assert.Equal(t, news.KindCrawl, c.SourceKind)
		assert.Equal(t, "Not available", c.PublishedRaw, "homepage links carry no date until resolution")
		assert.Empty(t, c.Content)
	}
}

func TestHarvestOnlyRequestedHomepages(t *testing.T) {
	renderer := &fakeRenderer{pages: map[string]*fetch.Page{
		"https://test.example/": {Links: []fetch.Link{
			{URL: "https://test.example/news/story", Text: "Story"},
		}},
	}}

	h := newTestHarvester(renderer)
	got := h.Harvest(context.Background(), testSources(), []string{"https://test.example"}, "")

	require.Len(t, got, 1, "trailing slash differences do not matter for homepage selection")
	assert.Equal(t, 1, renderer.calls, "unrequested homepages are not rendered")
}

func TestHarvestAppliesQueryToAnchorText(t *testing.T) {
	renderer := &fakeRenderer{pages: map[string]*fetch.Page{
		"https://test.example/": {Links: []fetch.Link{
			{URL: "https://test.example/news/drought-update", Text: "Drought update for the north"},
			{URL: "https://test.example/news/football-final", Text: "Football final tonight"},
		}},
	}}

	got := newTestHarvester(renderer).Harvest(context.Background(), testSources(), []string{"https://test.example/"}, "drought")

	require.Len(t, got, 1)
	assert.Contains(t, got[0].Title, "Drought")
}

func TestHarvestRetriesThenSkipsFailingHomepage(t *testing.T) {
	renderer := &fakeRenderer{err: fmt.Errorf("connection reset")}

	got := newTestHarvester(renderer).Harvest(context.Background(), testSources(), []string{"https://test.example/"}, "")

	assert.Empty(t, got)
	assert.Equal(t, 2, renderer.calls, "one retry per homepage, then skip")
}

func TestHarvestCapsKeptLinks(t *testing.T) {
	var links []fetch.Link
	for i := 0; i < 30; i++ {
		links = append(links, fetch.Link{
			URL:  fmt.Sprintf("https://test.example/news/story-%d", i),
			Text: fmt.Sprintf("Story %d", i),
		})
	}
	renderer := &fakeRenderer{pages: map[string]*fetch.Page{
		"https://test.example/": {Links: links},
	}}

	h := NewHarvester(renderer, sources.NewRegistry(), time.Second, testRetry(), 50, 5)
	got := h.Harvest(context.Background(), testSources(), []string{"https://test.example/"}, "")

	assert.Len(t, got, 5)
}

func TestUntitledLinksGetPlaceholderTitle(t *testing.T) {
	renderer := &fakeRenderer{pages: map[string]*fetch.Page{
		"https://test.example/": {Links: []fetch.Link{
			{URL: "https://test.example/news/mystery", Text: ""},
		}},
	}}

	got := newTestHarvester(renderer).Harvest(context.Background(), testSources(), []string{"https://test.example/"}, "")

	require.Len(t, got, 1)
	assert.Equal(t, "Untitled Article", got[0].Title)
}
