// Package telegram harvests posts from public Telegram channels through the
// t.me/s/ web preview, which needs no bot token or API credentials.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/addispulse/addispulse/internal/logger"
	"github.com/addispulse/addispulse/internal/news"
)

const (
	previewBaseURL = "https://t.me/s/"
	maxContentLen  = 1000
)

type Fetcher struct {
	baseURL string
	httpc   *http.Client
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		baseURL: previewBaseURL,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch pulls up to limit recent posts from each channel. A channel that
// fails to load is logged and skipped so one dead channel does not sink
// the whole request.
func (f *Fetcher) Fetch(ctx context.Context, channels []string, limit int) []news.Candidate {
	if limit <= 0 {
		limit = 10
	}

	var cands []news.Candidate
	for _, channel := range channels {
		channel = strings.TrimPrefix(strings.TrimSpace(channel), "@")
		if channel == "" {
			continue
		}
		posts, err := f.fetchChannel(ctx, channel, limit)
		if err != nil {
			logger.Warn("Failed to fetch telegram channel", "channel", channel, "error", err)
			continue
		}
		logger.Info("Fetched telegram channel", "channel", channel, "posts", len(posts))
		cands = append(cands, posts...)
	}
	return cands
}

func (f *Fetcher) fetchChannel(ctx context.Context, channel string, limit int) ([]news.Candidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+channel, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; AddisPulse/1.0)")

	resp, err := f.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("channel preview returned %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	var posts []news.Candidate
	doc.Find(".tgme_widget_message").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Find(".tgme_widget_message_text").Text())
		if text == "" {
			return
		}
		if r := []rune(text); len(r) > maxContentLen {
			text = string(r[:maxContentLen])
		}

		link, _ := s.Find("a.tgme_widget_message_date").Attr("href")
		if link == "" {
			postID, _ := s.Attr("data-post")
			link = "https://t.me/" + postID
		}
		published, _ := s.Find("time").Attr("datetime")

		cand := news.NewCandidate(title(text), link, channel, news.KindTelegram)
		cand.Content = text
		cand.PublishedRaw = published
		posts = append(posts, cand)
	})

	// The preview page lists oldest first; keep the most recent posts.
	if len(posts) > limit {
		posts = posts[len(posts)-limit:]
	}
	return posts, nil
}

// title takes the first line of a post, clipped to a headline-ish length.
func title(text string) string {
	line := text
	if i := strings.IndexAny(text, "\n"); i >= 0 {
		line = text[:i]
	}
	const maxTitle = 120
	if r := []rune(line); len(r) > maxTitle {
		line = string(r[:maxTitle])
	}
	return strings.TrimSpace(line)
}
