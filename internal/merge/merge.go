// Package merge unions the harvesters' candidate lists into one ordered,
// URL-deduplicated list.
package merge

import (
	"strings"

	"github.com/addispulse/addispulse/internal/news"
)

// Merge combines feed and page candidates, first-seen wins by source URL.
// Candidates whose URL contains the priority substring are force-promoted to
// the front regardless of which harvester found them; after that, feed
// candidates come before page candidates. The result is capped at limit
// (limit <= 0 means uncapped).
func Merge(feedCands, pageCands []news.Candidate, priorityPart string, limit int) []news.Candidate {
	seen := map[string]struct{}{}
	var out []news.Candidate

	add := func(c news.Candidate) {
		if c.SourceURL == "" {
			return
		}
		if _, dup := seen[c.SourceURL]; dup {
			return
		}
		seen[c.SourceURL] = struct{}{}
		out = append(out, c)
	}

	if priorityPart != "" {
		part := strings.ToLower(priorityPart)
		for _, c := range pageCands {
			if strings.Contains(strings.ToLower(c.SourceURL), part) {
				add(c)
			}
		}
		for _, c := range feedCands {
			if strings.Contains(strings.ToLower(c.SourceURL), part) {
				add(c)
			}
		}
	}

	for _, c := range feedCands {
		add(c)
	}
	for _, c := range pageCands {
		add(c)
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
