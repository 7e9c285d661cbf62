// Package dedup drops near-duplicate articles across sources. Similarity is
// cosine over term-frequency vectors of the combined title+body text: cheap,
// symmetric and bounded to [0,1], which is all the greedy sweep needs.
package dedup

import (
	"math"
	"strings"
	"unicode"

	"github.com/addispulse/addispulse/internal/logger"
	"github.com/addispulse/addispulse/internal/metrics"
	"github.com/addispulse/addispulse/internal/news"
)

// DefaultThreshold is the similarity above which the later article is dropped.
const DefaultThreshold = 0.9

// tokenize lowercases and splits on anything that is not a letter or digit,
// Unicode-aware so Amharic text vectorizes the same way as English.
func tokenize(text string) []string {
	text = strings.ToLower(text)
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func termFreq(text string) map[string]float64 {
	tf := map[string]float64{}
	for _, tok := range tokenize(text) {
		tf[tok]++
	}
	return tf
}

// Similarity returns the cosine similarity of two texts' term-frequency
// vectors. Empty texts have similarity 0 with everything.
func Similarity(a, b string) float64 {
	ta, tb := termFreq(a), termFreq(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	var dot, na, nb float64
	for tok, va := range ta {
		na += va * va
		if vb, ok := tb[tok]; ok {
			dot += va * vb
		}
	}
	for _, vb := range tb {
		nb += vb * vb
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Deduplicate sweeps the articles in order: for each surviving article i,
// every later article j with similarity above the threshold is dropped.
// The earlier article always wins, and survivors keep their relative order.
func Deduplicate(articles []news.Article, threshold float64) []news.Article {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	keep := make([]bool, len(articles))
	for i := range keep {
		keep[i] = true
	}

	texts := make([]string, len(articles))
	for i, a := range articles {
		texts[i] = a.Text()
	}

	for i := range articles {
		if !keep[i] {
			continue
		}
		for j := i + 1; j < len(articles); j++ {
			if !keep[j] {
				continue
			}
			if sim := Similarity(texts[i], texts[j]); sim > threshold {
				keep[j] = false
				metrics.Global.IncrementDuplicatesFiltered()
				logger.Info("deduplicated article", "dropped", articles[j].SourceURL, "kept", articles[i].SourceURL, "similarity", sim)
			}
		}
	}

	out := make([]news.Article, 0, len(articles))
	for i, a := range articles {
		if keep[i] {
			out = append(out, a)
		}
	}
	return out
}
