// Package sources is the static registry of Ethiopian news sites: feed and
// homepage URLs, per-site extraction rules and genre keyword tables. Both the
// harvesters and the content resolver read from this one table, so selector
// drift between them is impossible.
package sources

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source describes one news site. Immutable after startup.
type Source struct {
	Name         string            `yaml:"name"`
	Feed         string            `yaml:"feed,omitempty"`
	Homepage     string            `yaml:"homepage"`
	CategoryFeed string            `yaml:"category_feed,omitempty"`
	GenreFeeds   map[string]string `yaml:"genre_feeds,omitempty"`
}

// Rules holds the per-site selectors and exclusion lists. Keyed by a
// case-insensitive substring of the source name.
type Rules struct {
	TitleSelector   string   `yaml:"title"`
	ContentSelector string   `yaml:"content"`
	DateSelector    string   `yaml:"date"`
	LinkSelector    string   `yaml:"links"`
	ExcludeKeywords []string `yaml:"exclude_keywords,omitempty"`
	DatePatterns    []string `yaml:"date_patterns,omitempty"`
}

// Generic fallback selectors used when a site has no override.
const (
	GenericTitleSelector   = "h1.entry-title, h1.td-post-title, h1.post-title, h1, .tdb-title-text"
	GenericContentSelector = ".entry-content p, .td-post-content p, .post-content p, .content p, .td-post-content h2, .entry-content h2, .td-post-content h3, .entry-content h3, .tdb-block-inner p, .td-block-span12 p, .td-block-span6 p, .td-excerpt, article p"
	GenericDateSelector    = ".entry-date, .td-post-date time, .post-date, .date-published"
	GenericLinkSelector    = ".entry-title a, .td-post-title a, .post-title a, h3 a, .td_module_wrap a, .tdb-block-inner a, .td-block-span12 a, .td-block-span6 a"
)

// ExcludedLinkKeywords drop navigational and banned-section URLs at harvest.
var ExcludedLinkKeywords = []string{
	"category", "tag", "afaanoromoo", "amharic/?cat", "privacy-policy",
	"contact-us", "about-us", "wp-login", "journal.addisstandard",
	"peptide", "roasted-garlic", "exodus", "women-at-the-top", "advertisement",
}

// ExcludedTitleKeywords drop links by anchor text.
var ExcludedTitleKeywords = []string{"soup", "recipe", "privacy", "rastafarian"}

// ExcludedContentKeywords reject resolved articles as non-news.
var ExcludedContentKeywords = []string{"soup", "recipe", "privacy policy", "rastafarian", "advertisement"}

// ArticlePathKeywords mark a homepage link as "looks like an article".
var ArticlePathKeywords = []string{"news", "analysis", "editorial", "opinion", "exclusive"}

// BoilerplatePhrases are stripped from resolved article bodies.
var BoilerplatePhrases = []string{
	"Trending", "Show More", "Back to top button", "Editor’s Note",
	"Random Article", "Sidebar", "Donate Here", "Facebook", "Twitter",
	"Telegram", "TikTok", "Subscribe", "Follow Us", "Courtesy of",
	"BY JOANNE BRUNO", "BY ZELA GAYLE", "BY ASHENAFI ZEDEBUB",
}

// Genre maps a topical classification to its keyword list and the
// source-specific category feeds that carry it.
type Genre struct {
	Keywords      []string          `yaml:"keywords"`
	CategoryFeeds map[string]string `yaml:"category_feeds"`
}

// Defaults returns the compiled-in source table.
func Defaults() []Source {
	return []Source{
		{
			Name:         "Addis Standard",
			Feed:         "https://addisstandard.com/feed/",
			Homepage:     "https://addisstandard.com/",
			CategoryFeed: "https://addisstandard.com/category/news/feed/",
		},
		{
			Name:         "Addis Standard Amharic",
			Feed:         "https://addisstandard.com/Amharic/?feed=rss2",
			Homepage:     "https://addisstandard.com/Amharic/",
			CategoryFeed: "https://addisstandard.com/Amharic/?cat=36&feed=rss2",
		},
		{
			Name:         "Fana Media Corporation",
			Homepage:     "https://www.fanamc.com/",
			CategoryFeed: "https://www.fanamc.com/%e1%8b%9c%e1%8a%93/",
		},
		{
			Name:         "Ethiopian Reporter",
			Homepage:     "https://ethiopianreporter.com/",
			CategoryFeed: "https://ethiopianreporter.com/news/",
		},
		{
			Name:         "EBC",
			Homepage:     "https://www.ebc.et/",
			CategoryFeed: "https://www.ebc.et/Home/CategorialNews?CatId=1",
		},
		{
			Name:         "Amhara TV",
			Homepage:     "https://www.ameco.et/",
			CategoryFeed: "https://www.ameco.et/category/%e1%8b%9c%e1%8a%93/regional/",
		},
	}
}

func defaultRules() map[string]Rules {
	tagdiv := Rules{
		TitleSelector:   GenericTitleSelector,
		ContentSelector: GenericContentSelector,
		DateSelector:    GenericDateSelector + ", meta[property='article:published_time']",
		LinkSelector:    GenericLinkSelector,
		DatePatterns: []string{
			`\b\d{1,2} [A-Z][a-z]+ \d{4}\b`,
			`\b[A-Z][a-z]+ \d{1,2}, \d{4}\b`,
		},
	}
	return map[string]Rules{
		"addis standard": tagdiv,
		"fana": {
			TitleSelector:   "h1.post-title, h1.entry-title, h1, .entry-title",
			ContentSelector: ".entry-content p, .post-content p, .content p, article p",
			DateSelector:    ".post-date, .entry-date, meta[name='dc.date']",
			LinkSelector:    ".entry-title a, .post-title a, h3 a",
		},
		"ethiopian reporter": {
			TitleSelector:   "h1.post-title, h1.entry-title, h1, .title",
			ContentSelector: ".entry-content p, .post-content p, .content p, article p",
			DateSelector:    ".entry-date, .post-date, .published",
			LinkSelector:    ".entry-title a, .post-title a, h2 a, h3 a",
		},
		"ebc": {
			TitleSelector:   "h1.post-title, h1.entry-title, h1.article-title, h1, .title",
			ContentSelector: ".entry-content p, .post-content p, .article-content p, .content p, article p",
			DateSelector:    ".entry-date, .post-date, .published, .date-published",
			LinkSelector:    ".entry-title a, .post-title a, .article-title a, h3 a, .news-item a",
		},
		"amhara tv": {
			TitleSelector:   "h1.post-title, h1.entry-title, h1.article-title, h1, .title",
			ContentSelector: ".entry-content p, .post-content p, .article-content p, .content p, article p",
			DateSelector:    ".entry-date, .post-date, .published, .date-published",
			LinkSelector:    ".entry-title a, .post-title a, .article-title a, h3 a, .news-item a",
		},
	}
}

func defaultGenres() map[string]Genre {
	return map[string]Genre{
		"politics": {
			Keywords: []string{"politics", "government", "election", "policy", "parliament", "diplomacy", "ፖለቲካ", "መንግስት", "ምርጫ"},
			CategoryFeeds: map[string]string{
				"Addis Standard":         "https://addisstandard.com/category/politics/feed/",
				"Addis Standard Amharic": "https://addisstandard.com/Amharic/?cat=34&feed=rss2",
				"Ethiopian Reporter":     "https://ethiopianreporter.com/politics/",
			},
		},
		"sports": {
			Keywords: []string{"sports", "football", "athletics", "basketball", "olympics", "tournament", "ስፖርት", "እግር ኳስ"},
			CategoryFeeds: map[string]string{
				"Fana Media Corporation": "https://www.fanamc.com/%e1%88%b5%e1%8d%93%e1%88%ad%e1%89%b5/",
				"Ethiopian Reporter":     "https://ethiopianreporter.com/sport/",
			},
		},
		"business": {
			Keywords: []string{"business", "economy", "finance", "market", "trade", "investment", "ቢዝነስ", "ኢኮኖሚ"},
			CategoryFeeds: map[string]string{
				"Addis Standard":         "https://addisstandard.com/category/business/feed/",
				"Addis Standard Amharic": "https://addisstandard.com/Amharic/?cat=39&feed=rss2",
				"Ethiopian Reporter":     "https://ethiopianreporter.com/business/",
			},
		},
		"others": {
			Keywords: []string{"culture", "lifestyle", "entertainment", "education", "health", "technology", "ህግ", "ፍትህ", "ባህል"},
			CategoryFeeds: map[string]string{
				"Addis Standard": "https://addisstandard.com/category/law-order/feed/",
			},
		},
	}
}

// Registry bundles the source table, rules and genres.
type Registry struct {
	Sources []Source
	rules   map[string]Rules
	genres  map[string]Genre
}

// NewRegistry returns a registry with the compiled-in defaults.
func NewRegistry() *Registry {
	return &Registry{
		Sources: Defaults(),
		rules:   defaultRules(),
		genres:  defaultGenres(),
	}
}

type yamlFile struct {
	Sources []Source         `yaml:"sources"`
	Rules   map[string]Rules `yaml:"rules"`
	Genres  map[string]Genre `yaml:"genres"`
}

// Load reads a source table from a YAML file, falling back to the defaults
// for any section the file omits.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f yamlFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	r := NewRegistry()
	if len(f.Sources) > 0 {
		r.Sources = f.Sources
	}
	if len(f.Rules) > 0 {
		r.rules = f.Rules
	}
	if len(f.Genres) > 0 {
		r.genres = f.Genres
	}
	return r, nil
}

// RulesFor returns the extraction rules whose key is a substring of the
// source name, case-insensitively. The second result is false when only the
// generic selectors apply.
func (r *Registry) RulesFor(siteName string) (Rules, bool) {
	name := strings.ToLower(siteName)
	for key, rules := range r.rules {
		if strings.Contains(name, strings.ToLower(key)) {
			return rules, true
		}
	}
	return Rules{
		TitleSelector:   GenericTitleSelector,
		ContentSelector: GenericContentSelector,
		DateSelector:    GenericDateSelector,
		LinkSelector:    GenericLinkSelector,
	}, false
}

// Genre returns the genre entry for a tag such as "politics".
func (r *Registry) Genre(tag string) (Genre, bool) {
	g, ok := r.genres[strings.ToLower(tag)]
	return g, ok
}

// GenreFeed returns the category feed for source+genre when one exists.
func (r *Registry) GenreFeed(sourceName, tag string) (string, bool) {
	g, ok := r.Genre(tag)
	if !ok {
		return "", false
	}
	url, ok := g.CategoryFeeds[sourceName]
	return url, ok
}

// MatchesGenre reports whether any genre keyword appears in title or content.
func (r *Registry) MatchesGenre(title, content, tag string) bool {
	g, ok := r.Genre(tag)
	if !ok {
		return false
	}
	text := strings.ToLower(title + " " + content)
	for _, kw := range g.Keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// ContainsAny reports whether text contains any of the keywords,
// case-insensitively.
func ContainsAny(text string, keywords []string) bool {
	text = strings.ToLower(text)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
