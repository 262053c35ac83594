// Package search ranks a user's reading history against a free-text query.
//
// The index is built per request from a small document set, is read-only
// after construction, and is safe for concurrent use. Scoring is the
// Jaccard similarity between the query token set and each document's
// token set: score = |Q ∩ D| / |Q ∪ D|. Ties sort by newer document, then
// shorter text, then ID, so results are deterministic.
package search

import (
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// Doc is one searchable history entry.
type Doc struct {
	ID   string
	Kind string
	Text string
	At   time.Time
}

// Result is a ranked document with its similarity score.
type Result struct {
	ID      string
	Kind    string
	Snippet string
	At      time.Time
	Score   float64
}

// Index is the minimal interface implemented by all search indices.
type Index interface {
	TopK(query string, k int) []Result
}

// Option configures index construction.
type Option func(*config)

type config struct {
	minRunes     int
	stopwords    map[string]struct{}
	maxDocs      int
	snippetRunes int
}

func defaultConfig() config {
	return config{
		minRunes:     1,
		stopwords:    defaultStopwords,
		maxDocs:      0,
		snippetRunes: 200,
	}
}

// WithMinRunes skips documents shorter than n runes.
func WithMinRunes(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.minRunes = n
		}
	}
}

// WithStopwords replaces the default stop-word list. An empty list keeps
// the default.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// WithMaxDocs caps how many documents are indexed.
func WithMaxDocs(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDocs = n
		}
	}
}

// WithSnippetRunes caps the snippet length in results; 0 disables clipping.
func WithSnippetRunes(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.snippetRunes = n
		}
	}
}

type doc struct {
	Doc
	tokens map[string]struct{}
}

type index struct {
	cfg  config
	docs []doc
}

// NewIndex builds an Index over docs.
func NewIndex(docs []Doc, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	out := make([]doc, 0, len(docs))
	for _, d := range docs {
		d.Text = strings.TrimSpace(normalizeWhitespace(d.Text))
		if d.Text == "" {
			continue
		}
		if cfg.minRunes > 0 && utf8.RuneCountInString(d.Text) < cfg.minRunes {
			continue
		}
		toks := tokenize(d.Text, cfg.stopwords)
		if len(toks) == 0 {
			continue
		}
		out = append(out, doc{Doc: d, tokens: toks})
		if cfg.maxDocs > 0 && len(out) >= cfg.maxDocs {
			break
		}
	}
	return &index{cfg: cfg, docs: out}
}

// TopK returns up to k best-matching documents. A non-positive k means 5.
func (i *index) TopK(q string, k int) []Result {
	if len(i.docs) == 0 || strings.TrimSpace(q) == "" {
		return nil
	}
	if k <= 0 {
		k = 5
	}
	qTokens := tokenize(q, i.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}

	type scored struct {
		d     *doc
		score float64
	}
	buf := make([]scored, 0, len(i.docs))
	for n := range i.docs {
		d := &i.docs[n]
		over := overlap(qTokens, d.tokens)
		if over == 0 {
			continue
		}
		union := len(qTokens) + len(d.tokens) - over
		buf = append(buf, scored{d: d, score: float64(over) / float64(union)})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		x, y := buf[a], buf[b]
		if x.score != y.score {
			return x.score > y.score
		}
		if !x.d.At.Equal(y.d.At) {
			return x.d.At.After(y.d.At)
		}
		if lx, ly := utf8.RuneCountInString(x.d.Text), utf8.RuneCountInString(y.d.Text); lx != ly {
			return lx < ly
		}
		return x.d.ID < y.d.ID
	})

	if k > len(buf) {
		k = len(buf)
	}
	out := make([]Result, k)
	for n := 0; n < k; n++ {
		d := buf[n].d
		out[n] = Result{
			ID:      d.ID,
			Kind:    d.Kind,
			Snippet: clip(d.Text, i.cfg.snippetRunes),
			At:      d.At,
			Score:   buf[n].score,
		}
	}
	return out
}

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*`)

// Short Russian function words that carry no meaning in a reading.
var defaultStopwords = map[string]struct{}{
	"и": {}, "в": {}, "во": {}, "не": {}, "на": {}, "я": {}, "с": {}, "со": {},
	"что": {}, "как": {}, "а": {}, "то": {}, "по": {}, "к": {}, "ли": {}, "же": {},
	"у": {}, "за": {}, "от": {}, "о": {}, "об": {}, "из": {}, "для": {}, "мне": {},
	"меня": {}, "мой": {}, "моя": {}, "это": {}, "ваш": {}, "вас": {}, "вам": {},
}

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	words := wordRE.FindAllString(strings.ToLower(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, skip := stop[w]; skip {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func normalizeWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

func clip(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}
