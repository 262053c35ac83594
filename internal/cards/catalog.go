// Package cards loads the tarot card catalog and keeps it in a TTL cache.
//
// Sources are tried in order: a local JSON file, a remote mirror, and a
// small built-in deck. A source that fails or yields an empty or invalid
// list is skipped.
package cards

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Ramzec88/tarot-web-app/internal/domain"
)

// Source names where a card list came from.
type Source string

const (
	SourceLocal    Source = "local"
	SourceExternal Source = "external"
	SourceFallback Source = "fallback"
)

// UserAgent is sent when fetching the remote mirror.
const UserAgent = "Tarot-Web-App/1.0"

const maxCatalogBytes = 4 << 20

// Loader produces a card list.
type Loader interface {
	Load(ctx context.Context) ([]domain.Card, Source, error)
}

// Catalog loads cards from Path, then URL, then the built-in deck.
type Catalog struct {
	Path string
	URL  string
	HTTP *http.Client
}

// NewCatalog returns a Catalog with a bounded HTTP client.
func NewCatalog(path, url string) *Catalog {
	return &Catalog{Path: path, URL: url, HTTP: &http.Client{Timeout: 10 * time.Second}}
}

// Load implements Loader. It only fails when ctx is done.
func (c *Catalog) Load(ctx context.Context) ([]domain.Card, Source, error) {
	if c.Path != "" {
		cards, err := loadFile(c.Path)
		if err == nil {
			return cards, SourceLocal, nil
		}
		log.Debug().Err(err).Str("path", c.Path).Msg("cards: local file unavailable")
	}
	if c.URL != "" {
		cards, err := c.fetch(ctx)
		if err == nil {
			return cards, SourceExternal, nil
		}
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		log.Warn().Err(err).Str("url", c.URL).Msg("cards: remote mirror unavailable")
	}
	return Builtin(), SourceFallback, nil
}

func loadFile(path string) ([]domain.Card, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decode(io.LimitReader(f, maxCatalogBytes))
}

func (c *Catalog) fetch(ctx context.Context) ([]domain.Card, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cards: unexpected status %d", resp.StatusCode)
	}
	return decode(io.LimitReader(resp.Body, maxCatalogBytes))
}

func decode(r io.Reader) ([]domain.Card, error) {
	var cards []domain.Card
	if err := json.NewDecoder(r).Decode(&cards); err != nil {
		return nil, err
	}
	if err := validate(cards); err != nil {
		return nil, err
	}
	return cards, nil
}

func validate(cards []domain.Card) error {
	if len(cards) == 0 {
		return fmt.Errorf("cards: empty catalog")
	}
	for i, c := range cards {
		if !c.Valid() {
			return fmt.Errorf("cards: card %d has no name", i)
		}
	}
	return nil
}

// perm is swapped in tests.
var perm = rand.Perm

// Draw returns n distinct cards in random order; n is capped at len(deck).
func Draw(deck []domain.Card, n int) []domain.Card {
	if n > len(deck) {
		n = len(deck)
	}
	if n <= 0 {
		return nil
	}
	out := make([]domain.Card, 0, n)
	for _, i := range perm(len(deck))[:n] {
		out = append(out, deck[i])
	}
	return out
}
