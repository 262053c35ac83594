package cards

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Ramzec88/tarot-web-app/internal/domain"
)

// DefaultTTL is how long a loaded catalog is served without reloading.
const DefaultTTL = time.Hour

// ErrNoCards is returned when nothing has ever been loaded and the loader fails.
var ErrNoCards = errors.New("cards: catalog unavailable")

// Snapshot is the result of a cache lookup.
type Snapshot struct {
	Cards    []domain.Card
	Source   Source
	Cached   bool
	Stale    bool
	LoadedAt time.Time
}

// SnapshotStore shares a loaded catalog between processes.
type SnapshotStore interface {
	Get(ctx context.Context) ([]domain.Card, Source, error)
	Set(ctx context.Context, cards []domain.Card, source Source, ttl time.Duration) error
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithShared installs a shared snapshot store consulted before the loader.
func WithShared(s SnapshotStore) Option {
	return func(c *Cache) { c.shared = s }
}

// Cache serves the catalog from memory for ttl, reloading on expiry and
// falling back to the previous data when a reload fails.
type Cache struct {
	loader Loader
	shared SnapshotStore
	ttl    time.Duration
	now    func() time.Time

	mu       sync.Mutex
	cards    []domain.Card
	source   Source
	loadedAt time.Time
}

// NewCache wraps loader. A non-positive ttl means DefaultTTL.
func NewCache(loader Loader, ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{loader: loader, ttl: ttl, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// TTL returns the freshness window.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get returns the current catalog.
func (c *Cache) Get(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.cards != nil && now.Sub(c.loadedAt) < c.ttl {
		return c.snapshot(true, false), nil
	}

	if cards, source, ok := c.fromShared(ctx); ok {
		c.store(cards, source, now)
		return c.snapshot(false, false), nil
	}

	cards, source, err := c.loader.Load(ctx)
	if err == nil {
		err = validate(cards)
	}
	if err != nil {
		if c.cards != nil {
			log.Warn().Err(err).Msg("cards: reload failed, serving stale catalog")
			return c.snapshot(true, true), nil
		}
		return Snapshot{}, errors.Join(ErrNoCards, err)
	}

	c.store(cards, source, now)
	if c.shared != nil {
		if err := c.shared.Set(ctx, cards, source, c.ttl); err != nil {
			log.Warn().Err(err).Msg("cards: shared snapshot write failed")
		}
	}
	return c.snapshot(false, false), nil
}

// Invalidate drops the in-memory copy so the next Get reloads.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.loadedAt = time.Time{}
	c.mu.Unlock()
}

func (c *Cache) fromShared(ctx context.Context) ([]domain.Card, Source, bool) {
	if c.shared == nil {
		return nil, "", false
	}
	cards, source, err := c.shared.Get(ctx)
	if err != nil {
		if !errors.Is(err, ErrSnapshotMiss) {
			log.Warn().Err(err).Msg("cards: shared snapshot read failed")
		}
		return nil, "", false
	}
	if validate(cards) != nil {
		return nil, "", false
	}
	return cards, source, true
}

func (c *Cache) store(cards []domain.Card, source Source, at time.Time) {
	c.cards = cards
	c.source = source
	c.loadedAt = at
}

func (c *Cache) snapshot(cached, stale bool) Snapshot {
	out := make([]domain.Card, len(c.cards))
	copy(out, c.cards)
	return Snapshot{
		Cards:    out,
		Source:   c.source,
		Cached:   cached,
		Stale:    stale,
		LoadedAt: c.loadedAt,
	}
}
