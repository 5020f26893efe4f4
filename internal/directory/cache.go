package directory

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Addis4/kt-ai/internal/metrics"
)

// State is the observable load state of one owner's listing.
type State string

const (
	StateLoading State = "loading"
	StateLoaded  State = "loaded"
	StateError   State = "error"
)

// Snapshot is the observable state of a cached listing. Err is set only
// in the error state, which keeps "no repositories" (loaded, zero
// entries) visibly different from "could not load".
type Snapshot struct {
	State   State     `json:"state"`
	Entries []Listing `json:"entries"`
	Err     string    `json:"error,omitempty"`
}

type cacheEntry struct {
	state State
	list  []Listing
	err   error
	ready chan struct{} // closed when the in-flight load finishes
}

// Cache memoizes directory listings per owner. A successful load is kept
// for the lifetime of the process and never auto-refreshed; a failed load
// keeps its error state visible and is retried on the next demand.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	lister  Lister
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewCache creates a listing cache over the given backend.
func NewCache(lister Lister, logger zerolog.Logger) *Cache {
	return &Cache{
		entries: make(map[string]*cacheEntry),
		lister:  lister,
		logger:  logger.With().Str("component", "directory_cache").Logger(),
	}
}

// SetMetrics sets the metrics collector.
func (c *Cache) SetMetrics(m *metrics.Metrics) {
	c.metrics = m
}

// List returns the listing for an owner, loading it on first need.
// Concurrent callers for the same owner share one fetch.
func (c *Cache) List(ctx context.Context, owner string) ([]Listing, error) {
	for {
		c.mu.Lock()
		e := c.entries[owner]
		switch {
		case e == nil || e.state == StateError:
			// First demand, or retrying a failed load.
			e = &cacheEntry{state: StateLoading, ready: make(chan struct{})}
			c.entries[owner] = e
			c.mu.Unlock()
			c.load(ctx, owner, e)
		case e.state == StateLoading:
			c.mu.Unlock()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-e.ready:
			}
		default:
			c.mu.Unlock()
		}

		c.mu.Lock()
		e = c.entries[owner]
		if e != nil && e.state != StateLoading {
			list, err := e.list, e.err
			c.mu.Unlock()
			if err != nil {
				return nil, err
			}
			return append([]Listing(nil), list...), nil
		}
		c.mu.Unlock()
	}
}

// Snapshot returns the current observable state without triggering a
// load. An owner never requested reports the loading state.
func (c *Cache) Snapshot(owner string) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entries[owner]
	if e == nil {
		return Snapshot{State: StateLoading}
	}
	snap := Snapshot{State: e.state}
	if e.err != nil {
		snap.Err = e.err.Error()
	}
	snap.Entries = append([]Listing(nil), e.list...)
	return snap
}

func (c *Cache) load(ctx context.Context, owner string, e *cacheEntry) {
	list, err := c.lister.ListRepositories(ctx, owner)

	c.mu.Lock()
	if err != nil {
		e.state = StateError
		e.err = err
		c.logger.Error().Err(err).Str("owner", owner).Msg("directory load failed")
		if c.metrics != nil {
			c.metrics.RecordDirectoryError()
		}
	} else {
		e.state = StateLoaded
		e.list = list
		c.logger.Info().Str("owner", owner).Int("count", len(list)).Msg("directory loaded")
	}
	close(e.ready)
	c.mu.Unlock()
}
