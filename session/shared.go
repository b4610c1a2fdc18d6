package session

import (
	"log/slog"
	"sync"

	"github.com/notargets/gofinat/gem"
	"golang.org/x/sync/singleflight"
)

// Shared guards one Session for hosts that run several compilations in
// parallel against the same cache. Symbol minting and cache updates are
// serialized; the collaborator call of a miss runs outside the lock and at
// most once per key.
type Shared struct {
	mu    sync.Mutex
	s     *Session
	group singleflight.Group
}

var _ Context = (*Shared)(nil)

// NewShared creates a Shared around a new Session
func NewShared(cfg Config) *Shared {
	return &Shared{s: New(cfg)}
}

func (sh *Shared) Config() Config { return sh.s.Config() }

func (sh *Shared) Logger() *slog.Logger { return sh.s.Logger() }

// Index mints a fresh index
func (sh *Shared) Index(kind gem.IndexKind, extent int) *gem.Index {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.s.Index(kind, extent)
}

// Variable mints a parameter variable
func (sh *Shared) Variable(name string) *gem.Variable {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.s.Variable(name)
}

func (sh *Shared) lookup(k Key) (*Entry, bool, error) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if sh.s.closed {
		return nil, false, ErrClosed
	}
	e, ok := sh.s.cache[k]
	if ok {
		sh.s.hit(e)
	}
	return e, ok, nil
}

// Tabulation implements Context
func (sh *Shared) Tabulation(k Key, prefix string,
	compute func() (*Deferred[*gem.Literal], error)) (*Entry, error) {
	if e, ok, err := sh.lookup(k); err != nil || ok {
		return e, err
	}
	v, err, _ := sh.group.Do(k.String(), func() (any, error) {
		// A concurrent flight for the same key may have finished between
		// the lookup above and joining this group
		if e, ok, err := sh.lookup(k); err != nil || ok {
			return e, err
		}
		data, err := compute()
		if err != nil {
			return nil, err
		}
		sh.mu.Lock()
		defer sh.mu.Unlock()
		return sh.s.store(k, prefix, data)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Entry), nil
}

// Stats returns the cache hit and miss counts
func (sh *Shared) Stats() Stats {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.s.Stats()
}

// Entries returns the stored entries in creation order
func (sh *Shared) Entries() []*Entry {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.s.Entries()
}

// Close discards the cache
func (sh *Shared) Close() {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.s.Close()
}
