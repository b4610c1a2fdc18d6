package session

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/notargets/gofinat/gem"
)

// ErrClosed is returned when a closed session is asked for tabulations
var ErrClosed = errors.New("session closed")

// Config holds configuration for creating a Session
type Config struct {
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
	// HandlePrefix names value tabulation handles (default "phi")
	HandlePrefix string
	// GradientPrefix names gradient tabulation handles (default "dphi")
	GradientPrefix string
	// Strict validates every recipe before it is returned
	Strict bool
}

// Entry is one memoized tabulation: a symbolic handle referenced by recipes
// and the producer of its numeric value
type Entry struct {
	Key    Key
	Handle *gem.Variable
	Data   *Deferred[*gem.Literal]
}

// Stats counts cache traffic for a session
type Stats struct {
	Hits   int
	Misses int
}

// Context is what evaluation builders need from a compilation session:
// fresh symbols, memoized tabulations and logging.
type Context interface {
	// Index mints a fresh index
	Index(kind gem.IndexKind, extent int) *gem.Index
	// Tabulation returns the entry stored under k, calling compute and
	// storing its result under a new handle named with prefix on a miss.
	// A failed compute stores nothing.
	Tabulation(k Key, prefix string, compute func() (*Deferred[*gem.Literal], error)) (*Entry, error)
	Config() Config
	Logger() *slog.Logger
}

// Session owns the symbols and tabulation cache of a single compilation.
// It is not safe for concurrent use; see Shared.
type Session struct {
	ID     uuid.UUID
	arena  gem.Arena
	cfg    Config
	logger *slog.Logger
	cache  map[Key]*Entry
	stats  Stats
	closed bool
}

var _ Context = (*Session)(nil)

// New creates a new Session
func New(cfg Config) *Session {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.HandlePrefix == "" {
		cfg.HandlePrefix = "phi"
	}
	if cfg.GradientPrefix == "" {
		cfg.GradientPrefix = "dphi"
	}
	id := uuid.New()
	s := &Session{
		ID:     id,
		cfg:    cfg,
		logger: cfg.Logger.With("session", id.String()),
		cache:  make(map[Key]*Entry),
	}
	s.logger.Debug("session opened", "strict", cfg.Strict)
	return s
}

func (s *Session) Config() Config { return s.cfg }

func (s *Session) Logger() *slog.Logger { return s.logger }

// Index mints a fresh index
func (s *Session) Index(kind gem.IndexKind, extent int) *gem.Index {
	return s.arena.Index(kind, extent)
}

// Variable mints a parameter variable, such as a coefficient array
func (s *Session) Variable(name string) *gem.Variable {
	return s.arena.NamedVariable(name)
}

// Lookup returns the entry stored under k, if any
func (s *Session) Lookup(k Key) (*Entry, bool) {
	e, ok := s.cache[k]
	return e, ok
}

// Tabulation implements Context
func (s *Session) Tabulation(k Key, prefix string,
	compute func() (*Deferred[*gem.Literal], error)) (*Entry, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if e, ok := s.cache[k]; ok {
		s.hit(e)
		return e, nil
	}
	data, err := compute()
	if err != nil {
		return nil, err
	}
	return s.store(k, prefix, data)
}

func (s *Session) hit(e *Entry) {
	s.stats.Hits++
	s.logger.Debug("tabulation cache hit", "handle", e.Handle.Name)
}

func (s *Session) store(k Key, prefix string, data *Deferred[*gem.Literal]) (*Entry, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if _, exists := s.cache[k]; exists {
		return nil, fmt.Errorf("tabulation %s already stored", k)
	}
	e := &Entry{
		Key:    k,
		Handle: s.arena.Variable(prefix),
		Data:   data,
	}
	s.cache[k] = e
	s.stats.Misses++
	s.logger.Debug("tabulation cache miss", "handle", e.Handle.Name,
		"derivative", k.Derivative, "entity", k.Entity)
	return e, nil
}

// Entries returns the stored entries in creation order, for consumers that
// force every producer before lowering
func (s *Session) Entries() []*Entry {
	out := make([]*Entry, 0, len(s.cache))
	for _, e := range s.cache {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b *Entry) int {
		return cmp.Compare(a.Handle.ID(), b.Handle.ID())
	})
	return out
}

// Stats returns the cache hit and miss counts
func (s *Session) Stats() Stats { return s.stats }

// Close discards the cache. Handles already handed out stay valid as
// symbols but no new tabulations can be requested.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.logger.Debug("session closed", "hits", s.stats.Hits, "misses", s.stats.Misses)
	s.cache = nil
	s.closed = true
}
