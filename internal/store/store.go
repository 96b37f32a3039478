package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/xid"

	"github.com/tiacalc/tiacalc/pkg/scoring"
	"github.com/tiacalc/tiacalc/pkg/types"
)

// ErrNotFound is returned for unknown or expired worksheet IDs.
var ErrNotFound = errors.New("worksheet not found")

// Entry is a worksheet together with its last calculated result.
type Entry struct {
	ID        string
	Worksheet types.Worksheet

	// Result is nil until the first calculation. Edits do not clear it; a
	// result only changes when a new calculation supersedes it.
	Result *scoring.Result

	// Policy is the policy Result was calculated under. Zero while Result
	// is nil.
	Policy scoring.Policy

	UpdatedAt time.Time
}

func (e *Entry) clone() Entry {
	out := Entry{
		ID:        e.ID,
		Worksheet: e.Worksheet.Clone(),
		UpdatedAt: e.UpdatedAt,
	}
	if e.Result != nil {
		r := *e.Result
		out.Result = &r
		out.Policy = e.Policy.Clone()
	}
	return out
}

// Store is a thread-safe worksheet store. Entries are never mutated in
// place: every write replaces the cached *Entry.
type Store struct {
	mu    sync.Mutex // serialises read-modify-write
	items *cache.Cache
	ttl   time.Duration
	now   func() time.Time // injectable for deterministic tests
}

// New creates a Store whose entries expire ttl after their last write.
// A ttl <= 0 keeps entries until deleted.
func New(ttl time.Duration) *Store {
	exp := ttl
	if ttl <= 0 {
		exp = cache.NoExpiration
	}
	// Cleanup interval 0: expired entries are swept by Run, not go-cache's janitor.
	return &Store{
		items: cache.New(exp, 0),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Create stores a fresh default worksheet and returns it.
func (s *Store) Create() Entry {
	return s.Put(types.NewWorksheet())
}

// Put stores w under a new ID.
func (s *Store) Put(w types.Worksheet) Entry {
	e := &Entry{
		ID:        xid.New().String(),
		Worksheet: w.Clone(),
		UpdatedAt: s.now(),
	}
	s.items.SetDefault(e.ID, e)
	return e.clone()
}

// Get returns a copy of the entry for id.
func (s *Store) Get(id string) (Entry, error) {
	e, ok := s.load(id)
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e.clone(), nil
}

// Update applies fn to a copy of the worksheet and stores the result. If fn
// returns an error the stored worksheet is left unchanged and the error is
// returned as is.
func (s *Store) Update(id string, fn func(w *types.Worksheet) error) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.load(id)
	if !ok {
		return Entry{}, ErrNotFound
	}

	next := cur.clone()
	if err := fn(&next.Worksheet); err != nil {
		return Entry{}, err
	}
	next.UpdatedAt = s.now()
	s.items.SetDefault(id, &next)
	return next.clone(), nil
}

// SetResult records r, calculated under p, as the latest result for id,
// replacing any earlier one.
func (s *Store) SetResult(id string, p scoring.Policy, r scoring.Result) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.load(id)
	if !ok {
		return Entry{}, ErrNotFound
	}

	next := cur.clone()
	next.Result = &r
	next.Policy = p.Clone()
	next.UpdatedAt = s.now()
	s.items.SetDefault(id, &next)
	return next.clone(), nil
}

// Delete removes id.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.load(id); !ok {
		return ErrNotFound
	}
	s.items.Delete(id)
	return nil
}

// Count returns the number of entries held, including expired ones that
// have not been swept yet.
func (s *Store) Count() int {
	return s.items.ItemCount()
}

// Evict sweeps expired entries and returns how many were removed.
func (s *Store) Evict() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.items.ItemCount()
	s.items.DeleteExpired()
	return before - s.items.ItemCount()
}

// Run starts the background eviction loop. It ticks at half the TTL
// (minimum 1 second) and blocks until ctx is cancelled. With no TTL it
// just waits for ctx.
func (s *Store) Run(ctx context.Context) {
	if s.ttl <= 0 {
		<-ctx.Done()
		return
	}

	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Evict(); n > 0 {
				slog.Debug("store: evicted expired worksheets", "count", n)
			}
		}
	}
}

func (s *Store) load(id string) (*Entry, bool) {
	v, ok := s.items.Get(id)
	if !ok {
		return nil, false
	}
	e, ok := v.(*Entry)
	return e, ok
}
