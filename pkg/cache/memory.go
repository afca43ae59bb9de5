package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// MemoryConfig tunes the in-process store.
type MemoryConfig struct {
	DefaultTTL  time.Duration
	CheckPeriod time.Duration
	Clock       clockwork.Clock
	Logger      *zap.Logger
}

// MemoryStore keeps entries in a map with lazy and periodic expiry.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	hits    uint64
	misses  uint64

	defaultTTL  time.Duration
	checkPeriod time.Duration
	clock       clockwork.Clock
	logger      *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewMemoryStore constructs an empty store. Call Start to enable the background sweep.
func NewMemoryStore(cfg MemoryConfig) *MemoryStore {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 5 * time.Minute
	}
	if cfg.CheckPeriod <= 0 {
		cfg.CheckPeriod = time.Minute
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &MemoryStore{
		entries:     make(map[string]entry),
		defaultTTL:  cfg.DefaultTTL,
		checkPeriod: cfg.CheckPeriod,
		clock:       cfg.Clock,
		logger:      cfg.Logger,
	}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		s.misses++
		return nil, false, nil
	}
	if e.expired(s.clock.Now()) {
		delete(s.entries, key)
		s.misses++
		return nil, false, nil
	}
	s.hits++
	return e.value, true, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	s.mu.Lock()
	s.entries[key] = entry{value: value, expiresAt: s.clock.Now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	delete(s.entries, key)
	return ok, nil
}

// DeleteMatching implements Store.
func (s *MemoryStore) DeleteMatching(ctx context.Context, pattern string) (int, error) {
	re := compilePattern(pattern)

	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for key := range s.entries {
		if re.MatchString(key) {
			delete(s.entries, key)
			count++
		}
	}
	return count, nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.entries = make(map[string]entry)
	s.mu.Unlock()
	return nil
}

// Stats implements Store. Expired entries not yet swept are excluded from the key list.
func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	keys := make([]string, 0, len(s.entries))
	for key, e := range s.entries {
		if !e.expired(now) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return Stats{
		Hits:           s.hits,
		Misses:         s.misses,
		Keys:           len(keys),
		HitRatePercent: hitRate(s.hits, s.misses),
		ActiveKeys:     keys,
	}, nil
}

// Start launches the periodic sweep. Safe to call once.
func (s *MemoryStore) Start(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	ticker := s.clock.NewTicker(s.checkPeriod)
	go func() {
		defer close(s.done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				if purged := s.Sweep(); purged > 0 {
					s.logger.Debug("cache sweep", zap.Int("purged", purged))
				}
			}
		}
	}()
}

// Stop ends the sweep goroutine and waits for it.
func (s *MemoryStore) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Sweep removes expired entries and returns how many were purged.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	purged := 0
	for key, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, key)
			purged++
		}
	}
	return purged
}

// Len returns the raw number of entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
