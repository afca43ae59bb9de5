package cache

import (
	"context"
	"math"
	"regexp"
	"strings"
	"time"
)

// Store is a keyed TTL store holding opaque payloads.
type Store interface {
	// Get returns the stored value when present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set overwrites any existing entry for key.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete reports whether the key was present.
	Delete(ctx context.Context, key string) (bool, error)
	// DeleteMatching removes every key matching a glob where '*' is the only wildcard.
	DeleteMatching(ctx context.Context, pattern string) (int, error)
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (Stats, error)
}

// Stats summarises store usage.
type Stats struct {
	Hits           uint64   `json:"hits"`
	Misses         uint64   `json:"misses"`
	Keys           int      `json:"keys"`
	HitRatePercent float64  `json:"hit_rate_percent"`
	ActiveKeys     []string `json:"active_keys"`
}

func hitRate(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 || hits == 0 {
		return 0
	}
	return math.Round(float64(hits)/float64(total)*10000) / 100
}

// compilePattern turns a glob into an anchored regexp. Only '*' is special.
func compilePattern(pattern string) *regexp.Regexp {
	parts := strings.Split(pattern, "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return regexp.MustCompile("^" + strings.Join(parts, ".*") + "$")
}
