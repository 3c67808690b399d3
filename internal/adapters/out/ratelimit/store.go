// Package ratelimit provides a persistent token-bucket store for echo's
// rate limiter middleware, backed by Starskey.
package ratelimit

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/starskey-io/starskey"

	"github.com/bnema/appupdate/internal/logging"
)

type bucket struct {
	Tokens   float64   `json:"tokens"`
	LastSeen time.Time `json:"last_seen"`
}

// Store implements middleware.RateLimiterStore. Each identifier gets a
// bucket of burst tokens refilled at rate tokens per second. Buckets idle
// longer than expiresIn start over full.
type Store struct {
	db        *starskey.Starskey
	rate      float64
	burst     int
	expiresIn time.Duration
	now       func() time.Time
	log       *log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore opens the Starskey database in dir.
func NewStore(dir string, rate float64, burst int, expiresIn time.Duration, logger *log.Logger, opts ...Option) (*Store, error) {
	if burst < 1 {
		return nil, fmt.Errorf("burst must be at least 1, got %d", burst)
	}

	db, err := starskey.Open(&starskey.Config{
		Permission:        0750,
		Directory:         dir,
		FlushThreshold:    16 * 1024 * 1024,
		MaxLevel:          3,
		SizeFactor:        10,
		BloomFilter:       true,
		SuRF:              false,
		Logging:           false,
		Compression:       true,
		CompressionOption: starskey.SnappyCompression,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open rate limit store: %w", err)
	}

	s := &Store{
		db:        db,
		rate:      rate,
		burst:     burst,
		expiresIn: expiresIn,
		now:       time.Now,
		log:       logger.With(logging.FieldLayer, "adapter", logging.FieldAdapter, "ratelimit"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.log.Info("rate limiter initialized", "dir", dir, "rate", rate, "burst", burst, "expires_in", expiresIn)
	return s, nil
}

// Allow consumes one token for identifier.
func (s *Store) Allow(identifier string) (bool, error) {
	var allowed bool

	err := s.db.Update(func(txn *starskey.Txn) error {
		now := s.now()
		key := []byte(identifier)

		b := bucket{Tokens: float64(s.burst), LastSeen: now}
		if value, err := txn.Get(key); err == nil && value != nil {
			var stored bucket
			if err := json.Unmarshal(value, &stored); err == nil && now.Sub(stored.LastSeen) <= s.expiresIn {
				elapsed := now.Sub(stored.LastSeen).Seconds()
				if elapsed < 0 {
					elapsed = 0
				}
				b.Tokens = math.Min(float64(s.burst), stored.Tokens+elapsed*s.rate)
			}
		}

		if b.Tokens >= 1 {
			b.Tokens--
			allowed = true
		} else {
			s.log.Debug("request rate limited", "identifier", identifier)
		}

		data, err := json.Marshal(b)
		if err != nil {
			return err
		}
		txn.Put(key, data)
		return nil
	})

	return allowed, err
}

// Reset forgets the bucket for identifier.
func (s *Store) Reset(identifier string) error {
	return s.db.Delete([]byte(identifier))
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
