package pricecache

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/teetime-booking/internal/clock"
)

// Memory is the process-local cache.  Expired entries stay visible to
// Peek until the next sweep.
type Memory struct {
	clock clock.Clock
	ttl   time.Duration

	mu      sync.Mutex
	entries map[string]Entry
}

func NewMemory(clk clock.Clock, ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{clock: clk, ttl: ttl, entries: map[string]Entry{}}
}

func (m *Memory) Put(_ context.Context, courseID int64, teeTime time.Time, priceCents int64, currency, source string) error {
	e := Entry{
		CourseID:   courseID,
		TeeTime:    teeTime.UTC(),
		PriceCents: priceCents,
		Currency:   currency,
		Source:     source,
		ExpiresAt:  m.clock.Now().Add(m.ttl),
	}
	m.mu.Lock()
	m.entries[Key(courseID, teeTime)] = e
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(ctx context.Context, courseID int64, teeTime time.Time) (Entry, error) {
	e, err := m.Peek(ctx, courseID, teeTime)
	if err != nil {
		return Entry{}, err
	}
	if e.Expired(m.clock.Now()) {
		return Entry{}, ErrMiss
	}
	return e, nil
}

func (m *Memory) Peek(_ context.Context, courseID int64, teeTime time.Time) (Entry, error) {
	m.mu.Lock()
	e, ok := m.entries[Key(courseID, teeTime)]
	m.mu.Unlock()
	if !ok {
		return Entry{}, ErrMiss
	}
	return e, nil
}

func (m *Memory) Delete(_ context.Context, courseID int64, teeTime time.Time) error {
	m.mu.Lock()
	delete(m.entries, Key(courseID, teeTime))
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Sweep removes every entry expired at now and returns how many it removed.
func (m *Memory) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, e := range m.entries {
		if e.Expired(now) {
			delete(m.entries, k)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (m *Memory) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := m.Sweep(m.clock.Now()); n > 0 {
				logrus.WithField("removed", n).Info("price cache swept")
			}
		}
	}
}
