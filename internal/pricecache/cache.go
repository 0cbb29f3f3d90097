// Package pricecache remembers the last customer price shown for each
// (course, tee time).  Entries are written only from provider responses
// and read by the checkout guard, which never trusts a client price.
package pricecache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Defaults for entry lifetime and sweeping.
const (
	DefaultTTL           = 30 * time.Minute
	DefaultSweepInterval = 10 * time.Minute
)

// ErrMiss is returned when no live entry exists for a key.
var ErrMiss = errors.New("price not cached")

// Entry is one cached price.
type Entry struct {
	CourseID   int64     `json:"courseId"`
	TeeTime    time.Time `json:"teeTime"`
	PriceCents int64     `json:"priceCents"`
	Currency   string    `json:"currency"`
	Source     string    `json:"source"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// Expired reports whether the entry is past its expiry at now.
func (e Entry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Cache is implemented by the in-process and Redis backends.
type Cache interface {
	// Put stores or overwrites the price with expiry now+TTL.
	Put(ctx context.Context, courseID int64, teeTime time.Time, priceCents int64, currency, source string) error
	// Get returns ErrMiss when the key is absent or expired.
	Get(ctx context.Context, courseID int64, teeTime time.Time) (Entry, error)
	// Peek returns the stored entry even when expired, as long as it has
	// not been swept yet.
	Peek(ctx context.Context, courseID int64, teeTime time.Time) (Entry, error)
	Delete(ctx context.Context, courseID int64, teeTime time.Time) error
}

// Key is the composite "courseID|ISO tee time" key.
func Key(courseID int64, teeTime time.Time) string {
	return fmt.Sprintf("%d|%s", courseID, teeTime.UTC().Format(time.RFC3339))
}
