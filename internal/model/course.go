package model

import "time"

// Course is a golf course sold on the marketplace.  Courses with a
// provider link expose live availability; others are booked directly
// against the local tee sheet and need no upstream sync.
//
// Fields:
//  ID              – primary key identifier.
//  Name            – display name.
//  Slug            – URL-friendly identifier.
//  Currency        – ISO currency code used for all prices of the course.
//  KickbackPercent – commission applied over wholesale prices when no
//                    contract rate matches (nil means the default).
//  Timezone        – IANA zone used to render local tee times.
//  CreatedAt       – creation timestamp.
type Course struct {
	ID              int64     `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Slug            string    `db:"slug" json:"slug"`
	Currency        string    `db:"currency" json:"currency"`
	KickbackPercent *float64  `db:"kickback_percent" json:"-"`
	Timezone        string    `db:"timezone" json:"timezone"`
	CreatedAt       time.Time `db:"created_at" json:"-"`
}

// AddOn is an extra sold alongside a green fee (buggy, trolley, range
// balls).  The catalog is the only source of add-on prices at checkout.
type AddOn struct {
	ID         int64  `db:"id" json:"id"`
	CourseID   int64  `db:"course_id" json:"courseId"`
	Name       string `db:"name" json:"name"`
	PriceCents int64  `db:"price_cents" json:"priceCents"`
	Currency   string `db:"currency" json:"currency"`
	PerPlayer  bool   `db:"per_player" json:"perPlayer"`
	Active     bool   `db:"active" json:"active"`
}

// RatePeriod is one line of a course contract: a rack rate that applies
// to a class of package (early bird, twilight, lunch included) within a
// date range.  Rack rates already include the marketplace margin.
type RatePeriod struct {
	ID            int64     `db:"id"`
	CourseID      int64     `db:"course_id"`
	Name          string    `db:"name"`
	ValidFrom     time.Time `db:"valid_from"`
	ValidTo       time.Time `db:"valid_to"`
	RackRate      float64   `db:"rack_rate"`
	IsEarlyBird   bool      `db:"is_early_bird"`
	IsTwilight    bool      `db:"is_twilight"`
	IncludesLunch bool      `db:"includes_lunch"`
}

// Covers reports whether the period is valid on the given day.
func (p RatePeriod) Covers(day time.Time) bool {
	d := day.Format("2006-01-02")
	return d >= p.ValidFrom.Format("2006-01-02") && d <= p.ValidTo.Format("2006-01-02")
}
