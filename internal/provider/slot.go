package provider

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/teetime-booking/internal/model"
)

// PlatformTimeout bounds every upstream HTTP call.
const PlatformTimeout = 15 * time.Second

// ErrInvalidSlotID is returned by ParseSlotID for malformed identifiers.
var ErrInvalidSlotID = errors.New("invalid slot id")

// Package is one priced product offered at a tee time ("Greenfee + Buggy",
// "Twilight").  PriceCents is the customer-facing price per player.
type Package struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	PriceCents int64  `json:"priceCents"`
}

// Slot is the normalized tee-time shape every adapter returns.
// GreenFeeCents is the headline (cheapest) per-player price.
type Slot struct {
	ID               string    `json:"id"`
	CourseID         int64     `json:"courseId"`
	TeeTime          time.Time `json:"teeTime"`
	Date             string    `json:"date"`
	Time             string    `json:"time"`
	Holes            int       `json:"holes"`
	AvailablePlayers int       `json:"availablePlayers"`
	GreenFeeCents    int64     `json:"greenFeeCents"`
	Currency         string    `json:"currency"`
	Source           string    `json:"source"`
	Tenant           string    `json:"tenant"`
	Packages         []Package `json:"packages,omitempty"`
}

// Contract carries the pricing inputs the Golfmanager adapter needs.
type Contract struct {
	Periods         []model.RatePeriod
	KickbackPercent *float64
}

// SearchRequest asks an adapter for a day of availability.
type SearchRequest struct {
	CourseID int64
	Date     time.Time
	Players  int
	Holes    int
	Currency string
	Location *time.Location
	Contract Contract
}

// Day returns the requested date formatted as YYYY-MM-DD.
func (r SearchRequest) Day() string {
	return r.Date.Format("2006-01-02")
}

// Loc returns the course location, defaulting to Europe/Madrid.
func (r SearchRequest) Loc() *time.Location {
	if r.Location != nil {
		return r.Location
	}
	return madrid
}

// DefaultLocation is the zone tee times are quoted in when a course has
// none configured.
func DefaultLocation() *time.Location {
	return madrid
}

// LocationFor loads the IANA zone tz, falling back to DefaultLocation.
func LocationFor(tz string) *time.Location {
	if tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}
	return madrid
}

var madrid = func() *time.Location {
	loc, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		return time.UTC
	}
	return loc
}()

// NewSlot fills the derived fields (ID, date and local time) of a slot.
func NewSlot(courseID int64, teeTime time.Time, loc *time.Location, packageID string) Slot {
	local := teeTime.In(loc)
	return Slot{
		ID:       FormatSlotID(courseID, teeTime, packageID),
		CourseID: courseID,
		TeeTime:  teeTime.UTC(),
		Date:     local.Format("2006-01-02"),
		Time:     local.Format("15:04"),
	}
}

// SlotRef is the decoded form of a slot identifier.
type SlotRef struct {
	CourseID  int64
	TeeTime   time.Time
	PackageID string
}

// FormatSlotID builds "courseID|teeTime|package".
func FormatSlotID(courseID int64, teeTime time.Time, packageID string) string {
	return fmt.Sprintf("%d|%s|%s", courseID, teeTime.UTC().Format(time.RFC3339), packageID)
}

// ParseSlotID decodes an identifier produced by FormatSlotID.
func ParseSlotID(id string) (SlotRef, error) {
	parts := strings.SplitN(id, "|", 3)
	if len(parts) < 2 {
		return SlotRef{}, ErrInvalidSlotID
	}
	courseID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || courseID <= 0 {
		return SlotRef{}, ErrInvalidSlotID
	}
	teeTime, err := time.Parse(time.RFC3339, parts[1])
	if err != nil {
		return SlotRef{}, ErrInvalidSlotID
	}
	ref := SlotRef{CourseID: courseID, TeeTime: teeTime.UTC()}
	if len(parts) == 3 {
		ref.PackageID = parts[2]
	}
	return ref, nil
}

// BookingRequest is what the sync functions send upstream.
type BookingRequest struct {
	BookingID  string
	TeeTime    time.Time
	Players    int
	Holes      int
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	TotalCents int64
	Currency   string
	Location   *time.Location // course zone; nil means DefaultLocation
}

// Loc returns the zone the tee time is local to at the course.
func (r BookingRequest) Loc() *time.Location {
	if r.Location != nil {
		return r.Location
	}
	return madrid
}

// SyncResult is the outcome of mirroring a booking to a provider.  Sync
// functions report failures here instead of returning errors.
type SyncResult struct {
	Success           bool   `json:"success"`
	Provider          string `json:"provider"`
	ProviderBookingID string `json:"providerBookingId,omitempty"`
	Error             string `json:"error,omitempty"`
}
