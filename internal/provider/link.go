// Package provider holds what the Golfmanager, TeeOne and Zest adapters
// share: the decoded provider link, the common slot shape, the retry
// wrapper used for upstream HTTP calls and the mock slot generator used
// when a provider has no usable credentials.
package provider

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies an upstream booking engine.
type Kind string

const (
	KindGolfmanager Kind = "golfmanager"
	KindTeeOne      Kind = "teeone"
	KindZest        Kind = "zest"
)

// ErrInvalidLink is returned when a stored provider code cannot be decoded.
var ErrInvalidLink = errors.New("invalid provider link")

// Link is the decoded form of a course's provider code.  Exactly one of
// Tenant, Code or FacilityID is set depending on Kind.
type Link struct {
	CourseID   int64
	Kind       Kind
	Tenant     string // golfmanager
	Code       string // teeone
	FacilityID string // zest
}

// ParseLink decodes "golfmanager:tenantX", "teeone:paraiso" or "zest:1234".
func ParseLink(raw string) (Link, error) {
	prefix, value, ok := strings.Cut(strings.TrimSpace(raw), ":")
	value = strings.TrimSpace(value)
	if !ok || value == "" {
		return Link{}, fmt.Errorf("%w: %q", ErrInvalidLink, raw)
	}
	switch Kind(strings.ToLower(prefix)) {
	case KindGolfmanager:
		return Link{Kind: KindGolfmanager, Tenant: value}, nil
	case KindTeeOne:
		return Link{Kind: KindTeeOne, Code: value}, nil
	case KindZest:
		return Link{Kind: KindZest, FacilityID: value}, nil
	}
	return Link{}, fmt.Errorf("%w: unknown provider %q", ErrInvalidLink, prefix)
}

// Ref returns the provider-specific identifier of the course.
func (l Link) Ref() string {
	switch l.Kind {
	case KindGolfmanager:
		return l.Tenant
	case KindTeeOne:
		return l.Code
	case KindZest:
		return l.FacilityID
	}
	return ""
}

// String re-encodes the link in its stored "kind:ref" form.
func (l Link) String() string {
	return string(l.Kind) + ":" + l.Ref()
}
