package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/teetime-booking/internal/logging"
	"github.com/iliyamo/teetime-booking/internal/model"
	"github.com/iliyamo/teetime-booking/internal/pricecache"
	"github.com/iliyamo/teetime-booking/internal/provider"
	"github.com/iliyamo/teetime-booking/internal/repository"
)

type AvailabilityRequest struct {
	CourseID int64
	Date     time.Time
	Players  int
	Holes    int
}

type Availability struct {
	Course model.Course    `json:"course"`
	Date   string          `json:"date"`
	Slots  []provider.Slot `json:"slots"`
}

// AvailabilityService searches providers and records every quoted price.
// It is the only writer of the price cache.
type AvailabilityService struct {
	courses  CourseStore
	links    LinkStore
	adapters provider.Registry
	prices   pricecache.Cache
}

func NewAvailabilityService(courses CourseStore, links LinkStore, adapters provider.Registry, prices pricecache.Cache) *AvailabilityService {
	return &AvailabilityService{courses: courses, links: links, adapters: adapters, prices: prices}
}

func (s *AvailabilityService) Search(ctx context.Context, req AvailabilityRequest) (Availability, error) {
	if req.Players < 0 || req.Players > 4 || req.Date.IsZero() {
		return Availability{}, fmt.Errorf("%w: players must be 1-4 and date is required", ErrInvalidRequest)
	}
	log := logging.FromContext(ctx).WithField("course_id", req.CourseID)

	course, err := s.courses.GetCourseByID(ctx, req.CourseID)
	if errors.Is(err, repository.ErrNotFound) {
		return Availability{}, ErrCourseNotFound
	}
	if err != nil {
		return Availability{}, err
	}
	out := Availability{Course: course, Date: req.Date.Format("2006-01-02"), Slots: []provider.Slot{}}

	links, err := s.links.GetLinksByCourseID(ctx, course.ID)
	if err != nil {
		return Availability{}, err
	}
	if len(links) == 0 {
		log.Debug("course has no provider link")
		return out, nil
	}
	link := links[0]
	adapter, err := s.adapters.For(link)
	if err != nil {
		return Availability{}, err
	}

	periods, err := s.courses.GetRatePeriodsByCourseID(ctx, course.ID)
	if err != nil {
		return Availability{}, err
	}

	slots, err := adapter.Search(ctx, link, provider.SearchRequest{
		CourseID: course.ID,
		Date:     req.Date,
		Players:  req.Players,
		Holes:    req.Holes,
		Currency: course.Currency,
		Location: CourseLocation(course),
		Contract: provider.Contract{Periods: periods, KickbackPercent: course.KickbackPercent},
	})
	if err != nil {
		log.WithError(err).WithField("provider", link.Kind).Error("availability search failed")
		return Availability{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	for _, slot := range slots {
		if err := s.prices.Put(ctx, course.ID, slot.TeeTime, slot.GreenFeeCents, slot.Currency, slot.Source); err != nil {
			log.WithError(err).Warn("caching slot price")
		}
	}
	out.Slots = slots
	return out, nil
}
