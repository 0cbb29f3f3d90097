package bookingsync

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/teetime-booking/internal/model"
	"github.com/iliyamo/teetime-booking/internal/provider"
	"github.com/iliyamo/teetime-booking/internal/provider/golfmanager"
	"github.com/iliyamo/teetime-booking/internal/provider/teeone"
	"github.com/iliyamo/teetime-booking/internal/provider/zest"
)

type linkStore map[int64][]provider.Link

func (s linkStore) GetLinksByCourseID(_ context.Context, courseID int64) ([]provider.Link, error) {
	if courseID == 99 {
		return nil, errors.New("db down")
	}
	return s[courseID], nil
}

type bookingStore struct {
	mu       sync.Mutex
	bookings map[string]model.Booking
}

func (s *bookingStore) GetBookingByID(_ context.Context, id string) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return model.Booking{}, errors.New("not found")
	}
	return b, nil
}

func (s *bookingStore) UpdateBookingSyncStatus(_ context.Context, id, status string, syncErr, providerBookingID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.bookings[id]
	b.ProviderSyncStatus = status
	b.ProviderSyncError = syncErr
	b.ProviderBookingID = providerBookingID
	s.bookings[id] = b
	return nil
}

func (s *bookingStore) get(id string) model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bookings[id]
}

type courseStore struct{}

func (courseStore) GetCourseByID(_ context.Context, id int64) (model.Course, error) {
	return model.Course{ID: id, Name: "Course"}, nil
}

func registry() provider.Registry {
	return provider.Registry{
		provider.KindGolfmanager: golfmanager.New(golfmanager.Config{}),
		provider.KindTeeOne:      teeone.New(teeone.Config{}),
		provider.KindZest:        zest.New(zest.Config{}),
	}
}

var links = linkStore{
	1: {{CourseID: 1, Kind: provider.KindZest, FacilityID: "1234"}},
	2: {{CourseID: 2, Kind: provider.KindTeeOne, Code: "paraiso"}},
	3: {{CourseID: 3, Kind: provider.KindGolfmanager, Tenant: "tenantX"}},
}

func TestDispatcher_Sync(t *testing.T) {
	d := NewDispatcher(links, registry())
	ctx := context.Background()
	b := model.Booking{ID: "bk-1"}

	tests := []struct {
		name       string
		courseID   int64
		success    bool
		provider   string
		idPrefix   string
		wantStatus string
	}{
		{"no link", 7, true, ProviderNone, "", model.SyncStatusNotRequired},
		{"zest mock", 1, true, "zest", "ZEST-MOCK-", model.SyncStatusSynced},
		{"teeone mock", 2, true, "teeone", "TEEONE-MOCK-", model.SyncStatusSynced},
		{"golfmanager unsupported", 3, false, "golfmanager", "", model.SyncStatusFailed},
		{"link lookup fails", 99, false, "", "", model.SyncStatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := d.Sync(ctx, b, model.Course{ID: tt.courseID})
			assert.Equal(t, tt.success, res.Success)
			assert.Equal(t, tt.provider, res.Provider)
			assert.True(t, strings.HasPrefix(res.ProviderBookingID, tt.idPrefix))
			assert.Equal(t, tt.wantStatus, Status(res))
			if !tt.success {
				assert.NotEmpty(t, res.Error)
			}
		})
	}
}

func runRouter(t *testing.T, rdb *redis.Client, bookings *bookingStore) *Requester {
	logger := watermill.NopLogger{}
	pub, sub, err := NewPubSub(rdb, logger)
	require.NoError(t, err)

	router, err := NewRouter(logger, sub, NewProcessor(bookings, courseStore{}, NewDispatcher(links, registry())))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = router.Run(ctx) }()
	<-router.Running()

	return NewRequester(pub)
}

func TestBookingRequest_UsesCourseZone(t *testing.T) {
	phone := "+34 600 000 000"
	b := model.Booking{ID: "bk-1", TeeTime: time.Date(2026, 10, 21, 8, 30, 0, 0, time.UTC), Players: 3, Phone: &phone}

	req := BookingRequest(b, model.Course{Timezone: "Atlantic/Canary"})
	assert.Equal(t, "Atlantic/Canary", req.Loc().String())
	assert.Equal(t, "09:30", req.TeeTime.In(req.Loc()).Format("15:04"))
	assert.Equal(t, phone, req.Phone)

	req = BookingRequest(b, model.Course{Timezone: "Not/AZone"})
	assert.Equal(t, provider.DefaultLocation(), req.Loc())
}

func TestProcessor_RecordsOutcome(t *testing.T) {
	bookings := &bookingStore{bookings: map[string]model.Booking{
		"bk-zest": {ID: "bk-zest", CourseID: 1, ProviderSyncStatus: model.SyncStatusPending},
		"bk-gm":   {ID: "bk-gm", CourseID: 3, ProviderSyncStatus: model.SyncStatusPending},
		"bk-none": {ID: "bk-none", CourseID: 7, ProviderSyncStatus: model.SyncStatusPending},
	}}
	requester := runRouter(t, nil, bookings)

	ctx := context.Background()
	for _, id := range []string{"bk-zest", "bk-gm", "bk-none"} {
		require.NoError(t, requester.RequestSync(ctx, id, false))
	}

	assert.EventuallyWithT(t, func(c *assert.CollectT) {
		zb := bookings.get("bk-zest")
		assert.Equal(c, model.SyncStatusSynced, zb.ProviderSyncStatus)
		if assert.NotNil(c, zb.ProviderBookingID) {
			assert.True(c, strings.HasPrefix(*zb.ProviderBookingID, "ZEST-MOCK-"))
		}

		gm := bookings.get("bk-gm")
		assert.Equal(c, model.SyncStatusFailed, gm.ProviderSyncStatus)
		if assert.NotNil(c, gm.ProviderSyncError) {
			assert.Contains(c, *gm.ProviderSyncError, "not supported")
		}

		assert.Equal(c, model.SyncStatusNotRequired, bookings.get("bk-none").ProviderSyncStatus)
	}, 5*time.Second, 20*time.Millisecond)
}

func TestProcessor_RedisStreams(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	bookings := &bookingStore{bookings: map[string]model.Booking{
		"bk-teeone": {ID: "bk-teeone", CourseID: 2, ProviderSyncStatus: model.SyncStatusPending},
	}}
	requester := runRouter(t, rdb, bookings)

	require.NoError(t, requester.RequestSync(context.Background(), "bk-teeone", false))

	assert.EventuallyWithT(t, func(c *assert.CollectT) {
		assert.Equal(c, model.SyncStatusSynced, bookings.get("bk-teeone").ProviderSyncStatus)
	}, 10*time.Second, 50*time.Millisecond)
}
