package teeone

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/teetime-booking/internal/clock"
	"github.com/iliyamo/teetime-booking/internal/provider"
)

type fakeTeeOne struct {
	auths      atomic.Int32
	failSearch atomic.Bool
	booked     atomic.Value
}

func (f *fakeTeeOne) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/clubs/paraiso/auth", func(w http.ResponseWriter, r *http.Request) {
		f.auths.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok"})
	})
	mux.HandleFunc("/clubs/paraiso/teetimes", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		if f.failSearch.Load() {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"teeTimes": []teeTime{
			{ID: "a1", Time: "09:30", Holes: 18, Available: 4, Price: 62.5, Rate: "Green Fee"},
			{ID: "a2", Time: "10:00", Holes: 18, Available: 1, Price: 62.5},
		}})
	})
	mux.HandleFunc("/clubs/paraiso/bookings", func(w http.ResponseWriter, r *http.Request) {
		var body createBookingRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.booked.Store(body)
		_ = json.NewEncoder(w).Encode(map[string]string{"bookingId": "T1-991"})
	})
	return mux
}

var link = provider.Link{Kind: provider.KindTeeOne, Code: "paraiso"}

func request() provider.SearchRequest {
	return provider.SearchRequest{
		CourseID: 9,
		Date:     time.Date(2026, 10, 21, 0, 0, 0, 0, time.UTC),
		Players:  2,
		Location: time.UTC,
	}
}

func newClient(t *testing.T, f *fakeTeeOne, clk clock.Clock) *Client {
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return New(
		Config{BaseURL: srv.URL, Username: "u", Password: "p"},
		WithRetrier(provider.Retrier{Step: time.Millisecond}),
		WithClock(clk),
	)
}

func TestSearch_ReusesTokenForAnHour(t *testing.T) {
	f := &fakeTeeOne{}
	clk := clock.NewFake(time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC))
	c := newClient(t, f, clk)

	slots, err := c.Search(context.Background(), link, request())
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "09:30", slots[0].Time)
	assert.Equal(t, int64(6250), slots[0].GreenFeeCents)
	assert.Equal(t, "TeeOne", slots[0].Source)

	clk.Advance(59 * time.Minute)
	_, err = c.Search(context.Background(), link, request())
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.auths.Load())

	clk.Advance(2 * time.Minute)
	_, err = c.Search(context.Background(), link, request())
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.auths.Load())
}

func TestSearch_ErrorFallsBackToMock(t *testing.T) {
	f := &fakeTeeOne{}
	f.failSearch.Store(true)
	c := newClient(t, f, clock.NewSystem())

	slots, err := c.Search(context.Background(), link, request())
	require.NoError(t, err)
	require.NotEmpty(t, slots)
	for _, s := range slots {
		assert.Equal(t, "TeeOne MOCK", s.Source)
	}
}

func TestSearch_WithoutCredentialsServesMock(t *testing.T) {
	c := New(Config{})
	a, err := c.Search(context.Background(), link, request())
	require.NoError(t, err)
	b, err := c.Search(context.Background(), link, request())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSyncBooking(t *testing.T) {
	req := provider.BookingRequest{
		BookingID:  "bk-1",
		TeeTime:    time.Date(2026, 10, 21, 8, 30, 0, 0, time.UTC),
		Players:    2,
		Holes:      18,
		FirstName:  "Ana",
		LastName:   "Ruiz",
		Email:      "ana@example.com",
		TotalCents: 12500,
		Currency:   "EUR",
	}

	t.Run("creates upstream booking", func(t *testing.T) {
		f := &fakeTeeOne{}
		c := newClient(t, f, clock.NewSystem())

		res := c.SyncBooking(context.Background(), link, req)
		assert.True(t, res.Success)
		assert.Equal(t, "T1-991", res.ProviderBookingID)
		body := f.booked.Load().(createBookingRequest)
		assert.Equal(t, "bk-1", body.Reference)
		assert.Equal(t, 125.0, body.Amount)
	})

	t.Run("without credentials returns mock id", func(t *testing.T) {
		res := New(Config{}).SyncBooking(context.Background(), link, req)
		assert.True(t, res.Success)
		assert.True(t, strings.HasPrefix(res.ProviderBookingID, "TEEONE-MOCK-"))
		assert.Equal(t, res.ProviderBookingID, New(Config{}).SyncBooking(context.Background(), link, req).ProviderBookingID)
	})

	t.Run("tee time is local to the course", func(t *testing.T) {
		f := &fakeTeeOne{}
		c := newClient(t, f, clock.NewSystem())
		canary, err := time.LoadLocation("Atlantic/Canary")
		require.NoError(t, err)

		local := req
		local.Location = canary
		res := c.SyncBooking(context.Background(), link, local)
		require.True(t, res.Success)
		body := f.booked.Load().(createBookingRequest)
		assert.Equal(t, "2026-10-21", body.Date)
		assert.Equal(t, "09:30", body.Time)
	})

	t.Run("server error posts once", func(t *testing.T) {
		var posts atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc("/clubs/paraiso/auth", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok"})
		})
		mux.HandleFunc("/clubs/paraiso/bookings", func(w http.ResponseWriter, r *http.Request) {
			posts.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()
		c := New(Config{BaseURL: srv.URL, Username: "u", Password: "p"}, WithRetrier(provider.Retrier{Step: time.Millisecond}))

		res := c.SyncBooking(context.Background(), link, req)
		assert.False(t, res.Success)
		assert.EqualValues(t, 1, posts.Load())
	})

	t.Run("upstream failure is reported", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()
		c := New(Config{BaseURL: srv.URL, Username: "u", Password: "p"}, WithRetrier(provider.Retrier{Step: time.Millisecond}))

		res := c.SyncBooking(context.Background(), link, req)
		assert.False(t, res.Success)
		assert.Equal(t, "teeone", res.Provider)
		assert.NotEmpty(t, res.Error)
	})
}
