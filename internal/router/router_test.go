package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/teetime-booking/internal/clock"
	"github.com/iliyamo/teetime-booking/internal/handler"
	"github.com/iliyamo/teetime-booking/internal/holdstore"
	"github.com/iliyamo/teetime-booking/internal/middleware"
	"github.com/iliyamo/teetime-booking/internal/model"
	"github.com/iliyamo/teetime-booking/internal/payment"
	"github.com/iliyamo/teetime-booking/internal/pricecache"
	"github.com/iliyamo/teetime-booking/internal/provider"
	"github.com/iliyamo/teetime-booking/internal/provider/zest"
	"github.com/iliyamo/teetime-booking/internal/queue"
	"github.com/iliyamo/teetime-booking/internal/repository"
	"github.com/iliyamo/teetime-booking/internal/service"
	"github.com/iliyamo/teetime-booking/internal/utils"
)

const courseID int64 = 7

type stores struct {
	mu       sync.Mutex
	bookings map[string]model.Booking
	synced   []string
}

func (s *stores) GetCourseByID(_ context.Context, id int64) (model.Course, error) {
	if id != courseID {
		return model.Course{}, repository.ErrNotFound
	}
	return model.Course{ID: courseID, Name: "Valle Romano", Currency: "EUR", Timezone: "Europe/Madrid"}, nil
}

func (s *stores) SearchCourses(_ context.Context, q repository.CourseSearchQuery) ([]repository.CourseRow, int64, error) {
	if q.Name != "" && !strings.Contains("valle romano", strings.ToLower(q.Name)) {
		return nil, 0, nil
	}
	kind := "zest"
	return []repository.CourseRow{{ID: courseID, Name: "Valle Romano", Currency: "EUR", Timezone: "Europe/Madrid", Provider: &kind}}, 1, nil
}

func (s *stores) GetAddOnsByCourseID(context.Context, int64) ([]model.AddOn, error) {
	return []model.AddOn{{ID: 1, CourseID: courseID, Name: "Buggy", PriceCents: 3000, Active: true}}, nil
}

func (s *stores) GetRatePeriodsByCourseID(context.Context, int64) ([]model.RatePeriod, error) {
	return nil, nil
}

func (s *stores) GetLinksByCourseID(_ context.Context, id int64) ([]provider.Link, error) {
	return []provider.Link{{CourseID: id, Kind: provider.KindZest, FacilityID: "88"}}, nil
}

func (s *stores) CreateBooking(_ context.Context, b model.Booking) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.PaymentReference != nil {
		for _, existing := range s.bookings {
			if existing.PaymentReference != nil && *existing.PaymentReference == *b.PaymentReference {
				return model.Booking{}, repository.ErrDuplicate
			}
		}
	}
	b.ID = uuid.NewString()
	b.CreatedAt = time.Now().UTC()
	s.bookings[b.ID] = b
	return b, nil
}

func (s *stores) GetBookingByID(_ context.Context, id string) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return model.Booking{}, repository.ErrNotFound
	}
	return b, nil
}

func (s *stores) GetBookingByPaymentReference(_ context.Context, ref string) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.PaymentReference != nil && *b.PaymentReference == ref {
			return b, nil
		}
	}
	return model.Booking{}, repository.ErrNotFound
}

func (s *stores) RequestSync(_ context.Context, id string, _ bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synced = append(s.synced, id)
	return nil
}

type server struct {
	e     *echo.Echo
	clock *clock.Fake
	store *stores
}

func newServer(t *testing.T) *server {
	t.Helper()
	clk := clock.NewFake(time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC))
	st := &stores{bookings: map[string]model.Booking{}}
	holds := holdstore.New(clk, holdstore.DefaultHoldTTL)
	prices := pricecache.NewMemory(clk, pricecache.DefaultTTL)
	payments := payment.NewLocal("http://example.test", clk)
	vouchers := service.Vouchers{Secret: "s3cret", BaseURL: "http://example.test"}

	orders := service.NewOrderService(service.OrderDeps{
		Holds: holds, Prices: prices, Courses: st, Links: st, Bookings: st,
		Sync: st, Notifier: queue.LogPublisher{}, Vouchers: vouchers, Clock: clk,
	})
	t.Cleanup(orders.Wait)
	avail := service.NewAvailabilityService(st, st, provider.Registry{provider.KindZest: zest.New(zest.Config{})}, prices)
	checkout := service.NewCheckoutService(prices, st, holds, orders, payments, "http://example.test", clk)

	hash, err := utils.HashPassword("pw", bcrypt.MinCost)
	require.NoError(t, err)

	e := echo.New()
	e.Use(middleware.RequestLogger())
	pass := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	RegisterRoutes(e, &handler.HealthHandler{})
	RegisterPublic(e, &handler.CourseHandler{Courses: st, Availability: avail}, pass)
	RegisterBooking(e,
		&handler.OrderHandler{Orders: orders},
		&handler.CheckoutHandler{Checkout: checkout, Payments: payments},
		&handler.VoucherHandler{Vouchers: vouchers, Orders: orders, Courses: st},
		pass)
	RegisterAdmin(e, &handler.AdminHandler{
		Email: "ops@example.com", PassHash: hash, Secret: "s3cret", TTLMin: 5, Orders: orders, Holds: holds,
	}, "s3cret", pass)

	return &server{e: e, clock: clk, store: st}
}

func (s *server) do(t *testing.T, method, path, body, token string) (int, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	out := map[string]any{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec.Code, out
}

var teeTime = time.Date(2026, 10, 20, 7, 30, 0, 0, time.UTC)

func TestBookingFlow(t *testing.T) {
	s := newServer(t)
	slot := provider.FormatSlotID(courseID, teeTime, "standard")

	code, order := s.do(t, http.MethodPost, "/v1/orders/items",
		`{"slotId":"`+slot+`","players":2,"greenFee":80,"extras":[{"description":"Buggy","amount":30}]}`, "")
	require.Equal(t, http.StatusCreated, code, order)
	assert.Equal(t, 190.0, order["total"])
	assert.Equal(t, "HELD", order["status"])
	assert.Equal(t, "09:30", order["time"])
	orderID := order["orderId"].(string)

	code, order = s.do(t, http.MethodPost, "/v1/orders/items", `{"orderId":"`+orderID+`","slotId":"`+slot+`","players":3,"greenFee":80}`, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 240.0, order["total"])

	code, got := s.do(t, http.MethodGet, "/v1/orders/"+orderID, "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, orderID, got["orderId"])

	code, body := s.do(t, http.MethodPost, "/v1/bookings/confirm", `{"orderId":"`+orderID+`","customer":{"firstName":"Ana"}}`, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "CUSTOMER_REQUIRED", body["code"])

	code, booking := s.do(t, http.MethodPost, "/v1/bookings/confirm",
		`{"orderId":"`+orderID+`","customer":{"firstName":"Ana","lastName":"Ruiz","email":"ana@example.com"}}`, "")
	require.Equal(t, http.StatusCreated, code, booking)
	assert.Equal(t, 240.0, booking["total"])
	assert.Equal(t, "PENDING", booking["providerSyncStatus"])
	assert.Nil(t, booking["providerBookingId"])
	bookingID := booking["bookingId"].(string)

	code, body = s.do(t, http.MethodPost, "/v1/bookings/confirm",
		`{"orderId":"`+orderID+`","customer":{"firstName":"Ana","lastName":"Ruiz","email":"ana@example.com"}}`, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "ALREADY_CONFIRMED", body["code"])

	voucherURL := booking["voucherUrl"].(string)
	code, voucher := s.do(t, http.MethodGet, strings.TrimPrefix(voucherURL, "http://example.test"), "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, bookingID, voucher["bookingId"])
	assert.Equal(t, "Valle Romano", voucher["courseName"])
	assert.Equal(t, "09:30", voucher["time"])

	code, _ = s.do(t, http.MethodGet, "/v1/vouchers/not-a-token", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestBookingFlow_ExpiredHold(t *testing.T) {
	s := newServer(t)
	slot := provider.FormatSlotID(courseID, teeTime, "standard")

	code, order := s.do(t, http.MethodPost, "/v1/orders/items", `{"slotId":"`+slot+`","players":2,"greenFee":80}`, "")
	require.Equal(t, http.StatusCreated, code)

	s.clock.Advance(16 * time.Minute)
	code, body := s.do(t, http.MethodPost, "/v1/bookings/confirm",
		`{"orderId":"`+order["orderId"].(string)+`","customer":{"firstName":"Ana","lastName":"Ruiz","email":"ana@example.com"}}`, "")
	assert.Equal(t, http.StatusGone, code)
	assert.Equal(t, "HOLD_EXPIRED", body["code"])
	assert.Empty(t, s.store.bookings)

	code, body = s.do(t, http.MethodGet, "/v1/orders/missing", "", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "ORDER_NOT_FOUND", body["code"])
}

func TestCourseCatalog(t *testing.T) {
	s := newServer(t)

	code, body := s.do(t, http.MethodGet, "/v1/courses?q=valle", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["total"])
	assert.EqualValues(t, 1, body["page"])
	assert.EqualValues(t, 20, body["pageSize"])
	items := body["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "zest", items[0].(map[string]any)["provider"])

	code, body = s.do(t, http.MethodGet, "/v1/courses?q=nowhere&page=3", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["items"])
	assert.EqualValues(t, 3, body["page"])

	code, body = s.do(t, http.MethodGet, "/v1/courses?page=x", "", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_REQUEST", body["code"])
}

func TestCheckoutFlow(t *testing.T) {
	s := newServer(t)

	const buyer = `"customer":{"firstName":"Ana","lastName":"Ruiz","email":"ana@example.com"}`

	code, body := s.do(t, http.MethodPost, "/v1/checkout/sessions",
		`{"courseId":7,"teeTime":"2026-10-20T07:30:00Z","players":2,"greenFee":1,`+buyer+`}`, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_REQUEST", body["code"])

	_, unpriced := s.do(t, http.MethodPost, "/v1/orders/items",
		`{"slotId":"`+provider.FormatSlotID(courseID, teeTime, "standard")+`","players":2,"greenFee":1}`, "")
	code, body = s.do(t, http.MethodPost, "/v1/checkout/sessions",
		`{"orderId":"`+unpriced["orderId"].(string)+`","greenFee":1,`+buyer+`}`, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "PRICE_NOT_CACHED", body["code"])

	code, avail := s.do(t, http.MethodGet, "/v1/courses/7/availability?date=2026-10-20&players=2", "", "")
	require.Equal(t, http.StatusOK, code)
	slots := avail["slots"].([]any)
	require.NotEmpty(t, slots)
	slot := slots[0].(map[string]any)

	code, order := s.do(t, http.MethodPost, "/v1/orders/items", `{"slotId":"`+slot["id"].(string)+`","players":2}`, "")
	require.Equal(t, http.StatusCreated, code, order)
	assert.Equal(t, slot["greenFee"], order["greenFee"])

	code, sess := s.do(t, http.MethodPost, "/v1/checkout/sessions",
		`{"orderId":"`+order["orderId"].(string)+`","addOns":[{"id":1}],`+buyer+`}`, "")
	require.Equal(t, http.StatusCreated, code, sess)
	assert.InDelta(t, slot["greenFee"].(float64)*2+30, sess["total"], 0.001)
	sessionID := sess["sessionId"].(string)

	code, paid := s.do(t, http.MethodPost, "/v1/checkout/local/"+sessionID, "", "")
	require.Equal(t, http.StatusOK, code, paid)
	first := paid["booking"].(map[string]any)
	assert.Equal(t, "PAID", first["paymentStatus"])
	assert.Equal(t, sessionID, first["paymentReference"])
	assert.Equal(t, sess["total"], first["total"])

	code, again := s.do(t, http.MethodPost, "/v1/payments/webhook",
		`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"`+sessionID+`"}}}`, "")
	require.Equal(t, http.StatusOK, code)
	second := again["booking"].(map[string]any)
	assert.Equal(t, first["bookingId"], second["bookingId"])
	assert.Equal(t, true, second["reused"])
	assert.Len(t, s.store.bookings, 1)

	code, body = s.do(t, http.MethodGet, "/v1/courses/99/availability?date=2026-10-20", "", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "COURSE_NOT_FOUND", body["code"])
}

func TestAdminRoutes(t *testing.T) {
	s := newServer(t)

	code, _ := s.do(t, http.MethodGet, "/v1/admin/holds", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, login := s.do(t, http.MethodPost, "/v1/admin/login", `{"email":"ops@example.com","password":"pw"}`, "")
	require.Equal(t, http.StatusOK, code)
	token := login["access"].(map[string]any)["token"].(string)

	code, stats := s.do(t, http.MethodGet, "/v1/admin/holds", "", token)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0.0, stats["total"])

	code, body := s.do(t, http.MethodGet, "/v1/admin/bookings/nope", "", token)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "BOOKING_NOT_FOUND", body["code"])

	slot := provider.FormatSlotID(courseID, teeTime, "standard")
	_, order := s.do(t, http.MethodPost, "/v1/orders/items", `{"slotId":"`+slot+`","players":1,"greenFee":50}`, "")
	_, booking := s.do(t, http.MethodPost, "/v1/bookings/confirm",
		`{"orderId":"`+order["orderId"].(string)+`","customer":{"firstName":"Ana","lastName":"Ruiz","email":"ana@example.com"}}`, "")
	bookingID := booking["bookingId"].(string)

	code, _ = s.do(t, http.MethodPost, "/v1/admin/bookings/"+bookingID+"/resync", "", token)
	assert.Equal(t, http.StatusAccepted, code)

	code, got := s.do(t, http.MethodGet, "/v1/admin/bookings/"+bookingID, "", token)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ana@example.com", got["email"])

	assert.EventuallyWithT(t, func(c *assert.CollectT) {
		s.store.mu.Lock()
		defer s.store.mu.Unlock()
		assert.Len(c, s.store.synced, 2)
	}, 2*time.Second, 10*time.Millisecond)
}
