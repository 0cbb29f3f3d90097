// Package teeone talks to the TeeOne tee-sheet API.  TeeOne sessions are
// scoped to one club, so the client keeps a token per club code.
package teeone

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/teetime-booking/internal/clock"
	"github.com/iliyamo/teetime-booking/internal/model"
	"github.com/iliyamo/teetime-booking/internal/provider"
)

const (
	providerName = "TeeOne"
	mockPrefix   = "TEEONE"

	// TokenTTL is how long a session token is reused.
	TokenTTL = time.Hour
)

type Config struct {
	BaseURL  string
	Username string
	Password string
}

func (c Config) hasCredentials() bool {
	return c.Username != "" && c.Password != ""
}

type cachedToken struct {
	value   string
	expires time.Time
}

type Client struct {
	cfg     Config
	http    *http.Client
	retrier provider.Retrier
	clock   clock.Clock
	log     *logrus.Entry

	mu     sync.Mutex
	tokens map[string]cachedToken
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithRetrier(r provider.Retrier) Option {
	return func(c *Client) { c.retrier = r }
}

func WithClock(clk clock.Clock) Option {
	return func(c *Client) { c.clock = clk }
}

func New(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.teeone.golf/v2"
	}
	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: provider.PlatformTimeout},
		clock:  clock.NewSystem(),
		log:    logrus.WithField("provider", "teeone"),
		tokens: map[string]cachedToken{},
	}
	c.retrier.Notify = func(err error, wait time.Duration) {
		c.log.WithError(err).Warnf("retrying in %s", wait)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type teeTime struct {
	ID        string  `json:"id"`
	Time      string  `json:"time"`
	Holes     int     `json:"holes"`
	Available int     `json:"available"`
	Price     float64 `json:"price"`
	Rate      string  `json:"rateName"`
}

// Search never fails: without credentials, or when TeeOne errors, it
// serves mock slots so the course stays bookable in the UI.
func (c *Client) Search(ctx context.Context, link provider.Link, req provider.SearchRequest) ([]provider.Slot, error) {
	log := c.log.WithFields(logrus.Fields{"club": link.Code, "date": req.Day()})
	if !c.cfg.hasCredentials() {
		log.Warn("no credentials configured, serving mock availability")
		return provider.MockSlots(providerName, link.Code, req), nil
	}

	times, err := provider.Retry(ctx, c.retrier, func(ctx context.Context) ([]teeTime, error) {
		return c.fetchTeeTimes(ctx, link.Code, req)
	})
	if err != nil {
		log.WithError(err).Error("availability failed, serving mock availability")
		return provider.MockSlots(providerName, link.Code, req), nil
	}

	return c.buildSlots(link, req, times), nil
}

func (c *Client) fetchTeeTimes(ctx context.Context, club string, req provider.SearchRequest) ([]teeTime, error) {
	token, err := c.token(ctx, club)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("date", req.Day())
	if req.Players > 0 {
		q.Set("players", strconv.Itoa(req.Players))
	}
	if req.Holes > 0 {
		q.Set("holes", strconv.Itoa(req.Holes))
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/clubs/%s/teetimes?%s", c.cfg.BaseURL, url.PathEscape(club), q.Encode()), nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.forgetToken(club)
	}
	if err := provider.CheckStatus(resp); err != nil {
		return nil, err
	}

	var out struct {
		TeeTimes []teeTime `json:"teeTimes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding tee times: %w", err)
	}
	return out.TeeTimes, nil
}

func (c *Client) buildSlots(link provider.Link, req provider.SearchRequest, times []teeTime) []provider.Slot {
	loc := req.Loc()
	currency := req.Currency
	if currency == "" {
		currency = "EUR"
	}

	slots := make([]provider.Slot, 0, len(times))
	for _, tt := range times {
		clockTime, err := time.ParseInLocation("15:04", tt.Time, loc)
		if err != nil {
			c.log.WithField("time", tt.Time).Warn("skipping tee time with unparseable time")
			continue
		}
		if req.Players > 0 && tt.Available < req.Players {
			continue
		}
		start := time.Date(req.Date.Year(), req.Date.Month(), req.Date.Day(),
			clockTime.Hour(), clockTime.Minute(), 0, 0, loc)

		pkgName := tt.Rate
		if pkgName == "" {
			pkgName = "Green Fee"
		}
		pkg := provider.Package{ID: tt.ID, Name: pkgName, Slug: "standard", PriceCents: model.FromDecimal(tt.Price)}

		s := provider.NewSlot(req.CourseID, start, loc, tt.ID)
		s.Holes = tt.Holes
		if s.Holes == 0 {
			s.Holes = 18
		}
		s.AvailablePlayers = tt.Available
		s.GreenFeeCents = pkg.PriceCents
		s.Currency = currency
		s.Source = providerName
		s.Tenant = link.Code
		s.Packages = []provider.Package{pkg}
		slots = append(slots, s)
	}
	return slots
}

// token returns the cached session for club or logs in again.
func (c *Client) token(ctx context.Context, club string) (string, error) {
	now := c.clock.Now()
	c.mu.Lock()
	t, ok := c.tokens[club]
	c.mu.Unlock()
	if ok && now.Before(t.expires) {
		return t.value, nil
	}

	body, _ := json.Marshal(map[string]string{"username": c.cfg.Username, "password": c.cfg.Password})
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/clubs/%s/auth", c.cfg.BaseURL, url.PathEscape(club)), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if err := provider.CheckStatus(resp); err != nil {
		return "", fmt.Errorf("authenticating: %w", err)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding auth response: %w", err)
	}
	if out.Token == "" {
		return "", errors.New("authenticating: empty token")
	}

	c.mu.Lock()
	c.tokens[club] = cachedToken{value: out.Token, expires: now.Add(TokenTTL)}
	c.mu.Unlock()
	return out.Token, nil
}

func (c *Client) forgetToken(club string) {
	c.mu.Lock()
	delete(c.tokens, club)
	c.mu.Unlock()
}

type createBookingRequest struct {
	Reference string  `json:"reference"`
	Date      string  `json:"date"`
	Time      string  `json:"time"`
	Players   int     `json:"players"`
	Holes     int     `json:"holes"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone,omitempty"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
}

// SyncBooking creates the booking on the club's tee sheet.  Failures are
// reported in the result.
func (c *Client) SyncBooking(ctx context.Context, link provider.Link, req provider.BookingRequest) provider.SyncResult {
	res := provider.SyncResult{Provider: string(provider.KindTeeOne)}
	log := c.log.WithFields(logrus.Fields{"club": link.Code, "booking_id": req.BookingID})

	if !c.cfg.hasCredentials() {
		res.Success = true
		res.ProviderBookingID = provider.MockBookingID(mockPrefix, req.BookingID)
		log.WithField("provider_booking_id", res.ProviderBookingID).Warn("no credentials configured, booking synced as mock")
		return res
	}

	// Booking creation is not idempotent upstream: one attempt only.
	id, err := c.createBooking(ctx, link.Code, req)
	if err != nil {
		log.WithError(err).Error("booking sync failed")
		res.Error = err.Error()
		return res
	}
	res.Success = true
	res.ProviderBookingID = id
	return res
}

func (c *Client) createBooking(ctx context.Context, club string, req provider.BookingRequest) (string, error) {
	token, err := c.token(ctx, club)
	if err != nil {
		return "", err
	}

	local := req.TeeTime.In(req.Loc())
	body, err := json.Marshal(createBookingRequest{
		Reference: req.BookingID,
		Date:      local.Format("2006-01-02"),
		Time:      local.Format("15:04"),
		Players:   req.Players,
		Holes:     req.Holes,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Amount:    model.ToDecimal(req.TotalCents),
		Currency:  req.Currency,
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/clubs/%s/bookings", c.cfg.BaseURL, url.PathEscape(club)), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		c.forgetToken(club)
	}
	if err := provider.CheckStatus(resp); err != nil {
		return "", err
	}

	var out struct {
		BookingID string `json:"bookingId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding booking response: %w", err)
	}
	return out.BookingID, nil
}
