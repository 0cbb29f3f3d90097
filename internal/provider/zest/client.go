// Package zest is the client for the Zest Golf channel manager.
// Availability is searched per facility and priced from the group
// pricing entry that matches the requested number of players.
package zest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/teetime-booking/internal/model"
	"github.com/iliyamo/teetime-booking/internal/provider"
)

const (
	providerName = "Zest"
	mockPrefix   = "ZEST"
)

type Config struct {
	BaseURL  string
	Username string
	Password string
}

func (c Config) hasCredentials() bool {
	return c.Username != "" && c.Password != ""
}

type Client struct {
	cfg     Config
	http    *http.Client
	retrier provider.Retrier
	log     *logrus.Entry
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithRetrier(r provider.Retrier) Option {
	return func(c *Client) { c.retrier = r }
}

func New(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.zest.golf/v1"
	}
	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: provider.PlatformTimeout},
		log:  logrus.WithField("provider", "zest"),
	}
	c.retrier.Notify = func(err error, wait time.Duration) {
		c.log.WithError(err).Warnf("retrying in %s", wait)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type amount struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// pricing is the total price for a group of Players.
type pricing struct {
	Players      int     `json:"players"`
	PublicRate   *amount `json:"publicRate"`
	ChannelPrice *amount `json:"channelPrice"`
}

type teeTime struct {
	ID               string    `json:"id"`
	TeeTime          time.Time `json:"teeTime"`
	Holes            int       `json:"holes"`
	AvailablePlayers int       `json:"availablePlayers"`
	Pricing          []pricing `json:"pricing"`
}

// PerPlayerPrice picks the pricing entry for players, preferring the
// public rate over the channel price, and returns the per-player share of
// the group total.  ok is false when no entry covers the group.
func PerPlayerPrice(entries []pricing, players int) (price float64, currency string, ok bool) {
	if players <= 0 {
		players = 1
	}
	for _, p := range entries {
		if p.Players != players {
			continue
		}
		total := p.PublicRate
		if total == nil || total.Amount <= 0 {
			total = p.ChannelPrice
		}
		if total == nil || total.Amount <= 0 {
			return 0, "", false
		}
		return model.Round2(total.Amount / float64(players)), total.Currency, true
	}
	return 0, "", false
}

func (c *Client) Search(ctx context.Context, link provider.Link, req provider.SearchRequest) ([]provider.Slot, error) {
	if !c.cfg.hasCredentials() {
		c.log.WithField("facility", link.FacilityID).Warn("no credentials configured, serving mock availability")
		return provider.MockSlots(providerName, link.FacilityID, req), nil
	}

	times, err := provider.Retry(ctx, c.retrier, func(ctx context.Context) ([]teeTime, error) {
		return c.fetchTeeTimes(ctx, link.FacilityID, req)
	})
	if err != nil {
		return nil, fmt.Errorf("zest facility %s tee times: %w", link.FacilityID, err)
	}
	return c.buildSlots(link, req, times), nil
}

func (c *Client) fetchTeeTimes(ctx context.Context, facility string, req provider.SearchRequest) ([]teeTime, error) {
	q := url.Values{}
	q.Set("date", req.Day())
	q.Set("players", strconv.Itoa(max(req.Players, 1)))
	if req.Holes > 0 {
		q.Set("holes", strconv.Itoa(req.Holes))
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/facilities/%s/teetimes?%s", c.cfg.BaseURL, url.PathEscape(facility), q.Encode()), nil)
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
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
	players := max(req.Players, 1)

	slots := make([]provider.Slot, 0, len(times))
	for _, tt := range times {
		if tt.AvailablePlayers < players {
			continue
		}
		price, currency, ok := PerPlayerPrice(tt.Pricing, players)
		if !ok {
			c.log.WithFields(logrus.Fields{"tee_time_id": tt.ID, "players": players}).Debug("no pricing for group size")
			continue
		}
		if currency == "" {
			currency = req.Currency
		}
		if currency == "" {
			currency = "EUR"
		}

		pkg := provider.Package{ID: tt.ID, Name: "Green Fee", Slug: "standard", PriceCents: model.FromDecimal(price)}
		s := provider.NewSlot(req.CourseID, tt.TeeTime, loc, tt.ID)
		s.Holes = tt.Holes
		if s.Holes == 0 {
			s.Holes = 18
		}
		s.AvailablePlayers = tt.AvailablePlayers
		s.GreenFeeCents = pkg.PriceCents
		s.Currency = currency
		s.Source = providerName
		s.Tenant = link.FacilityID
		s.Packages = []provider.Package{pkg}
		slots = append(slots, s)
	}
	return slots
}

type bookingRequest struct {
	Reference string    `json:"externalReference"`
	TeeTime   time.Time `json:"teeTime"`
	Players   int       `json:"players"`
	Holes     int       `json:"holes"`
	Contact   contact   `json:"contact"`
}

type contact struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

// SyncBooking mirrors a confirmed booking to the facility.  It never
// returns an error; the outcome is in the result.
func (c *Client) SyncBooking(ctx context.Context, link provider.Link, req provider.BookingRequest) provider.SyncResult {
	res := provider.SyncResult{Provider: string(provider.KindZest)}
	log := c.log.WithFields(logrus.Fields{"facility": link.FacilityID, "booking_id": req.BookingID})

	if !c.cfg.hasCredentials() {
		res.Success = true
		res.ProviderBookingID = provider.MockBookingID(mockPrefix, req.BookingID)
		log.WithField("provider_booking_id", res.ProviderBookingID).Warn("no credentials configured, booking synced as mock")
		return res
	}

	// Booking creation is not idempotent upstream: one attempt only.
	id, err := c.createBooking(ctx, link.FacilityID, req)
	if err != nil {
		log.WithError(err).Error("booking sync failed")
		res.Error = err.Error()
		return res
	}
	res.Success = true
	res.ProviderBookingID = id
	return res
}

func (c *Client) createBooking(ctx context.Context, facility string, req provider.BookingRequest) (string, error) {
	body, err := json.Marshal(bookingRequest{
		Reference: req.BookingID,
		TeeTime:   req.TeeTime.In(req.Loc()),
		Players:   req.Players,
		Holes:     req.Holes,
		Contact: contact{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			Phone:     req.Phone,
		},
	})
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/facilities/%s/bookings", c.cfg.BaseURL, url.PathEscape(facility)), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if err := provider.CheckStatus(resp); err != nil {
		return "", err
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding booking response: %w", err)
	}
	return out.ID, nil
}
