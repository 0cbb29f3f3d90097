// Package golfmanager adapts the Golfmanager availability API to the
// common slot shape and converts wholesale package prices into customer
// prices using the course contract.
package golfmanager

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/teetime-booking/internal/model"
	"github.com/iliyamo/teetime-booking/internal/provider"
)

const providerName = "Golfmanager"

// Config holds the API endpoint and credentials.  An empty APIKey makes
// the client serve mock availability.
type Config struct {
	BaseURL                string
	APIKey                 string
	DefaultKickbackPercent float64
}

// Client calls the Golfmanager REST API.
type Client struct {
	cfg     Config
	http    *http.Client
	retrier provider.Retrier
	log     *logrus.Entry
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRetrier replaces the retry policy.
func WithRetrier(r provider.Retrier) Option {
	return func(c *Client) { c.retrier = r }
}

// New returns a Golfmanager client.
func New(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://mt.golfmanager.app/api"
	}
	if cfg.DefaultKickbackPercent <= 0 {
		cfg.DefaultKickbackPercent = DefaultKickbackPercent
	}
	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: provider.PlatformTimeout},
		log:  logrus.WithField("provider", "golfmanager"),
	}
	c.retrier.Notify = func(err error, wait time.Duration) {
		c.log.WithError(err).Warnf("retrying in %s", wait)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// availabilityItem is one bookable type at one start time.  Prices are
// wholesale, per player.
type availabilityItem struct {
	ID    int64   `json:"id"`
	Start string  `json:"start"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Min   int     `json:"min"`
	Max   int     `json:"max"`
	Holes int     `json:"holes"`
}

// Search returns a day of tee times for the tenant.
func (c *Client) Search(ctx context.Context, link provider.Link, req provider.SearchRequest) ([]provider.Slot, error) {
	if c.cfg.APIKey == "" {
		c.log.WithField("tenant", link.Tenant).Warn("no api key configured, serving mock availability")
		return provider.MockSlots(providerName, link.Tenant, req), nil
	}

	items, err := provider.Retry(ctx, c.retrier, func(ctx context.Context) ([]availabilityItem, error) {
		return c.fetchAvailability(ctx, link.Tenant, req)
	})
	if err != nil {
		return nil, fmt.Errorf("golfmanager %s availability: %w", link.Tenant, err)
	}

	slots := c.buildSlots(link, req, items)
	c.log.WithFields(logrus.Fields{"tenant": link.Tenant, "date": req.Day(), "slots": len(slots)}).Debug("availability fetched")
	return slots, nil
}

func (c *Client) fetchAvailability(ctx context.Context, tenant string, req provider.SearchRequest) ([]availabilityItem, error) {
	loc := req.Loc()
	start := time.Date(req.Date.Year(), req.Date.Month(), req.Date.Day(), 0, 0, 0, 0, loc)
	q := url.Values{}
	q.Set("tenant", tenant)
	q.Set("start", start.Format(time.RFC3339))
	q.Set("end", start.Add(24*time.Hour).Format(time.RFC3339))
	if req.Players > 0 {
		q.Set("slots", strconv.Itoa(req.Players))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/bookings/availability?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("key", c.cfg.APIKey)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := provider.CheckStatus(resp); err != nil {
		return nil, err
	}

	var items []availabilityItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decoding availability: %w", err)
	}
	return items, nil
}

// buildSlots groups items by start time, prices every package and picks
// the cheapest as the slot headline.
func (c *Client) buildSlots(link provider.Link, req provider.SearchRequest, items []availabilityItem) []provider.Slot {
	loc := req.Loc()
	byStart := map[string][]availabilityItem{}
	var starts []string
	for _, it := range items {
		if _, ok := byStart[it.Start]; !ok {
			starts = append(starts, it.Start)
		}
		byStart[it.Start] = append(byStart[it.Start], it)
	}
	sort.Strings(starts)

	currency := req.Currency
	if currency == "" {
		currency = "EUR"
	}

	slots := make([]provider.Slot, 0, len(starts))
	for _, start := range starts {
		teeTime, err := time.Parse(time.RFC3339, start)
		if err != nil {
			c.log.WithField("start", start).Warn("skipping slot with unparseable start")
			continue
		}
		group := byStart[start]

		pkgs := make([]provider.Package, 0, len(group))
		maxPlayers, holes := 0, 0
		for _, it := range group {
			name := CleanPackageName(it.Name)
			slug := ClassifyPackage(name)
			price := CustomerPrice(it.Price, slug, teeTime.In(loc), req.Contract, c.cfg.DefaultKickbackPercent)
			pkgs = append(pkgs, provider.Package{
				ID:         strconv.FormatInt(it.ID, 10),
				Name:       name,
				Slug:       slug,
				PriceCents: model.FromDecimal(price),
			})
			if it.Max > maxPlayers {
				maxPlayers = it.Max
			}
			if it.Holes > holes {
				holes = it.Holes
			}
		}
		if req.Players > 0 && maxPlayers > 0 && maxPlayers < req.Players {
			continue
		}
		sortPackages(pkgs)
		if holes == 0 {
			holes = req.Holes
		}
		if holes == 0 {
			holes = 18
		}

		s := provider.NewSlot(req.CourseID, teeTime, loc, pkgs[0].ID)
		s.Holes = holes
		s.AvailablePlayers = maxPlayers
		s.GreenFeeCents = pkgs[0].PriceCents
		s.Currency = currency
		s.Source = providerName
		s.Tenant = link.Tenant
		s.Packages = pkgs
		slots = append(slots, s)
	}
	return slots
}

// SyncBooking is not offered by the Golfmanager integration; bookings on
// these courses are reconciled manually from the recorded failure.
func (c *Client) SyncBooking(_ context.Context, link provider.Link, req provider.BookingRequest) provider.SyncResult {
	c.log.WithFields(logrus.Fields{"tenant": link.Tenant, "booking_id": req.BookingID}).Warn("booking sync not supported")
	return provider.SyncResult{
		Success:  false,
		Provider: string(provider.KindGolfmanager),
		Error:    "booking sync not supported for golfmanager",
	}
}
