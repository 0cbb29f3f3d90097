package provider

import (
	"hash/fnv"
	"math/rand"
	"time"
)

// MockSource tags slots that were generated locally, never by a provider.
func MockSource(provider string) string {
	return provider + " MOCK"
}

// MockSlots generates a deterministic day of tee times for the request.
// The same provider, course ref and date always produce the same slots so
// the booking flow can be exercised end to end without credentials.
func MockSlots(providerName, ref string, req SearchRequest) []Slot {
	h := fnv.New64a()
	_, _ = h.Write([]byte(providerName + "|" + ref + "|" + req.Day()))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	loc := req.Loc()
	day := req.Date
	start := time.Date(day.Year(), day.Month(), day.Day(), 8, 0, 0, 0, loc)
	end := time.Date(day.Year(), day.Month(), day.Day(), 17, 0, 0, 0, loc)

	holes := req.Holes
	if holes == 0 {
		holes = 18
	}
	currency := req.Currency
	if currency == "" {
		currency = "EUR"
	}
	base := int64(45+rng.Intn(60)) * 100

	var slots []Slot
	for t := start; t.Before(end); t = t.Add(10 * time.Minute) {
		if rng.Intn(10) < 4 {
			continue
		}
		price := base
		pkg := Package{ID: "standard", Name: "Green Fee", Slug: "standard"}
		switch {
		case t.Hour() < 9:
			price = base * 85 / 100
			pkg = Package{ID: "earlybird", Name: "Early Bird", Slug: "earlybird"}
		case t.Hour() >= 15:
			price = base * 75 / 100
			pkg = Package{ID: "twilight", Name: "Twilight", Slug: "twilight"}
		}
		pkg.PriceCents = price

		s := NewSlot(req.CourseID, t, loc, pkg.ID)
		s.Holes = holes
		s.AvailablePlayers = 1 + rng.Intn(4)
		s.GreenFeeCents = price
		s.Currency = currency
		s.Source = MockSource(providerName)
		s.Tenant = ref
		s.Packages = []Package{pkg}
		if req.Players > 0 && s.AvailablePlayers < req.Players {
			continue
		}
		slots = append(slots, s)
	}
	return slots
}

// MockBookingID derives a stable fake provider booking id.
func MockBookingID(prefix, bookingID string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(bookingID))
	return prefix + "-MOCK-" + itoa36(h.Sum32())
}

func itoa36(v uint32) string {
	const digits = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	if v == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = digits[v%36]
		v /= 36
	}
	return string(buf[i:])
}
