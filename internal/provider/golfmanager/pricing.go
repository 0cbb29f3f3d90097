package golfmanager

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/teetime-booking/internal/model"
	"github.com/iliyamo/teetime-booking/internal/provider"
)

// Package slugs.
const (
	SlugStandard  = "standard"
	SlugEarlyBird = "earlybird"
	SlugTwilight  = "twilight"
	SlugLunch     = "lunch"
	SlugTwoPlayer = "2player"
)

// DefaultKickbackPercent applies when a course has no kickback configured.
const DefaultKickbackPercent = 20.0

var (
	operatorCodeRe   = regexp.MustCompile(`(?i)\b(TTOO|TT\.OO\.?|T\.O\.)(\s|$)`)
	trailingNumberRe = regexp.MustCompile(`[\s\-–/+]*\d+(\.\d+)?\s*%?\s*$`)
	spacesRe         = regexp.MustCompile(`\s+`)
	digitsOnlyRe     = regexp.MustCompile(`^[\d\s.,%]*$`)
)

// CleanPackageName removes tour-operator codes and trailing numeric
// suffixes from a wholesale package name so they never reach customers.
func CleanPackageName(name string) string {
	s := operatorCodeRe.ReplaceAllString(name, " ")
	for {
		next := strings.TrimSpace(trailingNumberRe.ReplaceAllString(s, ""))
		if next == s {
			break
		}
		s = next
	}
	s = strings.Trim(spacesRe.ReplaceAllString(s, " "), " -–/+")
	if s == "" || digitsOnlyRe.MatchString(s) {
		return "Green Fee"
	}
	return s
}

var slugKeywords = []struct {
	slug     string
	keywords []string
}{
	{SlugEarlyBird, []string{"early bird", "earlybird", "early", "madrugador", "temprano", "primera hora"}},
	{SlugTwilight, []string{"twilight", "sunset", "crepuscular", "tarde", "afternoon"}},
	{SlugLunch, []string{"lunch", "almuerzo", "comida", "menu", "menú"}},
	{SlugTwoPlayer, []string{"2 player", "2 players", "2player", "2 jugadores", "2 pax", "2pax", "two player", "pareja"}},
}

// ClassifyPackage maps a cleaned package name to a slug.  The first
// matching group wins; names matching nothing are standard.
func ClassifyPackage(name string) string {
	n := strings.ToLower(name)
	for _, group := range slugKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(n, kw) {
				return group.slug
			}
		}
	}
	return SlugStandard
}

// matchPeriod finds a contract period whose flags match slug and which is
// valid on day.
func matchPeriod(periods []model.RatePeriod, slug string, day time.Time) (model.RatePeriod, bool) {
	for _, p := range periods {
		if !p.Covers(day) {
			continue
		}
		var ok bool
		switch slug {
		case SlugEarlyBird:
			ok = p.IsEarlyBird
		case SlugTwilight:
			ok = p.IsTwilight
		case SlugLunch:
			ok = p.IncludesLunch
		default:
			ok = !p.IsEarlyBird && !p.IsTwilight && !p.IncludesLunch
		}
		if ok {
			return p, true
		}
	}
	return model.RatePeriod{}, false
}

// CustomerPrice derives the customer-facing price of one package.  A
// matching contract period's rack rate is used verbatim; otherwise the
// wholesale price is marked up by the kickback.
func CustomerPrice(wholesale float64, slug string, day time.Time, contract provider.Contract, defaultKickback float64) float64 {
	if p, ok := matchPeriod(contract.Periods, slug, day); ok {
		return p.RackRate
	}
	kickback := defaultKickback
	if contract.KickbackPercent != nil {
		kickback = *contract.KickbackPercent
	}
	return model.Round2(wholesale * (1 + kickback/100))
}

// sortPackages orders packages from cheapest to most expensive.
func sortPackages(pkgs []provider.Package) {
	sort.SliceStable(pkgs, func(i, j int) bool {
		return pkgs[i].PriceCents < pkgs[j].PriceCents
	})
}
