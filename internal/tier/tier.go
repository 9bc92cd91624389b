// Package tier maps a B2B company's commercial tier to its discount percent
// and payment terms. The table is organization-wide and never derived from
// order history.
package tier

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/apierror"

	"github.com/shopspring/decimal"
)

type Tier string

const (
	Silver   Tier = "silver"
	Gold     Tier = "gold"
	Platinum Tier = "platinum"
)

// Terms are the commercial conditions granted by a tier.
type Terms struct {
	DiscountPercent  decimal.Decimal
	PaymentTermsDays int
}

var (
	mu     sync.RWMutex
	policy = defaultPolicy()
)

func defaultPolicy() map[Tier]Terms {
	return map[Tier]Terms{
		Silver:   {DiscountPercent: decimal.NewFromInt(10), PaymentTermsDays: 14},
		Gold:     {DiscountPercent: decimal.NewFromInt(20), PaymentTermsDays: 30},
		Platinum: {DiscountPercent: decimal.NewFromInt(30), PaymentTermsDays: 45},
	}
}

// All returns the closed set of tiers, lowest first.
func All() []Tier { return []Tier{Silver, Gold, Platinum} }

func (t Tier) Valid() bool {
	switch t {
	case Silver, Gold, Platinum:
		return true
	}
	return false
}

// Parse normalises s and rejects anything outside the closed set.
func Parse(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", apierror.InvalidInput(fmt.Sprintf("unknown tier %q", s))
	}
	return t, nil
}

// Resolve returns the terms for t. Stored companies always carry a valid
// tier, so an error here means the caller passed unchecked input.
func Resolve(t Tier) (Terms, error) {
	mu.RLock()
	defer mu.RUnlock()
	terms, ok := policy[t]
	if !ok {
		return Terms{}, apierror.InvalidInput(fmt.Sprintf("unknown tier %q", t))
	}
	return terms, nil
}

// ParseOverrides reads the TIER_OVERRIDES format
// "gold:25:30,platinum:35:60" (tier:discountPercent:paymentTermsDays).
// An unknown tier or an out-of-range value is a configuration error.
func ParseOverrides(raw string) (map[Tier]Terms, error) {
	out := make(map[Tier]Terms)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return out, nil
	}
	for _, entry := range strings.Split(raw, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("tier override %q: want tier:discount:days", entry)
		}
		t := Tier(strings.ToLower(parts[0]))
		if !t.Valid() {
			return nil, fmt.Errorf("tier override %q: unknown tier %q", entry, parts[0])
		}
		pct, err := decimal.NewFromString(parts[1])
		if err != nil {
			return nil, fmt.Errorf("tier override %q: discount: %w", entry, err)
		}
		days, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, fmt.Errorf("tier override %q: payment terms: %w", entry, err)
		}
		out[t] = Terms{DiscountPercent: pct, PaymentTermsDays: days}
	}
	return out, nil
}

// Configure installs overrides on top of the default table. Called once at
// startup; a failure there is fatal.
func Configure(overrides map[Tier]Terms) error {
	next := defaultPolicy()
	for t, terms := range overrides {
		if !t.Valid() {
			return fmt.Errorf("tier policy: unknown tier %q", t)
		}
		next[t] = terms
	}
	if err := validate(next); err != nil {
		return err
	}
	mu.Lock()
	policy = next
	mu.Unlock()
	return nil
}

// Reset restores the built-in table.
func Reset() {
	mu.Lock()
	policy = defaultPolicy()
	mu.Unlock()
}

func validate(p map[Tier]Terms) error {
	hundred := decimal.NewFromInt(100)
	for _, t := range All() {
		terms, ok := p[t]
		if !ok {
			return fmt.Errorf("tier policy: missing terms for %q", t)
		}
		if terms.DiscountPercent.IsNegative() || terms.DiscountPercent.GreaterThan(hundred) {
			return fmt.Errorf("tier policy: %q discount %s outside [0,100]", t, terms.DiscountPercent)
		}
		if terms.PaymentTermsDays < 0 {
			return fmt.Errorf("tier policy: %q payment terms must be >= 0", t)
		}
	}
	return nil
}
