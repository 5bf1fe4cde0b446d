package pricing

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// selectGroupRule picks the single applicable group rule for the traveler
// count: narrowest range first, most recently created on equal width. A nil
// MaxSize counts as unbounded.
func selectGroupRule(rules []GroupRule, travelers int) (GroupRule, bool) {
	var (
		best      GroupRule
		bestWidth = math.MaxInt
		found     bool
	)
	for _, rule := range rules {
		if !rule.Active {
			continue
		}
		if travelers < rule.MinSize {
			continue
		}
		if rule.MaxSize != nil && travelers > *rule.MaxSize {
			continue
		}
		width := math.MaxInt
		if rule.MaxSize != nil {
			width = *rule.MaxSize - rule.MinSize
		}
		if !found || width < bestWidth || (width == bestWidth && rule.CreatedAt.After(best.CreatedAt)) {
			best = rule
			bestWidth = width
			found = true
		}
	}
	return best, found
}

// selectSeasonRule picks the single applicable seasonal rule for the travel
// date using the same narrowest-range-then-most-recent policy. Range bounds
// are inclusive.
func selectSeasonRule(rules []SeasonRule, travelDate time.Time) (SeasonRule, bool) {
	var (
		best      SeasonRule
		bestWidth = math.MaxInt
		found     bool
	)
	for _, rule := range rules {
		if !rule.Active {
			continue
		}
		if !dateWithin(travelDate, rule.Start, rule.End) {
			continue
		}
		width := wholeDays(rule.Start, rule.End)
		if !found || width < bestWidth || (width == bestWidth && rule.CreatedAt.After(best.CreatedAt)) {
			best = rule
			bestWidth = width
			found = true
		}
	}
	return best, found
}

// selectTimeRule picks the most recently created active rule of the given
// kind whose lead-time threshold is satisfied. Early-bird and last-minute
// rules are independent; both may apply to one quote.
func selectTimeRule(rules []TimeRule, kind TimeRuleKind, daysUntilTravel int) (TimeRule, bool) {
	var (
		best  TimeRule
		found bool
	)
	for _, rule := range rules {
		if !rule.Active || rule.Kind != kind {
			continue
		}
		switch kind {
		case EarlyBird:
			if daysUntilTravel < rule.ThresholdDays {
				continue
			}
		case LastMinute:
			if daysUntilTravel > rule.ThresholdDays {
				continue
			}
		default:
			continue
		}
		if !found || rule.CreatedAt.After(best.CreatedAt) {
			best = rule
			found = true
		}
	}
	return best, found
}

// findDeparture returns the override row for the exact travel date, if any.
func findDeparture(departures []Departure, travelDate time.Time) (Departure, bool) {
	for _, dep := range departures {
		if dep.Active && sameDate(dep.Date, travelDate) {
			return dep, true
		}
	}
	return Departure{}, false
}

// departureBaseline restates the tier subtotal using the departure's override
// prices. Tiers without an override keep their standard price; the optional
// departure adjustment is then applied to the restated base.
func departureBaseline(dep Departure, lines []TierLine) Money {
	var base Money
	for _, line := range lines {
		price := line.UnitPrice
		if override, ok := dep.TierPrices[line.Code]; ok {
			price = override
		}
		base += price * Money(line.Count)
	}
	if dep.Adjust != nil {
		base = dep.Adjust.Apply(base)
	}
	return base
}

// findPromotion resolves a supplied code against active promotions scoped to
// the package (or global). The amount must meet the promotion's minimum spend
// and the booking date must fall inside its validity window.
func findPromotion(snap Snapshot, code string, bookingDate time.Time, amount Money) (Promotion, error) {
	trimmed := strings.TrimSpace(code)
	var match *Promotion
	for i := range snap.Promotions {
		promo := &snap.Promotions[i]
		if promo.Active && strings.EqualFold(promo.Code, trimmed) {
			match = promo
			break
		}
	}
	if match == nil {
		return Promotion{}, fmt.Errorf("code %q: %w", trimmed, ErrPromotionNotApplicable)
	}
	if match.PackageID != nil && *match.PackageID != snap.Package.ID {
		return Promotion{}, fmt.Errorf("code %q not valid for this package: %w", trimmed, ErrPromotionNotApplicable)
	}
	if match.ValidFrom != nil && bookingDate.Before(*match.ValidFrom) {
		return Promotion{}, fmt.Errorf("code %q not yet active: %w", trimmed, ErrPromotionNotApplicable)
	}
	if match.ValidTo != nil && bookingDate.After(*match.ValidTo) {
		return Promotion{}, fmt.Errorf("code %q expired: %w", trimmed, ErrPromotionNotApplicable)
	}
	if amount < match.MinSpend {
		return Promotion{}, fmt.Errorf("code %q requires minimum spend %d: %w", trimmed, match.MinSpend, ErrPromotionNotApplicable)
	}
	return *match, nil
}

func applyStep(breakdown *Breakdown, amount Money, step string, ruleID uuid.UUID, adj Adjustment) Money {
	next := adj.Apply(amount)
	breakdown.Adjustments = append(breakdown.Adjustments, AppliedAdjustment{
		Step:   step,
		RuleID: ruleID,
		Kind:   adj.Kind,
		Delta:  next - amount,
	})
	return next
}
