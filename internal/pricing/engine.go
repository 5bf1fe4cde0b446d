package pricing

import (
	"strings"
	"time"
)

// Quote runs the full price computation for one request against a rule
// snapshot. It is a pure function: identical inputs always produce identical
// breakdowns. The pipeline order is fixed: availability guard, tier
// resolution, group discount, seasonal adjustment, time-based discounts,
// departure override, promotion, add-ons.
func Quote(snap Snapshot, req Request) (Breakdown, error) {
	travelDate := DateOnly(req.TravelDate)
	bookingDate := DateOnly(req.BookingDate)

	if err := checkBlocked(snap.Blocked, travelDate); err != nil {
		return Breakdown{}, err
	}

	lines, subtotal, err := resolveTiers(snap, req.Travelers)
	if err != nil {
		return Breakdown{}, err
	}
	travelers := TotalTravelers(req.Travelers)

	breakdown := Breakdown{
		Currency:     snap.Package.Currency,
		TierSubtotal: subtotal,
		TierLines:    lines,
	}

	amount := subtotal
	if rule, ok := selectGroupRule(snap.GroupRules, travelers); ok {
		amount = applyStep(&breakdown, amount, StepGroup, rule.ID, rule.Adjust)
	}
	if rule, ok := selectSeasonRule(snap.SeasonRules, travelDate); ok {
		amount = applyStep(&breakdown, amount, StepSeason, rule.ID, rule.Adjust)
	}
	daysUntil := wholeDays(bookingDate, travelDate)
	if rule, ok := selectTimeRule(snap.TimeRules, EarlyBird, daysUntil); ok {
		amount = applyStep(&breakdown, amount, StepEarlyBird, rule.ID, rule.Adjust)
	}
	if rule, ok := selectTimeRule(snap.TimeRules, LastMinute, daysUntil); ok {
		amount = applyStep(&breakdown, amount, StepLastMinute, rule.ID, rule.Adjust)
	}

	if dep, ok := findDeparture(snap.Departures, travelDate); ok {
		// The departure restates the base price for this date; discounts
		// already granted above keep their value against the new base.
		carried := amount - subtotal
		next := departureBaseline(dep, lines) + carried
		if next < 0 {
			next = 0
		}
		breakdown.Adjustments = append(breakdown.Adjustments, AppliedAdjustment{
			Step:   StepDeparture,
			RuleID: dep.ID,
			Kind:   AdjustOverride,
			Delta:  next - amount,
		})
		amount = next
	}

	if strings.TrimSpace(req.PromoCode) != "" {
		promo, err := findPromotion(snap, req.PromoCode, bookingDate, amount)
		if err != nil {
			return Breakdown{}, err
		}
		amount = applyStep(&breakdown, amount, StepPromotion, promo.ID, promo.Adjust)
	}
	breakdown.TierTotal = amount

	addonLines, addonTotal, err := totalAddons(snap, req.Addons, travelers)
	if err != nil {
		return Breakdown{}, err
	}
	breakdown.AddonLines = addonLines
	breakdown.AddonTotal = addonTotal
	breakdown.FinalTotal = amount + addonTotal
	return breakdown, nil
}

func checkBlocked(blocked []BlockedRange, travelDate time.Time) error {
	for _, r := range blocked {
		if dateWithin(travelDate, r.Start, r.End) {
			return &DateBlockedError{Reason: r.Reason, Start: DateOnly(r.Start), End: DateOnly(r.End)}
		}
	}
	return nil
}

// DateOnly normalises a timestamp to midnight UTC so calendar comparisons
// ignore clock time and zone.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameDate(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}

// dateWithin reports whether date falls inside [start, end], inclusive both
// ends.
func dateWithin(date, start, end time.Time) bool {
	d := DateOnly(date)
	return !d.Before(DateOnly(start)) && !d.After(DateOnly(end))
}

// wholeDays returns the floored number of whole days from a to b.
func wholeDays(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)).Hours() / 24)
}
