package pricing

import (
	"fmt"
	"sort"
	"strings"
)

// TotalTravelers sums the positive traveler counts of a request.
func TotalTravelers(travelers map[string]int) int {
	total := 0
	for _, n := range travelers {
		if n > 0 {
			total += n
		}
	}
	return total
}

// resolveTiers maps traveler counts onto tier lines. Packages flagged with
// UseCustomTiers resolve by custom tier code; otherwise the standard
// adult/child/infant/senior table is used. Zero and negative counts are
// ignored. Lines are ordered by tier code so identical inputs always produce
// identical breakdowns.
func resolveTiers(snap Snapshot, travelers map[string]int) ([]TierLine, Money, error) {
	total := TotalTravelers(travelers)
	if total == 0 {
		return nil, 0, ErrNoTravelers
	}
	if total < snap.Package.MinGroupSize {
		return nil, 0, fmt.Errorf("%d travelers, minimum %d: %w", total, snap.Package.MinGroupSize, ErrGroupSizeOutOfRange)
	}
	if snap.Package.MaxGroupSize != nil && total > *snap.Package.MaxGroupSize {
		return nil, 0, fmt.Errorf("%d travelers, maximum %d: %w", total, *snap.Package.MaxGroupSize, ErrGroupSizeOutOfRange)
	}

	codes := make([]string, 0, len(travelers))
	for code, n := range travelers {
		if n > 0 {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)

	lines := make([]TierLine, 0, len(codes))
	var subtotal Money
	for _, code := range codes {
		tier, ok := findTier(snap, code)
		if !ok {
			return nil, 0, fmt.Errorf("tier %q: %w", code, ErrUnknownTier)
		}
		count := travelers[code]
		ageMin, ageMax := displayAgeBounds(tier)
		line := TierLine{
			TierID:    tier.ID,
			Code:      tierCode(tier),
			Label:     tier.Label,
			AgeMin:    ageMin,
			AgeMax:    ageMax,
			UnitPrice: tier.Price,
			Count:     count,
			LineTotal: tier.Price * Money(count),
		}
		lines = append(lines, line)
		subtotal += line.LineTotal
	}
	return lines, subtotal, nil
}

func findTier(snap Snapshot, code string) (Tier, bool) {
	want := strings.TrimSpace(code)
	for _, tier := range snap.Tiers {
		if !tier.Active {
			continue
		}
		if snap.Package.UseCustomTiers {
			if strings.EqualFold(tier.Code, want) {
				return tier, true
			}
			continue
		}
		if !isStandardTierType(tier.Type) {
			continue
		}
		if strings.EqualFold(tier.Type, want) {
			return tier, true
		}
	}
	return Tier{}, false
}

func tierCode(t Tier) string {
	if strings.TrimSpace(t.Code) != "" {
		return t.Code
	}
	return t.Type
}

// displayAgeBounds fills age bounds for standard tiers that don't store
// their own. Stored bounds always win; custom tiers get no defaults.
func displayAgeBounds(t Tier) (*int, *int) {
	if t.AgeMin != nil || t.AgeMax != nil {
		return t.AgeMin, t.AgeMax
	}
	switch strings.ToLower(t.Type) {
	case TierAdult:
		return intRef(12), nil
	case TierChild:
		return intRef(2), intRef(11)
	case TierInfant:
		return intRef(0), intRef(1)
	case TierSenior:
		return intRef(65), nil
	}
	return nil, nil
}

func intRef(v int) *int { return &v }

func isStandardTierType(t string) bool {
	switch strings.ToLower(t) {
	case TierAdult, TierChild, TierInfant, TierSenior:
		return true
	}
	return false
}
