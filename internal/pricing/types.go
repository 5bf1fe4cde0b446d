package pricing

import (
	"time"

	"github.com/google/uuid"
)

// Money represents a monetary value stored in minor units.
type Money = int64

// AdjustmentKind identifies how an adjustment value is interpreted.
type AdjustmentKind string

const (
	// AdjustPercent applies a basis-point percentage of the running amount.
	AdjustPercent AdjustmentKind = "percentage"
	// AdjustFixed adds or subtracts a fixed minor-unit amount.
	AdjustFixed AdjustmentKind = "fixed_amount"
	// AdjustOverride replaces the running amount outright.
	AdjustOverride AdjustmentKind = "override_price"
)

// Adjustment is a single price mutation attached to a rule. For AdjustPercent
// the value is in basis points; positive values discount, negative values
// surcharge. For AdjustFixed the value is in minor units with the same sign
// convention. For AdjustOverride the value is the replacement amount.
type Adjustment struct {
	Kind  AdjustmentKind `json:"kind"`
	Value Money          `json:"value"`
}

// Apply resolves the adjustment against the running amount. The result is
// floored at zero.
func (a Adjustment) Apply(amount Money) Money {
	var next Money
	switch a.Kind {
	case AdjustPercent:
		next = amount - amount*a.Value/10000
	case AdjustFixed:
		next = amount - a.Value
	case AdjustOverride:
		next = a.Value
	default:
		next = amount
	}
	if next < 0 {
		next = 0
	}
	return next
}

// Standard tier types. Packages with UseCustomTiers set resolve against their
// own tier codes instead.
const (
	TierAdult  = "adult"
	TierChild  = "child"
	TierInfant = "infant"
	TierSenior = "senior"
)

// TimeRuleKind distinguishes booking-lead-time discount rules.
type TimeRuleKind string

const (
	// EarlyBird applies when the booking is made at least N days ahead.
	EarlyBird TimeRuleKind = "early_bird"
	// LastMinute applies when the booking is made within N days of travel.
	LastMinute TimeRuleKind = "last_minute"
)

// AddonPricing identifies how an add-on line total is computed.
type AddonPricing string

const (
	AddonPerPerson AddonPricing = "per_person"
	AddonPerGroup  AddonPricing = "per_group"
	AddonPerUnit   AddonPricing = "per_unit"
)

// Package is the catalog row the snapshot was fetched for.
type Package struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Currency       string    `json:"currency"`
	UseCustomTiers bool      `json:"useCustomTiers"`
	MinGroupSize   int       `json:"minGroupSize"`
	MaxGroupSize   *int      `json:"maxGroupSize"`
	Active         bool      `json:"active"`
}

// Tier is a traveler category with its selling price. Code matches the keys
// used in Request.Travelers; for standard tiers it equals the tier type.
type Tier struct {
	ID     uuid.UUID `json:"id"`
	Type   string    `json:"type"`
	Code   string    `json:"code"`
	Label  string    `json:"label"`
	AgeMin *int      `json:"ageMin"`
	AgeMax *int      `json:"ageMax"`
	Price  Money     `json:"price"`
	Active bool      `json:"active"`
}

// GroupRule adjusts the tier subtotal when the total traveler count falls in
// [MinSize, MaxSize]. A nil MaxSize is unbounded.
type GroupRule struct {
	ID        uuid.UUID  `json:"id"`
	MinSize   int        `json:"minSize"`
	MaxSize   *int       `json:"maxSize"`
	Adjust    Adjustment `json:"adjust"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"createdAt"`
}

// SeasonRule adjusts the amount when the travel date falls inside
// [Start, End], inclusive both ends.
type SeasonRule struct {
	ID        uuid.UUID  `json:"id"`
	Start     time.Time  `json:"start"`
	End       time.Time  `json:"end"`
	Adjust    Adjustment `json:"adjust"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"createdAt"`
}

// TimeRule applies a discount based on how far ahead of travel the booking is
// made.
type TimeRule struct {
	ID            uuid.UUID    `json:"id"`
	Kind          TimeRuleKind `json:"kind"`
	ThresholdDays int          `json:"thresholdDays"`
	Adjust        Adjustment   `json:"adjust"`
	Active        bool         `json:"active"`
	CreatedAt     time.Time    `json:"createdAt"`
}

// Departure carries override pricing for one exact travel date. TierPrices
// replaces the selling price per tier code; tiers absent from the map keep
// their standard price. The optional Adjust is applied to the recomputed
// baseline.
type Departure struct {
	ID         uuid.UUID        `json:"id"`
	Date       time.Time        `json:"date"`
	TierPrices map[string]Money `json:"tierPrices"`
	Adjust     *Adjustment      `json:"adjust"`
	Active     bool             `json:"active"`
}

// Addon is an optional extra priced independently of the tier pipeline.
type Addon struct {
	ID       uuid.UUID    `json:"id"`
	Name     string       `json:"name"`
	Pricing  AddonPricing `json:"pricing"`
	Price    Money        `json:"price"`
	MinQty   int          `json:"minQty"`
	MaxQty   *int         `json:"maxQty"`
	Required bool         `json:"required"`
	Active   bool         `json:"active"`
}

// BlockedRange makes any travel date inside [Start, End] unbookable.
type BlockedRange struct {
	ID     uuid.UUID `json:"id"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Reason string    `json:"reason"`
}

// Promotion is a code-gated adjustment, either global or scoped to one
// package.
type Promotion struct {
	ID        uuid.UUID  `json:"id"`
	Code      string     `json:"code"`
	PackageID *uuid.UUID `json:"packageId"`
	MinSpend  Money      `json:"minSpend"`
	Adjust    Adjustment `json:"adjust"`
	ValidFrom *time.Time `json:"validFrom"`
	ValidTo   *time.Time `json:"validTo"`
	Active    bool       `json:"active"`
}

// Snapshot is the full read-only rule state for one package at quote time.
// The engine never fetches; the caller assembles this from the rule
// repository.
type Snapshot struct {
	Package     Package        `json:"package"`
	Tiers       []Tier         `json:"tiers"`
	GroupRules  []GroupRule    `json:"groupRules"`
	SeasonRules []SeasonRule   `json:"seasonRules"`
	TimeRules   []TimeRule     `json:"timeRules"`
	Departures  []Departure    `json:"departures"`
	Addons      []Addon        `json:"addons"`
	Blocked     []BlockedRange `json:"blocked"`
	Promotions  []Promotion    `json:"promotions"`
}

// AddonSelection is one requested add-on line.
type AddonSelection struct {
	AddonID  uuid.UUID `json:"addonId"`
	Quantity int       `json:"quantity"`
}

// Request describes one quote computation.
type Request struct {
	TravelDate  time.Time
	BookingDate time.Time
	Travelers   map[string]int
	Addons      []AddonSelection
	PromoCode   string
}

// TierLine is one priced traveler category in the breakdown. The age bounds
// are informational: eligibility is driven by the caller-supplied counts,
// never by age.
type TierLine struct {
	TierID    uuid.UUID `json:"tierId"`
	Code      string    `json:"code"`
	Label     string    `json:"label"`
	AgeMin    *int      `json:"ageMin,omitempty"`
	AgeMax    *int      `json:"ageMax,omitempty"`
	UnitPrice Money     `json:"unitPrice"`
	Count     int       `json:"count"`
	LineTotal Money     `json:"lineTotal"`
}

// Pipeline step names recorded in the breakdown.
const (
	StepGroup      = "group"
	StepSeason     = "seasonal"
	StepEarlyBird  = "early_bird"
	StepLastMinute = "last_minute"
	StepDeparture  = "departure"
	StepPromotion  = "promotion"
)

// AppliedAdjustment records one pipeline step that changed the running
// amount. Delta is amount-after minus amount-before, so discounts are
// negative.
type AppliedAdjustment struct {
	Step   string         `json:"step"`
	RuleID uuid.UUID      `json:"ruleId"`
	Kind   AdjustmentKind `json:"kind"`
	Delta  Money          `json:"delta"`
}

// AddonLine is one priced add-on in the breakdown. Travelers is only set for
// per-person pricing. AutoAdded marks required add-ons injected at their
// minimum quantity.
type AddonLine struct {
	AddonID   uuid.UUID    `json:"addonId"`
	Name      string       `json:"name"`
	Pricing   AddonPricing `json:"pricing"`
	UnitPrice Money        `json:"unitPrice"`
	Quantity  int          `json:"quantity"`
	Travelers int          `json:"travelers,omitempty"`
	LineTotal Money        `json:"lineTotal"`
	AutoAdded bool         `json:"autoAdded,omitempty"`
}

// Breakdown is the audit-grade result of one computation. It is sufficient to
// reconstruct FinalTotal without re-reading any rule:
// TierTotal = max(0, TierSubtotal + Σ Adjustments.Delta) and
// FinalTotal = TierTotal + AddonTotal.
type Breakdown struct {
	Currency     string              `json:"currency"`
	TierSubtotal Money               `json:"tierSubtotal"`
	TierLines    []TierLine          `json:"tierLines"`
	Adjustments  []AppliedAdjustment `json:"adjustments"`
	TierTotal    Money               `json:"tierTotal"`
	AddonLines   []AddonLine         `json:"addonLines"`
	AddonTotal   Money               `json:"addonTotal"`
	FinalTotal   Money               `json:"finalTotal"`
}
