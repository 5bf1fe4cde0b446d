package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-travel/internal/pricing"
)

// Write-side repository methods used by the admin handlers. The engine never
// writes; these exist for the back office only.

// CreatePackageParams captures a new catalog package.
type CreatePackageParams struct {
	Name           string
	Currency       string
	UseCustomTiers bool
	MinGroupSize   int
	MaxGroupSize   *int
}

// CreatePackage inserts a catalog package and returns its id.
func (r *Repo) CreatePackage(ctx context.Context, p CreatePackageParams) (uuid.UUID, error) {
	const q = `
		INSERT INTO packages (name, currency, use_custom_tiers, min_group_size, max_group_size)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	var id uuid.UUID
	err := r.Pool.QueryRow(ctx, q, p.Name, p.Currency, p.UseCustomTiers, p.MinGroupSize, p.MaxGroupSize).Scan(&id)
	return id, err
}

// CreateTierParams captures a new pricing tier row.
type CreateTierParams struct {
	PackageID uuid.UUID
	Type      string
	Code      string
	Label     string
	AgeMin    *int
	AgeMax    *int
	Price     pricing.Money
}

// CreateTier inserts a pricing tier and returns its id.
func (r *Repo) CreateTier(ctx context.Context, p CreateTierParams) (uuid.UUID, error) {
	const q = `
		INSERT INTO pricing_tiers (package_id, tier_type, tier_code, label, age_min, age_max, selling_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	var id uuid.UUID
	err := r.Pool.QueryRow(ctx, q, p.PackageID, p.Type, p.Code, p.Label, p.AgeMin, p.AgeMax, p.Price).Scan(&id)
	return id, err
}

// CreateGroupRuleParams captures a new group pricing rule.
type CreateGroupRuleParams struct {
	PackageID uuid.UUID
	MinSize   int
	MaxSize   *int
	Adjust    pricing.Adjustment
}

// CreateGroupRule inserts a group pricing rule and returns its id.
func (r *Repo) CreateGroupRule(ctx context.Context, p CreateGroupRuleParams) (uuid.UUID, error) {
	const q = `
		INSERT INTO group_pricing_rules (package_id, min_size, max_size, adjust_kind, adjust_value)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	var id uuid.UUID
	err := r.Pool.QueryRow(ctx, q, p.PackageID, p.MinSize, p.MaxSize, string(p.Adjust.Kind), p.Adjust.Value).Scan(&id)
	return id, err
}

// CreateSeasonRuleParams captures a new seasonal pricing rule.
type CreateSeasonRuleParams struct {
	PackageID uuid.UUID
	Start     time.Time
	End       time.Time
	Adjust    pricing.Adjustment
}

// CreateSeasonRule inserts a seasonal pricing rule and returns its id.
func (r *Repo) CreateSeasonRule(ctx context.Context, p CreateSeasonRuleParams) (uuid.UUID, error) {
	const q = `
		INSERT INTO seasonal_pricing_rules (package_id, start_date, end_date, adjust_kind, adjust_value)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	var id uuid.UUID
	err := r.Pool.QueryRow(ctx, q, p.PackageID, p.Start, p.End, string(p.Adjust.Kind), p.Adjust.Value).Scan(&id)
	return id, err
}

// CreateTimeRuleParams captures a new time-based discount.
type CreateTimeRuleParams struct {
	PackageID     uuid.UUID
	Kind          pricing.TimeRuleKind
	ThresholdDays int
	Adjust        pricing.Adjustment
}

// CreateTimeRule inserts a time-based discount and returns its id.
func (r *Repo) CreateTimeRule(ctx context.Context, p CreateTimeRuleParams) (uuid.UUID, error) {
	const q = `
		INSERT INTO time_based_discounts (package_id, discount_type, threshold_days, adjust_kind, adjust_value)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	var id uuid.UUID
	err := r.Pool.QueryRow(ctx, q, p.PackageID, string(p.Kind), p.ThresholdDays, string(p.Adjust.Kind), p.Adjust.Value).Scan(&id)
	return id, err
}

// CreateDepartureParams captures a departure pricing override.
type CreateDepartureParams struct {
	PackageID  uuid.UUID
	Date       time.Time
	TierPrices map[string]pricing.Money
	Adjust     *pricing.Adjustment
}

// CreateDeparture inserts a departure override and returns its id.
func (r *Repo) CreateDeparture(ctx context.Context, p CreateDepartureParams) (uuid.UUID, error) {
	prices, err := json.Marshal(p.TierPrices)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal tier prices: %w", err)
	}
	var (
		adjustKind  *string
		adjustValue *int64
	)
	if p.Adjust != nil {
		kind := string(p.Adjust.Kind)
		value := p.Adjust.Value
		adjustKind, adjustValue = &kind, &value
	}
	const q = `
		INSERT INTO departure_pricing (package_id, departure_date, tier_prices, adjust_kind, adjust_value)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	var id uuid.UUID
	err = r.Pool.QueryRow(ctx, q, p.PackageID, p.Date, prices, adjustKind, adjustValue).Scan(&id)
	return id, err
}

// CreateAddonParams captures a new add-on.
type CreateAddonParams struct {
	PackageID uuid.UUID
	Name      string
	Pricing   pricing.AddonPricing
	Price     pricing.Money
	MinQty    int
	MaxQty    *int
	Required  bool
}

// CreateAddon inserts an add-on and returns its id.
func (r *Repo) CreateAddon(ctx context.Context, p CreateAddonParams) (uuid.UUID, error) {
	const q = `
		INSERT INTO addons (package_id, name, pricing_type, unit_price, min_quantity, max_quantity, is_required)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	var id uuid.UUID
	err := r.Pool.QueryRow(ctx, q, p.PackageID, p.Name, string(p.Pricing), p.Price, p.MinQty, p.MaxQty, p.Required).Scan(&id)
	return id, err
}

// CreateBlockedRangeParams captures a blocked date range.
type CreateBlockedRangeParams struct {
	PackageID uuid.UUID
	Start     time.Time
	End       time.Time
	Reason    string
}

// CreateBlockedRange inserts a blocked date range and returns its id.
func (r *Repo) CreateBlockedRange(ctx context.Context, p CreateBlockedRangeParams) (uuid.UUID, error) {
	const q = `
		INSERT INTO blocked_date_ranges (package_id, start_date, end_date, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	var id uuid.UUID
	err := r.Pool.QueryRow(ctx, q, p.PackageID, p.Start, p.End, p.Reason).Scan(&id)
	return id, err
}

// CreatePromotionParams captures a new promotion.
type CreatePromotionParams struct {
	Code      string
	PackageID *uuid.UUID
	MinSpend  pricing.Money
	Adjust    pricing.Adjustment
	ValidFrom *time.Time
	ValidTo   *time.Time
}

// CreatePromotion inserts a promotion and returns its id.
func (r *Repo) CreatePromotion(ctx context.Context, p CreatePromotionParams) (uuid.UUID, error) {
	const q = `
		INSERT INTO promotions (code, package_id, min_spend, adjust_kind, adjust_value, valid_from, valid_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	var id uuid.UUID
	err := r.Pool.QueryRow(ctx, q, p.Code, p.PackageID, p.MinSpend, string(p.Adjust.Kind), p.Adjust.Value, p.ValidFrom, p.ValidTo).Scan(&id)
	return id, err
}
