package rules

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/backend-travel/internal/pricing"
)

// ErrPackageNotFound is returned when the package does not exist or is no
// longer active.
var ErrPackageNotFound = errors.New("package not found")

// ErrFetchFailed wraps any repository read failure. A partial read fails the
// whole snapshot; no partial pricing state is ever returned.
var ErrFetchFailed = errors.New("rule fetch failed")

// Repo reads rule rows for the pricing engine. All reads are scoped to one
// package and return only active rows.
type Repo struct {
	Pool *pgxpool.Pool
}

// Snapshot assembles the full rule state for a package. The per-collection
// reads are issued concurrently and joined before returning; each goroutine
// writes a distinct snapshot field so no locking is needed.
func (r *Repo) Snapshot(ctx context.Context, packageID uuid.UUID) (pricing.Snapshot, error) {
	pkg, err := r.getPackage(ctx, packageID)
	if err != nil {
		return pricing.Snapshot{}, err
	}
	snap := pricing.Snapshot{Package: pkg}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.Tiers, err = r.listTiers(gctx, packageID)
		return err
	})
	g.Go(func() (err error) {
		snap.GroupRules, err = r.listGroupRules(gctx, packageID)
		return err
	})
	g.Go(func() (err error) {
		snap.SeasonRules, err = r.listSeasonRules(gctx, packageID)
		return err
	})
	g.Go(func() (err error) {
		snap.TimeRules, err = r.listTimeRules(gctx, packageID)
		return err
	})
	g.Go(func() (err error) {
		snap.Departures, err = r.listDepartures(gctx, packageID)
		return err
	})
	g.Go(func() (err error) {
		snap.Addons, err = r.listAddons(gctx, packageID)
		return err
	})
	g.Go(func() (err error) {
		snap.Blocked, err = r.listBlockedRanges(gctx, packageID)
		return err
	})
	g.Go(func() (err error) {
		snap.Promotions, err = r.listPromotions(gctx, packageID)
		return err
	})
	if err := g.Wait(); err != nil {
		return pricing.Snapshot{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	return snap, nil
}

func (r *Repo) getPackage(ctx context.Context, id uuid.UUID) (pricing.Package, error) {
	const q = `
		SELECT id, name, currency, use_custom_tiers, min_group_size, max_group_size, is_active
		FROM packages
		WHERE id = $1 AND is_active`
	var pkg pricing.Package
	err := r.Pool.QueryRow(ctx, q, id).Scan(
		&pkg.ID, &pkg.Name, &pkg.Currency, &pkg.UseCustomTiers,
		&pkg.MinGroupSize, &pkg.MaxGroupSize, &pkg.Active,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pricing.Package{}, ErrPackageNotFound
		}
		return pricing.Package{}, fmt.Errorf("%w: package: %v", ErrFetchFailed, err)
	}
	return pkg, nil
}

func (r *Repo) listTiers(ctx context.Context, packageID uuid.UUID) ([]pricing.Tier, error) {
	const q = `
		SELECT id, tier_type, tier_code, label, age_min, age_max, selling_price, is_active
		FROM pricing_tiers
		WHERE package_id = $1 AND is_active
		ORDER BY tier_type, tier_code`
	rows, err := r.Pool.Query(ctx, q, packageID)
	if err != nil {
		return nil, fmt.Errorf("tiers: %w", err)
	}
	defer rows.Close()

	var out []pricing.Tier
	for rows.Next() {
		var t pricing.Tier
		if err := rows.Scan(&t.ID, &t.Type, &t.Code, &t.Label, &t.AgeMin, &t.AgeMax, &t.Price, &t.Active); err != nil {
			return nil, fmt.Errorf("tiers: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repo) listGroupRules(ctx context.Context, packageID uuid.UUID) ([]pricing.GroupRule, error) {
	const q = `
		SELECT id, min_size, max_size, adjust_kind, adjust_value, is_active, created_at
		FROM group_pricing_rules
		WHERE package_id = $1 AND is_active
		ORDER BY created_at`
	rows, err := r.Pool.Query(ctx, q, packageID)
	if err != nil {
		return nil, fmt.Errorf("group rules: %w", err)
	}
	defer rows.Close()

	var out []pricing.GroupRule
	for rows.Next() {
		var (
			g    pricing.GroupRule
			kind string
		)
		if err := rows.Scan(&g.ID, &g.MinSize, &g.MaxSize, &kind, &g.Adjust.Value, &g.Active, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("group rules: %w", err)
		}
		g.Adjust.Kind = pricing.AdjustmentKind(kind)
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *Repo) listSeasonRules(ctx context.Context, packageID uuid.UUID) ([]pricing.SeasonRule, error) {
	const q = `
		SELECT id, start_date, end_date, adjust_kind, adjust_value, is_active, created_at
		FROM seasonal_pricing_rules
		WHERE package_id = $1 AND is_active
		ORDER BY created_at`
	rows, err := r.Pool.Query(ctx, q, packageID)
	if err != nil {
		return nil, fmt.Errorf("seasonal rules: %w", err)
	}
	defer rows.Close()

	var out []pricing.SeasonRule
	for rows.Next() {
		var (
			s    pricing.SeasonRule
			kind string
		)
		if err := rows.Scan(&s.ID, &s.Start, &s.End, &kind, &s.Adjust.Value, &s.Active, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("seasonal rules: %w", err)
		}
		s.Adjust.Kind = pricing.AdjustmentKind(kind)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repo) listTimeRules(ctx context.Context, packageID uuid.UUID) ([]pricing.TimeRule, error) {
	const q = `
		SELECT id, discount_type, threshold_days, adjust_kind, adjust_value, is_active, created_at
		FROM time_based_discounts
		WHERE package_id = $1 AND is_active
		ORDER BY created_at`
	rows, err := r.Pool.Query(ctx, q, packageID)
	if err != nil {
		return nil, fmt.Errorf("time discounts: %w", err)
	}
	defer rows.Close()

	var out []pricing.TimeRule
	for rows.Next() {
		var (
			t          pricing.TimeRule
			ruleKind   string
			adjustKind string
		)
		if err := rows.Scan(&t.ID, &ruleKind, &t.ThresholdDays, &adjustKind, &t.Adjust.Value, &t.Active, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("time discounts: %w", err)
		}
		t.Kind = pricing.TimeRuleKind(ruleKind)
		t.Adjust.Kind = pricing.AdjustmentKind(adjustKind)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repo) listDepartures(ctx context.Context, packageID uuid.UUID) ([]pricing.Departure, error) {
	const q = `
		SELECT id, departure_date, tier_prices, adjust_kind, adjust_value, is_active
		FROM departure_pricing
		WHERE package_id = $1 AND is_active
		ORDER BY departure_date`
	rows, err := r.Pool.Query(ctx, q, packageID)
	if err != nil {
		return nil, fmt.Errorf("departures: %w", err)
	}
	defer rows.Close()

	var out []pricing.Departure
	for rows.Next() {
		var (
			d           pricing.Departure
			rawPrices   []byte
			adjustKind  *string
			adjustValue *int64
		)
		if err := rows.Scan(&d.ID, &d.Date, &rawPrices, &adjustKind, &adjustValue, &d.Active); err != nil {
			return nil, fmt.Errorf("departures: %w", err)
		}
		if len(rawPrices) > 0 {
			if err := json.Unmarshal(rawPrices, &d.TierPrices); err != nil {
				return nil, fmt.Errorf("departures: tier prices: %w", err)
			}
		}
		if adjustKind != nil && adjustValue != nil {
			d.Adjust = &pricing.Adjustment{Kind: pricing.AdjustmentKind(*adjustKind), Value: *adjustValue}
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *Repo) listAddons(ctx context.Context, packageID uuid.UUID) ([]pricing.Addon, error) {
	const q = `
		SELECT id, name, pricing_type, unit_price, min_quantity, max_quantity, is_required, is_active
		FROM addons
		WHERE package_id = $1 AND is_active
		ORDER BY name`
	rows, err := r.Pool.Query(ctx, q, packageID)
	if err != nil {
		return nil, fmt.Errorf("addons: %w", err)
	}
	defer rows.Close()

	var out []pricing.Addon
	for rows.Next() {
		var (
			a     pricing.Addon
			ptype string
		)
		if err := rows.Scan(&a.ID, &a.Name, &ptype, &a.Price, &a.MinQty, &a.MaxQty, &a.Required, &a.Active); err != nil {
			return nil, fmt.Errorf("addons: %w", err)
		}
		a.Pricing = pricing.AddonPricing(ptype)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repo) listBlockedRanges(ctx context.Context, packageID uuid.UUID) ([]pricing.BlockedRange, error) {
	const q = `
		SELECT id, start_date, end_date, reason
		FROM blocked_date_ranges
		WHERE package_id = $1
		ORDER BY start_date`
	rows, err := r.Pool.Query(ctx, q, packageID)
	if err != nil {
		return nil, fmt.Errorf("blocked ranges: %w", err)
	}
	defer rows.Close()

	var out []pricing.BlockedRange
	for rows.Next() {
		var b pricing.BlockedRange
		if err := rows.Scan(&b.ID, &b.Start, &b.End, &b.Reason); err != nil {
			return nil, fmt.Errorf("blocked ranges: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repo) listPromotions(ctx context.Context, packageID uuid.UUID) ([]pricing.Promotion, error) {
	const q = `
		SELECT id, code, package_id, min_spend, adjust_kind, adjust_value, valid_from, valid_to, is_active
		FROM promotions
		WHERE is_active AND (package_id IS NULL OR package_id = $1)
		ORDER BY code`
	rows, err := r.Pool.Query(ctx, q, packageID)
	if err != nil {
		return nil, fmt.Errorf("promotions: %w", err)
	}
	defer rows.Close()

	var out []pricing.Promotion
	for rows.Next() {
		var (
			p    pricing.Promotion
			kind string
		)
		if err := rows.Scan(&p.ID, &p.Code, &p.PackageID, &p.MinSpend, &kind, &p.Adjust.Value, &p.ValidFrom, &p.ValidTo, &p.Active); err != nil {
			return nil, fmt.Errorf("promotions: %w", err)
		}
		p.Adjust.Kind = pricing.AdjustmentKind(kind)
		out = append(out, p)
	}
	return out, rows.Err()
}
