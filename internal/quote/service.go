package quote

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-travel/internal/audit"
	"github.com/noah-isme/backend-travel/internal/common"
	"github.com/noah-isme/backend-travel/internal/obs"
	"github.com/noah-isme/backend-travel/internal/pricing"
	"github.com/noah-isme/backend-travel/internal/rules"
)

// SnapshotProvider fetches the full rule state for one package.
type SnapshotProvider interface {
	Snapshot(ctx context.Context, packageID uuid.UUID) (pricing.Snapshot, error)
}

// Service orchestrates one quote: snapshot load (cache first), engine run,
// error mapping, and audit enqueue. The service holds no mutable state;
// concurrent quotes never interact.
type Service struct {
	Snapshots SnapshotProvider
	Cache     *rules.Cache
	Audit     *asynq.Client
	Queue     string
	MaxRetry  int
	Now       func() time.Time
	Logger    zerolog.Logger
}

// Quote computes the price breakdown for one request. Any returned error is
// an *common.AppError carrying the machine-readable rejection kind.
func (s *Service) Quote(ctx context.Context, packageID uuid.UUID, req pricing.Request) (pricing.Breakdown, error) {
	start := time.Now()
	if req.BookingDate.IsZero() {
		req.BookingDate = s.now()
	}

	snap, err := s.snapshot(ctx, packageID)
	if err != nil {
		return pricing.Breakdown{}, s.reject(err)
	}
	breakdown, err := pricing.Quote(snap, req)
	if err != nil {
		return pricing.Breakdown{}, s.reject(err)
	}

	if obs.QuoteTotal != nil {
		obs.QuoteTotal.WithLabelValues("ok").Inc()
	}
	if obs.QuoteDuration != nil {
		obs.QuoteDuration.Observe(obs.DurationMillis(time.Since(start)))
	}
	s.enqueueAudit(ctx, packageID, req, breakdown)
	return breakdown, nil
}

// LoadSnapshot exposes the cached snapshot for read-only surfaces such as the
// add-on listing.
func (s *Service) LoadSnapshot(ctx context.Context, packageID uuid.UUID) (pricing.Snapshot, error) {
	snap, err := s.snapshot(ctx, packageID)
	if err != nil {
		return pricing.Snapshot{}, s.reject(err)
	}
	return snap, nil
}

func (s *Service) snapshot(ctx context.Context, packageID uuid.UUID) (pricing.Snapshot, error) {
	if snap, hit, err := s.Cache.Get(ctx, packageID); err == nil && hit {
		s.observeCache("hit")
		if !snap.Package.Active {
			// Drop the stale entry so follow-up quotes skip straight to the
			// repository instead of paying the cache read until TTL expiry.
			if err := s.Cache.Invalidate(ctx, packageID); err != nil {
				s.Logger.Warn().Err(err).Str("package_id", packageID.String()).Msg("rule snapshot cache invalidate")
			}
			return pricing.Snapshot{}, rules.ErrPackageNotFound
		}
		return snap, nil
	} else if err != nil {
		// A broken cache degrades to a repository read.
		s.observeCache("error")
		s.Logger.Warn().Err(err).Str("package_id", packageID.String()).Msg("rule snapshot cache read")
	} else {
		s.observeCache("miss")
	}

	snap, err := s.Snapshots.Snapshot(ctx, packageID)
	if err != nil {
		return pricing.Snapshot{}, err
	}
	if !snap.Package.Active {
		// Deactivated packages are invisible to the quote surface even if a
		// stale snapshot is still cached.
		return pricing.Snapshot{}, rules.ErrPackageNotFound
	}
	if err := s.Cache.Set(ctx, snap); err != nil {
		s.Logger.Warn().Err(err).Str("package_id", packageID.String()).Msg("rule snapshot cache write")
	}
	return snap, nil
}

func (s *Service) enqueueAudit(ctx context.Context, packageID uuid.UUID, req pricing.Request, breakdown pricing.Breakdown) {
	if s.Audit == nil {
		return
	}
	task, err := audit.NewTask(audit.Record{
		PackageID:   packageID,
		TravelDate:  pricing.DateOnly(req.TravelDate),
		BookingDate: pricing.DateOnly(req.BookingDate),
		Travelers:   req.Travelers,
		PromoCode:   req.PromoCode,
		Breakdown:   breakdown,
		QuotedAt:    s.now(),
	})
	if err == nil {
		opts := []asynq.Option{asynq.Queue(s.Queue)}
		if s.MaxRetry > 0 {
			opts = append(opts, asynq.MaxRetry(s.MaxRetry))
		}
		_, err = s.Audit.EnqueueContext(ctx, task, opts...)
	}
	result := "ok"
	if err != nil {
		// Auditing must never block a quote.
		result = "error"
		s.Logger.Error().Err(err).Str("package_id", packageID.String()).Msg("enqueue quote audit")
	}
	if obs.AuditEnqueueTotal != nil {
		obs.AuditEnqueueTotal.WithLabelValues(result).Inc()
	}
}

func (s *Service) observeCache(outcome string) {
	if obs.SnapshotCacheTotal != nil {
		obs.SnapshotCacheTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// reject maps engine and repository failures onto the canonical error codes.
func (s *Service) reject(err error) error {
	appErr := classify(err)
	if obs.QuoteTotal != nil {
		obs.QuoteTotal.WithLabelValues(appErr.Code).Inc()
	}
	return appErr
}

func classify(err error) *common.AppError {
	var blocked *pricing.DateBlockedError
	switch {
	case errors.Is(err, rules.ErrPackageNotFound):
		return common.NewAppError("PACKAGE_NOT_FOUND", "package not found", http.StatusNotFound, err)
	case errors.As(err, &blocked):
		return common.NewAppError("DATE_BLOCKED", "this date is not available for booking", http.StatusConflict, err).
			WithDetails(map[string]any{
				"reason":    blocked.Reason,
				"startDate": blocked.Start.Format("2006-01-02"),
				"endDate":   blocked.End.Format("2006-01-02"),
			})
	case errors.Is(err, pricing.ErrNoTravelers):
		return common.NewAppError("NO_TRAVELERS", "at least one traveler is required", http.StatusUnprocessableEntity, err)
	case errors.Is(err, pricing.ErrUnknownTier):
		return common.NewAppError("UNKNOWN_TIER", err.Error(), http.StatusUnprocessableEntity, err)
	case errors.Is(err, pricing.ErrGroupSizeOutOfRange):
		return common.NewAppError("GROUP_SIZE_OUT_OF_RANGE", err.Error(), http.StatusUnprocessableEntity, err)
	case errors.Is(err, pricing.ErrInvalidAddonQuantity):
		return common.NewAppError("INVALID_ADDON_QUANTITY", err.Error(), http.StatusUnprocessableEntity, err)
	case errors.Is(err, pricing.ErrPromotionNotApplicable):
		return common.NewAppError("PROMOTION_NOT_APPLICABLE", err.Error(), http.StatusUnprocessableEntity, err)
	default:
		return common.NewAppError("RULE_FETCH_FAILED", "failed to load pricing rules", http.StatusInternalServerError, err)
	}
}
