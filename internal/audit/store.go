package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Store persists quote audit records.
type Store struct {
	Pool *pgxpool.Pool
}

// Insert writes one audit row.
func (s *Store) Insert(ctx context.Context, rec Record) error {
	if s == nil || s.Pool == nil {
		return errors.New("audit: store not configured")
	}
	breakdown, err := json.Marshal(rec.Breakdown)
	if err != nil {
		return fmt.Errorf("audit: marshal breakdown: %w", err)
	}
	travelers, err := json.Marshal(rec.Travelers)
	if err != nil {
		return fmt.Errorf("audit: marshal travelers: %w", err)
	}
	const q = `
		INSERT INTO quote_audit (package_id, travel_date, booking_date, travelers, promo_code, currency, final_total, breakdown, quoted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = s.Pool.Exec(ctx, q,
		rec.PackageID, rec.TravelDate, rec.BookingDate, travelers, rec.PromoCode,
		rec.Breakdown.Currency, rec.Breakdown.FinalTotal, breakdown, rec.QuotedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

// NewTaskHandler returns the asynq handler that drains quote audit tasks into
// the store.
func NewTaskHandler(store *Store, logger zerolog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var rec Record
		if err := json.Unmarshal(t.Payload(), &rec); err != nil {
			// Malformed payloads never succeed; do not retry.
			logger.Error().Err(err).Msg("quote audit: bad payload")
			return fmt.Errorf("unmarshal record: %v: %w", err, asynq.SkipRetry)
		}
		if err := store.Insert(ctx, rec); err != nil {
			return err
		}
		logger.Debug().
			Str("package_id", rec.PackageID.String()).
			Int64("final_total", rec.Breakdown.FinalTotal).
			Msg("quote audit recorded")
		return nil
	}
}
