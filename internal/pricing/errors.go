package pricing

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoTravelers is returned when the request contains no traveler counts.
	ErrNoTravelers = errors.New("no travelers provided")
	// ErrUnknownTier is returned when a traveler count references a tier the
	// package does not define.
	ErrUnknownTier = errors.New("unknown traveler tier")
	// ErrGroupSizeOutOfRange indicates the total traveler count falls outside
	// the package's allowed group size.
	ErrGroupSizeOutOfRange = errors.New("group size out of range")
	// ErrDateBlocked is returned when the travel date intersects a blocked
	// date range.
	ErrDateBlocked = errors.New("travel date is blocked")
	// ErrInvalidAddonQuantity is returned when a requested add-on quantity is
	// outside the configured bounds, or the add-on does not exist.
	ErrInvalidAddonQuantity = errors.New("invalid add-on quantity")
	// ErrPromotionNotApplicable is returned when a supplied promotion code
	// does not resolve to an applicable promotion.
	ErrPromotionNotApplicable = errors.New("promotion not applicable")
)

// DateBlockedError carries the blocking reason for surfacing to the caller.
// It matches ErrDateBlocked under errors.Is.
type DateBlockedError struct {
	Reason string
	Start  time.Time
	End    time.Time
}

// Error implements the error interface.
func (e *DateBlockedError) Error() string {
	if e.Reason == "" {
		return ErrDateBlocked.Error()
	}
	return fmt.Sprintf("%s: %s", ErrDateBlocked.Error(), e.Reason)
}

// Is reports a match against the ErrDateBlocked sentinel.
func (e *DateBlockedError) Is(target error) bool {
	return target == ErrDateBlocked
}
