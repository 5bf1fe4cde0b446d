package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/noah-isme/backend-travel/internal/pricing"
)

// TaskQuoteAudit is the asynq task type for persisting quote breakdowns.
const TaskQuoteAudit = "quote:audit"

// Record is the audit row for one successful quote computation. The stored
// breakdown is sufficient to reconstruct the final total without re-reading
// any rule, which is the whole point of keeping it.
type Record struct {
	PackageID   uuid.UUID         `json:"packageId"`
	TravelDate  time.Time         `json:"travelDate"`
	BookingDate time.Time         `json:"bookingDate"`
	Travelers   map[string]int    `json:"travelers"`
	PromoCode   string            `json:"promoCode,omitempty"`
	Breakdown   pricing.Breakdown `json:"breakdown"`
	QuotedAt    time.Time         `json:"quotedAt"`
}

// NewTask wraps a record into an asynq task.
func NewTask(rec Record) (*asynq.Task, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskQuoteAudit, payload), nil
}
