package quote_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-travel/internal/common"
	"github.com/noah-isme/backend-travel/internal/pricing"
	"github.com/noah-isme/backend-travel/internal/quote"
	"github.com/noah-isme/backend-travel/internal/rules"
)

type fakeProvider struct {
	snap  pricing.Snapshot
	err   error
	calls int
}

func (f *fakeProvider) Snapshot(ctx context.Context, packageID uuid.UUID) (pricing.Snapshot, error) {
	f.calls++
	if f.err != nil {
		return pricing.Snapshot{}, f.err
	}
	return f.snap, nil
}

var testPackageID = uuid.MustParse("0b6f5c1e-9d7a-4f55-8f34-2a6d1e8c9b01")

func baseSnapshot() pricing.Snapshot {
	return pricing.Snapshot{
		Package: pricing.Package{
			ID:           testPackageID,
			Name:         "Bromo Sunrise Trek",
			Currency:     "USD",
			MinGroupSize: 1,
			Active:       true,
		},
		Tiers: []pricing.Tier{
			{ID: uuid.New(), Type: pricing.TierAdult, Price: 100_00, Active: true},
		},
	}
}

func newService(provider *fakeProvider) *quote.Service {
	return &quote.Service{
		Snapshots: provider,
		Now:       func() time.Time { return time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC) },
		Logger:    zerolog.Nop(),
	}
}

func TestServiceQuoteSuccess(t *testing.T) {
	provider := &fakeProvider{snap: baseSnapshot()}
	svc := newService(provider)

	breakdown, err := svc.Quote(context.Background(), testPackageID, pricing.Request{
		TravelDate: time.Date(2026, time.June, 10, 0, 0, 0, 0, time.UTC),
		Travelers:  map[string]int{pricing.TierAdult: 2},
	})
	require.NoError(t, err)
	require.Equal(t, pricing.Money(200_00), breakdown.FinalTotal)
	require.Equal(t, "USD", breakdown.Currency)
	require.Equal(t, 1, provider.calls)
}

func TestServiceQuoteDefaultsBookingDateToNow(t *testing.T) {
	snap := baseSnapshot()
	snap.TimeRules = []pricing.TimeRule{{
		ID:            uuid.New(),
		Kind:          pricing.EarlyBird,
		ThresholdDays: 30,
		Adjust:        pricing.Adjustment{Kind: pricing.AdjustPercent, Value: 1000},
		Active:        true,
	}}
	svc := newService(&fakeProvider{snap: snap})

	// Travel is over 30 days after the injected clock, so leaving the booking
	// date empty must still trigger the early-bird discount.
	breakdown, err := svc.Quote(context.Background(), testPackageID, pricing.Request{
		TravelDate: time.Date(2026, time.June, 10, 0, 0, 0, 0, time.UTC),
		Travelers:  map[string]int{pricing.TierAdult: 1},
	})
	require.NoError(t, err)
	require.Equal(t, pricing.Money(90_00), breakdown.FinalTotal)
}

func TestServiceQuotePackageNotFound(t *testing.T) {
	svc := newService(&fakeProvider{err: rules.ErrPackageNotFound})

	_, err := svc.Quote(context.Background(), testPackageID, pricing.Request{
		TravelDate: time.Date(2026, time.June, 10, 0, 0, 0, 0, time.UTC),
		Travelers:  map[string]int{pricing.TierAdult: 1},
	})
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, "PACKAGE_NOT_FOUND", appErr.Code)
	require.Equal(t, http.StatusNotFound, appErr.HTTPStatus)
}

func TestServiceQuoteInactivePackage(t *testing.T) {
	snap := baseSnapshot()
	snap.Package.Active = false
	svc := newService(&fakeProvider{snap: snap})

	_, err := svc.Quote(context.Background(), testPackageID, pricing.Request{
		TravelDate: time.Date(2026, time.June, 10, 0, 0, 0, 0, time.UTC),
		Travelers:  map[string]int{pricing.TierAdult: 1},
	})
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, "PACKAGE_NOT_FOUND", appErr.Code)
}

func TestServiceQuoteEvictsStaleInactiveSnapshot(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := rules.NewCache(client, time.Minute)

	stale := baseSnapshot()
	stale.Package.Active = false
	require.NoError(t, cache.Set(context.Background(), stale))

	provider := &fakeProvider{err: rules.ErrPackageNotFound}
	svc := newService(provider)
	svc.Cache = cache

	_, err = svc.Quote(context.Background(), testPackageID, pricing.Request{
		TravelDate: time.Date(2026, time.June, 10, 0, 0, 0, 0, time.UTC),
		Travelers:  map[string]int{pricing.TierAdult: 1},
	})
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, "PACKAGE_NOT_FOUND", appErr.Code)
	require.Equal(t, 0, provider.calls, "the hit must be served from cache")

	// The stale key must be gone so the TTL doesn't pin the dead snapshot.
	require.False(t, mr.Exists(fmt.Sprintf("rules:pkg:%s", testPackageID)))
}

func TestServiceQuoteDateBlocked(t *testing.T) {
	snap := baseSnapshot()
	snap.Blocked = []pricing.BlockedRange{{
		ID:     uuid.New(),
		Start:  time.Date(2026, time.June, 5, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC),
		Reason: "monsoon closure",
	}}
	svc := newService(&fakeProvider{snap: snap})

	_, err := svc.Quote(context.Background(), testPackageID, pricing.Request{
		TravelDate: time.Date(2026, time.June, 10, 0, 0, 0, 0, time.UTC),
		Travelers:  map[string]int{pricing.TierAdult: 1},
	})
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, "DATE_BLOCKED", appErr.Code)
	require.Equal(t, http.StatusConflict, appErr.HTTPStatus)

	details, ok := appErr.Details.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "monsoon closure", details["reason"])
	require.Equal(t, "2026-06-05", details["startDate"])
	require.Equal(t, "2026-06-15", details["endDate"])
}

func TestServiceQuoteValidationCodes(t *testing.T) {
	cases := []struct {
		name string
		req  pricing.Request
		code string
	}{
		{
			name: "no travelers",
			req: pricing.Request{
				TravelDate: time.Date(2026, time.June, 10, 0, 0, 0, 0, time.UTC),
				Travelers:  map[string]int{},
			},
			code: "NO_TRAVELERS",
		},
		{
			name: "unknown tier",
			req: pricing.Request{
				TravelDate: time.Date(2026, time.June, 10, 0, 0, 0, 0, time.UTC),
				Travelers:  map[string]int{"astronaut": 1},
			},
			code: "UNKNOWN_TIER",
		},
		{
			name: "unknown promo code",
			req: pricing.Request{
				TravelDate: time.Date(2026, time.June, 10, 0, 0, 0, 0, time.UTC),
				Travelers:  map[string]int{pricing.TierAdult: 1},
				PromoCode:  "NOPE",
			},
			code: "PROMOTION_NOT_APPLICABLE",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newService(&fakeProvider{snap: baseSnapshot()})
			_, err := svc.Quote(context.Background(), testPackageID, tc.req)
			appErr, ok := common.AsAppError(err)
			require.True(t, ok)
			require.Equal(t, tc.code, appErr.Code)
			require.Equal(t, http.StatusUnprocessableEntity, appErr.HTTPStatus)
		})
	}
}

func TestServiceQuoteFetchFailure(t *testing.T) {
	svc := newService(&fakeProvider{err: errors.New("connection refused")})

	_, err := svc.Quote(context.Background(), testPackageID, pricing.Request{
		TravelDate: time.Date(2026, time.June, 10, 0, 0, 0, 0, time.UTC),
		Travelers:  map[string]int{pricing.TierAdult: 1},
	})
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, "RULE_FETCH_FAILED", appErr.Code)
	require.Equal(t, http.StatusInternalServerError, appErr.HTTPStatus)
}

func TestServiceLoadSnapshot(t *testing.T) {
	provider := &fakeProvider{snap: baseSnapshot()}
	svc := newService(provider)

	snap, err := svc.LoadSnapshot(context.Background(), testPackageID)
	require.NoError(t, err)
	require.Equal(t, testPackageID, snap.Package.ID)
}
