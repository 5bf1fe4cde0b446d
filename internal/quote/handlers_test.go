package quote_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-travel/internal/pricing"
	"github.com/noah-isme/backend-travel/internal/quote"
)

func newTestRouter(provider *fakeProvider) *chi.Mux {
	handler := &quote.Handler{
		Service:  newService(provider),
		Validate: validator.New(),
		Logger:   zerolog.Nop(),
	}
	r := chi.NewRouter()
	handler.Routes(r)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCreateQuoteEndpoint(t *testing.T) {
	r := newTestRouter(&fakeProvider{snap: baseSnapshot()})

	rec := doJSON(t, r, http.MethodPost, "/packages/"+testPackageID.String()+"/quote", `{
		"travelDate": "2026-06-10",
		"bookingDate": "2026-03-01",
		"travelers": {"adult": 2}
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data pricing.Breakdown `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, pricing.Money(200_00), body.Data.FinalTotal)
	require.Equal(t, "USD", body.Data.Currency)
	require.Len(t, body.Data.TierLines, 1)
}

func TestCreateQuoteEndpointBlockedDate(t *testing.T) {
	snap := baseSnapshot()
	snap.Blocked = []pricing.BlockedRange{{
		ID:     uuid.New(),
		Start:  time.Date(2026, time.June, 10, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2026, time.June, 12, 0, 0, 0, 0, time.UTC),
		Reason: "vessel maintenance",
	}}
	r := newTestRouter(&fakeProvider{snap: snap})

	rec := doJSON(t, r, http.MethodPost, "/packages/"+testPackageID.String()+"/quote", `{
		"travelDate": "2026-06-10",
		"travelers": {"adult": 1}
	}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	var body struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "DATE_BLOCKED", body.Error.Code)
	require.Equal(t, "vessel maintenance", body.Error.Details["reason"])
}

func TestCreateQuoteEndpointBadInput(t *testing.T) {
	r := newTestRouter(&fakeProvider{snap: baseSnapshot()})
	path := "/packages/" + testPackageID.String() + "/quote"

	cases := []struct {
		name string
		path string
		body string
	}{
		{"malformed json", path, `{`},
		{"missing travel date", path, `{"travelers": {"adult": 1}}`},
		{"bad travel date", path, `{"travelDate": "June 10", "travelers": {"adult": 1}}`},
		{"bad addon id", path, `{"travelDate": "2026-06-10", "travelers": {"adult": 1}, "addons": [{"addonId": "nope", "quantity": 1}]}`},
		{"bad package id", "/packages/not-a-uuid/quote", `{"travelDate": "2026-06-10", "travelers": {"adult": 1}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, r, http.MethodPost, tc.path, tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreateQuoteEndpointUnknownTier(t *testing.T) {
	r := newTestRouter(&fakeProvider{snap: baseSnapshot()})

	rec := doJSON(t, r, http.MethodPost, "/packages/"+testPackageID.String()+"/quote", `{
		"travelDate": "2026-06-10",
		"travelers": {"pilot": 1}
	}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "UNKNOWN_TIER", body.Error.Code)
}

func TestListAddonsEndpoint(t *testing.T) {
	snap := baseSnapshot()
	maxQty := 3
	snap.Addons = []pricing.Addon{
		{ID: uuid.New(), Name: "Airport transfer", Pricing: pricing.AddonPerGroup, Price: 30_00, MaxQty: &maxQty, Active: true},
		{ID: uuid.New(), Name: "Retired addon", Pricing: pricing.AddonPerUnit, Price: 5_00, Active: false},
	}
	r := newTestRouter(&fakeProvider{snap: snap})

	rec := doJSON(t, r, http.MethodGet, "/packages/"+testPackageID.String()+"/addons", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []struct {
			Name   string `json:"name"`
			MaxQty *int   `json:"maxQty"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	require.Equal(t, "Airport transfer", body.Data[0].Name)
	require.NotNil(t, body.Data[0].MaxQty)
	require.Equal(t, 3, *body.Data[0].MaxQty)
}
