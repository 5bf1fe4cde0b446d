package rules

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-travel/internal/common"
	"github.com/noah-isme/backend-travel/internal/pricing"
)

const dateLayout = "2006-01-02"

// Handler exposes back-office endpoints for creating rule rows. Role gating
// is mounted by the deployer in front of these routes; the handlers only
// validate and persist.
type Handler struct {
	Repo     *Repo
	Cache    *Cache
	Validate *validator.Validate
	Logger   zerolog.Logger
}

// Routes mounts the admin rule endpoints on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/packages", h.CreatePackage)
	r.Route("/packages/{packageID}", func(r chi.Router) {
		r.Post("/tiers", h.CreateTier)
		r.Post("/group-rules", h.CreateGroupRule)
		r.Post("/seasonal-rules", h.CreateSeasonRule)
		r.Post("/time-discounts", h.CreateTimeRule)
		r.Post("/departures", h.CreateDeparture)
		r.Post("/addons", h.CreateAddon)
		r.Post("/blocked-dates", h.CreateBlockedRange)
	})
	r.Post("/promotions", h.CreatePromotion)
}

type adjustmentPayload struct {
	Kind  string `json:"kind" validate:"required,oneof=percentage fixed_amount override_price"`
	Value int64  `json:"value"`
}

func (p adjustmentPayload) toAdjustment() pricing.Adjustment {
	return pricing.Adjustment{Kind: pricing.AdjustmentKind(p.Kind), Value: p.Value}
}

type packagePayload struct {
	Name           string `json:"name" validate:"required"`
	Currency       string `json:"currency" validate:"required,len=3"`
	UseCustomTiers bool   `json:"useCustomTiers"`
	MinGroupSize   int    `json:"minGroupSize" validate:"gte=0"`
	MaxGroupSize   *int   `json:"maxGroupSize" validate:"omitempty,gtefield=MinGroupSize"`
}

// CreatePackage inserts a catalog package.
func (h *Handler) CreatePackage(w http.ResponseWriter, r *http.Request) {
	var payload packagePayload
	if !h.decode(w, r, &payload) {
		return
	}
	id, err := h.Repo.CreatePackage(r.Context(), CreatePackageParams{
		Name:           strings.TrimSpace(payload.Name),
		Currency:       strings.ToUpper(payload.Currency),
		UseCustomTiers: payload.UseCustomTiers,
		MinGroupSize:   payload.MinGroupSize,
		MaxGroupSize:   payload.MaxGroupSize,
	})
	if err != nil {
		h.writeError(w, err, "failed to create package")
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": map[string]any{"id": id}})
}

type tierPayload struct {
	Type   string `json:"type" validate:"required,oneof=adult child infant senior custom"`
	Code   string `json:"code" validate:"required_if=Type custom"`
	Label  string `json:"label"`
	AgeMin *int   `json:"ageMin" validate:"omitempty,gte=0"`
	AgeMax *int   `json:"ageMax" validate:"omitempty,gte=0"`
	Price  int64  `json:"price" validate:"gte=0"`
}

// CreateTier inserts a pricing tier for a package.
func (h *Handler) CreateTier(w http.ResponseWriter, r *http.Request) {
	packageID, ok := h.packageID(w, r)
	if !ok {
		return
	}
	var payload tierPayload
	if !h.decode(w, r, &payload) {
		return
	}
	id, err := h.Repo.CreateTier(r.Context(), CreateTierParams{
		PackageID: packageID,
		Type:      payload.Type,
		Code:      strings.TrimSpace(payload.Code),
		Label:     strings.TrimSpace(payload.Label),
		AgeMin:    payload.AgeMin,
		AgeMax:    payload.AgeMax,
		Price:     payload.Price,
	})
	if err != nil {
		h.writeError(w, err, "failed to create tier")
		return
	}
	h.invalidate(r, packageID)
	common.JSON(w, http.StatusCreated, map[string]any{"data": map[string]any{"id": id}})
}

type groupRulePayload struct {
	MinSize int               `json:"minSize" validate:"gte=1"`
	MaxSize *int              `json:"maxSize" validate:"omitempty,gtefield=MinSize"`
	Adjust  adjustmentPayload `json:"adjust" validate:"required"`
}

// CreateGroupRule inserts a group pricing rule for a package.
func (h *Handler) CreateGroupRule(w http.ResponseWriter, r *http.Request) {
	packageID, ok := h.packageID(w, r)
	if !ok {
		return
	}
	var payload groupRulePayload
	if !h.decode(w, r, &payload) {
		return
	}
	id, err := h.Repo.CreateGroupRule(r.Context(), CreateGroupRuleParams{
		PackageID: packageID,
		MinSize:   payload.MinSize,
		MaxSize:   payload.MaxSize,
		Adjust:    payload.Adjust.toAdjustment(),
	})
	if err != nil {
		h.writeError(w, err, "failed to create group rule")
		return
	}
	h.invalidate(r, packageID)
	common.JSON(w, http.StatusCreated, map[string]any{"data": map[string]any{"id": id}})
}

type seasonRulePayload struct {
	StartDate string            `json:"startDate" validate:"required"`
	EndDate   string            `json:"endDate" validate:"required"`
	Adjust    adjustmentPayload `json:"adjust" validate:"required"`
}

// CreateSeasonRule inserts a seasonal pricing rule for a package.
func (h *Handler) CreateSeasonRule(w http.ResponseWriter, r *http.Request) {
	packageID, ok := h.packageID(w, r)
	if !ok {
		return
	}
	var payload seasonRulePayload
	if !h.decode(w, r, &payload) {
		return
	}
	start, end, ok := h.dateRange(w, payload.StartDate, payload.EndDate)
	if !ok {
		return
	}
	id, err := h.Repo.CreateSeasonRule(r.Context(), CreateSeasonRuleParams{
		PackageID: packageID,
		Start:     start,
		End:       end,
		Adjust:    payload.Adjust.toAdjustment(),
	})
	if err != nil {
		h.writeError(w, err, "failed to create seasonal rule")
		return
	}
	h.invalidate(r, packageID)
	common.JSON(w, http.StatusCreated, map[string]any{"data": map[string]any{"id": id}})
}

type timeRulePayload struct {
	Kind          string            `json:"kind" validate:"required,oneof=early_bird last_minute"`
	ThresholdDays int               `json:"thresholdDays" validate:"gte=0"`
	Adjust        adjustmentPayload `json:"adjust" validate:"required"`
}

// CreateTimeRule inserts an early-bird or last-minute discount for a package.
func (h *Handler) CreateTimeRule(w http.ResponseWriter, r *http.Request) {
	packageID, ok := h.packageID(w, r)
	if !ok {
		return
	}
	var payload timeRulePayload
	if !h.decode(w, r, &payload) {
		return
	}
	id, err := h.Repo.CreateTimeRule(r.Context(), CreateTimeRuleParams{
		PackageID:     packageID,
		Kind:          pricing.TimeRuleKind(payload.Kind),
		ThresholdDays: payload.ThresholdDays,
		Adjust:        payload.Adjust.toAdjustment(),
	})
	if err != nil {
		h.writeError(w, err, "failed to create time discount")
		return
	}
	h.invalidate(r, packageID)
	common.JSON(w, http.StatusCreated, map[string]any{"data": map[string]any{"id": id}})
}

type departurePayload struct {
	Date       string             `json:"date" validate:"required"`
	TierPrices map[string]int64   `json:"tierPrices"`
	Adjust     *adjustmentPayload `json:"adjust"`
}

// CreateDeparture inserts a departure pricing override for an exact date.
func (h *Handler) CreateDeparture(w http.ResponseWriter, r *http.Request) {
	packageID, ok := h.packageID(w, r)
	if !ok {
		return
	}
	var payload departurePayload
	if !h.decode(w, r, &payload) {
		return
	}
	date, err := time.Parse(dateLayout, payload.Date)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "date must be YYYY-MM-DD", nil)
		return
	}
	params := CreateDepartureParams{PackageID: packageID, Date: date, TierPrices: payload.TierPrices}
	if payload.Adjust != nil {
		adj := payload.Adjust.toAdjustment()
		params.Adjust = &adj
	}
	id, err := h.Repo.CreateDeparture(r.Context(), params)
	if err != nil {
		h.writeError(w, err, "failed to create departure pricing")
		return
	}
	h.invalidate(r, packageID)
	common.JSON(w, http.StatusCreated, map[string]any{"data": map[string]any{"id": id}})
}

type addonPayload struct {
	Name     string `json:"name" validate:"required"`
	Pricing  string `json:"pricing" validate:"required,oneof=per_person per_group per_unit"`
	Price    int64  `json:"price" validate:"gte=0"`
	MinQty   int    `json:"minQty" validate:"gte=0"`
	MaxQty   *int   `json:"maxQty" validate:"omitempty,gtefield=MinQty"`
	Required bool   `json:"required"`
}

// CreateAddon inserts an add-on for a package.
func (h *Handler) CreateAddon(w http.ResponseWriter, r *http.Request) {
	packageID, ok := h.packageID(w, r)
	if !ok {
		return
	}
	var payload addonPayload
	if !h.decode(w, r, &payload) {
		return
	}
	id, err := h.Repo.CreateAddon(r.Context(), CreateAddonParams{
		PackageID: packageID,
		Name:      strings.TrimSpace(payload.Name),
		Pricing:   pricing.AddonPricing(payload.Pricing),
		Price:     payload.Price,
		MinQty:    payload.MinQty,
		MaxQty:    payload.MaxQty,
		Required:  payload.Required,
	})
	if err != nil {
		h.writeError(w, err, "failed to create add-on")
		return
	}
	h.invalidate(r, packageID)
	common.JSON(w, http.StatusCreated, map[string]any{"data": map[string]any{"id": id}})
}

type blockedRangePayload struct {
	StartDate string `json:"startDate" validate:"required"`
	EndDate   string `json:"endDate" validate:"required"`
	Reason    string `json:"reason" validate:"required"`
}

// CreateBlockedRange inserts a blocked date range for a package.
func (h *Handler) CreateBlockedRange(w http.ResponseWriter, r *http.Request) {
	packageID, ok := h.packageID(w, r)
	if !ok {
		return
	}
	var payload blockedRangePayload
	if !h.decode(w, r, &payload) {
		return
	}
	start, end, ok := h.dateRange(w, payload.StartDate, payload.EndDate)
	if !ok {
		return
	}
	id, err := h.Repo.CreateBlockedRange(r.Context(), CreateBlockedRangeParams{
		PackageID: packageID,
		Start:     start,
		End:       end,
		Reason:    strings.TrimSpace(payload.Reason),
	})
	if err != nil {
		h.writeError(w, err, "failed to create blocked range")
		return
	}
	h.invalidate(r, packageID)
	common.JSON(w, http.StatusCreated, map[string]any{"data": map[string]any{"id": id}})
}

type promotionPayload struct {
	Code      string            `json:"code" validate:"required"`
	PackageID *string           `json:"packageId"`
	MinSpend  int64             `json:"minSpend" validate:"gte=0"`
	Adjust    adjustmentPayload `json:"adjust" validate:"required"`
	ValidFrom *time.Time        `json:"validFrom"`
	ValidTo   *time.Time        `json:"validTo"`
}

// CreatePromotion inserts a promotion, either global or scoped to one package.
func (h *Handler) CreatePromotion(w http.ResponseWriter, r *http.Request) {
	var payload promotionPayload
	if !h.decode(w, r, &payload) {
		return
	}
	params := CreatePromotionParams{
		Code:      strings.ToUpper(strings.TrimSpace(payload.Code)),
		MinSpend:  payload.MinSpend,
		Adjust:    payload.Adjust.toAdjustment(),
		ValidFrom: payload.ValidFrom,
		ValidTo:   payload.ValidTo,
	}
	var scope *uuid.UUID
	if payload.PackageID != nil && strings.TrimSpace(*payload.PackageID) != "" {
		parsed, err := uuid.Parse(strings.TrimSpace(*payload.PackageID))
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid package id", nil)
			return
		}
		scope = &parsed
	}
	params.PackageID = scope
	id, err := h.Repo.CreatePromotion(r.Context(), params)
	if err != nil {
		h.writeError(w, err, "failed to create promotion")
		return
	}
	if scope != nil {
		h.invalidate(r, *scope)
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": map[string]any{"id": id}})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, payload any) bool {
	if h.Repo == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "rule repository not configured", nil)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return false
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return false
		}
	}
	return true
}

func (h *Handler) packageID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, "packageID"))
	id, err := uuid.Parse(raw)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid package id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) dateRange(w http.ResponseWriter, startRaw, endRaw string) (time.Time, time.Time, bool) {
	start, err := time.Parse(dateLayout, startRaw)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "startDate must be YYYY-MM-DD", nil)
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse(dateLayout, endRaw)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "endDate must be YYYY-MM-DD", nil)
		return time.Time{}, time.Time{}, false
	}
	if end.Before(start) {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "endDate must not precede startDate", nil)
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error, fallback string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			common.JSONError(w, http.StatusConflict, "CONFLICT", "a conflicting row already exists", nil)
			return
		case "23503":
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "package not found", nil)
			return
		}
	}
	h.Logger.Error().Err(err).Msg(fallback)
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", fallback, nil)
}

func (h *Handler) invalidate(r *http.Request, packageID uuid.UUID) {
	if err := h.Cache.Invalidate(r.Context(), packageID); err != nil {
		h.Logger.Warn().Err(err).Str("package_id", packageID.String()).Msg("invalidate rule snapshot cache")
	}
}
