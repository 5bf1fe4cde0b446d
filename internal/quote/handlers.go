package quote

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-travel/internal/common"
	"github.com/noah-isme/backend-travel/internal/pricing"
)

const dateLayout = "2006-01-02"

// Handler exposes the public quote endpoints.
type Handler struct {
	Service  *Service
	Validate *validator.Validate
	Logger   zerolog.Logger
}

// Routes mounts the quote endpoints on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/packages/{packageID}", func(r chi.Router) {
		r.Post("/quote", h.CreateQuote)
		r.Get("/addons", h.ListAddons)
	})
}

type addonSelectionPayload struct {
	AddonID  string `json:"addonId" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"gte=0"`
}

type quotePayload struct {
	TravelDate  string                  `json:"travelDate" validate:"required"`
	BookingDate string                  `json:"bookingDate"`
	Travelers   map[string]int          `json:"travelers" validate:"required"`
	Addons      []addonSelectionPayload `json:"addons" validate:"omitempty,dive"`
	PromoCode   string                  `json:"promoCode"`
}

// CreateQuote computes a price breakdown for the requested party and date.
func (h *Handler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	packageID, ok := h.packageID(w, r)
	if !ok {
		return
	}
	var payload quotePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
		return
	}

	travelDate, err := time.Parse(dateLayout, payload.TravelDate)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", "travelDate must be YYYY-MM-DD", nil)
		return
	}
	var bookingDate time.Time
	if payload.BookingDate != "" {
		bookingDate, err = time.Parse(dateLayout, payload.BookingDate)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", "bookingDate must be YYYY-MM-DD", nil)
			return
		}
	}

	req := pricing.Request{
		TravelDate:  travelDate,
		BookingDate: bookingDate,
		Travelers:   payload.Travelers,
		PromoCode:   strings.TrimSpace(payload.PromoCode),
	}
	for _, a := range payload.Addons {
		id, err := uuid.Parse(a.AddonID)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", "addonId must be a UUID", nil)
			return
		}
		req.Addons = append(req.Addons, pricing.AddonSelection{AddonID: id, Quantity: a.Quantity})
	}

	breakdown, err := h.Service.Quote(r.Context(), packageID, req)
	if err != nil {
		h.Logger.Debug().Err(err).Str("package_id", packageID.String()).Msg("quote rejected")
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": breakdown})
}

type addonView struct {
	ID       uuid.UUID            `json:"id"`
	Name     string               `json:"name"`
	Pricing  pricing.AddonPricing `json:"pricing"`
	Price    pricing.Money        `json:"price"`
	MinQty   int                  `json:"minQty"`
	MaxQty   *int                 `json:"maxQty,omitempty"`
	Required bool                 `json:"required"`
}

// ListAddons returns the active add-ons available for a package.
func (h *Handler) ListAddons(w http.ResponseWriter, r *http.Request) {
	packageID, ok := h.packageID(w, r)
	if !ok {
		return
	}
	snap, err := h.Service.LoadSnapshot(r.Context(), packageID)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	views := make([]addonView, 0, len(snap.Addons))
	for _, a := range snap.Addons {
		if !a.Active {
			continue
		}
		views = append(views, addonView{
			ID:       a.ID,
			Name:     a.Name,
			Pricing:  a.Pricing,
			Price:    a.Price,
			MinQty:   a.MinQty,
			MaxQty:   a.MaxQty,
			Required: a.Required,
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": views})
}

func (h *Handler) packageID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "packageID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "packageID must be a UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}
