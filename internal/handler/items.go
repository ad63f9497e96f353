package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/YK-03/SharePlate/internal/middleware"
	"github.com/YK-03/SharePlate/internal/model"
	"github.com/YK-03/SharePlate/internal/service"
	"github.com/YK-03/SharePlate/pkg/apierror"
	"github.com/YK-03/SharePlate/pkg/response"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ItemHandler handles donation item HTTP requests.
type ItemHandler struct {
	items *service.ItemService
	log   *zap.SugaredLogger
}

// NewItemHandler creates a new item handler.
func NewItemHandler(items *service.ItemService, log *zap.SugaredLogger) *ItemHandler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &ItemHandler{items: items, log: log}
}

// List handles GET /api/v1/items
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter model.ItemFilter
	if raw := r.URL.Query().Get("in_bbox"); raw != "" {
		bbox, err := parseBBox(raw)
		if err != nil {
			response.Error(w, err)
			return
		}
		filter.BBox = bbox
	}

	items, err := h.items.ListAvailable(r.Context(), filter)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.List(w, items, len(items))
}

// Get handles GET /api/v1/items/{id}
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		response.Error(w, apierror.NotFound("Item not found."))
		return
	}

	item, err := h.items.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.OK(w, item)
}

// Create handles POST /api/v1/items
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CreateItemInput
	if err := decodeJSON(r, &in); err != nil {
		response.Error(w, err)
		return
	}

	item, err := h.items.Create(r.Context(), middleware.UserFromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Created(w, item)
}

// UpdateAddressRequest is the body of an address change.
type UpdateAddressRequest struct {
	Address string `json:"address"`
}

// UpdateAddress handles PATCH /api/v1/items/{id}/address
func (h *ItemHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		response.Error(w, apierror.NotFound("Item not found."))
		return
	}

	var req UpdateAddressRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}

	item, err := h.items.UpdateAddress(r.Context(), middleware.UserFromContext(r.Context()), id, req.Address)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.OK(w, item)
}

// parseBBox reads "min_lon,min_lat,max_lon,max_lat".
func parseBBox(raw string) (*model.BBox, *apierror.Error) {
	invalid := apierror.ValidationError("", apierror.FieldError{
		Field:   "in_bbox",
		Message: "Expected four comma-separated numbers: min_lon,min_lat,max_lon,max_lat.",
	})

	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return nil, invalid
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, invalid
		}
		v[i] = f
	}
	if v[0] > v[2] || v[1] > v[3] {
		return nil, invalid
	}
	return &model.BBox{MinLon: v[0], MinLat: v[1], MaxLon: v[2], MaxLat: v[3]}, nil
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
