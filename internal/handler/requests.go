package handler

import (
	"net/http"

	"github.com/YK-03/SharePlate/internal/middleware"
	"github.com/YK-03/SharePlate/internal/service"
	"github.com/YK-03/SharePlate/pkg/apierror"
	"github.com/YK-03/SharePlate/pkg/response"

	"go.uber.org/zap"
)

// RequestHandler handles claim HTTP requests.
type RequestHandler struct {
	claims *service.ClaimService
	log    *zap.SugaredLogger
}

// NewRequestHandler creates a new request handler.
func NewRequestHandler(claims *service.ClaimService, log *zap.SugaredLogger) *RequestHandler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &RequestHandler{claims: claims, log: log}
}

// CreateRequestBody names the item to claim. "item" is accepted as an alias.
type CreateRequestBody struct {
	ItemID *int64 `json:"item_id"`
	Item   *int64 `json:"item"`
}

// List handles GET /api/v1/requests
func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.claims.ListForUser(r.Context(), middleware.UserFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.List(w, reqs, len(reqs))
}

// Create handles POST /api/v1/requests
func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body CreateRequestBody
	if err := decodeJSON(r, &body); err != nil {
		response.Error(w, err)
		return
	}

	var itemID int64
	switch {
	case body.ItemID != nil:
		itemID = *body.ItemID
	case body.Item != nil:
		itemID = *body.Item
	default:
		response.Error(w, apierror.ValidationError("", apierror.FieldError{Field: "item_id", Message: "This field is required."}))
		return
	}

	h.claim(w, r, itemID)
}

// Claim handles POST /api/v1/claim/{item_id}
func (h *RequestHandler) Claim(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(r, "item_id")
	if !ok {
		response.Error(w, apierror.ValidationError("", apierror.FieldError{Field: "item_id", Message: "A valid item id is required."}))
		return
	}

	h.claim(w, r, itemID)
}

func (h *RequestHandler) claim(w http.ResponseWriter, r *http.Request, itemID int64) {
	req, err := h.claims.Claim(r.Context(), middleware.UserFromContext(r.Context()), itemID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Created(w, req)
}
