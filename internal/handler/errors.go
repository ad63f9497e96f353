package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/YK-03/SharePlate/internal/middleware"
	"github.com/YK-03/SharePlate/internal/service"
	"github.com/YK-03/SharePlate/pkg/apierror"
	"github.com/YK-03/SharePlate/pkg/response"

	"go.uber.org/zap"
)

// toAPIError maps service error kinds onto HTTP errors. Unknown errors
// become a bare 500.
func toAPIError(err error) *apierror.Error {
	var ve service.ValidationError
	if errors.As(err, &ve) {
		details := make([]apierror.FieldError, 0, len(ve.Fields))
		for _, f := range ve.Fields {
			details = append(details, apierror.FieldError{Field: f.Field, Message: f.Message})
		}
		return apierror.ValidationError("", details...)
	}

	var ce service.ConflictError
	if errors.As(err, &ce) {
		return apierror.Conflict(ce.Message).WithDetails(apierror.FieldError{Field: ce.Field, Message: ce.Message})
	}

	msg := ""
	var oe service.OpError
	if errors.As(err, &oe) {
		msg = oe.Msg
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		return apierror.NotFound(msg)
	case errors.Is(err, service.ErrConflict):
		return apierror.Conflict(msg)
	case errors.Is(err, service.ErrValidation):
		return apierror.ValidationError(msg)
	case errors.Is(err, service.ErrUnauthenticated):
		return apierror.Unauthorized(msg)
	case errors.Is(err, service.ErrForbidden):
		return apierror.Forbidden(msg)
	}
	return apierror.InternalError("")
}

// writeError sends err and logs it when it is an internal failure.
func writeError(w http.ResponseWriter, r *http.Request, log *zap.SugaredLogger, err error) {
	apiErr := toAPIError(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		log.Errorw("[Handler] Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
	}
	response.Error(w, apiErr)
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return apierror.BadRequest("Malformed JSON body.")
	}
	return nil
}
