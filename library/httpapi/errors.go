package httpapi

import (
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/features/query/catalog"
	"github.com/bookdesk/bookdesk/library/shell"
)

var (
	// ErrMalformedBody is returned for request bodies which are not valid JSON.
	ErrMalformedBody = errors.New("malformed request body")
	ErrBodyTooLarge  = errors.New("request body too large")
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func classify(err error) (int, string) {
	if businessErr, ok := core.AsBusinessError(err); ok {
		switch businessErr.Kind {
		case core.KindNotFound:
			return http.StatusNotFound, "NOT_FOUND"
		case core.KindConflict:
			return http.StatusConflict, "CONFLICT"
		case core.KindForbidden:
			return http.StatusForbidden, "FORBIDDEN"
		case core.KindDenied:
			return http.StatusUnauthorized, "UNAUTHORIZED"
		}
	}

	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge, "INVALID_INPUT"
	case errors.Is(err, shell.ErrInvalidCommand),
		errors.Is(err, catalog.ErrUnknownSearchField),
		errors.Is(err, ErrMalformedBody):
		return http.StatusBadRequest, "INVALID_INPUT"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, errType := classify(err)

	response := ErrorResponse{}
	response.Error.Type = errType
	response.Error.Message = err.Error()
	if status == http.StatusInternalServerError {
		response.Error.Message = http.StatusText(status)
	}

	writeJSON(w, status, response)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w).Encode(body)
}
