package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/kairostudio/backoffice/internal/billing"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			// best-effort error response; avoid writing partial JSON
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		// nothing we can do at this point
		_ = err
	}
}

func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// WriteError maps the error taxonomy to HTTP:
// ValidationError -> 422 with field detail, record not found -> 404,
// anything else is a persistence error surfaced as 500.
func WriteError(w http.ResponseWriter, err error) {
	var ve *billing.ValidationError
	if errors.As(err, &ve) {
		JSONError(w, http.StatusUnprocessableEntity, "validation_failed", map[string]string{ve.Field: ve.Code})
		return
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	JSONError(w, http.StatusInternalServerError, "persistence_error", nil)
}
