package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/flipcoin/miniapp/internal/domain"
)

// maxBodyBytes caps request bodies read by DecodeJSON.
const maxBodyBytes = 1 << 20

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondJSON writes a JSON response with the given status code.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// RespondError writes a JSON error response, detecting domain.AppError for status codes.
func RespondError(w http.ResponseWriter, err error) {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		RespondJSON(w, appErr.Status, errorBody{Code: appErr.Code, Message: appErr.Message})
		return
	}
	RespondJSON(w, http.StatusInternalServerError, errorBody{
		Code:    "INTERNAL_ERROR",
		Message: "internal server error",
	})
}

// DecodeJSON reads and decodes a JSON request body into dst.
func DecodeJSON(r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

// decodeBody decodes into dst and answers 400 on failure. It reports whether
// the handler may continue.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := DecodeJSON(r, dst); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return false
	}
	return true
}
