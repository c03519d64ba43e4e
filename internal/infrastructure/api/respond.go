package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"wishlist-shopify-layer/internal/domain"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

type dataEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, dataEnvelope{Success: true, Data: data})
}

func writeErrorCode(w http.ResponseWriter, status int, code domain.ErrorCode, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: string(code), Message: message}})
}

// writeError maps a classified error to its status and envelope. Unknown
// errors become 500s; in production their internal detail is suppressed.
func writeError(w http.ResponseWriter, err error, production bool) {
	var appErr *domain.Error
	if errors.As(err, &appErr) {
		message := appErr.Message
		if !production && appErr.Err != nil {
			message = appErr.Message + ": " + appErr.Err.Error()
		}
		writeErrorCode(w, appErr.HTTPStatus(), appErr.Code, message)
		return
	}

	message := "An unexpected error occurred"
	if !production {
		message = err.Error()
	}
	writeErrorCode(w, http.StatusInternalServerError, domain.CodeInternalError, message)
}
