package middleware

import (
	"encoding/json"
	"net/http"
)

type errorBody struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// writeError writes the API error shape with the standard status text.
func writeError(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{
		Message: http.StatusText(status),
		Code:    status,
	})
}
