package middleware

import (
	"encoding/json"
	"net/http"
)

// writeJSONError writes a tagged JSON error response with the correct Content-Type.
func writeJSONError(w http.ResponseWriter, status int, tag, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"ok":      false,
		"error":   tag,
		"message": msg,
	})
}
