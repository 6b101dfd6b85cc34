package mw

import (
	"encoding/json"
	"net/http"
)

// reject writes the same {"error": ...} body the API handlers use.
func reject(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
