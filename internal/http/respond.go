package httpx

import (
	"encoding/json"
	"net/http"
)

// writeJSON writes JSON response with status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError sends an error message.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeFieldErrors sends collected validation failures as a message array,
// mirroring the shape clients already parse.
func writeFieldErrors(w http.ResponseWriter, errs []string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{"message": errs})
}

// writeData sends a message plus payload under the data key.
func writeData(w http.ResponseWriter, status int, msg string, data any) {
	writeJSON(w, status, map[string]any{"message": msg, "data": data})
}
