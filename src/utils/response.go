package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rafaavmsilva/Menu/src/logger"
)

// SendJSONError writes {"error": message} with the given status.
func SendJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	logger.L.Warn("Sending JSON error to client", "message", message, "statusCode", statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// WriteJSON encodes data as the response body.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.L.Error("Error encoding JSON response", "error", err)
	}
}

// GenerateETag hashes the JSON form of data.
func GenerateETag(data any) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal data for etag: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:16]), nil
}

// WriteJSONWithETag sets a quoted ETag for data and answers 304 when the
// client already holds it.
func WriteJSONWithETag(w http.ResponseWriter, r *http.Request, data any) {
	w.Header().Set("Cache-Control", "no-cache, private")

	etag, err := GenerateETag(data)
	if err != nil {
		logger.FromContext(r.Context()).Warn("Proceeding without ETag", "error", err)
		WriteJSON(w, http.StatusOK, data)
		return
	}

	quoted := fmt.Sprintf("\"%s\"", etag)
	w.Header().Set("ETag", quoted)
	for _, candidate := range strings.Split(r.Header.Get("If-None-Match"), ",") {
		if strings.TrimSpace(candidate) == quoted {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	WriteJSON(w, http.StatusOK, data)
}
