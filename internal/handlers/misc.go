package handlers

import (
	"net/http"
	"time"
)

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Welcome is the root greeting endpoint.
func Welcome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Welcome to Travel Trace API"})
}

// APITest is the connectivity diagnostic the mobile client probes on setup.
func APITest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Server is running and accessible",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"server":    "Travel Trace Backend",
		"host":      r.Host,
		"ip":        r.RemoteAddr,
	})
}
