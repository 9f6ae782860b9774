package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

type contextKey string

const contextIdentityKey contextKey = "identity"

// Identity is the decoded caller attached to the request context by the auth
// middleware.
type Identity struct {
	UserID int
	Role   string
}

func identityFromContext(ctx context.Context) (Identity, error) {
	identity, ok := ctx.Value(contextIdentityKey).(Identity)
	if !ok || identity.UserID < 1 {
		return Identity{}, errors.New("missing identity")
	}
	return identity, nil
}

// MessageResponse is the plain acknowledgement/error payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// DataResponse is the success envelope used by the profile and trail-creation
// endpoints.
type DataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, DataResponse{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, MessageResponse{Message: message})
}
