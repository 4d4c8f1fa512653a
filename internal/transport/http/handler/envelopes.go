package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Donatronix/identity-center-ms-sub001/internal/domain"
)

// Envelope is the generic response wrapper. Type is one of
// success, warning or danger.
type Envelope struct {
	Type    string `json:"type"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
	Sid     string `json:"sid,omitempty"`
}

// AuthEnvelope wraps claim, login and refresh responses.
type AuthEnvelope struct {
	Type         string       `json:"type"`
	Title        string       `json:"title,omitempty"`
	Message      string       `json:"message,omitempty"`
	Token        string       `json:"token,omitempty"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	User         *domain.User `json:"user,omitempty"`
}

// DataEnvelope wraps list responses.
type DataEnvelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// IdentifyEnvelope wraps vendor verification-session responses.
type IdentifyEnvelope struct {
	Type         string `json:"type"`
	URL          string `json:"url,omitempty"`
	SessionToken string `json:"session_token,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, title, msg string) {
	writeJSON(w, status, Envelope{Type: "danger", Title: title, Message: msg})
}
