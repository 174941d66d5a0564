package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Error is a normalized backend failure: the HTTP status plus one
// human-readable message extracted from whatever key the backend used.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
}

// errorPayload covers the three shapes the backend emits.
type errorPayload struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// normalizeError builds an *Error from a non-2xx response body. Falls back to
// a generic message when the body is empty, unparseable, or carries none of
// the known keys.
func normalizeError(status int, body []byte) *Error {
	msg := "request failed"
	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Detail != "":
			msg = payload.Detail
		case payload.Message != "":
			msg = payload.Message
		case payload.Error != "":
			msg = payload.Error
		}
	}
	return &Error{Status: status, Message: msg}
}

// authVocabulary marks messages that mean "your session is no good anymore".
// Consumers route these to the re-login prompt instead of a generic toast.
var authVocabulary = []string{
	"token",
	"authentication",
	"not valid",
	"401",
	"403",
	"unauthorized",
}

// IsAuthError reports whether err should force re-authentication.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	apiErr, ok := err.(*Error)
	if ok && (apiErr.Status == 401 || apiErr.Status == 403) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, word := range authVocabulary {
		if strings.Contains(msg, word) {
			return true
		}
	}
	return false
}
