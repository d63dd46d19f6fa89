package server

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// maxWebhookBody bounds a single ingestion request.
const maxWebhookBody = 1 << 20

// handlePropertyWebhook handles POST /v1/webhooks/properties. The body is
// either one property or {"properties": [...]}; a batch is all-or-nothing.
func (s *ListingsServer) handlePropertyWebhook(w http.ResponseWriter, r *http.Request) {
	if !s.webhookAuthorized(r) {
		writeError(w, http.StatusUnauthorized, "invalid webhook token")
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	var batch struct {
		Properties *[]propertyInput `json:"properties"`
	}
	if err := json.Unmarshal(data, &batch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if batch.Properties != nil {
		props, err := s.createProperties(r.Context(), actor(r, "webhook"), *batch.Properties)
		if err != nil {
			writeServiceError(w, err, "property")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"properties": props})
		return
	}

	var in propertyInput
	if err := json.Unmarshal(data, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	p, err := s.createProperty(r.Context(), actor(r, "webhook"), in)
	if err != nil {
		writeServiceError(w, err, "property")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// webhookAuthorized checks X-Webhook-Token, falling back to a bearer token.
// An unset webhook token accepts everything.
func (s *ListingsServer) webhookAuthorized(r *http.Request) bool {
	if s.webhookToken == "" {
		return true
	}
	provided := r.Header.Get("X-Webhook-Token")
	if provided == "" {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			return false
		}
		provided = strings.TrimPrefix(auth, "Bearer ")
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(s.webhookToken)) == 1
}
