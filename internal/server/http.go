package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, admin routes require a valid
// Authorization: Bearer <token> header; public reads never do. Requests
// from corsOrigins (all origins when none are given) are allowed
// cross-origin.
func (s *ListingsServer) NewHTTPHandler(authToken string, corsOrigins ...string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", s.handleHealth)

	mux.HandleFunc("GET /v1/properties", s.handleListProperties)
	mux.HandleFunc("POST /v1/properties", s.handleCreateProperty)
	mux.HandleFunc("GET /v1/properties/featured", s.handleFeatured)
	mux.HandleFunc("GET /v1/properties/featured/ws", s.handleFeaturedWS)
	mux.HandleFunc("GET /v1/properties/{id}", s.handleGetProperty)
	mux.HandleFunc("PATCH /v1/properties/{id}", s.handleUpdateProperty)
	mux.HandleFunc("DELETE /v1/properties/{id}", s.handleDeleteProperty)
	mux.HandleFunc("GET /v1/properties/{id}/events", s.handleGetEvents)

	mux.HandleFunc("GET /v1/blog", s.handleListBlogPosts)
	mux.HandleFunc("POST /v1/blog", s.handleCreateBlogPost)
	mux.HandleFunc("POST /v1/blog/bulk-delete", s.handleBulkDeleteBlogPosts)
	mux.HandleFunc("GET /v1/blog/{id}", s.handleGetBlogPost)
	mux.HandleFunc("PATCH /v1/blog/{id}", s.handleUpdateBlogPost)
	mux.HandleFunc("DELETE /v1/blog/{id}", s.handleDeleteBlogPost)

	mux.HandleFunc("POST /v1/webhooks/properties", s.handlePropertyWebhook)
	mux.HandleFunc("GET /v1/auth/check", s.handleAuthCheck)
	mux.HandleFunc("GET /v1/events/stream", s.handleEventStream)

	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}
	cors := handlers.CORS(
		handlers.AllowedOrigins(corsOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type", "X-Webhook-Token", "X-Actor", "Last-Event-ID"}),
	)
	return cors(AuthMiddleware(authToken, mux))
}

// handleHealth handles GET /v1/health.
func (s *ListingsServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAuthCheck handles GET /v1/auth/check. Reaching it means the
// middleware accepted the token.
func (s *ListingsServer) handleAuthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// publicRoute reports whether r may skip admin auth: anonymous reads of
// the public site, and the webhook, which checks its own token.
func publicRoute(r *http.Request) bool {
	p := r.URL.Path
	if r.Method == http.MethodPost {
		return p == "/v1/webhooks/properties"
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	switch {
	case p == "/v1/health", p == "/v1/events/stream", p == "/v1/properties", p == "/v1/blog":
		return true
	case strings.HasPrefix(p, "/v1/properties/"):
		return !strings.HasSuffix(p, "/events")
	case strings.HasPrefix(p, "/v1/blog/"):
		return true
	}
	return false
}

// actor names who made a change, for the event log.
func actor(r *http.Request, fallback string) string {
	if a := strings.TrimSpace(r.Header.Get("X-Actor")); a != "" {
		return a
	}
	return fallback
}

// writeServiceError maps a service error to a status code: inputError is
// 400, sql.ErrNoRows is 404 with "<what> not found", anything else 500.
func writeServiceError(w http.ResponseWriter, err error, what string) {
	var ie inputError
	switch {
	case errors.As(err, &ie):
		writeError(w, http.StatusBadRequest, ie.Error())
	case errors.Is(err, sql.ErrNoRows):
		writeError(w, http.StatusNotFound, what+" not found")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
