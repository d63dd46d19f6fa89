package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/raderre/cresite/internal/model"
)

// propertyView is a property as the public site renders it.
type propertyView struct {
	*model.Property
	DisplayPrice string `json:"display_price"`
}

func viewProperties(props []*model.Property) []propertyView {
	out := make([]propertyView, 0, len(props))
	for _, p := range props {
		out = append(out, propertyView{Property: p, DisplayPrice: p.DisplayPrice()})
	}
	return out
}

// handleListProperties handles GET /v1/properties.
func (s *ListingsServer) handleListProperties(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.PropertyFilter{
		Search: q.Get("search"),
		Sort:   q.Get("sort"),
	}
	if v := q.Get("type"); v != "" {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				filter.Type = append(filter.Type, t)
			}
		}
	}
	if v := q.Get("featured"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			filter.Featured = &b
		}
	}
	filter.Limit = queryInt(q.Get("limit"))
	filter.Offset = queryInt(q.Get("offset"))

	props, total, err := s.store.ListProperties(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list properties")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"properties": viewProperties(props),
		"total":      total,
	})
}

// handleFeatured handles GET /v1/properties/featured.
func (s *ListingsServer) handleFeatured(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"properties": viewProperties(s.feed.Snapshot()),
	})
}

// handleGetProperty handles GET /v1/properties/{id}.
func (s *ListingsServer) handleGetProperty(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	p, err := s.store.GetProperty(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "property")
		return
	}
	writeJSON(w, http.StatusOK, propertyView{Property: p, DisplayPrice: p.DisplayPrice()})
}

// handleCreateProperty handles POST /v1/properties.
func (s *ListingsServer) handleCreateProperty(w http.ResponseWriter, r *http.Request) {
	var in propertyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	p, err := s.createProperty(r.Context(), actor(r, "admin"), in)
	if err != nil {
		writeServiceError(w, err, "property")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// handleUpdateProperty handles PATCH /v1/properties/{id}.
func (s *ListingsServer) handleUpdateProperty(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	var in updatePropertyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	p, err := s.updateProperty(r.Context(), id, actor(r, "admin"), in)
	if err != nil {
		writeServiceError(w, err, "property")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleDeleteProperty handles DELETE /v1/properties/{id}.
func (s *ListingsServer) handleDeleteProperty(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := s.deleteProperty(r.Context(), id, actor(r, "admin")); err != nil {
		writeServiceError(w, err, "property")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetEvents handles GET /v1/properties/{id}/events.
func (s *ListingsServer) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	evts, err := s.store.GetEvents(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get events")
		return
	}
	if evts == nil {
		evts = []*model.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": evts})
}

// queryInt parses a non-negative integer query value; anything else is 0.
func queryInt(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
