package server

import (
	"encoding/json"
	"net/http"

	"github.com/raderre/cresite/internal/model"
)

// handleListBlogPosts handles GET /v1/blog.
func (s *ListingsServer) handleListBlogPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.BlogFilter{
		Category: q.Get("category"),
		Limit:    queryInt(q.Get("limit")),
		Offset:   queryInt(q.Get("offset")),
	}

	posts, total, err := s.store.ListBlogPosts(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list blog posts")
		return
	}
	if posts == nil {
		posts = []*model.BlogPost{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"posts": posts,
		"total": total,
	})
}

// handleGetBlogPost handles GET /v1/blog/{id}.
func (s *ListingsServer) handleGetBlogPost(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	post, err := s.store.GetBlogPost(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "blog post")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// handleCreateBlogPost handles POST /v1/blog.
func (s *ListingsServer) handleCreateBlogPost(w http.ResponseWriter, r *http.Request) {
	var in blogInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	post, err := s.createBlogPost(r.Context(), actor(r, "admin"), in)
	if err != nil {
		writeServiceError(w, err, "blog post")
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// handleUpdateBlogPost handles PATCH /v1/blog/{id}.
func (s *ListingsServer) handleUpdateBlogPost(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	var in updateBlogInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	post, err := s.updateBlogPost(r.Context(), id, actor(r, "admin"), in)
	if err != nil {
		writeServiceError(w, err, "blog post")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// handleDeleteBlogPost handles DELETE /v1/blog/{id}.
func (s *ListingsServer) handleDeleteBlogPost(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := s.deleteBlogPost(r.Context(), id, actor(r, "admin")); err != nil {
		writeServiceError(w, err, "blog post")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleBulkDeleteBlogPosts handles POST /v1/blog/bulk-delete.
func (s *ListingsServer) handleBulkDeleteBlogPosts(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	res, err := s.deleteBlogPosts(r.Context(), actor(r, "admin"), body.IDs)
	if err != nil {
		writeServiceError(w, err, "blog post")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
