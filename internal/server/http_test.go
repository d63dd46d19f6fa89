package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/raderre/cresite/internal/events"
	"github.com/raderre/cresite/internal/model"
	"github.com/raderre/cresite/internal/store"
)

type mockStore struct {
	mu         sync.Mutex
	properties map[string]*model.Property
	posts      map[string]*model.BlogPost
	events     []*model.Event

	// createErr, when non-nil, is returned by CreateProperty.
	createErr error
	// featuredErr, when non-nil, is returned by FeaturedProperties.
	featuredErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		properties: make(map[string]*model.Property),
		posts:      make(map[string]*model.BlogPost),
	}
}

func (m *mockStore) CreateProperty(_ context.Context, p *model.Property) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.properties[p.ID] = p
	return nil
}

func (m *mockStore) GetProperty(_ context.Context, id string) (*model.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.properties[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *p
	return &clone, nil
}

func (m *mockStore) ListProperties(_ context.Context, filter model.PropertyFilter) ([]*model.Property, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.Property
	for _, p := range m.properties {
		if len(filter.Type) > 0 && !slices.Contains(filter.Type, p.Type) {
			continue
		}
		if filter.Featured != nil && p.Featured != *filter.Featured {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(filter.Search)) {
			continue
		}
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ReceivedAt.After(result[j].ReceivedAt) })
	total := len(result)
	if filter.Offset > 0 {
		result = result[min(filter.Offset, len(result)):]
	}
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, total, nil
}

func (m *mockStore) UpdateProperty(_ context.Context, p *model.Property) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.properties[p.ID]; !ok {
		return sql.ErrNoRows
	}
	m.properties[p.ID] = p
	return nil
}

func (m *mockStore) DeleteProperty(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.properties[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.properties, id)
	return nil
}

func (m *mockStore) FeaturedProperties(ctx context.Context, limit int) ([]*model.Property, error) {
	if m.featuredErr != nil {
		return nil, m.featuredErr
	}
	featured := true
	props, _, err := m.ListProperties(ctx, model.PropertyFilter{Featured: &featured, Limit: limit})
	return props, err
}

func (m *mockStore) CreateBlogPost(_ context.Context, post *model.BlogPost) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts[post.ID] = post
	return nil
}

func (m *mockStore) GetBlogPost(_ context.Context, id string) (*model.BlogPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	post, ok := m.posts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *post
	return &clone, nil
}

func (m *mockStore) ListBlogPosts(_ context.Context, filter model.BlogFilter) ([]*model.BlogPost, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.BlogPost
	for _, post := range m.posts {
		if filter.Category != "" && post.Category != filter.Category {
			continue
		}
		result = append(result, post)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, len(result), nil
}

func (m *mockStore) UpdateBlogPost(_ context.Context, post *model.BlogPost) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[post.ID]; !ok {
		return sql.ErrNoRows
	}
	m.posts[post.ID] = post
	return nil
}

func (m *mockStore) DeleteBlogPost(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.posts, id)
	return nil
}

func (m *mockStore) DeleteBlogPosts(_ context.Context, ids []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted []string
	for _, id := range ids {
		if _, ok := m.posts[id]; ok {
			delete(m.posts, id)
			deleted = append(deleted, id)
		}
	}
	return deleted, nil
}

func (m *mockStore) RecordEvent(_ context.Context, event *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	event.ID = int64(len(m.events) + 1)
	m.events = append(m.events, event)
	return nil
}

func (m *mockStore) GetEvents(_ context.Context, subjectID string) ([]*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.Event
	for _, e := range m.events {
		if e.SubjectID == subjectID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}

func (m *mockStore) Close() error {
	return nil
}

func (m *mockStore) eventTopics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var topics []string
	for _, e := range m.events {
		topics = append(topics, e.Topic)
	}
	return topics
}

// newTestServer returns a fresh server, its mock store, and an HTTP handler
// with auth disabled.
func newTestServer() (*ListingsServer, *mockStore, http.Handler) {
	ms := newMockStore()
	s := NewListingsServer(ms, &events.NoopPublisher{}, Options{})
	return s, ms, s.NewHTTPHandler("")
}

// seedProperty stores a property directly, bypassing the service layer.
func seedProperty(ms *mockStore, id string, featured bool, received time.Time) *model.Property {
	p := &model.Property{
		ID:         id,
		Title:      "Listing " + id,
		Address:    "1 Main St",
		Type:       model.PropertyTypeRetail,
		Price:      "450,000",
		Featured:   featured,
		ReceivedAt: received,
		CreatedAt:  received,
		UpdatedAt:  received,
	}
	ms.properties[id] = p
	return p
}

// doJSON performs an HTTP request with an optional JSON body and returns the recorder.
func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// requireStatus asserts the recorder has the expected HTTP status code.
func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, code int) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("expected status %d, got %d; body: %s", code, rec.Code, rec.Body.String())
	}
}

// decodeJSON decodes the recorder's response body into v.
func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestHandleHTTPErrors(t *testing.T) {
	for _, tc := range []struct {
		name      string
		method    string
		path      string
		body      any
		code      int
		wantError string
	}{
		{"CreateProperty/MissingTitle", "POST", "/v1/properties", map[string]any{"address": "1 Main"}, 400, "title: is required"},
		{"CreateProperty/BadImageURL", "POST", "/v1/properties", map[string]any{"title": "A", "address": "B", "image_url": "ftp://x"}, 400, "image_url"},
		{"CreateProperty/BadJSON", "POST", "/v1/properties", "not an object", 400, "invalid JSON body"},
		{"GetProperty/NotFound", "GET", "/v1/properties/prop-missing", nil, 404, "property not found"},
		{"UpdateProperty/NotFound", "PATCH", "/v1/properties/prop-missing", map[string]any{"title": "x"}, 404, "property not found"},
		{"DeleteProperty/NotFound", "DELETE", "/v1/properties/prop-missing", nil, 404, "property not found"},
		{"CreateBlogPost/MissingTitle", "POST", "/v1/blog", map[string]any{"content": "x"}, 400, "title"},
		{"GetBlogPost/NotFound", "GET", "/v1/blog/post-missing", nil, 404, "blog post not found"},
		{"DeleteBlogPost/NotFound", "DELETE", "/v1/blog/post-missing", nil, 404, "blog post not found"},
		{"BulkDelete/Empty", "POST", "/v1/blog/bulk-delete", map[string]any{"ids": []string{}}, 400, "no posts selected"},
		{"BulkDelete/Blank", "POST", "/v1/blog/bulk-delete", map[string]any{"ids": []string{" ", ""}}, 400, "no posts selected"},
		{"Webhook/EmptyBatch", "POST", "/v1/webhooks/properties", map[string]any{"properties": []any{}}, 400, "no properties given"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, _, h := newTestServer()
			rec := doJSON(t, h, tc.method, tc.path, tc.body)
			requireStatus(t, rec, tc.code)
			if tc.wantError != "" {
				var resp map[string]string
				decodeJSON(t, rec, &resp)
				if !strings.Contains(resp["error"], tc.wantError) {
					t.Fatalf("expected error containing %q, got %q", tc.wantError, resp["error"])
				}
			}
		})
	}
}

func TestHandleHealth(t *testing.T) {
	_, _, h := newTestServer()
	rec := doJSON(t, h, "GET", "/v1/health", nil)
	requireStatus(t, rec, http.StatusOK)

	var resp map[string]string
	decodeJSON(t, rec, &resp)
	if resp["status"] != "ok" {
		t.Fatalf("expected status=ok, got %v", resp)
	}
}

func TestHandlePropertyLifecycle(t *testing.T) {
	_, ms, h := newTestServer()

	rec := doJSON(t, h, "POST", "/v1/properties", map[string]any{
		"title":    "  Corner Retail  ",
		"address":  "12 Elm St",
		"type":     "Retail",
		"price":    "450,000",
		"featured": true,
	})
	requireStatus(t, rec, http.StatusCreated)
	var created model.Property
	decodeJSON(t, rec, &created)
	if !strings.HasPrefix(created.ID, "prop-") {
		t.Fatalf("expected prop- ID, got %q", created.ID)
	}
	if created.Title != "Corner Retail" {
		t.Fatalf("expected trimmed title, got %q", created.Title)
	}
	if created.ReceivedAt.IsZero() {
		t.Fatal("expected received_at to be stamped")
	}

	rec = doJSON(t, h, "GET", "/v1/properties/"+created.ID, nil)
	requireStatus(t, rec, http.StatusOK)
	var got map[string]any
	decodeJSON(t, rec, &got)
	if got["display_price"] != "$450,000" {
		t.Fatalf("expected display_price=$450,000, got %v", got["display_price"])
	}

	rec = doJSON(t, h, "PATCH", "/v1/properties/"+created.ID, map[string]any{"price": "$500,000", "featured": false})
	requireStatus(t, rec, http.StatusOK)
	var updated model.Property
	decodeJSON(t, rec, &updated)
	if updated.Price != "$500,000" || updated.Featured {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	rec = doJSON(t, h, "DELETE", "/v1/properties/"+created.ID, nil)
	requireStatus(t, rec, http.StatusNoContent)

	want := []string{events.TopicPropertyCreated, events.TopicPropertyUpdated, events.TopicPropertyDeleted}
	if got := ms.eventTopics(); !slices.Equal(got, want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
}

func TestHandleUpdateProperty_NoChangesSkipsEvent(t *testing.T) {
	_, ms, h := newTestServer()
	seedProperty(ms, "prop-1", false, time.Now())

	rec := doJSON(t, h, "PATCH", "/v1/properties/prop-1", map[string]any{"title": "Listing prop-1"})
	requireStatus(t, rec, http.StatusOK)
	if n := len(ms.eventTopics()); n != 0 {
		t.Fatalf("expected no events, got %d", n)
	}
}

func TestHandleListProperties(t *testing.T) {
	_, ms, h := newTestServer()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	seedProperty(ms, "prop-a", true, base)
	seedProperty(ms, "prop-b", false, base.Add(time.Hour))
	seedProperty(ms, "prop-c", true, base.Add(2*time.Hour)).Type = model.PropertyTypeOffice

	for _, tc := range []struct {
		name    string
		query   string
		wantIDs []string
		total   int
	}{
		{"All", "", []string{"prop-c", "prop-b", "prop-a"}, 3},
		{"Featured", "?featured=true", []string{"prop-c", "prop-a"}, 2},
		{"Type", "?type=Office", []string{"prop-c"}, 1},
		{"Paged", "?limit=1&offset=1", []string{"prop-b"}, 3},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, h, "GET", "/v1/properties"+tc.query, nil)
			requireStatus(t, rec, http.StatusOK)
			var resp struct {
				Properties []model.Property `json:"properties"`
				Total      int              `json:"total"`
			}
			decodeJSON(t, rec, &resp)
			var ids []string
			for _, p := range resp.Properties {
				ids = append(ids, p.ID)
			}
			if !slices.Equal(ids, tc.wantIDs) {
				t.Fatalf("expected %v, got %v", tc.wantIDs, ids)
			}
			if resp.Total != tc.total {
				t.Fatalf("expected total %d, got %d", tc.total, resp.Total)
			}
		})
	}
}

func TestHandleListProperties_EmptyIsArray(t *testing.T) {
	_, _, h := newTestServer()
	rec := doJSON(t, h, "GET", "/v1/properties", nil)
	requireStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"properties":[]`) {
		t.Fatalf("expected empty array, got %s", rec.Body.String())
	}
}

func TestHandleFeatured_Snapshot(t *testing.T) {
	s, ms, h := newTestServer()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"prop-1", "prop-2", "prop-3", "prop-4", "prop-5", "prop-6", "prop-7", "prop-8"} {
		seedProperty(ms, id, true, base.Add(time.Duration(i)*time.Minute))
	}
	seedProperty(ms, "prop-plain", false, base.Add(time.Hour))
	s.LoadFeatured(context.Background())

	rec := doJSON(t, h, "GET", "/v1/properties/featured", nil)
	requireStatus(t, rec, http.StatusOK)
	var resp struct {
		Properties []map[string]any `json:"properties"`
	}
	decodeJSON(t, rec, &resp)
	if len(resp.Properties) != 6 {
		t.Fatalf("expected 6 featured, got %d", len(resp.Properties))
	}
	if resp.Properties[0]["id"] != "prop-8" || resp.Properties[5]["id"] != "prop-3" {
		t.Fatalf("unexpected order: first=%v last=%v", resp.Properties[0]["id"], resp.Properties[5]["id"])
	}
	if resp.Properties[0]["display_price"] != "$450,000" {
		t.Fatalf("expected display_price, got %v", resp.Properties[0]["display_price"])
	}
}

func TestHandleFeatured_QueryFailureIsEmpty(t *testing.T) {
	s, ms, h := newTestServer()
	ms.featuredErr = sql.ErrConnDone
	s.LoadFeatured(context.Background())

	rec := doJSON(t, h, "GET", "/v1/properties/featured", nil)
	requireStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"properties":[]`) {
		t.Fatalf("expected empty list, got %s", rec.Body.String())
	}
}

func TestHandleGetEvents(t *testing.T) {
	_, ms, h := newTestServer()
	seedProperty(ms, "prop-1", false, time.Now())

	requireStatus(t, doJSON(t, h, "PATCH", "/v1/properties/prop-1", map[string]any{"title": "Renamed"}), http.StatusOK)

	rec := doJSON(t, h, "GET", "/v1/properties/prop-1/events", nil)
	requireStatus(t, rec, http.StatusOK)
	var resp struct {
		Events []model.Event `json:"events"`
	}
	decodeJSON(t, rec, &resp)
	if len(resp.Events) != 1 || resp.Events[0].Topic != events.TopicPropertyUpdated {
		t.Fatalf("unexpected events: %+v", resp.Events)
	}
	if resp.Events[0].Actor != "admin" {
		t.Fatalf("expected actor=admin, got %q", resp.Events[0].Actor)
	}
}

func TestHandleBlogLifecycle(t *testing.T) {
	_, ms, h := newTestServer()

	rec := doJSON(t, h, "POST", "/v1/blog", map[string]any{
		"title":    "Market update",
		"excerpt":  "Q1 numbers",
		"content":  "Vacancy is down.",
		"category": "Market",
	})
	requireStatus(t, rec, http.StatusCreated)
	var post model.BlogPost
	decodeJSON(t, rec, &post)
	if !strings.HasPrefix(post.ID, "post-") {
		t.Fatalf("expected post- ID, got %q", post.ID)
	}

	rec = doJSON(t, h, "PATCH", "/v1/blog/"+post.ID, map[string]any{"category": "News"})
	requireStatus(t, rec, http.StatusOK)

	rec = doJSON(t, h, "GET", "/v1/blog?category=News", nil)
	requireStatus(t, rec, http.StatusOK)
	var list struct {
		Posts []model.BlogPost `json:"posts"`
		Total int              `json:"total"`
	}
	decodeJSON(t, rec, &list)
	if list.Total != 1 || list.Posts[0].ID != post.ID {
		t.Fatalf("unexpected list: %+v", list)
	}

	requireStatus(t, doJSON(t, h, "DELETE", "/v1/blog/"+post.ID, nil), http.StatusNoContent)

	want := []string{events.TopicBlogCreated, events.TopicBlogUpdated, events.TopicBlogDeleted}
	if got := ms.eventTopics(); !slices.Equal(got, want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
}

func TestHandleBulkDeleteBlogPosts(t *testing.T) {
	_, ms, h := newTestServer()
	now := time.Now()
	for _, id := range []string{"post-1", "post-2", "post-3"} {
		ms.posts[id] = &model.BlogPost{ID: id, Title: id, CreatedAt: now}
	}

	rec := doJSON(t, h, "POST", "/v1/blog/bulk-delete", map[string]any{
		"ids": []string{"post-1", "post-3", "post-1", "post-missing"},
	})
	requireStatus(t, rec, http.StatusOK)
	var res bulkDeleteResult
	decodeJSON(t, rec, &res)
	if res.Deleted != 2 {
		t.Fatalf("expected 2 deleted, got %d", res.Deleted)
	}
	if !slices.Equal(res.Missing, []string{"post-missing"}) {
		t.Fatalf("expected missing [post-missing], got %v", res.Missing)
	}
	if _, ok := ms.posts["post-2"]; !ok {
		t.Fatal("post-2 should survive")
	}
	if n := len(ms.eventTopics()); n != 2 {
		t.Fatalf("expected one event per deleted post, got %d", n)
	}
}

func TestHTTPHandler_AuthRequired(t *testing.T) {
	s, _, _ := newTestServer()
	h := s.NewHTTPHandler("secret")

	requireStatus(t, doJSON(t, h, "GET", "/v1/properties", nil), http.StatusOK)
	requireStatus(t, doJSON(t, h, "GET", "/v1/auth/check", nil), http.StatusUnauthorized)
	requireStatus(t, doJSON(t, h, "POST", "/v1/blog", map[string]any{"title": "x"}), http.StatusUnauthorized)

	req := httptest.NewRequest("GET", "/v1/auth/check", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	requireStatus(t, rec, http.StatusOK)
}

func TestHTTPHandler_CORS(t *testing.T) {
	s, _, _ := newTestServer()
	h := s.NewHTTPHandler("", "https://example.com")

	req := httptest.NewRequest("GET", "/v1/properties", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	requireStatus(t, rec, http.StatusOK)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
		t.Fatalf("expected allowed origin header, got %q", got)
	}

	req = httptest.NewRequest("GET", "/v1/properties", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no CORS header for unknown origin, got %q", got)
	}
}

// jsonRequest builds a request with a JSON body.
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
