// Package sync backs up listings and blog posts as JSONL to S3 or a git
// repository on a fixed schedule.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/raderre/cresite/internal/model"
)

// FormatVersion is written in the header record of every export.
const FormatVersion = "1"

// Source is the read side of the store that an export needs.
type Source interface {
	ListProperties(ctx context.Context, filter model.PropertyFilter) ([]*model.Property, int, error)
	ListBlogPosts(ctx context.Context, filter model.BlogFilter) ([]*model.BlogPost, int, error)
}

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version       string    `json:"version"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	PropertyCount int       `json:"property_count"`
	PostCount     int       `json:"post_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ExportJSONL writes every property and blog post as JSONL to w: one header
// line, then properties, then posts, each sorted by ID.
func ExportJSONL(ctx context.Context, s Source, w io.Writer) error {
	props, _, err := s.ListProperties(ctx, model.PropertyFilter{Sort: "created_at"})
	if err != nil {
		return fmt.Errorf("list properties: %w", err)
	}
	sort.Slice(props, func(i, j int) bool { return props[i].ID < props[j].ID })

	posts, _, err := s.ListBlogPosts(ctx, model.BlogFilter{})
	if err != nil {
		return fmt.Errorf("list blog posts: %w", err)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:       FormatVersion,
		Type:          "header",
		Timestamp:     time.Now().UTC(),
		PropertyCount: len(props),
		PostCount:     len(posts),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, p := range props {
		if err := enc.Encode(record{Type: "property", Data: p}); err != nil {
			return fmt.Errorf("encode property %s: %w", p.ID, err)
		}
	}
	for _, post := range posts {
		if err := enc.Encode(record{Type: "blog_post", Data: post}); err != nil {
			return fmt.Errorf("encode blog post %s: %w", post.ID, err)
		}
	}

	return nil
}
