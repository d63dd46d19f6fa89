// Package store defines the persistence boundary for listings, blog posts
// and the event log.
package store

import (
	"context"

	"github.com/raderre/cresite/internal/model"
)

// Store defines the persistence interface for the site.
//
// Getters and mutators of a single row return sql.ErrNoRows when the row
// does not exist.
type Store interface {
	// Properties
	CreateProperty(ctx context.Context, p *model.Property) error
	GetProperty(ctx context.Context, id string) (*model.Property, error)
	ListProperties(ctx context.Context, filter model.PropertyFilter) ([]*model.Property, int, error) // returns properties, total count, error
	UpdateProperty(ctx context.Context, p *model.Property) error
	DeleteProperty(ctx context.Context, id string) error

	// FeaturedProperties returns at most limit featured properties, newest
	// received_at first.
	FeaturedProperties(ctx context.Context, limit int) ([]*model.Property, error)

	// Blog posts
	CreateBlogPost(ctx context.Context, post *model.BlogPost) error
	GetBlogPost(ctx context.Context, id string) (*model.BlogPost, error)
	ListBlogPosts(ctx context.Context, filter model.BlogFilter) ([]*model.BlogPost, int, error)
	UpdateBlogPost(ctx context.Context, post *model.BlogPost) error
	DeleteBlogPost(ctx context.Context, id string) error
	// DeleteBlogPosts removes every listed post and returns the IDs that
	// were actually deleted.
	DeleteBlogPosts(ctx context.Context, ids []string) ([]string, error)

	// Events
	RecordEvent(ctx context.Context, event *model.Event) error
	GetEvents(ctx context.Context, subjectID string) ([]*model.Event, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
