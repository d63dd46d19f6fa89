package events

import (
	"context"

	"github.com/raderre/cresite/internal/model"
)

// Event topic constants
const (
	TopicPropertyCreated = "cresite.property.created"
	TopicPropertyUpdated = "cresite.property.updated"
	TopicPropertyDeleted = "cresite.property.deleted"

	TopicBlogCreated = "cresite.blog.created"
	TopicBlogUpdated = "cresite.blog.updated"
	TopicBlogDeleted = "cresite.blog.deleted"

	// TopicAll matches every topic the server emits.
	TopicAll = "cresite.>"
)

// Event types

// PropertyCreated is emitted once per inserted listing row. The "new" key
// carries the full row as stored, mirroring a database insert notification.
type PropertyCreated struct {
	New *model.Property `json:"new"`
}

type PropertyUpdated struct {
	Property *model.Property `json:"property"`
	Changes  map[string]any  `json:"changes"` // field name -> new value
}

type PropertyDeleted struct {
	PropertyID string `json:"property_id"`
}

type BlogCreated struct {
	Post *model.BlogPost `json:"post"`
}

type BlogUpdated struct {
	Post    *model.BlogPost `json:"post"`
	Changes map[string]any  `json:"changes"`
}

type BlogDeleted struct {
	PostID string `json:"post_id"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
