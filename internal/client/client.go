// Package client talks to a cresite server. HTTPClient covers the whole
// REST API; SSESubscriber and GRPCClient also plug into internal/feed so
// the CLI can follow the featured list live.
package client

import (
	"context"

	"github.com/raderre/cresite/internal/model"
)

// ListingsClient is the interface the CLI commands use to reach the server.
type ListingsClient interface {
	// Properties
	ListProperties(ctx context.Context, req *ListPropertiesRequest) (*ListPropertiesResponse, error)
	GetProperty(ctx context.Context, id string) (*model.Property, error)
	CreateProperty(ctx context.Context, req *PropertyRequest) (*model.Property, error)
	UpdateProperty(ctx context.Context, id string, req *UpdatePropertyRequest) (*model.Property, error)
	DeleteProperty(ctx context.Context, id string) error
	FeaturedProperties(ctx context.Context, limit int) ([]*model.Property, error)
	GetEvents(ctx context.Context, propertyID string) ([]*model.Event, error)

	// Blog
	ListBlogPosts(ctx context.Context, req *ListBlogPostsRequest) (*ListBlogPostsResponse, error)
	GetBlogPost(ctx context.Context, id string) (*model.BlogPost, error)
	CreateBlogPost(ctx context.Context, req *BlogPostRequest) (*model.BlogPost, error)
	UpdateBlogPost(ctx context.Context, id string, req *UpdateBlogPostRequest) (*model.BlogPost, error)
	DeleteBlogPost(ctx context.Context, id string) error
	DeleteBlogPosts(ctx context.Context, ids []string) (*BulkDeleteResponse, error)

	// Auth
	CheckAuth(ctx context.Context) error

	// Health
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// PropertyRequest holds the fields of a new property.
type PropertyRequest struct {
	Title       string `json:"title"`
	Address     string `json:"address"`
	Type        string `json:"type,omitempty"`
	Size        string `json:"size,omitempty"`
	Price       string `json:"price,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Description string `json:"description,omitempty"`
	Featured    bool   `json:"featured"`
	MLS         string `json:"mls,omitempty"`
}

// UpdatePropertyRequest holds optional property fields.
// Nil pointer fields mean "don't change".
type UpdatePropertyRequest struct {
	Title       *string `json:"title,omitempty"`
	Address     *string `json:"address,omitempty"`
	Type        *string `json:"type,omitempty"`
	Size        *string `json:"size,omitempty"`
	Price       *string `json:"price,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
	Description *string `json:"description,omitempty"`
	Featured    *bool   `json:"featured,omitempty"`
	MLS         *string `json:"mls,omitempty"`
}

// ListPropertiesRequest holds parameters for listing properties.
type ListPropertiesRequest struct {
	Type     []string `json:"type,omitempty"`
	Featured *bool    `json:"featured,omitempty"`
	Search   string   `json:"search,omitempty"`
	Sort     string   `json:"sort,omitempty"`
	Limit    int      `json:"limit,omitempty"`
	Offset   int      `json:"offset,omitempty"`
}

// ListPropertiesResponse is the response from ListProperties.
type ListPropertiesResponse struct {
	Properties []*model.Property `json:"properties"`
	Total      int               `json:"total"`
}

// BlogPostRequest holds the fields of a new blog post.
type BlogPostRequest struct {
	Title    string `json:"title"`
	Excerpt  string `json:"excerpt,omitempty"`
	Content  string `json:"content"`
	ImageURL string `json:"image_url,omitempty"`
	Category string `json:"category"`
}

// UpdateBlogPostRequest holds optional blog post fields.
type UpdateBlogPostRequest struct {
	Title    *string `json:"title,omitempty"`
	Excerpt  *string `json:"excerpt,omitempty"`
	Content  *string `json:"content,omitempty"`
	ImageURL *string `json:"image_url,omitempty"`
	Category *string `json:"category,omitempty"`
}

// ListBlogPostsRequest holds parameters for listing blog posts.
type ListBlogPostsRequest struct {
	Category string `json:"category,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// ListBlogPostsResponse is the response from ListBlogPosts.
type ListBlogPostsResponse struct {
	Posts []*model.BlogPost `json:"posts"`
	Total int               `json:"total"`
}

// BulkDeleteResponse reports the outcome of DeleteBlogPosts.
type BulkDeleteResponse struct {
	Deleted int      `json:"deleted"`
	Missing []string `json:"missing"`
}
