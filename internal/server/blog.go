package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/raderre/cresite/internal/events"
	"github.com/raderre/cresite/internal/idgen"
	"github.com/raderre/cresite/internal/model"
)

type blogInput struct {
	Title    string `json:"title"`
	Excerpt  string `json:"excerpt"`
	Content  string `json:"content"`
	ImageURL string `json:"image_url"`
	Category string `json:"category"`
}

type updateBlogInput struct {
	Title    *string `json:"title"`
	Excerpt  *string `json:"excerpt"`
	Content  *string `json:"content"`
	ImageURL *string `json:"image_url"`
	Category *string `json:"category"`
}

// bulkDeleteResult reports which posts a bulk delete removed.
type bulkDeleteResult struct {
	Deleted int      `json:"deleted"`
	Missing []string `json:"missing"`
}

func (s *ListingsServer) createBlogPost(ctx context.Context, actor string, in blogInput) (*model.BlogPost, error) {
	now := s.now()
	post := &model.BlogPost{
		Title:     strings.TrimSpace(in.Title),
		Excerpt:   strings.TrimSpace(in.Excerpt),
		Content:   in.Content,
		ImageURL:  strings.TrimSpace(in.ImageURL),
		Category:  strings.TrimSpace(in.Category),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := model.ValidateBlogPost(post); err != nil {
		return nil, inputError("invalid blog post: " + err.Error())
	}

	id, err := idgen.BlogPost()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ID: %w", err)
	}
	post.ID = id

	if err := s.store.CreateBlogPost(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create blog post: %w", err)
	}

	s.recordAndPublish(ctx, events.TopicBlogCreated, post.ID, actor, events.BlogCreated{Post: post})
	return post, nil
}

func (s *ListingsServer) updateBlogPost(ctx context.Context, id, actor string, in updateBlogInput) (*model.BlogPost, error) {
	post, err := s.store.GetBlogPost(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := make(map[string]any)
	apply := func(field string, dst *string, v *string) {
		if v == nil {
			return
		}
		val := *v
		if field != "content" {
			val = strings.TrimSpace(val)
		}
		if *dst != val {
			*dst = val
			changes[field] = val
		}
	}
	apply("title", &post.Title, in.Title)
	apply("excerpt", &post.Excerpt, in.Excerpt)
	apply("content", &post.Content, in.Content)
	apply("image_url", &post.ImageURL, in.ImageURL)
	apply("category", &post.Category, in.Category)

	if len(changes) == 0 {
		return post, nil
	}
	if err := model.ValidateBlogPost(post); err != nil {
		return nil, inputError("invalid blog post: " + err.Error())
	}

	post.UpdatedAt = s.now()
	if err := s.store.UpdateBlogPost(ctx, post); err != nil {
		return nil, err
	}

	s.recordAndPublish(ctx, events.TopicBlogUpdated, post.ID, actor, events.BlogUpdated{Post: post, Changes: changes})
	return post, nil
}

func (s *ListingsServer) deleteBlogPost(ctx context.Context, id, actor string) error {
	if err := s.store.DeleteBlogPost(ctx, id); err != nil {
		return err
	}
	s.recordAndPublish(ctx, events.TopicBlogDeleted, id, actor, events.BlogDeleted{PostID: id})
	return nil
}

// deleteBlogPosts removes the selected posts in one statement. IDs that did
// not exist are reported as missing rather than failing the batch.
func (s *ListingsServer) deleteBlogPosts(ctx context.Context, actor string, ids []string) (*bulkDeleteResult, error) {
	seen := make(map[string]bool, len(ids))
	var unique []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return nil, inputError("no posts selected")
	}

	deleted, err := s.store.DeleteBlogPosts(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("failed to delete blog posts: %w", err)
	}

	gone := make(map[string]bool, len(deleted))
	for _, id := range deleted {
		gone[id] = true
		s.recordAndPublish(ctx, events.TopicBlogDeleted, id, actor, events.BlogDeleted{PostID: id})
	}
	res := &bulkDeleteResult{Deleted: len(deleted), Missing: []string{}}
	for _, id := range unique {
		if !gone[id] {
			res.Missing = append(res.Missing, id)
		}
	}
	return res, nil
}
