package sync

import (
	"context"
	"errors"
	"strings"

	"github.com/raderre/cresite/internal/model"
)

// fakeSource is an in-memory Source for exporter and scheduler tests.
type fakeSource struct {
	properties []*model.Property
	posts      []*model.BlogPost

	propErr error
	blogErr error

	// lastPropFilter records the filter of the most recent ListProperties call.
	lastPropFilter model.PropertyFilter
}

func (f *fakeSource) ListProperties(_ context.Context, filter model.PropertyFilter) ([]*model.Property, int, error) {
	f.lastPropFilter = filter
	if f.propErr != nil {
		return nil, 0, f.propErr
	}
	out := make([]*model.Property, len(f.properties))
	copy(out, f.properties)
	return out, len(out), nil
}

func (f *fakeSource) ListBlogPosts(_ context.Context, _ model.BlogFilter) ([]*model.BlogPost, int, error) {
	if f.blogErr != nil {
		return nil, 0, f.blogErr
	}
	out := make([]*model.BlogPost, len(f.posts))
	copy(out, f.posts)
	return out, len(out), nil
}

var errBoom = errors.New("boom")

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
