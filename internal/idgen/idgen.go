// Package idgen generates short, URL-safe record IDs backed by nanoid.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for the record kinds the site stores.
const (
	PropertyPrefix = "prop-"
	BlogPostPrefix = "post-"
)

// Alphabet defines the character set used for the random portion of the ID.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters generated (excluding the prefix).
var Length = 12

// Property returns a new property ID.
func Property() (string, error) {
	return WithPrefix(PropertyPrefix)
}

// BlogPost returns a new blog post ID.
func BlogPost() (string, error) {
	return WithPrefix(BlogPostPrefix)
}

// WithPrefix returns a new unique ID with the given prefix.
func WithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}
