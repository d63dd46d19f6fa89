package model

import (
	"net/url"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ValidateProperty checks a Property for constraint violations.
// It returns a *ValidationError if any rules fail, or nil if the property is valid.
func ValidateProperty(p *Property) error {
	var ve ValidationError

	title := strings.TrimSpace(p.Title)
	if title == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "title", Message: "is required"})
	} else if len([]rune(title)) > 300 {
		ve.Errors = append(ve.Errors, FieldError{Field: "title", Message: "must be 300 characters or fewer"})
	}

	if strings.TrimSpace(p.Address) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "address", Message: "is required"})
	}

	if p.ImageURL != "" && !validURL(p.ImageURL) {
		ve.Errors = append(ve.Errors, FieldError{Field: "image_url", Message: "must be an absolute http(s) URL"})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// ValidateBlogPost checks a BlogPost for constraint violations.
func ValidateBlogPost(b *BlogPost) error {
	var ve ValidationError

	title := strings.TrimSpace(b.Title)
	if title == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "title", Message: "is required"})
	} else if len([]rune(title)) > 300 {
		ve.Errors = append(ve.Errors, FieldError{Field: "title", Message: "must be 300 characters or fewer"})
	}

	if strings.TrimSpace(b.Content) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "content", Message: "is required"})
	}

	if strings.TrimSpace(b.Category) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "category", Message: "is required"})
	}

	if b.ImageURL != "" && !validURL(b.ImageURL) {
		ve.Errors = append(ve.Errors, FieldError{Field: "image_url", Message: "must be an absolute http(s) URL"})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

func validURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
