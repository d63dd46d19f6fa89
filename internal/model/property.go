package model

import (
	"strings"
	"time"
)

// Property is a single commercial listing shown on the public site.
type Property struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Address     string    `json:"address"`
	Type        string    `json:"type"`
	Size        string    `json:"size"`
	Price       string    `json:"price"` // stored as entered; may or may not start with "$"
	ImageURL    string    `json:"image_url"`
	Description string    `json:"description"`
	Featured    bool      `json:"featured"`
	MLS         string    `json:"mls,omitempty"`
	ReceivedAt  time.Time `json:"received_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DisplayPrice returns the price with a leading "$" added when the stored
// value does not already carry one. An empty price stays empty.
func (p *Property) DisplayPrice() string {
	return FormatPrice(p.Price)
}

// FormatPrice prefixes s with "$" unless it already starts with one.
func FormatPrice(s string) string {
	if s == "" || strings.HasPrefix(s, "$") {
		return s
	}
	return "$" + s
}

// Well-known property types used by the admin forms. Types are free-form;
// these are only suggestions.
const (
	PropertyTypeRetail     = "Retail"
	PropertyTypeOffice     = "Office"
	PropertyTypeIndustrial = "Industrial"
	PropertyTypeLand       = "Land"
	PropertyTypeMultiUse   = "Mixed Use"
)
