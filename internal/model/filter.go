package model

// PropertyFilter holds criteria for querying properties.
type PropertyFilter struct {
	Type     []string `json:"type,omitempty"`
	Featured *bool    `json:"featured,omitempty"`
	Search   string   `json:"search,omitempty"` // matches title, address and description
	Sort     string   `json:"sort,omitempty"`   // e.g. "-received_at", "title"; prefix "-" = descending
	Limit    int      `json:"limit,omitempty"`
	Offset   int      `json:"offset,omitempty"`
}

// BlogFilter holds criteria for querying blog posts.
type BlogFilter struct {
	Category string `json:"category,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}
