package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFormatPrice(t *testing.T) {
	for _, tc := range []struct {
		in, want string
	}{
		{"450,000", "$450,000"},
		{"$450,000", "$450,000"},
		{"", ""},
		{"Call for pricing", "$Call for pricing"},
		{"$", "$"},
	} {
		if got := FormatPrice(tc.in); got != tc.want {
			t.Errorf("FormatPrice(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestProperty_DisplayPrice(t *testing.T) {
	p := &Property{Price: "12/SF/YR"}
	if got := p.DisplayPrice(); got != "$12/SF/YR" {
		t.Errorf("DisplayPrice() = %q", got)
	}
}

func TestProperty_JSONFieldNames(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	p := Property{ID: "prop-1", ImageURL: "https://x/y.png", Featured: true, ReceivedAt: now}
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"id", "image_url", "featured", "received_at"} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing key %q in %s", key, data)
		}
	}
	if _, ok := m["mls"]; ok {
		t.Errorf("empty mls should be omitted: %s", data)
	}
}
