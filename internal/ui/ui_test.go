package ui

import "testing"

func TestShouldUseColor(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want bool
	}{
		{"NO_COLOR wins", map[string]string{"NO_COLOR": "1", "CLICOLOR_FORCE": "1"}, false},
		{"CLICOLOR_FORCE", map[string]string{"NO_COLOR": "", "CLICOLOR_FORCE": "1"}, true},
		{"CLICOLOR=0", map[string]string{"NO_COLOR": "", "CLICOLOR_FORCE": "", "CLICOLOR": "0"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if got := ShouldUseColor(); got != tt.want {
				t.Fatalf("ShouldUseColor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRenderNoColor(t *testing.T) {
	saved := noColor
	t.Cleanup(func() { noColor = saved })

	ForceNoColor()
	if ColorEnabled() {
		t.Fatal("ColorEnabled should be false after ForceNoColor")
	}
	for _, fn := range []func(string) string{RenderAccent, RenderMuted, RenderCommand, RenderFeatured, RenderPrice, RenderError} {
		if got := fn("x"); got != "x" {
			t.Fatalf("expected plain text, got %q", got)
		}
	}
}

func TestRenderColor(t *testing.T) {
	saved := noColor
	t.Cleanup(func() { noColor = saved })

	noColor = false
	if got := RenderPrice("$1"); got != "\x1b[38;5;114m$1\x1b[0m" {
		t.Fatalf("RenderPrice = %q", got)
	}
	if got := RenderAccent(""); got != "" {
		t.Fatalf("empty input should stay empty, got %q", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"a longer title here", 10, "a longe..."},
		{"héllo wörld", 8, "héllo..."},
		{"abcdef", 2, "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Truncate(tt.in, tt.n); got != tt.want {
				t.Fatalf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
		})
	}
}
