package postdump

import (
	"regexp"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hello, World!", "hello-world"},
		{"  Go 1.21 -- what's new?  ", "go-1-21-what-s-new"},
		{"Crème brûlée", "cr-me-br-l-e"},
		{"already-a-slug", "already-a-slug"},
		{"", "post"},
		{"!!!", "post"},
		{"日本語", "post"},
	}

	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSlugifyShape(t *testing.T) {
	shape := regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	for _, in := range []string{"A  B", "--x--", "tab\there", "ÄÖÜ ok", "a/b\\c", "123"} {
		got := Slugify(in)
		if !shape.MatchString(got) {
			t.Errorf("Slugify(%q) = %q has the wrong shape", in, got)
		}
		if again := Slugify(got); again != got {
			t.Errorf("Slugify not idempotent: %q -> %q", got, again)
		}
	}
}

func TestPostSlug(t *testing.T) {
	if got := PostSlug("Hello, World!", 12); got != "hello-world-12" {
		t.Errorf("got %q", got)
	}
	if got := PostSlug("", 7); got != "post-7" {
		t.Errorf("empty title: got %q", got)
	}
	if PostSlug("Same", 1) == PostSlug("same!", 2) {
		t.Errorf("different issues share a slug")
	}
}
