package checkpoint

import (
	"strings"
	"testing"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		name string
		hint string
		want string
	}{
		{
			name: "simple phrase",
			hint: "Fix Auth Token Refresh",
			want: "fix-auth-token-refresh",
		},
		{
			name: "punctuation collapses",
			hint: "auth: token / refresh!!",
			want: "auth-token-refresh",
		},
		{
			name: "already a slug",
			hint: "fix-auth",
			want: "fix-auth",
		},
		{
			name: "leading and trailing junk",
			hint: "  --compaction design--  ",
			want: "compaction-design",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slug(tt.hint); got != tt.want {
				t.Errorf("Slug(%q) = %q, want %q", tt.hint, got, tt.want)
			}
		})
	}
}

func TestSlugDeterministic(t *testing.T) {
	if Slug("HIPAA compliance scan") != Slug("HIPAA compliance scan") {
		t.Fatal("Expected identical hints to produce identical slugs")
	}
}

func TestSlugTruncates(t *testing.T) {
	long := strings.Repeat("=very long topic ", 10)
	s := Slug(long)
	if len(s) > maxSlugLen {
		t.Errorf("Expected slug of at most %d chars, got %d", maxSlugLen, len(s))
	}
	if strings.HasPrefix(s, "-") || strings.HasSuffix(s, "-") {
		t.Errorf("Expected trimmed slug, got %q", s)
	}
}

func TestSlugNoUsableCharacters(t *testing.T) {
	s := Slug("!!!")
	if s == "" {
		t.Fatal("Expected non-empty fallback slug")
	}
	if s != Slug("!!!") {
		t.Fatal("Expected fallback slug to be deterministic")
	}
	if s == Slug("???") {
		t.Error("Expected different hints to produce different fallback slugs")
	}
}
