package textutil_test

import (
	"fmt"
	"testing"
	"time"

	"drn/internal/textutil"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"punctuation collapses", "AI Declares Independence!", "ai-declares-independence"},
		{"leading and trailing stripped", "--Hello, World--", "hello-world"},
		{"runs collapse to one hyphen", "a   b???c", "a-b-c"},
		{"accents fold to ascii", "Café Olé", "cafe-ole"},
		{"digits kept", "Top 10 Stories of 2026", "top-10-stories-of-2026"},
		{"empty input", "!!!", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := textutil.Slugify(tc.input); got != tc.want {
				t.Fatalf("Slugify(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestPostSlugAppendsTimestamp(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	want := fmt.Sprintf("ai-declares-independence-%d", created.UnixMilli())
	if got := textutil.PostSlug("AI Declares Independence!", created); got != want {
		t.Fatalf("PostSlug = %q, want %q", got, want)
	}
}

func TestPostSlugEmptyTitleFallsBackToTimestamp(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	want := fmt.Sprintf("%d", created.UnixMilli())
	if got := textutil.PostSlug("???", created); got != want {
		t.Fatalf("PostSlug = %q, want %q", got, want)
	}
}

func TestSanitizeFileName(t *testing.T) {
	if got := textutil.SanitizeFileName("press photo: launch/day*1.jpg"); got != "press_photo-_launch-day-1.jpg" {
		t.Fatalf("SanitizeFileName = %q", got)
	}
	if got := textutil.SanitizeFileName("  "); got != "" {
		t.Fatalf("expected empty result, got %q", got)
	}
}
