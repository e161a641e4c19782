package notify

import (
	"testing"

	"manhwatrack/pkg/models"
)

func TestFormatChapter(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{6, "6"},
		{12.5, "12.5"},
		{0, "0"},
		{100, "100"},
		{11.25, "11.25"},
	}
	for _, tc := range cases {
		if got := FormatChapter(tc.in); got != tc.want {
			t.Errorf("FormatChapter(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBuildMessage(t *testing.T) {
	updates := []models.LatestChapter{
		{
			Title:        "Solo Leveling",
			Chapter:      6,
			ChapterTitle: "Arise",
			Link:         "https://comick.dev/comic/solo-leveling/chapter/c6",
			Cover:        "https://img/cover.jpg",
		},
		{
			Title:   "Omniscient Reader",
			Chapter: 12.5,
			Link:    "https://comick.dev/comic/omniscient-reader/chapter/c12",
		},
	}

	msg := BuildMessage(updates)
	if msg.Type != NewChaptersMessageType {
		t.Errorf("type = %q", msg.Type)
	}
	if msg.Count != 2 {
		t.Errorf("count = %d, want 2", msg.Count)
	}
	if msg.Cover != "https://img/cover.jpg" {
		t.Errorf("cover should come from the first update, got %q", msg.Cover)
	}
	if msg.Entries[0].Chapter != "6" {
		t.Errorf("integral chapter rendered as %q", msg.Entries[0].Chapter)
	}
	if msg.Entries[0].ChapterTitle != "Arise" {
		t.Errorf("chapter title = %q", msg.Entries[0].ChapterTitle)
	}
	if msg.Entries[1].Chapter != "12.5" {
		t.Errorf("fractional chapter rendered as %q", msg.Entries[1].Chapter)
	}
	if msg.Entries[1].ChapterTitle != "" {
		t.Errorf("missing chapter title should stay empty, got %q", msg.Entries[1].ChapterTitle)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	if r.Lookup("u1") != nil {
		t.Fatal("empty registry should return nil")
	}

	r.Register("", nil) // no-op
	if len(r.clients) != 0 {
		t.Fatal("invalid registration should be ignored")
	}
}
