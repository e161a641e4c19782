package models

import "time"

// TrackedTitle is one (user, title) subscription row in chapter_tracking.
// Slug is the last-known Comick identifier and may go stale when the
// upstream catalog re-slugs a title; the resolver self-heals it.
type TrackedTitle struct {
	UserID           string    `json:"user_id"`
	Title            string    `json:"title"`
	Slug             string    `json:"slug"`
	LatestNotified   float64   `json:"latest_chapter_notified"`
	LastNotifiedTime time.Time `json:"last_notified_time"`
}

// SavedManhwa is the denormalized listing record created alongside a
// tracking row at add-time. Used for presentation only.
type SavedManhwa struct {
	UserID string `json:"user_id"`
	Title  string `json:"title"`
	Cover  string `json:"cover,omitempty"`
	Link   string `json:"link"`
}
