package feed

import "time"

// UpdateEvent is broadcast to connected feed clients whenever tracking
// state changes.
type UpdateEvent struct {
	Type    string    `json:"type"` // "tracking.add", "tracking.remove" or "chapter.new"
	UserID  string    `json:"user_id"`
	Title   string    `json:"title"`
	Slug    string    `json:"slug"`
	Chapter float64   `json:"chapter,omitempty"`
	At      time.Time `json:"at"`
}
