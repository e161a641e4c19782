package models

import "time"

type HistoryEntry struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	Chapter      float64   `json:"chapter"`
	ChapterTitle string    `json:"chapter_title,omitempty"`
	Link         string    `json:"link,omitempty"`
	At           time.Time `json:"at"`
}
