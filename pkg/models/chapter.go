package models

// LatestChapter is the transient result of a chapter lookup. Produced
// fresh on every check, never persisted.
type LatestChapter struct {
	Title        string  `json:"title"`
	Slug         string  `json:"slug"`
	Chapter      float64 `json:"chapter"`
	ChapterTitle string  `json:"chapter_title,omitempty"`
	Link         string  `json:"link"`
	Cover        string  `json:"cover,omitempty"`
}
