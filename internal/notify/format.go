package notify

import (
	"fmt"
	"math"
	"strconv"

	"manhwatrack/pkg/models"
)

// Message is the per-user summary pushed after a check pass. One message
// covers every chapter that advanced for that user since the last check.
type Message struct {
	Type    string  `json:"type"`
	Count   int     `json:"count"`
	Summary string  `json:"summary"`
	Cover   string  `json:"cover,omitempty"`
	Entries []Entry `json:"entries"`
}

type Entry struct {
	Title        string `json:"title"`
	Chapter      string `json:"chapter"`
	ChapterTitle string `json:"chapter_title,omitempty"`
	Link         string `json:"link"`
}

const NewChaptersMessageType = "new_chapters"

// FormatChapter renders a chapter number the way readers write them:
// integral chapters without a decimal point, side chapters with one.
func FormatChapter(n float64) string {
	if n == math.Trunc(n) {
		return strconv.FormatFloat(n, 'f', 0, 64)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// BuildMessage renders one summary for a user's pending updates. The cover
// of the first update doubles as the header image.
func BuildMessage(updates []models.LatestChapter) Message {
	msg := Message{
		Type:    NewChaptersMessageType,
		Count:   len(updates),
		Summary: fmt.Sprintf("%d new chapter(s) since last check", len(updates)),
		Entries: make([]Entry, 0, len(updates)),
	}
	if len(updates) > 0 {
		msg.Cover = updates[0].Cover
	}
	for _, u := range updates {
		msg.Entries = append(msg.Entries, Entry{
			Title:        u.Title,
			Chapter:      FormatChapter(u.Chapter),
			ChapterTitle: u.ChapterTitle,
			Link:         u.Link,
		})
	}
	return msg
}
