package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"manhwatrack/pkg/models"
)

// Repo records one row per chapter notification actually persisted, so a
// user can see what the tracker surfaced and when.
type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Add(ctx context.Context, e models.HistoryEntry) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO notify_history (user_id, manhwa_title, chapter, chapter_title, link, at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.UserID, e.Title, e.Chapter, e.ChapterTitle, e.Link, e.At)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

func (r *Repo) List(ctx context.Context, userID string, limit, offset int) ([]models.HistoryEntry, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notify_history WHERE user_id = ?
	`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count history: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, manhwa_title, chapter, chapter_title, link, at
		FROM notify_history
		WHERE user_id = ?
		ORDER BY at DESC
		LIMIT ? OFFSET ?
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	out := make([]models.HistoryEntry, 0, limit)
	for rows.Next() {
		var e models.HistoryEntry
		var chapterTitle, link sql.NullString
		var at time.Time

		if err := rows.Scan(&e.ID, &e.UserID, &e.Title, &e.Chapter, &chapterTitle, &link, &at); err != nil {
			return nil, 0, fmt.Errorf("scan history: %w", err)
		}
		e.ChapterTitle = chapterTitle.String
		e.Link = link.String
		e.At = at
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows history: %w", err)
	}

	return out, total, nil
}
