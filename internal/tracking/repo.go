package tracking

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"manhwatrack/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Add stores the denormalized listing row and the tracking row for one
// successful add, in a single transaction. The tracking insert is
// INSERT OR IGNORE on UNIQUE(user_id, manhwa_slug): adding a title twice
// never resets existing progress.
func (r *Repo) Add(ctx context.Context, m models.SavedManhwa, slug string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO manhwas (user_id, title, cover, link)
		VALUES (?, ?, ?, ?)
	`, m.UserID, m.Title, m.Cover, m.Link); err != nil {
		return fmt.Errorf("insert manhwa: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO chapter_tracking (user_id, manhwa_title, manhwa_slug, latest_chapter_notified)
		VALUES (?, ?, ?, 0)
	`, m.UserID, m.Title, slug); err != nil {
		return fmt.Errorf("insert tracking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit add: %w", err)
	}
	return nil
}

func (r *Repo) ListAll(ctx context.Context) ([]models.TrackedTitle, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT user_id, manhwa_title, manhwa_slug, latest_chapter_notified, last_notified_time
		FROM chapter_tracking
		ORDER BY user_id, manhwa_title
	`)
	if err != nil {
		return nil, fmt.Errorf("list tracking: %w", err)
	}
	defer rows.Close()
	return scanTracked(rows)
}

func (r *Repo) ListForUser(ctx context.Context, userID string) ([]models.TrackedTitle, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT user_id, manhwa_title, manhwa_slug, latest_chapter_notified, last_notified_time
		FROM chapter_tracking
		WHERE user_id = ?
		ORDER BY manhwa_title
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list tracking for user: %w", err)
	}
	defer rows.Close()
	return scanTracked(rows)
}

// UpdateProgress overwrites the stored chapter number, refreshes the slug
// (self-healing after a resolver fallback) and stamps the current time.
// The write is guarded to be monotonic: an equal or lower chapter value
// leaves the row untouched and returns false.
func (r *Repo) UpdateProgress(ctx context.Context, userID, slug string, chapter float64, newSlug string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE chapter_tracking
		SET latest_chapter_notified = ?, manhwa_slug = ?, last_notified_time = CURRENT_TIMESTAMP
		WHERE user_id = ? AND manhwa_slug = ? AND latest_chapter_notified < ?
	`, chapter, newSlug, userID, slug, chapter)
	if err != nil {
		return false, fmt.Errorf("update progress: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// UpdateProgressIfUnchanged is the conditional form used by the scheduled
// sweep: the row is only written when the stored value still equals what
// the sweep read before comparing. A false return means another writer
// (typically a concurrent on-demand check) got there first.
func (r *Repo) UpdateProgressIfUnchanged(ctx context.Context, userID, slug string, chapter float64, newSlug string, expectedPrev float64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE chapter_tracking
		SET latest_chapter_notified = ?, manhwa_slug = ?, last_notified_time = CURRENT_TIMESTAMP
		WHERE user_id = ? AND manhwa_slug = ? AND latest_chapter_notified = ?
	`, chapter, newSlug, userID, slug, expectedPrev)
	if err != nil {
		return false, fmt.Errorf("conditional update progress: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *Repo) ListSaved(ctx context.Context, userID string) ([]models.SavedManhwa, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT user_id, title, cover, link
		FROM manhwas
		WHERE user_id = ?
		ORDER BY title
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list saved: %w", err)
	}
	defer rows.Close()

	var out []models.SavedManhwa
	for rows.Next() {
		var m models.SavedManhwa
		var cover sql.NullString
		if err := rows.Scan(&m.UserID, &m.Title, &cover, &m.Link); err != nil {
			return nil, fmt.Errorf("scan saved row: %w", err)
		}
		m.Cover = cover.String
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("saved rows: %w", err)
	}
	return out, nil
}

// Remove deletes the tracking row for (user, slug) and its listing row,
// matched by the tracked title. Returns false when nothing was tracked
// under that slug.
func (r *Repo) Remove(ctx context.Context, userID, slug string) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin remove: %w", err)
	}
	defer tx.Rollback()

	var title string
	err = tx.QueryRowContext(ctx, `
		SELECT manhwa_title FROM chapter_tracking
		WHERE user_id = ? AND manhwa_slug = ?
	`, userID, slug).Scan(&title)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup tracked title: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM chapter_tracking WHERE user_id = ? AND manhwa_slug = ?
	`, userID, slug); err != nil {
		return false, fmt.Errorf("delete tracking: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM manhwas WHERE user_id = ? AND title = ?
	`, userID, title); err != nil {
		return false, fmt.Errorf("delete manhwa: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit remove: %w", err)
	}
	return true, nil
}

func scanTracked(rows *sql.Rows) ([]models.TrackedTitle, error) {
	var out []models.TrackedTitle
	for rows.Next() {
		var t models.TrackedTitle
		var at time.Time
		if err := rows.Scan(&t.UserID, &t.Title, &t.Slug, &t.LatestNotified, &at); err != nil {
			return nil, fmt.Errorf("scan tracking row: %w", err)
		}
		t.LastNotifiedTime = at
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tracking rows: %w", err)
	}
	return out, nil
}
