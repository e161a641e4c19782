package checker

import (
	"context"
	"fmt"
	"log"
	"time"

	"manhwatrack/internal/feed"
	"manhwatrack/internal/notify"
	"manhwatrack/pkg/models"
)

// Store is the slice of the tracking repo the checker needs.
type Store interface {
	ListAll(ctx context.Context) ([]models.TrackedTitle, error)
	ListForUser(ctx context.Context, userID string) ([]models.TrackedTitle, error)
	UpdateProgress(ctx context.Context, userID, slug string, chapter float64, newSlug string) (bool, error)
	UpdateProgressIfUnchanged(ctx context.Context, userID, slug string, chapter float64, newSlug string, expectedPrev float64) (bool, error)
}

// Lookup is the slice of the Comick client the checker needs.
type Lookup interface {
	ResolveSlug(ctx context.Context, title, currentSlug string) (string, error)
	LatestChapter(ctx context.Context, title, slug string) (*models.LatestChapter, error)
	LatestChapterWithDetail(ctx context.Context, title, slug string) (*models.LatestChapter, error)
}

// History records persisted updates. Optional; failures are logged only.
type History interface {
	Add(ctx context.Context, e models.HistoryEntry) error
}

// Checker runs chapter check passes over tracked titles. One title's
// failure never aborts the rest of a pass, and one user's delivery
// failure never affects other users.
type Checker struct {
	Store    Store
	Comick   Lookup
	Notifier notify.Notifier
	History  History   // optional
	Feed     *feed.Hub // optional
	Pacing   time.Duration
}

// RunAll is the scheduled pass: every tracked row across all users.
// Only a failed read of the full tracking table aborts the pass.
func (c *Checker) RunAll(ctx context.Context) error {
	rows, err := c.Store.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("read tracking table: %w", err)
	}
	log.Printf("[checker] checking %d tracked titles", len(rows))

	pending := make(map[string][]models.LatestChapter)
	var order []string

	for _, row := range rows {
		info, err := c.Comick.LatestChapterWithDetail(ctx, row.Title, row.Slug)
		if err != nil {
			log.Printf("[checker] skipping %q for %s: %v", row.Title, row.UserID, err)
			continue
		}

		if info.Chapter <= row.LatestNotified {
			continue
		}

		// conditional write: if a concurrent on-demand check already
		// advanced this row, drop the notification instead of repeating it
		ok, err := c.Store.UpdateProgressIfUnchanged(ctx, row.UserID, row.Slug, info.Chapter, info.Slug, row.LatestNotified)
		if err != nil {
			log.Printf("[checker] persist %q for %s failed: %v", row.Title, row.UserID, err)
			continue
		}
		if !ok {
			log.Printf("[checker] %q for %s advanced concurrently, skipping", row.Title, row.UserID)
			continue
		}

		if _, seen := pending[row.UserID]; !seen {
			order = append(order, row.UserID)
		}
		pending[row.UserID] = append(pending[row.UserID], *info)
		c.recordUpdate(ctx, row.UserID, info)
	}

	log.Printf("[checker] sending updates to %d users", len(order))
	for i, userID := range order {
		if i > 0 {
			if err := sleepCtx(ctx, c.Pacing); err != nil {
				return err
			}
		}
		if err := c.Notifier.Notify(userID, pending[userID]); err != nil {
			log.Printf("[checker] notify %s failed: %v", userID, err)
		}
	}
	return nil
}

// RunForUser is the on-demand pass: one user's rows, results returned
// synchronously instead of pushed.
func (c *Checker) RunForUser(ctx context.Context, userID string) ([]models.LatestChapter, error) {
	rows, err := c.Store.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("read tracking rows: %w", err)
	}

	var updates []models.LatestChapter
	for _, row := range rows {
		slug, err := c.Comick.ResolveSlug(ctx, row.Title, row.Slug)
		if err != nil {
			log.Printf("[checker] %q: %v", row.Title, err)
			continue
		}

		info, err := c.Comick.LatestChapter(ctx, row.Title, slug)
		if err != nil {
			log.Printf("[checker] skipping %q: %v", row.Title, err)
			continue
		}

		if info.Chapter <= row.LatestNotified {
			continue
		}

		ok, err := c.Store.UpdateProgress(ctx, userID, row.Slug, info.Chapter, slug)
		if err != nil {
			log.Printf("[checker] persist %q failed: %v", row.Title, err)
			continue
		}
		if !ok {
			continue
		}

		updates = append(updates, *info)
		c.recordUpdate(ctx, userID, info)
	}

	return updates, nil
}

func (c *Checker) recordUpdate(ctx context.Context, userID string, info *models.LatestChapter) {
	if c.History != nil {
		err := c.History.Add(ctx, models.HistoryEntry{
			UserID:       userID,
			Title:        info.Title,
			Chapter:      info.Chapter,
			ChapterTitle: info.ChapterTitle,
			Link:         info.Link,
		})
		if err != nil {
			log.Printf("[checker] history for %q failed: %v", info.Title, err)
		}
	}
	if c.Feed != nil {
		c.Feed.Broadcast(feed.UpdateEvent{
			Type:    "chapter.new",
			UserID:  userID,
			Title:   info.Title,
			Slug:    info.Slug,
			Chapter: info.Chapter,
			At:      time.Now().UTC(),
		})
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
