package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"manhwatrack/pkg/database"
)

func main() {
	var (
		savedOut    = flag.String("saved", "data/saved_manhwas.csv", "output CSV path for saved manhwas")
		trackingOut = flag.String("tracking", "data/chapter_tracking.csv", "output CSV path for chapter tracking")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	if err := exportSaved(ctx, db, *savedOut); err != nil {
		log.Fatalf("export saved manhwas failed: %v", err)
	}
	if err := exportTracking(ctx, db, *trackingOut); err != nil {
		log.Fatalf("export tracking failed: %v", err)
	}

	log.Printf("✅ exported saved manhwas to %s and tracking to %s", *savedOut, *trackingOut)
}

func exportSaved(ctx context.Context, db *sql.DB, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"user_id", "title", "cover", "link"}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
        SELECT user_id, title, cover, link
        FROM manhwas
        ORDER BY user_id, title
    `)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			userID string
			title  string
			cover  sql.NullString
			link   string
		)

		if err := rows.Scan(&userID, &title, &cover, &link); err != nil {
			return err
		}

		if err := w.Write([]string{userID, title, cover.String, link}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

func exportTracking(ctx context.Context, db *sql.DB, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"user_id", "manhwa_title", "manhwa_slug", "latest_chapter_notified", "last_notified_time"}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
        SELECT user_id, manhwa_title, manhwa_slug, latest_chapter_notified, last_notified_time
        FROM chapter_tracking
        ORDER BY last_notified_time DESC
    `)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			userID       string
			title        string
			slug         string
			chapter      float64
			lastNotified sql.NullTime
		)

		if err := rows.Scan(&userID, &title, &slug, &chapter, &lastNotified); err != nil {
			return err
		}

		last := ""
		if lastNotified.Valid {
			last = lastNotified.Time.Format(time.RFC3339)
		}

		if err := w.Write([]string{
			userID,
			title,
			slug,
			strconv.FormatFloat(chapter, 'f', -1, 64),
			last,
		}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}
