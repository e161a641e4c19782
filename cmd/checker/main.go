package main

import (
	"context"
	"flag"
	"log"
	"time"

	"manhwatrack/internal/checker"
	"manhwatrack/internal/comick"
	"manhwatrack/internal/history"
	"manhwatrack/internal/notify"
	"manhwatrack/internal/tracking"
	"manhwatrack/pkg/database"
	"manhwatrack/pkg/models"
	"manhwatrack/pkg/utils"
)

// logNotifier prints summaries to stdout instead of pushing over UDP.
// Useful for cron-driven sweeps where no client is listening.
type logNotifier struct{}

func (logNotifier) Notify(userID string, updates []models.LatestChapter) error {
	msg := notify.BuildMessage(updates)
	log.Printf("[checker] %s: %d new chapter(s)", userID, msg.Count)
	for _, e := range msg.Entries {
		log.Printf("[checker]   %s chapter %s %s", e.Title, e.Chapter, e.Link)
	}
	return nil
}

func main() {
	timeout := flag.Duration("timeout", 10*time.Minute, "overall sweep timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	// Ensure schema exists
	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	checkCfg := utils.LoadCheckConfig()
	chk := &checker.Checker{
		Store:    tracking.NewRepo(db),
		Comick:   comick.NewClient(utils.LoadProxyConfig()),
		Notifier: logNotifier{},
		History:  history.NewRepo(db),
		Pacing:   checkCfg.Pacing,
	}

	if err := chk.RunAll(ctx); err != nil {
		log.Fatalf("sweep failed: %v", err)
	}
	log.Println("sweep complete")
}
