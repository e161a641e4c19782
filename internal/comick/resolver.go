package comick

import (
	"context"
	"fmt"
	"log"
)

// ResolveSlug returns the identifier currently valid for a tracked title.
// The stored slug is tried first: if it still yields at least one chapter
// it is returned unchanged, without a search call. Only on failure does a
// title search run, taking the top result. The upstream catalog re-slugs
// titles occasionally, so callers persist whatever comes back.
func (c *Client) ResolveSlug(ctx context.Context, title, currentSlug string) (string, error) {
	if currentSlug != "" {
		chapters, err := c.Chapters(ctx, currentSlug, 1)
		if err == nil && len(chapters) > 0 {
			return currentSlug, nil
		}
	}

	results, err := c.Search(ctx, title, 1)
	if err == nil && len(results) > 0 && results[0].Slug != "" {
		log.Printf("[comick] resolved slug for %q -> %s", title, results[0].Slug)
		return results[0].Slug, nil
	}

	return "", fmt.Errorf("resolve slug for %q: stored slug stale and search empty", title)
}
