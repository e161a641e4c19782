package comick

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"manhwatrack/pkg/models"
)

// ErrNoChapterNumber marks a chapter whose `chap` value is missing or not
// numeric. Such rows are always skipped — never coerced to 0, which would
// read as a regression and pin the row forever.
var ErrNoChapterNumber = errors.New("chapter has no numeric chapter value")

// LatestChapter fetches the most recent chapter for a comic keyed directly
// by slug. Used by on-demand checks after the slug has been resolved.
func (c *Client) LatestChapter(ctx context.Context, title, slug string) (*models.LatestChapter, error) {
	chapters, err := c.Chapters(ctx, slug, 1)
	if err != nil {
		return nil, err
	}
	if len(chapters) == 0 {
		return nil, fmt.Errorf("no chapters for %q", slug)
	}

	latest := chapters[0]
	num, err := chapterNumber(latest.Chap)
	if err != nil {
		return nil, fmt.Errorf("%q latest chapter: %w", slug, err)
	}

	return &models.LatestChapter{
		Title:        title,
		Slug:         slug,
		Chapter:      num,
		ChapterTitle: latest.Title,
		Link:         c.ChapterURL(slug, latest.HID),
	}, nil
}

// LatestChapterWithDetail is the detail-dereferencing variant used by the
// scheduled sweep. It fetches the comic detail (falling back to a title
// search when the stored slug is stale), takes the internal hid from it,
// then lists chapters by hid. The detail payload also carries the cover
// used as the notification header image. The returned Slug reflects any
// re-resolution, so callers can persist it.
func (c *Client) LatestChapterWithDetail(ctx context.Context, title, slug string) (*models.LatestChapter, error) {
	detail, err := c.Comic(ctx, slug)
	if err != nil {
		top, serr := c.SearchTop(ctx, title)
		if serr != nil || top.Slug == "" {
			return nil, fmt.Errorf("resolve %q: %w", title, err)
		}
		slug = top.Slug
		detail, err = c.Comic(ctx, slug)
		if err != nil {
			return nil, fmt.Errorf("detail for %q after re-resolve: %w", title, err)
		}
	}

	if detail.HID == "" {
		return nil, fmt.Errorf("no hid for %q", title)
	}

	chapters, err := c.Chapters(ctx, detail.HID, 1)
	if err != nil {
		return nil, err
	}
	if len(chapters) == 0 {
		return nil, fmt.Errorf("no chapters for %q", title)
	}

	latest := chapters[0]
	num, err := chapterNumber(latest.Chap)
	if err != nil {
		return nil, fmt.Errorf("%q latest chapter: %w", title, err)
	}

	return &models.LatestChapter{
		Title:        title,
		Slug:         slug,
		Chapter:      num,
		ChapterTitle: latest.Title,
		Link:         c.ChapterURL(slug, latest.HID),
		Cover:        detail.CoverURL,
	}, nil
}

func chapterNumber(raw FlexString) (float64, error) {
	if raw == "" {
		return 0, ErrNoChapterNumber
	}
	n, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, ErrNoChapterNumber
	}
	return n, nil
}
