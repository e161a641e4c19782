package comick

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"manhwatrack/pkg/utils"
)

// Client is a thin wrapper around the Comick proxy API. Every call is
// bounded by the HTTP client timeout and retried a fixed number of times;
// callers treat any returned error uniformly as "lookup failed this cycle".
type Client struct {
	HTTP       *http.Client
	BaseURL    string
	WebBase    string
	Retries    int
	RetryDelay time.Duration
}

func NewClient(cfg utils.ProxyConfig) *Client {
	return &Client{
		HTTP:       &http.Client{Timeout: 10 * time.Second},
		BaseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		WebBase:    strings.TrimRight(cfg.WebBase, "/"),
		Retries:    2,
		RetryDelay: time.Second,
	}
}

// SearchResult is one entry from either search endpoint variant.
type SearchResult struct {
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	CoverURL string `json:"cover_url"`
}

// ChapterEntry is one entry from the chapter listing endpoint. Chap is a
// FlexString because the upstream serves it as a string on some titles and
// a bare number on others.
type ChapterEntry struct {
	Chap  FlexString `json:"chap"`
	Title string     `json:"title"`
	HID   string     `json:"hid"`
}

type ComicDetail struct {
	HID      string `json:"hid"`
	CoverURL string `json:"cover_url"`
}

// Search queries the results-wrapped search variant (query=, limit=).
// Used by the slug resolver.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	var out struct {
		Results []SearchResult `json:"results"`
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("limit", fmt.Sprintf("%d", limit))
	if err := c.getJSON(ctx, "/v1.0/search", q, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// SearchTop queries the bare-array search variant (q=) and returns the top
// result. Used at add-time, where title and cover are needed.
func (c *Client) SearchTop(ctx context.Context, query string) (*SearchResult, error) {
	var out []SearchResult
	q := url.Values{}
	q.Set("q", query)
	q.Set("tachiyomi", "true")
	if err := c.getJSON(ctx, "/v1.0/search", q, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("search %q: no results", query)
	}
	return &out[0], nil
}

// Chapters lists the most recent chapters for a comic, identified by slug
// or hid.
func (c *Client) Chapters(ctx context.Context, id string, limit int) ([]ChapterEntry, error) {
	var out struct {
		Chapters []ChapterEntry `json:"chapters"`
	}
	q := url.Values{}
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("tachiyomi", "true")
	if err := c.getJSON(ctx, "/v1.0/comic/"+url.PathEscape(id)+"/chapters", q, &out); err != nil {
		return nil, err
	}
	return out.Chapters, nil
}

// Comic fetches the detail record holding the internal hid and cover URL.
func (c *Client) Comic(ctx context.Context, slug string) (*ComicDetail, error) {
	var out struct {
		Comic *ComicDetail `json:"comic"`
	}
	q := url.Values{}
	q.Set("tachiyomi", "true")
	if err := c.getJSON(ctx, "/v1.0/comic/"+url.PathEscape(slug), q, &out); err != nil {
		return nil, err
	}
	if out.Comic == nil {
		return nil, fmt.Errorf("comic %q: missing comic object", slug)
	}
	return out.Comic, nil
}

// ComicURL builds the public page link for a title.
func (c *Client) ComicURL(slug string) string {
	return fmt.Sprintf("%s/comic/%s", c.WebBase, slug)
}

// ChapterURL builds the public read link for a chapter. Always constructed
// locally; the API does not return it.
func (c *Client) ChapterURL(slug, chapterID string) string {
	return fmt.Sprintf("%s/comic/%s/chapter/%s", c.WebBase, slug, chapterID)
}

// getJSON performs a GET with bounded retries. Non-200 status, transport
// errors and malformed JSON are all treated the same: log, retry, and
// after the last attempt return the error.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= c.Retries+1; attempt++ {
		if attempt > 1 {
			if err := sleepCtx(ctx, c.RetryDelay); err != nil {
				return err
			}
		}

		lastErr = c.getJSONOnce(ctx, u, out)
		if lastErr == nil {
			return nil
		}
		log.Printf("[comick] %s failed (attempt %d/%d): %v", path, attempt, c.Retries+1, lastErr)
	}
	return lastErr
}

func (c *Client) getJSONOnce(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Tachiyomi/1.0")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// FlexString decodes a JSON string, number or null into a string.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}
