// Package tagpro provides a minimal client for the public match archive that
// publishes sitemaps and bulk match exports.
package tagpro

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the root of the public match archive.
const DefaultBaseURL = "https://tagpro.eu"

// ErrNoMatches is returned when a sitemap lists no match pages.
var ErrNoMatches = errors.New("sitemap lists no matches")

// Client talks to the match archive.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client rooted at baseURL, or DefaultBaseURL when empty.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Minute},
	}
}

// get performs a GET against the archive and returns the open response body.
// The caller closes it.
func (c *Client) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: HTTP %d", rawURL, resp.StatusCode)
	}
	return resp.Body, nil
}

// lastLoc returns the final <loc> entry of a sitemap or sitemap index.
func (c *Client) lastLoc(ctx context.Context, rawURL string) (string, error) {
	body, err := c.get(ctx, rawURL)
	if err != nil {
		return "", err
	}
	defer body.Close()

	var last string
	dec := xml.NewDecoder(body)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode %s: %w", rawURL, err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "loc" {
			continue
		}
		var loc string
		if err := dec.DecodeElement(&loc, &se); err != nil {
			return "", fmt.Errorf("decode %s: %w", rawURL, err)
		}
		last = strings.TrimSpace(loc)
	}
	if last == "" {
		return "", fmt.Errorf("%w: %s", ErrNoMatches, rawURL)
	}
	return last, nil
}

// LatestMatchID follows the sitemap index to the newest sitemap and returns
// the id of the last match page it lists.
func (c *Client) LatestMatchID(ctx context.Context) (int64, error) {
	sitemap, err := c.lastLoc(ctx, c.baseURL+"/sitemaps.xml")
	if err != nil {
		return 0, err
	}
	page, err := c.lastLoc(ctx, sitemap)
	if err != nil {
		return 0, err
	}
	u, err := url.Parse(page)
	if err != nil {
		return 0, fmt.Errorf("parse match url %q: %w", page, err)
	}
	id, err := strconv.ParseInt(u.Query().Get("match"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("match url %q has no numeric match id", page)
	}
	return id, nil
}

// DownloadMatches streams the bulk export of matches first..last (inclusive)
// into w and returns the number of bytes written.
func (c *Client) DownloadMatches(ctx context.Context, first, last int64, w io.Writer) (int64, error) {
	q := url.Values{}
	q.Set("bulk", "matches")
	q.Set("first", strconv.FormatInt(first, 10))
	q.Set("last", strconv.FormatInt(last, 10))

	body, err := c.get(ctx, c.baseURL+"/data/?"+q.Encode())
	if err != nil {
		return 0, err
	}
	defer body.Close()
	return io.Copy(w, body)
}

// DownloadMaps streams the bulk maps export into w.
func (c *Client) DownloadMaps(ctx context.Context, w io.Writer) (int64, error) {
	body, err := c.get(ctx, c.baseURL+"/data/?bulk=maps")
	if err != nil {
		return 0, err
	}
	defer body.Close()
	return io.Copy(w, body)
}
