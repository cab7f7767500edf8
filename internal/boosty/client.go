// Package boosty implements the catalog API client: paginated post and
// media-album feeds plus the OAuth refresh exchange.
package boosty

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

	"github.com/cenkalti/backoff/v4"

	"boostysync/internal/models"
)

const (
	defaultBaseURL = "https://api.boosty.to"
	pageLimit      = 25

	// pageRetries is the number of retries after the first attempt; a
	// page fetch is tried at most pageRetries+1 times.
	pageRetries = 2
)

// Client talks to the catalog API.
type Client struct {
	client  *http.Client
	baseURL string
}

// New creates a new catalog client.
func New() *Client {
	return &Client{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: defaultBaseURL,
	}
}

// fetchJSON performs one HTTP exchange with bounded exponential backoff
// and decodes the body into out. Transport failures and 5xx responses
// are retried; 4xx responses and malformed bodies are not.
func (c *Client) fetchJSON(ctx context.Context, method, rawURL string, headers map[string]string, form url.Values, out interface{}) error {
	operation := func() error {
		var body io.Reader
		if form != nil {
			body = strings.NewReader(form.Encode())
		}
		req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
		if err != nil {
			return backoff.Permanent(err)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		if form != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("server returned %s", resp.Status)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("server returned %s", resp.Status))
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(&ParseError{Op: method + " " + rawURL, Msg: err.Error()})
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, pageRetries), ctx))
}

func authHeaders(token string) map[string]string {
	if token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

// ListPosts drains the posts feed for a channel, newest first. A
// daysBack bound > 0 stops the crawl at the first post older than the
// cutoff; the feed is newest-first, so everything after it is older too.
func (c *Client) ListPosts(ctx context.Context, channel, token string, daysBack int) ([]models.Post, error) {
	var cutoff time.Time
	if daysBack > 0 {
		cutoff = time.Now().AddDate(0, 0, -daysBack)
	}

	var posts []models.Post
	offset := ""

	for {
		reqURL := fmt.Sprintf("%s/v1/blog/%s/post/?limit=%d", c.baseURL, url.PathEscape(channel), pageLimit)
		if offset != "" {
			reqURL += "&offset=" + url.QueryEscape(offset)
		}

		var page postsResponse
		if err := c.fetchJSON(ctx, http.MethodGet, reqURL, authHeaders(token), nil, &page); err != nil {
			return nil, &NetworkError{Op: "posts feed", Err: err}
		}
		if page.Error != "" {
			return nil, &ParseError{Op: "posts feed", Msg: fmt.Sprintf("API error: %s (%s)", page.Error, page.ErrorDesc)}
		}

		for _, raw := range page.Data {
			post, err := convertPost(channel, raw)
			if err != nil {
				log.Printf("Warning: skipping malformed post on channel %s: %v", channel, err)
				continue
			}
			if !cutoff.IsZero() && post.CreatedAt.Before(cutoff) {
				return posts, nil
			}
			posts = append(posts, post)
		}

		if page.Extra.Offset == "" || page.Extra.IsLast {
			return posts, nil
		}
		offset = page.Extra.Offset
	}
}

// ListMediaItems drains the media-album feed and returns the media type
// per post id. The feed is strictly a classifier: posts it mentions that
// the posts feed does not are never surfaced.
func (c *Client) ListMediaItems(ctx context.Context, channel, token string) (map[string]models.MediaType, error) {
	types := make(map[string]models.MediaType)
	offset := ""

	for {
		reqURL := fmt.Sprintf("%s/v1/blog/%s/media_album/?type=all&limit=%d", c.baseURL, url.PathEscape(channel), pageLimit)
		if offset != "" {
			reqURL += "&offset=" + url.QueryEscape(offset)
		}

		var page mediaAlbumResponse
		if err := c.fetchJSON(ctx, http.MethodGet, reqURL, authHeaders(token), nil, &page); err != nil {
			return nil, &NetworkError{Op: "media album feed", Err: err}
		}
		if page.Error != "" {
			return nil, &ParseError{Op: "media album feed", Msg: fmt.Sprintf("API error: %s (%s)", page.Error, page.ErrorDesc)}
		}

		for _, mp := range page.Data.MediaPosts {
			if mp.Post.ID == "" {
				log.Printf("Warning: skipping media album entry without post id on channel %s", channel)
				continue
			}
			for _, m := range mp.Media {
				if m.Type == "ok_video" {
					types[mp.Post.ID] = models.MediaVideo
					break
				}
			}
		}

		if page.Extra.Offset == "" || page.Extra.IsLast {
			return types, nil
		}
		offset = page.Extra.Offset
	}
}

// Crawl enumerates a channel's posts together with their media
// classification. Every post from the posts feed appears in the result;
// a post absent from the media album map is MediaOther.
func (c *Client) Crawl(ctx context.Context, channel, token string, daysBack int) ([]models.Post, map[string]models.MediaType, error) {
	posts, err := c.ListPosts(ctx, channel, token, daysBack)
	if err != nil {
		return nil, nil, err
	}
	types, err := c.ListMediaItems(ctx, channel, token)
	if err != nil {
		return nil, nil, err
	}
	return posts, types, nil
}

// GetPost fetches a single post and classifies it the same way the
// media-album feed would.
func (c *Client) GetPost(ctx context.Context, channel, postID, token string) (models.Post, models.MediaType, error) {
	reqURL := fmt.Sprintf("%s/v1/blog/%s/post/%s", c.baseURL, url.PathEscape(channel), url.PathEscape(postID))

	var raw struct {
		apiError
		postData
	}
	if err := c.fetchJSON(ctx, http.MethodGet, reqURL, authHeaders(token), nil, &raw); err != nil {
		return models.Post{}, models.MediaOther, &NetworkError{Op: "post fetch", Err: err}
	}
	if raw.Error != "" {
		return models.Post{}, models.MediaOther, &ParseError{Op: "post fetch", Msg: fmt.Sprintf("API error: %s (%s)", raw.Error, raw.ErrorDesc)}
	}

	post, err := convertPost(channel, raw.postData)
	if err != nil {
		return models.Post{}, models.MediaOther, &ParseError{Op: "post fetch", Msg: err.Error()}
	}

	mediaType := models.MediaOther
	if len(post.PlayerURLs) > 0 {
		mediaType = models.MediaVideo
	}
	return post, mediaType, nil
}

// RefreshToken performs the refresh exchange and returns the new grant.
func (c *Client) RefreshToken(ctx context.Context, refreshToken, clientID string) (*TokenGrant, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"device_os":     {"web"},
		"device_id":     {clientID},
		"refresh_token": {refreshToken},
	}

	var resp tokenResponse
	if err := c.fetchJSON(ctx, http.MethodPost, c.baseURL+"/oauth/token/", nil, form, &resp); err != nil {
		return nil, &NetworkError{Op: "token refresh", Err: err}
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("token refresh rejected: %s (%s)", resp.Error, resp.ErrorDesc)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" || resp.ExpiresIn == 0 {
		return nil, &ParseError{Op: "token refresh", Msg: "missing access_token, refresh_token or expires_in"}
	}

	return &TokenGrant{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    time.Now().UnixMilli() + resp.ExpiresIn*1000,
	}, nil
}

// convertPost validates the raw feed entry and maps it onto the domain
// type. Posts without an id or timestamp are malformed.
func convertPost(channel string, raw postData) (models.Post, error) {
	if raw.ID == "" {
		return models.Post{}, fmt.Errorf("post has no id")
	}
	if raw.CreatedAt <= 0 {
		return models.Post{}, fmt.Errorf("post %s has no createdAt", raw.ID)
	}

	post := models.Post{
		ID:        raw.ID,
		Channel:   channel,
		Title:     raw.Title,
		CreatedAt: time.Unix(int64(raw.CreatedAt), 0).UTC(),
		BlogURL:   fmt.Sprintf("https://boosty.to/%s/posts/%s", channel, raw.ID),
		HasAccess: raw.HasAccess,
	}

	// Keep the player URLs of the first finished video so the downloader
	// can honor the quality cap without a second catalog round trip.
	for _, item := range raw.Data {
		if item.Type != "ok_video" || !item.Complete || item.Status != "ok" {
			continue
		}
		post.PlayerURLs = make(map[string]string, len(item.PlayerURLs))
		for _, pu := range item.PlayerURLs {
			if pu.URL != "" {
				post.PlayerURLs[pu.Type] = pu.URL
			}
		}
		break
	}

	return post, nil
}
