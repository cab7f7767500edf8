package mediaserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// JellyfinClient talks to a Jellyfin server's item endpoints.
type JellyfinClient struct {
	client  *http.Client
	baseURL string
	token   string
}

// NewJellyfin creates a client for the given server.
func NewJellyfin(baseURL, token string, timeout time.Duration) *JellyfinClient {
	return &JellyfinClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		token:   token,
	}
}

type jellyfinItemsResponse struct {
	Items []struct {
		ID   string `json:"Id"`
		Name string `json:"Name"`
	} `json:"Items"`
}

func (j *JellyfinClient) authHeader() string {
	return fmt.Sprintf("MediaBrowser Token=%q", j.token)
}

// Refresh resolves a library item name or id and asks Jellyfin to
// rescan it.
func (j *JellyfinClient) Refresh(ctx context.Context, item string) error {
	id, err := j.resolveItem(ctx, item)
	if err != nil {
		return err
	}

	form := url.Values{
		"Recursive":           {"true"},
		"MetadataRefreshMode": {"Default"},
		"ImageRefreshMode":    {"Default"},
		"ReplaceAllImages":    {"false"},
		"ReplaceAllMetadata":  {"false"},
	}
	endpoint := fmt.Sprintf("%s/Items/%s/Refresh", j.baseURL, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", j.authHeader())
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := j.client.Do(req)
	if err != nil {
		return fmt.Errorf("jellyfin refresh: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("jellyfin refresh: server returned %s", resp.Status)
	}
	return nil
}

// resolveItem lists collection folders and matches the given value
// against item ids and names, exact and case sensitive.
func (j *JellyfinClient) resolveItem(ctx context.Context, nameOrID string) (string, error) {
	endpoint := j.baseURL + "/Items?Recursive=True&IncludeItemTypes=CollectionFolder"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", j.authHeader())

	resp, err := j.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("jellyfin items: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("jellyfin items: server returned %s", resp.Status)
	}

	var items jellyfinItemsResponse
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return "", fmt.Errorf("jellyfin items: %w", err)
	}

	for _, item := range items.Items {
		if item.ID == nameOrID || item.Name == nameOrID {
			return item.ID, nil
		}
	}
	return "", fmt.Errorf("jellyfin item %q not found", nameOrID)
}
