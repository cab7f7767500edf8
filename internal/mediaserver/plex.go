// Package mediaserver triggers a library rescan on Plex or Jellyfin
// after a run lands new files. Everything here is best effort: errors
// are for the caller to log, never to propagate as run failures.
package mediaserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// PlexClient talks to a Plex server's library endpoints.
type PlexClient struct {
	client  *http.Client
	baseURL string
	token   string
}

// NewPlex creates a client for the given server.
func NewPlex(baseURL, token string, timeout time.Duration) *PlexClient {
	return &PlexClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		token:   token,
	}
}

type plexSectionsResponse struct {
	MediaContainer struct {
		Directory []struct {
			Key   string `json:"key"`
			Title string `json:"title"`
		} `json:"Directory"`
	} `json:"MediaContainer"`
}

// Refresh resolves a section name or key and asks Plex to rescan it.
func (p *PlexClient) Refresh(ctx context.Context, section string) error {
	key, err := p.resolveSection(ctx, section)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/library/sections/%s/refresh", p.baseURL, url.PathEscape(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Plex-Token", p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("plex refresh: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("plex refresh: server returned %s", resp.Status)
	}
	return nil
}

// resolveSection lists the server's library sections and matches the
// given value against section keys and titles, exact and case sensitive.
func (p *PlexClient) resolveSection(ctx context.Context, nameOrKey string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/library/sections", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("X-Plex-Token", p.token)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("plex sections: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("plex sections: server returned %s", resp.Status)
	}

	var sections plexSectionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&sections); err != nil {
		return "", fmt.Errorf("plex sections: %w", err)
	}

	for _, dir := range sections.MediaContainer.Directory {
		if dir.Key == nameOrKey || dir.Title == nameOrKey {
			return dir.Key, nil
		}
	}
	return "", fmt.Errorf("plex section %q not found", nameOrKey)
}
