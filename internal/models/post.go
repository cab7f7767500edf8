package models

import "time"

// Post represents a single published item on a channel's feed.
type Post struct {
	ID        string    `json:"id"`
	Channel   string    `json:"channel"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	BlogURL   string    `json:"blog_url"`
	HasAccess bool      `json:"has_access"`

	// PlayerURLs maps quality names to stream URLs for the post's
	// primary video, when the catalog exposes them.
	PlayerURLs map[string]string `json:"player_urls,omitempty"`
}

// MediaType classifies a post's primary content.
type MediaType string

const (
	MediaVideo MediaType = "video"
	MediaOther MediaType = "other"
)

// MediaItem is the classification record for one post. A post without a
// record is treated as MediaOther.
type MediaItem struct {
	PostID string    `json:"post_id"`
	Type   MediaType `json:"type"`
}
