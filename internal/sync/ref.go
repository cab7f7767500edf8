package sync

import (
	"fmt"
	"strings"
)

// ChannelRef is one positional argument resolved to a channel, and
// optionally narrowed to a single post.
type ChannelRef struct {
	Channel string
	PostID  string
}

// ParseChannelRef accepts a plain channel name or a boosty.to URL,
// optionally pointing at a single post
// (https://boosty.to/<channel>/posts/<id>).
func ParseChannelRef(arg string) (ChannelRef, error) {
	if !strings.HasPrefix(arg, "https://") {
		return ChannelRef{Channel: arg}, nil
	}
	if !strings.HasPrefix(arg, "https://boosty.to/") {
		return ChannelRef{}, fmt.Errorf("invalid channel URL: %s", arg)
	}

	trimmed := strings.TrimPrefix(arg, "https://boosty.to/")
	if i := strings.IndexByte(trimmed, '?'); i >= 0 {
		trimmed = trimmed[:i]
	}
	trimmed = strings.TrimRight(trimmed, "/")

	parts := strings.Split(trimmed, "/")
	if parts[0] == "" {
		return ChannelRef{}, fmt.Errorf("invalid channel URL: %s", arg)
	}

	ref := ChannelRef{Channel: parts[0]}
	if len(parts) >= 3 && parts[1] == "posts" {
		ref.PostID = parts[2]
	}
	return ref, nil
}
