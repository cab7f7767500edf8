package sync

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"boostysync/internal/models"
)

// titleScrubber drops the characters that break filenames on common
// filesystems and media servers.
var titleScrubber = strings.NewReplacer(
	"<", "", ">", "", ":", "", "\"", "", "/", "", "\\", "", "|", "", "?", "", "*", "",
)

// SeasonEpisode maps a publish timestamp to the media-server naming
// scheme: the year becomes the season and the zero-padded month+day the
// episode code, so episode order matches publish order within a season.
func SeasonEpisode(createdAt time.Time) (int, string) {
	dt := createdAt.UTC()
	return dt.Year(), fmt.Sprintf("s%de%02d%02d", dt.Year(), int(dt.Month()), dt.Day())
}

// SanitizeTitle strips filesystem-hostile characters and surrounding
// whitespace from a post title.
func SanitizeTitle(title string) string {
	return strings.TrimSpace(titleScrubber.Replace(title))
}

// Filename builds the on-disk name for a post's video. The bracketed
// post id at the end is the contract the library scanner relies on.
func Filename(post models.Post) string {
	_, episode := SeasonEpisode(post.CreatedAt)
	title := SanitizeTitle(post.Title)
	if title == "" {
		title = post.ID
	}
	return fmt.Sprintf("%s - %s [%s].mp4", episode, title, post.ID)
}

// TargetDir builds the directory a task lands in, honoring the
// channel-dir and season-dir layout toggles.
func TargetDir(outputDir, channel string, season int, channelDir, seasonDir bool) string {
	dir := outputDir
	if channelDir {
		dir = filepath.Join(dir, channel)
	}
	if seasonDir {
		dir = filepath.Join(dir, fmt.Sprintf("Season %d", season))
	}
	return dir
}
