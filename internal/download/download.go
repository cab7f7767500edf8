// Package download adapts the external transfer tool (curl by default)
// and the metadata embedder behind the orchestrator's Downloader
// interface, so tests can substitute fakes.
package download

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"boostysync/internal/config"
	"boostysync/internal/models"
)

const defaultTimeout = 30 * time.Minute

// Tool invokes the external downloader as a subprocess per task.
type Tool struct {
	Bin         string
	ExtraArgs   []string
	ExiftoolBin string
	MaxQuality  string

	// Timeout bounds a single transfer. Zero means defaultTimeout.
	Timeout time.Duration
}

// New builds the adapter from configuration.
func New(cfg *config.Config) *Tool {
	return &Tool{
		Bin:         cfg.Downloader.Bin,
		ExtraArgs:   cfg.Downloader.ExtraArgs,
		ExiftoolBin: "exiftool",
		MaxQuality:  cfg.MaxQuality,
	}
}

// Fetch downloads one task's stream to its target path. The combined
// stdout/stderr of the subprocess becomes the result log and the exit
// status decides success. It never returns an error: failures are
// results the caller records and moves past.
func (t *Tool) Fetch(ctx context.Context, task models.DownloadTask, token string) models.DownloadResult {
	url := SelectStreamURL(task.Post.PlayerURLs, t.MaxQuality)
	if url == "" {
		return models.DownloadResult{Log: "no playable stream within the configured quality cap"}
	}

	timeout := t.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Download to a .part file first so an interrupted transfer never
	// leaves a file the scanner would mistake for a finished one.
	target := task.TargetPath()
	part := target + ".part"

	args := []string{"-L", "-sS", "-o", part}
	args = append(args, t.ExtraArgs...)
	if token != "" {
		args = append(args, "-H", "Authorization: Bearer "+token)
	}
	args = append(args, url)

	cmd := exec.CommandContext(ctx, t.Bin, args...)
	out, err := cmd.CombinedOutput()
	logText := strings.TrimSpace(string(out))
	if err != nil {
		os.Remove(part)
		return models.DownloadResult{Log: fmt.Sprintf("%s failed: %v\n%s", t.Bin, err, logText)}
	}

	if err := os.Rename(part, target); err != nil {
		return models.DownloadResult{Log: fmt.Sprintf("rename %s: %v", part, err)}
	}

	if err := t.Embed(ctx, target, task.Post); err != nil {
		// Metadata is cosmetic; the download itself succeeded.
		logText = logText + "\nwarning: " + err.Error()
	}

	return models.DownloadResult{Succeeded: true, Log: strings.TrimSpace(logText)}
}

// Embed writes title, channel and source URL into the file's metadata
// via exiftool.
func (t *Tool) Embed(ctx context.Context, path string, post models.Post) error {
	args := []string{
		"-Title=" + post.Title,
		"-Artist=" + post.Channel,
	}
	if post.BlogURL != "" {
		args = append(args, "-Comment="+post.BlogURL)
	}
	args = append(args, "-overwrite_original", "-q", path)

	cmd := exec.CommandContext(ctx, t.ExiftoolBin, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %v: %s", t.ExiftoolBin, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// SelectStreamURL picks the best stream at or below maxQuality. An empty
// maxQuality means the best available. Streams with unknown quality
// names are ignored.
func SelectStreamURL(playerURLs map[string]string, maxQuality string) string {
	capIdx := len(config.Qualities) - 1
	if maxQuality != "" {
		if idx := config.QualityIndex(maxQuality); idx >= 0 {
			capIdx = idx
		}
	}

	best := -1
	url := ""
	for quality, u := range playerURLs {
		if u == "" {
			continue
		}
		idx := config.QualityIndex(quality)
		if idx < 0 || idx > capIdx {
			continue
		}
		if idx > best {
			best = idx
			url = u
		}
	}
	return url
}
