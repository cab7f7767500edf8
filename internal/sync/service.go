// Package sync drives one mirror run: crawl each channel, diff against
// the local library, download what is new and notify per outcome.
package sync

import (
	"context"
	"errors"
	"log"
	"os"

	"boostysync/internal/config"
	"boostysync/internal/library"
	"boostysync/internal/models"
)

// Crawler enumerates a channel's catalog.
type Crawler interface {
	Crawl(ctx context.Context, channel, token string, daysBack int) ([]models.Post, map[string]models.MediaType, error)
	GetPost(ctx context.Context, channel, postID, token string) (models.Post, models.MediaType, error)
}

// TokenSource yields a valid access token, refreshing it when needed.
type TokenSource interface {
	Token(ctx context.Context, forceRefresh bool) (string, error)
}

// Downloader fetches one task via the external tool. It reports the
// outcome instead of returning an error: a failed download is a result,
// not a reason to stop the run.
type Downloader interface {
	Fetch(ctx context.Context, task models.DownloadTask, token string) models.DownloadResult
	Embed(ctx context.Context, path string, post models.Post) error
}

// Notifier dispatches one per-task event. Best effort.
type Notifier interface {
	Notify(event models.NotificationEvent)
}

// Summary is what a run produced.
type Summary struct {
	Downloaded []string // filenames, in processing order
	Failed     int
}

// Service wires the crawler, scanner, planner, downloader and notifier
// into the per-channel run loop.
type Service struct {
	cfg        *config.Config
	crawler    Crawler
	tokens     TokenSource // nil when no cookie jar is configured
	downloader Downloader
	notifier   Notifier

	forcePending bool
}

// NewService creates the run orchestrator.
func NewService(cfg *config.Config, crawler Crawler, tokens TokenSource, downloader Downloader, notifier Notifier) *Service {
	return &Service{
		cfg:          cfg,
		crawler:      crawler,
		tokens:       tokens,
		downloader:   downloader,
		notifier:     notifier,
		forcePending: cfg.ForceRefresh,
	}
}

// Run processes every configured channel sequentially. Content-level
// failures are isolated per channel and per task; only structural
// problems (bad channel argument, cancelled context) surface as errors.
func (s *Service) Run(ctx context.Context) (*Summary, error) {
	refs := make([]ChannelRef, 0, len(s.cfg.Channels))
	for _, arg := range s.cfg.Channels {
		ref, err := ParseChannelRef(arg)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}

	summary := &Summary{}
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := s.syncChannel(ctx, ref, summary); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return summary, err
			}
			log.Printf("Channel %s failed, continuing with remaining channels: %v", ref.Channel, err)
		}
	}
	return summary, nil
}

// syncChannel runs crawl, scan, diff and the task loop for one channel.
func (s *Service) syncChannel(ctx context.Context, ref ChannelRef, summary *Summary) error {
	// An auth failure is fatal for this channel only; the caller moves
	// on to the next one.
	token, err := s.token(ctx)
	if err != nil {
		return err
	}

	var (
		posts []models.Post
		types map[string]models.MediaType
	)
	if ref.PostID != "" {
		log.Printf("Fetching post %s for channel %s...", ref.PostID, ref.Channel)
		post, mediaType, err := s.crawler.GetPost(ctx, ref.Channel, ref.PostID, token)
		if err != nil {
			return err
		}
		posts = []models.Post{post}
		types = map[string]models.MediaType{post.ID: mediaType}
	} else {
		if s.cfg.DaysBack > 0 {
			log.Printf("Fetching posts for channel %s (last %d days)...", ref.Channel, s.cfg.DaysBack)
		} else {
			log.Printf("Fetching posts for channel %s...", ref.Channel)
		}
		posts, types, err = s.crawler.Crawl(ctx, ref.Channel, token, s.cfg.DaysBack)
		if err != nil {
			return err
		}
		log.Printf("Found %d posts for channel %s", len(posts), ref.Channel)
	}

	channelRoot := TargetDir(s.cfg.OutputDir, ref.Channel, 0, s.cfg.ChannelDir, false)
	existingFiles, err := library.ScanFiles(channelRoot)
	if err != nil {
		return err
	}
	existing := make(map[string]struct{}, len(existingFiles))
	for id := range existingFiles {
		existing[id] = struct{}{}
	}

	if s.cfg.UpdateMetadata {
		s.updateMetadata(ctx, posts, types, existingFiles)
		return nil
	}

	for _, post := range posts {
		if types[post.ID] == models.MediaVideo && !post.HasAccess {
			log.Printf("Skipping %q: no access with the current subscription", post.Title)
		}
	}

	planner := Planner{
		OutputDir:  s.cfg.OutputDir,
		ChannelDir: s.cfg.ChannelDir,
		SeasonDir:  s.cfg.SeasonDir,
	}
	tasks := planner.Plan(posts, types, existing)
	if len(tasks) == 0 {
		log.Printf("No new videos for channel %s", ref.Channel)
		return nil
	}

	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.processTask(ctx, task, token, summary)
	}
	return nil
}

// processTask downloads one item and notifies its outcome. Failures are
// recorded, never propagated: one broken post must not block the rest.
func (s *Service) processTask(ctx context.Context, task models.DownloadTask, token string, summary *Summary) {
	if err := os.MkdirAll(task.TargetDir, 0755); err != nil {
		log.Printf("Download failed: cannot create %s: %v", task.TargetDir, err)
		summary.Failed++
		s.notifier.Notify(taskEvent(task, models.DownloadResult{Log: err.Error()}))
		return
	}

	log.Printf("Downloading: %s", task.Filename)
	result := s.downloader.Fetch(ctx, task, token)
	if result.Succeeded {
		summary.Downloaded = append(summary.Downloaded, task.Filename)
	} else {
		log.Printf("Download failed: %s", task.Filename)
		summary.Failed++
	}
	s.notifier.Notify(taskEvent(task, result))
}

// updateMetadata refreshes embedded metadata on files already on disk,
// without downloading anything.
func (s *Service) updateMetadata(ctx context.Context, posts []models.Post, types map[string]models.MediaType, existingFiles map[string]string) {
	for _, post := range posts {
		if types[post.ID] != models.MediaVideo {
			continue
		}
		path, ok := existingFiles[post.ID]
		if !ok {
			continue
		}
		log.Printf("Updating metadata: %s", path)
		if err := s.downloader.Embed(ctx, path, post); err != nil {
			log.Printf("Warning: metadata update failed for %s: %v", path, err)
		}
	}
}

// token fetches the access token, forcing a refresh at most once per
// run. Without a token source the run proceeds unauthenticated and only
// free content is reachable.
func (s *Service) token(ctx context.Context) (string, error) {
	if s.tokens == nil {
		return "", nil
	}
	force := s.forcePending
	s.forcePending = false
	return s.tokens.Token(ctx, force)
}

func taskEvent(task models.DownloadTask, result models.DownloadResult) models.NotificationEvent {
	return models.NotificationEvent{
		Channel:   task.Post.Channel,
		Season:    task.Season,
		Episode:   task.Episode,
		Title:     task.Post.Title,
		Succeeded: result.Succeeded,
		Log:       result.Log,
	}
}
