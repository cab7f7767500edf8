package sync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boostysync/internal/config"
	"boostysync/internal/models"
)

// fakeCrawler serves canned catalogs per channel.
type fakeCrawler struct {
	posts map[string][]models.Post
	types map[string]map[string]models.MediaType
	errs  map[string]error
}

func (f *fakeCrawler) Crawl(ctx context.Context, channel, token string, daysBack int) ([]models.Post, map[string]models.MediaType, error) {
	if err := f.errs[channel]; err != nil {
		return nil, nil, err
	}
	return f.posts[channel], f.types[channel], nil
}

func (f *fakeCrawler) GetPost(ctx context.Context, channel, postID, token string) (models.Post, models.MediaType, error) {
	for _, p := range f.posts[channel] {
		if p.ID == postID {
			return p, f.types[channel][p.ID], nil
		}
	}
	return models.Post{}, models.MediaOther, fmt.Errorf("post %s not found", postID)
}

// fakeDownloader materializes files on success so rescans see them.
type fakeDownloader struct {
	fetched  []string
	embedded []string
	failIDs  map[string]bool
}

func (f *fakeDownloader) Fetch(ctx context.Context, task models.DownloadTask, token string) models.DownloadResult {
	f.fetched = append(f.fetched, task.Post.ID)
	if f.failIDs[task.Post.ID] {
		return models.DownloadResult{Succeeded: false, Log: "simulated downloader exit 1"}
	}
	if err := os.WriteFile(task.TargetPath(), []byte("video"), 0644); err != nil {
		return models.DownloadResult{Succeeded: false, Log: err.Error()}
	}
	return models.DownloadResult{Succeeded: true, Log: "ok"}
}

func (f *fakeDownloader) Embed(ctx context.Context, path string, post models.Post) error {
	f.embedded = append(f.embedded, path)
	return nil
}

type fakeNotifier struct {
	events []models.NotificationEvent
}

func (f *fakeNotifier) Notify(event models.NotificationEvent) {
	f.events = append(f.events, event)
}

type fakeTokens struct {
	forces []bool
	err    error
}

func (f *fakeTokens) Token(ctx context.Context, forceRefresh bool) (string, error) {
	f.forces = append(f.forces, forceRefresh)
	if f.err != nil {
		return "", f.err
	}
	return "tok", nil
}

func testConfig(t *testing.T, channels ...string) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Channels:   channels,
		OutputDir:  t.TempDir(),
		ChannelDir: true,
		SeasonDir:  true,
	}
	return cfg
}

func TestRunEndToEnd(t *testing.T) {
	// Channel demo: P1 is a video already on disk, P2 a new video, P3 a
	// text post. Only P2 must be downloaded and notified.
	cfg := testConfig(t, "demo")

	p1 := post("P1", 1)
	seasonDir := filepath.Join(cfg.OutputDir, "demo", "Season 2024")
	require.NoError(t, os.MkdirAll(seasonDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(seasonDir, Filename(p1)), []byte("x"), 0644))

	crawler := &fakeCrawler{
		posts: map[string][]models.Post{"demo": {p1, post("P2", 2), post("P3", 3)}},
		types: map[string]map[string]models.MediaType{"demo": {
			"P1": models.MediaVideo,
			"P2": models.MediaVideo,
			"P3": models.MediaOther,
		}},
	}
	dl := &fakeDownloader{}
	notifier := &fakeNotifier{}

	svc := NewService(cfg, crawler, nil, dl, notifier)
	summary, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"P2"}, dl.fetched)
	require.Len(t, summary.Downloaded, 1)
	assert.Equal(t, 0, summary.Failed)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, "demo", notifier.events[0].Channel)
	assert.True(t, notifier.events[0].Succeeded)
	assert.FileExists(t, filepath.Join(seasonDir, Filename(post("P2", 2))))
}

func TestRunIdempotent(t *testing.T) {
	cfg := testConfig(t, "demo")
	crawler := &fakeCrawler{
		posts: map[string][]models.Post{"demo": {post("a", 1), post("b", 2)}},
		types: map[string]map[string]models.MediaType{"demo": {
			"a": models.MediaVideo,
			"b": models.MediaVideo,
		}},
	}
	dl := &fakeDownloader{}

	svc := NewService(cfg, crawler, nil, dl, &fakeNotifier{})
	first, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Downloaded, 2)

	// Unchanged catalog, same directory: the second run finds nothing.
	second, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second.Downloaded)
	assert.Len(t, dl.fetched, 2, "no additional downloads on second run")
}

func TestRunPartialFailureIsolation(t *testing.T) {
	cfg := testConfig(t, "demo")
	crawler := &fakeCrawler{
		posts: map[string][]models.Post{"demo": {post("t1", 1), post("t2", 2), post("t3", 3)}},
		types: map[string]map[string]models.MediaType{"demo": {
			"t1": models.MediaVideo,
			"t2": models.MediaVideo,
			"t3": models.MediaVideo,
		}},
	}
	dl := &fakeDownloader{failIDs: map[string]bool{"t2": true}}
	notifier := &fakeNotifier{}

	svc := NewService(cfg, crawler, nil, dl, notifier)
	summary, err := svc.Run(context.Background())
	require.NoError(t, err, "per-item failures must not fail the run")

	assert.Equal(t, []string{"t1", "t2", "t3"}, dl.fetched)
	assert.Len(t, summary.Downloaded, 2)
	assert.Equal(t, 1, summary.Failed)

	require.Len(t, notifier.events, 3)
	assert.True(t, notifier.events[0].Succeeded)
	assert.False(t, notifier.events[1].Succeeded)
	assert.Contains(t, notifier.events[1].Log, "exit 1")
	assert.True(t, notifier.events[2].Succeeded)
}

func TestRunChannelFailureIsolation(t *testing.T) {
	cfg := testConfig(t, "broken", "healthy")
	crawler := &fakeCrawler{
		posts: map[string][]models.Post{"healthy": {post("h1", 1)}},
		types: map[string]map[string]models.MediaType{"healthy": {"h1": models.MediaVideo}},
		errs:  map[string]error{"broken": fmt.Errorf("catalog unreachable")},
	}
	dl := &fakeDownloader{}

	svc := NewService(cfg, crawler, nil, dl, &fakeNotifier{})
	summary, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"h1"}, dl.fetched)
	assert.Len(t, summary.Downloaded, 1)
}

func TestRunInvalidChannelArgIsStructural(t *testing.T) {
	cfg := testConfig(t, "https://example.com/nope")
	svc := NewService(cfg, &fakeCrawler{}, nil, &fakeDownloader{}, &fakeNotifier{})
	_, err := svc.Run(context.Background())
	require.Error(t, err)
}

func TestRunForceRefreshOnlyOnce(t *testing.T) {
	cfg := testConfig(t, "one", "two")
	cfg.ForceRefresh = true
	crawler := &fakeCrawler{}
	tokens := &fakeTokens{}

	svc := NewService(cfg, crawler, tokens, &fakeDownloader{}, &fakeNotifier{})
	_, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, tokens.forces, 2)
	assert.True(t, tokens.forces[0], "first token call carries the force flag")
	assert.False(t, tokens.forces[1], "force flag consumed after first call")
}

func TestRunAuthFailureSkipsChannels(t *testing.T) {
	cfg := testConfig(t, "demo")
	tokens := &fakeTokens{err: fmt.Errorf("refresh exchange failed")}
	dl := &fakeDownloader{}

	svc := NewService(cfg, &fakeCrawler{}, tokens, dl, &fakeNotifier{})
	summary, err := svc.Run(context.Background())
	require.NoError(t, err, "auth failure is not a structural error")
	assert.Empty(t, dl.fetched)
	assert.Empty(t, summary.Downloaded)
}

func TestRunSinglePostRef(t *testing.T) {
	cfg := testConfig(t, "https://boosty.to/demo/posts/only")
	crawler := &fakeCrawler{
		posts: map[string][]models.Post{"demo": {post("only", 7), post("other", 8)}},
		types: map[string]map[string]models.MediaType{"demo": {
			"only":  models.MediaVideo,
			"other": models.MediaVideo,
		}},
	}
	dl := &fakeDownloader{}

	svc := NewService(cfg, crawler, nil, dl, &fakeNotifier{})
	summary, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, dl.fetched)
	assert.Len(t, summary.Downloaded, 1)
}

func TestRunUpdateMetadataMode(t *testing.T) {
	cfg := testConfig(t, "demo")
	cfg.UpdateMetadata = true

	existing := post("seen", 1)
	seasonDir := filepath.Join(cfg.OutputDir, "demo", "Season 2024")
	require.NoError(t, os.MkdirAll(seasonDir, 0755))
	existingPath := filepath.Join(seasonDir, Filename(existing))
	require.NoError(t, os.WriteFile(existingPath, []byte("x"), 0644))

	crawler := &fakeCrawler{
		posts: map[string][]models.Post{"demo": {existing, post("unseen", 2)}},
		types: map[string]map[string]models.MediaType{"demo": {
			"seen":   models.MediaVideo,
			"unseen": models.MediaVideo,
		}},
	}
	dl := &fakeDownloader{}

	svc := NewService(cfg, crawler, nil, dl, &fakeNotifier{})
	summary, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, dl.fetched, "metadata mode never downloads")
	assert.Empty(t, summary.Downloaded)
	assert.Equal(t, []string{existingPath}, dl.embedded)
}

func TestRunCancelledContext(t *testing.T) {
	cfg := testConfig(t, "demo")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewService(cfg, &fakeCrawler{}, nil, &fakeDownloader{}, &fakeNotifier{})
	_, err := svc.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
