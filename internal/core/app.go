package core

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"boostysync/internal/auth"
	"boostysync/internal/boosty"
	"boostysync/internal/config"
	"boostysync/internal/download"
	"boostysync/internal/mediaserver"
	"boostysync/internal/notify"
	"boostysync/internal/sync"
)

// App holds the core components of the application, wired once at
// startup and shared between single-run and daemon mode.
type App struct {
	Config   *config.Config
	Service  *sync.Service
	Notifier *notify.Dispatcher
}

// New sets up and returns a new App instance. It loads the
// configuration, validates the structural requirements and wires every
// component; nothing here touches the network yet.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}

	client := boosty.New()

	var tokens sync.TokenSource
	if cookies := resolveCookiesFile(cfg.CookiesFile); cookies != "" {
		tokens = auth.NewManager(auth.NewStore(cookies), client)
	} else {
		log.Println("Warning: no cookies file found, only free content will be available")
	}

	dispatcher := notify.NewDispatcher(cfg.Email.To, &notify.Sendmail{Bin: cfg.Email.SendmailBin})
	downloader := download.New(cfg)
	service := sync.NewService(cfg, client, tokens, downloader, dispatcher)

	return &App{
		Config:   cfg,
		Service:  service,
		Notifier: dispatcher,
	}, nil
}

// RunOnce executes one full mirror run: all channels, the summary mail
// and the media-server refreshes.
func (a *App) RunOnce(ctx context.Context) error {
	summary, err := a.Service.Run(ctx)
	if err != nil {
		return err
	}

	log.Printf("Run complete: %d downloaded, %d failed", len(summary.Downloaded), summary.Failed)
	a.Notifier.SummarizeRun(summary.Downloaded)
	a.refreshMediaServers(ctx, len(summary.Downloaded))
	return nil
}

// refreshMediaServers asks the configured servers to rescan, once per
// run and only when new files landed. Failures are logged and swallowed.
func (a *App) refreshMediaServers(ctx context.Context, downloaded int) {
	if downloaded == 0 {
		return
	}
	cfg := a.Config

	if cfg.Plex.Section != "" && cfg.Plex.Token != "" {
		log.Printf("Requesting Plex library section %q refresh", cfg.Plex.Section)
		plex := mediaserver.NewPlex(cfg.Plex.URL, cfg.Plex.Token, time.Duration(cfg.Plex.Timeout)*time.Second)
		if err := plex.Refresh(ctx, cfg.Plex.Section); err != nil {
			log.Printf("Warning: Plex refresh failed: %v", err)
		}
	}

	if cfg.Jellyfin.Item != "" && cfg.Jellyfin.Token != "" {
		log.Printf("Requesting Jellyfin library item %q refresh", cfg.Jellyfin.Item)
		jellyfin := mediaserver.NewJellyfin(cfg.Jellyfin.URL, cfg.Jellyfin.Token, time.Duration(cfg.Jellyfin.Timeout)*time.Second)
		if err := jellyfin.Refresh(ctx, cfg.Jellyfin.Item); err != nil {
			log.Printf("Warning: Jellyfin refresh failed: %v", err)
		}
	}
}

// validate checks the structural requirements that make a run
// impossible rather than merely unproductive.
func validate(cfg *config.Config) error {
	if len(cfg.Channels) == 0 {
		return fmt.Errorf("no channels specified")
	}
	if _, err := os.Stat(cfg.OutputDir); err != nil {
		return fmt.Errorf("output directory does not exist: %s", cfg.OutputDir)
	}
	if cfg.MaxQuality != "" && config.QualityIndex(cfg.MaxQuality) < 0 {
		return fmt.Errorf("unknown max quality %q (expected one of %v)", cfg.MaxQuality, config.Qualities)
	}
	return nil
}

// resolveCookiesFile returns the configured cookies path, or the first
// conventional location that exists.
func resolveCookiesFile(configured string) string {
	if configured != "" {
		return configured
	}
	candidates := []string{"cookies.txt", ".boosty.cookies.txt"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".boosty.cookies.txt"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
