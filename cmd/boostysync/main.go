package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"boostysync/internal/core"
	"boostysync/internal/jobs"
	"boostysync/internal/lock"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags)

	if err := run(); err != nil {
		log.Fatalf("Fatal: %v", err)
	}
}

func run() error {
	flags := pflag.NewFlagSet("boostysync", pflag.ExitOnError)
	flags.StringP("cookies", "c", "", "path to a Netscape-format cookies file")
	flags.StringP("output", "o", "", "directory to mirror videos into")
	flags.StringP("max-quality", "q", "", "highest stream quality to download")
	flags.Int("days-back", 0, "only consider posts newer than this many days (0 = all)")
	flags.Bool("update-metadata", false, "re-embed metadata into existing files instead of downloading")
	flags.Bool("force-token-refresh", false, "refresh the access token even if it is still fresh")
	flags.Bool("no-channel-dir", false, "do not create a per-channel directory")
	flags.Bool("no-season-dir", false, "do not create per-season directories")
	flags.String("lock-file", "", "path to a lock file preventing concurrent runs")
	flags.String("plex-url", "", "Plex server URL")
	flags.String("plex-token", "", "Plex authentication token")
	flags.String("plex-section", "", "Plex library section to refresh after downloads")
	flags.String("jellyfin-url", "", "Jellyfin server URL")
	flags.String("jellyfin-token", "", "Jellyfin API token")
	flags.String("jellyfin-item", "", "Jellyfin library item to refresh after downloads")
	flags.String("email-to", "", "address to notify about downloads")
	flags.BoolP("watch", "w", false, "keep running and sync periodically")
	flags.Int("sync-interval", 0, "minutes between syncs in watch mode")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	bind := map[string]string{
		"cookies":             "cookies_file",
		"output":              "output_dir",
		"max-quality":         "max_quality",
		"days-back":           "days_back",
		"update-metadata":     "update_metadata",
		"force-token-refresh": "force_token_refresh",
		"lock-file":           "lock_file",
		"plex-url":            "plex.url",
		"plex-token":          "plex.token",
		"plex-section":        "plex.section",
		"jellyfin-url":        "jellyfin.url",
		"jellyfin-token":      "jellyfin.token",
		"jellyfin-item":       "jellyfin.item",
		"email-to":            "email.to",
		"sync-interval":       "sync_interval",
	}
	for flagName, key := range bind {
		if flags.Changed(flagName) {
			if err := viper.BindPFlag(key, flags.Lookup(flagName)); err != nil {
				return err
			}
		}
	}
	// The config keys are positive (channel_dir, season_dir) while the
	// flags are negative, so these two are inverted by hand.
	if noDir, _ := flags.GetBool("no-channel-dir"); noDir {
		viper.Set("channel_dir", false)
	}
	if noDir, _ := flags.GetBool("no-season-dir"); noDir {
		viper.Set("season_dir", false)
	}
	if args := flags.Args(); len(args) > 0 {
		viper.Set("channels", args)
	}

	app, err := core.New()
	if err != nil {
		return err
	}

	if app.Config.LockFile != "" {
		handle, err := lock.Acquire(app.Config.LockFile)
		if err != nil {
			if errors.Is(err, lock.ErrHeld) {
				return errors.New("another instance is already running")
			}
			return err
		}
		defer handle.Release()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watch, _ := flags.GetBool("watch")
	if !watch {
		return app.RunOnce(ctx)
	}

	// Watch mode: run immediately, then on a schedule until interrupted.
	if err := app.RunOnce(ctx); err != nil {
		log.Printf("Initial sync run failed: %v", err)
	}
	interval := time.Duration(app.Config.SyncInterval) * time.Minute
	scheduler := jobs.Start(ctx, app, interval)
	defer scheduler.Stop()

	<-ctx.Done()
	log.Println("Shutting down...")
	return nil
}
