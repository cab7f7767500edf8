// This file defines the configuration structure for the application.
package config

import (
	// use Viper for loading the config.yml file.
	"strings"

	"github.com/spf13/viper"
)

// Qualities lists the stream quality names the catalog exposes, worst
// first. The downloader never picks a stream above the configured maximum.
var Qualities = []string{
	"tiny", "lowest", "low", "medium", "high", "full_hd", "quad_hd", "ultra_hd",
}

// QualityIndex returns the position of q in the quality ladder, or -1
// if q is not a known quality name.
func QualityIndex(q string) int {
	for i, name := range Qualities {
		if name == q {
			return i
		}
	}
	return -1
}

// Config holds all configuration settings for the application.
// It maps directly to the structure of config.yml.
type Config struct {
	Channels     []string `mapstructure:"channels"`
	CookiesFile  string   `mapstructure:"cookies_file"`
	OutputDir    string   `mapstructure:"output_dir"`
	MaxQuality   string   `mapstructure:"max_quality"`
	DaysBack     int      `mapstructure:"days_back"`
	ForceRefresh bool     `mapstructure:"force_token_refresh"`

	UpdateMetadata bool `mapstructure:"update_metadata"`
	ChannelDir     bool `mapstructure:"channel_dir"`
	SeasonDir      bool `mapstructure:"season_dir"`

	LockFile     string `mapstructure:"lock_file"`
	SyncInterval int    `mapstructure:"sync_interval"` // minutes, daemon mode only

	Downloader struct {
		Bin       string   `mapstructure:"bin"`
		ExtraArgs []string `mapstructure:"extra_args"`
	} `mapstructure:"downloader"`

	Plex struct {
		URL     string `mapstructure:"url"`
		Token   string `mapstructure:"token"`
		Section string `mapstructure:"section"`
		Timeout int    `mapstructure:"timeout"` // seconds
	} `mapstructure:"plex"`

	Jellyfin struct {
		URL     string `mapstructure:"url"`
		Token   string `mapstructure:"token"`
		Item    string `mapstructure:"item"`
		Timeout int    `mapstructure:"timeout"` // seconds
	} `mapstructure:"jellyfin"`

	Email struct {
		To          string `mapstructure:"to"`
		SendmailBin string `mapstructure:"sendmail_bin"`
	} `mapstructure:"email"`
}

// Load reads configuration from a file named "config.yml" in the
// current directory and unmarshals it into a Config struct.
func Load() (*Config, error) {
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or "yaml"
	viper.AddConfigPath(".")      // looking for config in the current directory

	// --- Environment Variable Overrides ---
	// This tells Viper to look for environment variables with a "BOOSTY_" prefix.
	// e.g., BOOSTY_OUTPUT_DIR will override the `output_dir` key.
	viper.SetEnvPrefix("BOOSTY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set default values
	viper.SetDefault("output_dir", ".")
	viper.SetDefault("channel_dir", true)
	viper.SetDefault("season_dir", true)
	viper.SetDefault("sync_interval", 60)
	viper.SetDefault("downloader.bin", "curl")
	viper.SetDefault("plex.url", "http://localhost:32400")
	viper.SetDefault("plex.timeout", 30)
	viper.SetDefault("jellyfin.url", "http://localhost:8096")
	viper.SetDefault("jellyfin.timeout", 30)
	viper.SetDefault("email.sendmail_bin", "/usr/sbin/sendmail")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; ignore error and use defaults
		} else {
			// Config file was found but another error was produced
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
