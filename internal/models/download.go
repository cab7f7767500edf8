package models

import "path/filepath"

// DownloadTask is one item selected for download by the diff engine.
type DownloadTask struct {
	Post      Post   `json:"post"`
	Season    int    `json:"season"`
	Episode   string `json:"episode"` // e.g. "s2024e0503"
	TargetDir string `json:"target_dir"`
	Filename  string `json:"filename"`
}

// TargetPath is the full path the downloaded file will land at.
func (t DownloadTask) TargetPath() string {
	return filepath.Join(t.TargetDir, t.Filename)
}

// DownloadResult captures the outcome of one downloader invocation.
type DownloadResult struct {
	Succeeded bool   `json:"succeeded"`
	Log       string `json:"log"` // combined stdout/stderr of the external tool
}

// NotificationEvent describes one finished task for the dispatcher.
type NotificationEvent struct {
	Channel   string `json:"channel"`
	Season    int    `json:"season"`
	Episode   string `json:"episode"`
	Title     string `json:"title"`
	Succeeded bool   `json:"succeeded"`
	Log       string `json:"log"`
}
