// Package library derives the set of already-downloaded post ids by
// scanning the media tree. The bracketed id embedded in each filename is
// the only durable state this tool keeps.
package library

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// idPattern matches the trailing "[post-id]" token of a filename with
// the extension already stripped.
var idPattern = regexp.MustCompile(`\[([^\[\]]+)\]\s*$`)

// videoExtensions lists the file types the scanner considers media files.
var videoExtensions = map[string]bool{
	".mp4": true,
}

// Scan walks channelDir and returns the post ids embedded in media
// filenames. Files without a recognizable bracketed id are ignored, and
// duplicate embeddings collapse to one entry. A missing directory is an
// empty library, not an error.
func Scan(channelDir string) (map[string]struct{}, error) {
	files, err := ScanFiles(channelDir)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(files))
	for id := range files {
		ids[id] = struct{}{}
	}
	return ids, nil
}

// ScanFiles is Scan with the file paths kept, for callers that need to
// touch the existing files (metadata refresh). When an id is embedded in
// more than one file, the first one encountered wins.
func ScanFiles(channelDir string) (map[string]string, error) {
	files := make(map[string]string)

	if _, err := os.Stat(channelDir); os.IsNotExist(err) {
		return files, nil
	}

	err := filepath.WalkDir(channelDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if id, ok := ExtractID(d.Name()); ok {
			if _, seen := files[id]; !seen {
				files[id] = path
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", channelDir, err)
	}
	return files, nil
}

// ExtractID pulls the embedded post id out of a media filename. It
// reports false for non-media extensions and names without the
// bracketed token.
func ExtractID(filename string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !videoExtensions[ext] {
		return "", false
	}
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	match := idPattern.FindStringSubmatch(name)
	if match == nil {
		return "", false
	}
	return match[1], true
}
