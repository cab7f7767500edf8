package library

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "Season 2024", "s2024e0503 - First Video [abc123].mp4"))
	touch(t, filepath.Join(dir, "Season 2024", "s2024e0504 - Second Video [def456].mp4"))
	// Duplicate id in another location collapses to one entry.
	touch(t, filepath.Join(dir, "Season 2023", "s2023e1201 - Old Copy [abc123].mp4"))
	// Ignored: no bracketed id, wrong extension, non-media files.
	touch(t, filepath.Join(dir, "Season 2024", "notes.txt"))
	touch(t, filepath.Join(dir, "Season 2024", "no-id-here.mp4"))
	touch(t, filepath.Join(dir, "Season 2024", "wrong-ext [ghi789].mkv"))

	ids, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan() failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("Expected 2 ids, got %d: %v", len(ids), ids)
	}
	if _, ok := ids["abc123"]; !ok {
		t.Error("Expected id 'abc123' in scan result")
	}
	if _, ok := ids["def456"]; !ok {
		t.Error("Expected id 'def456' in scan result")
	}
}

func TestScanMissingDirectory(t *testing.T) {
	ids, err := Scan(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("Scan() on missing dir failed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("Expected empty set, got %v", ids)
	}
}

func TestExtractID(t *testing.T) {
	tests := []struct {
		filename string
		wantID   string
		wantOK   bool
	}{
		{"s2024e0503 - Title [abc123].mp4", "abc123", true},
		{"s2024e0503 - Title [abc123].MP4", "abc123", true},
		{"weird [inner] name [real-id].mp4", "real-id", true},
		{"no brackets.mp4", "", false},
		{"[id-but-wrong-ext].avi", "", false},
		{"trailing text [id] more.mp4", "", false},
		{"empty [].mp4", "", false},
	}
	for _, tt := range tests {
		id, ok := ExtractID(tt.filename)
		if ok != tt.wantOK || id != tt.wantID {
			t.Errorf("ExtractID(%q) = (%q, %v), want (%q, %v)", tt.filename, id, ok, tt.wantID, tt.wantOK)
		}
	}
}
