package auth

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const cookieDomain = ".boosty.to"

// Store reads and rewrites a Netscape-format cookies.txt file. It is the
// only durable credential state the tool has, so rewrites go through a
// temp file and rename to never leave the jar half-written.
type Store struct {
	path string
}

// NewStore creates a store for the given cookies file.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the underlying cookies file path.
func (s *Store) Path() string { return s.path }

// ReadCookie returns the decoded value of the named cookie for the
// boosty domain, or "" when the jar has no such cookie.
func (s *Store) ReadCookie(name string) (string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return "", fmt.Errorf("open cookies file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		parts, ok := cookieLine(scanner.Text(), name)
		if !ok {
			continue
		}
		value, err := url.QueryUnescape(parts[6])
		if err != nil {
			return "", fmt.Errorf("decode cookie %q: %w", name, err)
		}
		return value, nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read cookies file: %w", err)
	}
	return "", nil
}

// WriteCookie replaces the named cookie's value in place, atomically.
// The cookie must already exist in the jar; comments and unrelated
// cookies are preserved byte for byte.
func (s *Store) WriteCookie(name, value string) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read cookies file: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	found := false
	for i, line := range lines {
		parts, ok := cookieLine(line, name)
		if !ok {
			continue
		}
		parts[6] = url.QueryEscape(value)
		lines[i] = strings.Join(parts, "\t")
		found = true
		break
	}
	if !found {
		return fmt.Errorf("cookie %q not found in %s", name, s.path)
	}

	return s.rewrite(strings.Join(lines, "\n"))
}

// rewrite replaces the jar contents via write-temp-then-rename.
func (s *Store) rewrite(contents string) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".cookies-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(contents); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// cookieLine splits a jar line and reports whether it carries the named
// cookie for the boosty domain. Comments and blank lines never match.
func cookieLine(line, name string) ([]string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil, false
	}
	parts := strings.Split(trimmed, "\t")
	if len(parts) < 7 || parts[0] != cookieDomain || parts[5] != name {
		return nil, false
	}
	return parts, true
}
