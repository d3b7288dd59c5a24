// Package locator finds files below a folder by case-insensitive filename
// pattern, caching results for the lifetime of one load.
package locator

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gobwas/glob"
)

type result struct {
	path  string
	found bool
}

// Locator caches lookups, misses included. Create one per load or call
// Reset before reuse so results never leak across documents.
type Locator struct {
	mu    sync.Mutex
	cache map[string]result
}

func New() *Locator {
	return &Locator{cache: make(map[string]result)}
}

// Reset drops every cached lookup.
func (l *Locator) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]result)
}

// Find returns the first file below root whose base name matches one of
// patterns ignoring case. Files directly in a folder win over files in its
// subfolders; entries are visited in lexical order.
func (l *Locator) Find(root string, patterns []string) (string, bool) {
	key := root + "\x00" + strings.Join(patterns, "\x00")

	l.mu.Lock()
	if r, ok := l.cache[key]; ok {
		l.mu.Unlock()
		return r.path, r.found
	}
	l.mu.Unlock()

	matchers, err := Compile(patterns)
	if err != nil {
		slog.Warn("invalid file pattern", "patterns", patterns, "error", err)
	}
	path, found := walk(root, matchers)

	l.mu.Lock()
	l.cache[key] = result{path: path, found: found}
	l.mu.Unlock()
	return path, found
}

// Compile turns filename patterns into lower-case glob matchers. Valid
// patterns are returned alongside the first compile error.
func Compile(patterns []string) ([]glob.Glob, error) {
	var firstErr error
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(strings.ToLower(p))
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("invalid pattern %q: %w", p, err)
			}
			continue
		}
		out = append(out, g)
	}
	return out, firstErr
}

// Match reports whether the base name of path matches any matcher.
func Match(matchers []glob.Glob, path string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, g := range matchers {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// walk searches top-down: a directory's own files are checked before any of
// its subdirectories is entered. Unreadable subdirectories are skipped.
func walk(root string, matchers []glob.Glob) (string, bool) {
	if len(matchers) == 0 {
		return "", false
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		slog.Debug("file search failed", "root", root, "error", err)
		return "", false
	}
	return search(root, entries, matchers)
}

func search(dir string, entries []fs.DirEntry, matchers []glob.Glob) (string, bool) {
	var subdirs []string
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if e.IsDir() {
			subdirs = append(subdirs, path)
			continue
		}
		if Match(matchers, path) {
			return path, true
		}
	}
	for _, sub := range subdirs {
		children, err := os.ReadDir(sub)
		if err != nil {
			slog.Debug("skipping unreadable directory", "dir", sub, "error", err)
			continue
		}
		if path, ok := search(sub, children, matchers); ok {
			return path, true
		}
	}
	return "", false
}
