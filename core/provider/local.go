package provider

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"GuildFM/core/query"
	"GuildFM/logger"
	"GuildFM/model"

	"github.com/fsnotify/fsnotify"
)

var localExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".wav":  true,
	".ogg":  true,
	".opus": true,
	".m4a":  true,
	".aac":  true,
}

// LocalCatalog serves tracks from the local media root. It keeps an index
// of playable files and refreshes it when the directory tree changes.
type LocalCatalog struct {
	root string

	mu    sync.RWMutex
	index map[string]bool // relative path -> present

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewLocalCatalog builds the catalog index for root. The watcher is
// optional; Start wires it up.
func NewLocalCatalog(root string) (*LocalCatalog, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve local media root %s: %w", root, err)
	}

	c := &LocalCatalog{
		root:  abs,
		index: make(map[string]bool),
		done:  make(chan struct{}),
	}
	if err := c.rescan(); err != nil {
		return nil, err
	}
	return c, nil
}

// Name implements Provider.
func (c *LocalCatalog) Name() string { return "local" }

// Root returns the absolute media root.
func (c *LocalCatalog) Root() string { return c.root }

// Start begins watching the media root for changes. Safe to skip in tests.
func (c *LocalCatalog) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create media watcher: %w", err)
	}
	c.watcher = watcher

	if err := filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	}); err != nil {
		logger.Warn("failed to watch parts of the media root", logger.ErrorField(err))
	}

	go c.watchLoop()
	return nil
}

// Stop tears down the watcher.
func (c *LocalCatalog) Stop() {
	close(c.done)
	if c.watcher != nil {
		c.watcher.Close()
	}
}

func (c *LocalCatalog) watchLoop() {
	for {
		select {
		case <-c.done:
			return
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = c.watcher.Add(event.Name)
				}
				if err := c.rescan(); err != nil {
					logger.Warn("media catalog rescan failed", logger.ErrorField(err))
				}
			}
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("media watcher error", logger.ErrorField(err))
		}
	}
}

func (c *LocalCatalog) rescan() error {
	index := make(map[string]bool)
	err := filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if localExtensions[strings.ToLower(filepath.Ext(path))] {
			if rel, err := filepath.Rel(c.root, path); err == nil {
				index[rel] = true
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan media root %s: %w", c.root, err)
	}

	c.mu.Lock()
	c.index = index
	c.mu.Unlock()
	return nil
}

// Fetch implements Provider for local file and folder queries.
func (c *LocalCatalog) Fetch(ctx context.Context, q *query.Query) (*LoadResult, error) {
	rel, err := filepath.Rel(c.root, q.LocalPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil, query.ErrPathNotAllowed
	}

	switch q.Kind {
	case query.KindLocalFile:
		c.mu.RLock()
		ok := c.index[rel]
		c.mu.RUnlock()
		if !ok {
			return &LoadResult{}, nil
		}
		return &LoadResult{Tracks: []model.Track{c.trackFor(rel)}}, nil

	case query.KindLocalFolder:
		prefix := rel + string(os.PathSeparator)
		if rel == "." {
			prefix = ""
		}

		c.mu.RLock()
		var matches []string
		for p := range c.index {
			if strings.HasPrefix(p, prefix) {
				matches = append(matches, p)
			}
		}
		c.mu.RUnlock()

		sort.Strings(matches)
		tracks := make([]model.Track, 0, len(matches))
		for _, p := range matches {
			tracks = append(tracks, c.trackFor(p))
		}

		name := filepath.Base(q.LocalPath)
		return &LoadResult{Tracks: tracks, Playlist: &PlaylistInfo{Name: name}}, nil

	default:
		return nil, fmt.Errorf("local catalog cannot serve query kind %d", q.Kind)
	}
}

func (c *LocalCatalog) trackFor(rel string) model.Track {
	base := filepath.Base(rel)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	return model.Track{
		ID:    "local:" + filepath.ToSlash(rel),
		Title: title,
		URI:   filepath.Join(c.root, rel),
	}
}
