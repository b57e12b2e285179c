package query

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Kind classifies a raw user query.
type Kind int

const (
	KindSearch Kind = iota
	KindSingleTrack
	KindAlbum
	KindPlaylist
	KindLocalFile
	KindLocalFolder
)

// Source names the upstream a query should be served by.
type Source string

const (
	SourceSpotify Source = "spotify"
	SourceYouTube Source = "youtube"
	SourceLocal   Source = "local"
)

// ErrPathNotAllowed is returned for local paths outside the configured
// media root. Such paths are rejected, never clamped into the root.
var ErrPathNotAllowed = errors.New("local path is outside the configured media root")

var (
	spotifyURLRe       = regexp.MustCompile(`^(?:https?://)?open\.spotify\.com/(track|album|playlist)/([a-zA-Z0-9]+)`)
	spotifyTimestampRe = regexp.MustCompile(`#(\d+):(\d+)`)
	youtubeWatchRe     = regexp.MustCompile(`^(?:https?://)?(?:www\.)?(?:youtube\.com/watch\?|youtu\.be/)`)
	youtubePlaylistRe  = regexp.MustCompile(`^(?:https?://)?(?:www\.)?(?:youtube\.com|youtu\.?be)/playlist\?`)
	youtubeTimestampRe = regexp.MustCompile(`[&?]t=(\d+)s?`)
	youtubeIndexRe     = regexp.MustCompile(`&index=(\d+)`)
)

// Query is the typed form of one user input. Constructed once per input
// and never mutated afterwards.
type Query struct {
	Kind   Kind
	Source Source

	Raw        string
	ID         string // provider-assigned id parsed from a URL
	LocalPath  string // absolute path under the media root
	StartTime  int64  // milliseconds into the track
	TrackIndex int    // 1-based index within a playlist, 0 = unset
}

// String renders the query the way it is matched against keyword
// allow/deny lists.
func (q *Query) String() string {
	if q.LocalPath != "" {
		return q.LocalPath
	}
	return q.Raw
}

// IsLocal reports whether the query targets the local media catalog.
func (q *Query) IsLocal() bool {
	return q.Kind == KindLocalFile || q.Kind == KindLocalFolder
}

// Parse classifies raw input into a Query. Classification priority:
// third-party playlist/album URL, single-track URL, local path under
// localRoot, keyword search.
func Parse(raw string, localRoot string) (*Query, error) {
	raw = strings.TrimSpace(raw)

	if m := spotifyURLRe.FindStringSubmatch(raw); m != nil {
		q := &Query{Source: SourceSpotify, Raw: raw, ID: m[2]}
		switch m[1] {
		case "album":
			q.Kind = KindAlbum
		case "playlist":
			q.Kind = KindPlaylist
		default:
			q.Kind = KindSingleTrack
			if ts := spotifyTimestampRe.FindStringSubmatch(raw); ts != nil {
				mins, _ := strconv.ParseInt(ts[1], 10, 64)
				secs, _ := strconv.ParseInt(ts[2], 10, 64)
				q.StartTime = (mins*60 + secs) * 1000
			}
		}
		return q, nil
	}

	if youtubePlaylistRe.MatchString(raw) {
		q := &Query{Kind: KindPlaylist, Source: SourceYouTube, Raw: raw}
		if u, err := url.Parse(raw); err == nil {
			q.ID = u.Query().Get("list")
		}
		if idx := youtubeIndexRe.FindStringSubmatch(raw); idx != nil {
			q.TrackIndex, _ = strconv.Atoi(idx[1])
		}
		return q, nil
	}

	if youtubeWatchRe.MatchString(raw) {
		q := &Query{Kind: KindSingleTrack, Source: SourceYouTube, Raw: raw}
		if u, err := url.Parse(raw); err == nil {
			if v := u.Query().Get("v"); v != "" {
				q.ID = v
			} else {
				q.ID = strings.TrimPrefix(u.Path, "/")
			}
		}
		if ts := youtubeTimestampRe.FindStringSubmatch(raw); ts != nil {
			secs, _ := strconv.ParseInt(ts[1], 10, 64)
			q.StartTime = secs * 1000
		}
		return q, nil
	}

	if isLocalCandidate(raw, localRoot) {
		return parseLocal(raw, localRoot)
	}

	return &Query{Kind: KindSearch, Source: SourceYouTube, Raw: raw}, nil
}

// isLocalCandidate decides whether raw should be treated as a filesystem
// path at all. Plain words fall through to keyword search.
func isLocalCandidate(raw, localRoot string) bool {
	if localRoot == "" {
		return false
	}
	if strings.HasPrefix(raw, "local:") {
		return true
	}
	if filepath.IsAbs(raw) {
		return true
	}
	if strings.ContainsRune(raw, os.PathSeparator) || strings.ContainsRune(raw, '/') {
		// Relative path-looking input counts only if it resolves inside
		// the root; anything else is a search term with a slash in it.
		if _, err := os.Stat(filepath.Join(localRoot, filepath.FromSlash(raw))); err == nil {
			return true
		}
	}
	return false
}

func parseLocal(raw, localRoot string) (*Query, error) {
	trimmed := strings.TrimPrefix(raw, "local:")

	root, err := filepath.Abs(localRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve media root %s: %w", localRoot, err)
	}

	var full string
	if filepath.IsAbs(trimmed) {
		full = filepath.Clean(trimmed)
	} else {
		full = filepath.Join(root, filepath.FromSlash(trimmed))
	}

	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return nil, ErrPathNotAllowed
	}

	q := &Query{Source: SourceLocal, Raw: raw, LocalPath: full}
	if info, err := os.Stat(full); err == nil && info.IsDir() {
		q.Kind = KindLocalFolder
	} else {
		q.Kind = KindLocalFile
	}
	return q, nil
}
