package provider

import (
	"context"
	"errors"

	"GuildFM/core/query"
	"GuildFM/model"
)

// Upstream errors. An adapter returns one of these when the call itself
// failed; a legitimate "no matches" is an empty result, not an error.
var (
	ErrAuthMissing         = errors.New("provider credentials are missing or rejected")
	ErrQuotaExceeded       = errors.New("provider quota exceeded")
	ErrUpstreamUnavailable = errors.New("provider upstream unavailable")
)

// PlaylistInfo carries the provenance of an expanded playlist or album so
// the orchestrator can render it without a second round-trip.
type PlaylistInfo struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// LoadResult is the outcome of a provider fetch.
type LoadResult struct {
	Tracks   []model.Track `json:"tracks"`
	Playlist *PlaylistInfo `json:"playlist,omitempty"`
}

// Provider is a uniform interface over one upstream source. Providers do
// not cache; caching is injected by the caller.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, q *query.Query) (*LoadResult, error)
}
