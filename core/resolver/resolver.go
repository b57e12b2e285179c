package resolver

import (
	"context"
	"encoding/json"
	"fmt"

	"GuildFM/cache"
	"GuildFM/core/provider"
	"GuildFM/core/query"
	"GuildFM/logger"
	"GuildFM/model"
)

// TrackLoader is the node-side resolution surface: a provider for search
// and direct-URL queries plus raw identifier loading for match lookups.
type TrackLoader interface {
	provider.Provider
	LoadTracks(ctx context.Context, identifier string) (*provider.LoadResult, error)
}

// Resolver classifies raw input and drives the provider adapters through
// the metadata cache tiers.
type Resolver struct {
	cache     *cache.Cache
	spotify   provider.Provider
	local     provider.Provider
	node      TrackLoader
	localRoot string
}

// New wires a resolver. local may be nil when no media root is configured.
func New(c *cache.Cache, spotify provider.Provider, local provider.Provider, node TrackLoader, localRoot string) *Resolver {
	return &Resolver{
		cache:     c,
		spotify:   spotify,
		local:     local,
		node:      node,
		localRoot: localRoot,
	}
}

// Resolve classifies raw user input into a typed query.
func (r *Resolver) Resolve(raw string) (*query.Query, error) {
	return query.Parse(raw, r.localRoot)
}

// FetchTracks turns a typed query into tracks, consulting the cache tiers
// the configured cache level enables.
func (r *Resolver) FetchTracks(ctx context.Context, q *query.Query) (*provider.LoadResult, error) {
	switch {
	case q.IsLocal():
		if r.local == nil {
			return nil, fmt.Errorf("no local media root configured")
		}
		return r.local.Fetch(ctx, q)

	case q.Source == query.SourceSpotify:
		return r.fetchSpotify(ctx, q)

	default:
		identifier := q.Raw
		if q.Kind == query.KindSearch {
			identifier = "ytsearch:" + q.Raw
		}
		return r.cachedLoad(ctx, cache.TierLavalink, identifier, func(ctx context.Context) (*provider.LoadResult, error) {
			return r.node.Fetch(ctx, q)
		})
	}
}

// fetchSpotify expands metadata through the spotify tier, then matches
// each track to a playable source through the youtube tier.
func (r *Resolver) fetchSpotify(ctx context.Context, q *query.Query) (*provider.LoadResult, error) {
	metaKey := fmt.Sprintf("spotify:%d:%s", q.Kind, q.ID)
	meta, err := r.cachedLoad(ctx, cache.TierSpotify, metaKey, func(ctx context.Context) (*provider.LoadResult, error) {
		return r.spotify.Fetch(ctx, q)
	})
	if err != nil {
		return nil, err
	}

	out := &provider.LoadResult{Playlist: meta.Playlist}
	for _, t := range meta.Tracks {
		matched, err := r.matchTrack(ctx, t)
		if err != nil {
			// A single unmatched track should not sink a whole playlist
			// load, but an upstream failure should.
			if len(meta.Tracks) == 1 {
				return nil, err
			}
			logger.Debug("skipping unmatchable track",
				logger.String("title", t.Title), logger.ErrorField(err))
			continue
		}
		if matched == nil {
			continue
		}
		m := *matched
		m.StartTime = t.StartTime
		out.Tracks = append(out.Tracks, m)
	}
	return out, nil
}

// matchTrack finds a playable counterpart for a metadata-only track.
func (r *Resolver) matchTrack(ctx context.Context, t model.Track) (*model.Track, error) {
	searchTerm := fmt.Sprintf("%s %s", t.Title, t.Author)
	result, err := r.cachedLoad(ctx, cache.TierYouTube, "match:"+searchTerm, func(ctx context.Context) (*provider.LoadResult, error) {
		return r.node.LoadTracks(ctx, "ytsearch:"+searchTerm)
	})
	if err != nil {
		return nil, err
	}
	if len(result.Tracks) == 0 {
		return nil, nil
	}
	return &result.Tracks[0], nil
}

// cachedLoad runs fetch through one cache tier, serializing the result as
// the tier's payload.
func (r *Resolver) cachedLoad(ctx context.Context, tier cache.Tier, key string, fetch func(ctx context.Context) (*provider.LoadResult, error)) (*provider.LoadResult, error) {
	payload, cached, err := r.cache.GetOrFetch(ctx, tier, key, func(ctx context.Context) ([]byte, error) {
		result, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(result)
	})
	if err != nil {
		return nil, err
	}

	var result provider.LoadResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to decode cached %s payload: %w", tier, err)
	}
	if cached {
		logger.Debug("cache hit", logger.String("tier", string(tier)), logger.String("key", key))
	}
	return &result, nil
}
