package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"GuildFM/core/query"
	"GuildFM/logger"
	"GuildFM/model"
)

// SpotifyClient talks to the third-party playlist metadata service. It
// returns track metadata only; matching against a playable source happens
// later in the resolve pipeline.
type SpotifyClient struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewSpotifyClient creates a new metadata service client.
func NewSpotifyClient(baseURL, clientID, clientSecret string) *SpotifyClient {
	return &SpotifyClient{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient: &http.Client{
			Timeout: time.Second * 10,
		},
	}
}

// Name implements Provider.
func (c *SpotifyClient) Name() string { return "spotify" }

// Fetch implements Provider for single-track, album and playlist queries.
func (c *SpotifyClient) Fetch(ctx context.Context, q *query.Query) (*LoadResult, error) {
	switch q.Kind {
	case query.KindSingleTrack:
		track, err := c.getTrack(ctx, q.ID)
		if err != nil {
			return nil, err
		}
		if track == nil {
			return &LoadResult{}, nil
		}
		t := *track
		t.StartTime = q.StartTime
		return &LoadResult{Tracks: []model.Track{t}}, nil
	case query.KindAlbum:
		return c.getCollection(ctx, "albums", q.ID)
	case query.KindPlaylist:
		return c.getCollection(ctx, "playlists", q.ID)
	default:
		return nil, fmt.Errorf("spotify provider cannot serve query kind %d", q.Kind)
	}
}

type spotifyTrack struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	DurationMS int64 `json:"duration_ms"`
}

func (st *spotifyTrack) toTrack() model.Track {
	var author string
	if len(st.Artists) > 0 {
		author = st.Artists[0].Name
	}
	return model.Track{
		ID:       "spotify:" + st.ID,
		Title:    st.Name,
		Author:   author,
		URI:      "https://open.spotify.com/track/" + st.ID,
		Duration: st.DurationMS,
	}
}

func (c *SpotifyClient) getTrack(ctx context.Context, id string) (*model.Track, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/tracks/%s", c.baseURL, url.PathEscape(id)))
	if err != nil {
		return nil, err
	}

	var st spotifyTrack
	if err := json.Unmarshal(body, &st); err != nil {
		return nil, fmt.Errorf("failed to decode track %s: %w", id, err)
	}
	if st.ID == "" {
		return nil, nil
	}
	t := st.toTrack()
	return &t, nil
}

func (c *SpotifyClient) getCollection(ctx context.Context, kind, id string) (*LoadResult, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/%s/%s", c.baseURL, kind, url.PathEscape(id)))
	if err != nil {
		return nil, err
	}

	var result struct {
		Name   string `json:"name"`
		Tracks struct {
			Items []json.RawMessage `json:"items"`
			Next  string            `json:"next"`
		} `json:"tracks"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode %s %s: %w", kind, id, err)
	}

	info := &PlaylistInfo{
		Name: result.Name,
		URL:  fmt.Sprintf("https://open.spotify.com/%s/%s", strings.TrimSuffix(kind, "s"), id),
	}

	tracks := make([]model.Track, 0, len(result.Tracks.Items))
	appendItems := func(items []json.RawMessage) {
		for _, item := range items {
			// Playlist items nest the track one level deeper than albums.
			var wrapped struct {
				Track *spotifyTrack `json:"track"`
			}
			if err := json.Unmarshal(item, &wrapped); err == nil && wrapped.Track != nil && wrapped.Track.ID != "" {
				tracks = append(tracks, wrapped.Track.toTrack())
				continue
			}
			var st spotifyTrack
			if err := json.Unmarshal(item, &st); err == nil && st.ID != "" {
				tracks = append(tracks, st.toTrack())
			}
		}
	}
	appendItems(result.Tracks.Items)

	next := result.Tracks.Next
	for next != "" {
		body, err := c.get(ctx, next)
		if err != nil {
			return nil, err
		}
		var page struct {
			Items []json.RawMessage `json:"items"`
			Next  string            `json:"next"`
		}
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("failed to decode %s page: %w", kind, err)
		}
		appendItems(page.Items)
		next = page.Next
	}

	logger.Debug("spotify collection expanded",
		logger.String("kind", kind),
		logger.String("id", id),
		logger.Int("tracks", len(tracks)),
	)
	return &LoadResult{Tracks: tracks, Playlist: info}, nil
}

// get performs an authorized GET and maps transport failures onto the
// provider error taxonomy.
func (c *SpotifyClient) get(ctx context.Context, rawURL string) ([]byte, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrAuthMissing
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrQuotaExceeded
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return []byte("{}"), nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// token returns a cached client-credentials token, refreshing when expired.
func (c *SpotifyClient) token(ctx context.Context) (string, error) {
	if c.clientID == "" || c.clientSecret == "" {
		return "", ErrAuthMissing
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://accounts.spotify.com/api/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", ErrAuthMissing
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	c.accessToken = result.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(result.ExpiresIn-30) * time.Second)
	return c.accessToken, nil
}
