package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"GuildFM/core/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSpotifyClient points a client at a stub server with a pre-seeded
// token, so no request ever leaves the process.
func testSpotifyClient(server *httptest.Server) *SpotifyClient {
	c := NewSpotifyClient(server.URL, "id", "secret")
	c.accessToken = "test-token"
	c.tokenExpiry = time.Now().Add(time.Hour)
	return c
}

func TestSpotifyFetchSingleTrack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tracks/abc123", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"id":"abc123","name":"Song One","artists":[{"name":"Artist A"}],"duration_ms":213000}`)
	}))
	defer server.Close()

	c := testSpotifyClient(server)
	res, err := c.Fetch(context.Background(), &query.Query{
		Kind: query.KindSingleTrack, Source: query.SourceSpotify, ID: "abc123", StartTime: 85000,
	})
	require.NoError(t, err)
	require.Len(t, res.Tracks, 1)

	track := res.Tracks[0]
	assert.Equal(t, "spotify:abc123", track.ID)
	assert.Equal(t, "Song One", track.Title)
	assert.Equal(t, "Artist A", track.Author)
	assert.Equal(t, int64(213000), track.Duration)
	assert.Equal(t, int64(85000), track.StartTime)
}

func TestSpotifyFetchPlaylistPaginates(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/playlists/pl1":
			fmt.Fprintf(w, `{"name":"Mix","tracks":{"items":[{"track":{"id":"t1","name":"One","artists":[{"name":"A"}]}}],"next":"%s/page2"}}`, server.URL)
		case "/page2":
			fmt.Fprint(w, `{"items":[{"track":{"id":"t2","name":"Two","artists":[{"name":"B"}]}}],"next":""}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := testSpotifyClient(server)
	res, err := c.Fetch(context.Background(), &query.Query{
		Kind: query.KindPlaylist, Source: query.SourceSpotify, ID: "pl1",
	})
	require.NoError(t, err)
	require.Len(t, res.Tracks, 2)
	assert.Equal(t, "spotify:t1", res.Tracks[0].ID)
	assert.Equal(t, "spotify:t2", res.Tracks[1].ID)
	require.NotNil(t, res.Playlist)
	assert.Equal(t, "Mix", res.Playlist.Name)
}

func TestSpotifyFetchAlbumFlatItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/albums/al1", r.URL.Path)
		fmt.Fprint(w, `{"name":"Album","tracks":{"items":[{"id":"t1","name":"One","artists":[{"name":"A"}]},{"id":"t2","name":"Two","artists":[{"name":"A"}]}],"next":""}}`)
	}))
	defer server.Close()

	c := testSpotifyClient(server)
	res, err := c.Fetch(context.Background(), &query.Query{
		Kind: query.KindAlbum, Source: query.SourceSpotify, ID: "al1",
	})
	require.NoError(t, err)
	require.Len(t, res.Tracks, 2)
	assert.Equal(t, "A", res.Tracks[0].Author)
}

func TestSpotifyErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrAuthMissing},
		{"forbidden", http.StatusForbidden, ErrAuthMissing},
		{"rate limited", http.StatusTooManyRequests, ErrQuotaExceeded},
		{"server error", http.StatusBadGateway, ErrUpstreamUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			c := testSpotifyClient(server)
			_, err := c.Fetch(context.Background(), &query.Query{
				Kind: query.KindSingleTrack, Source: query.SourceSpotify, ID: "x",
			})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSpotifyNotFoundIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	c := testSpotifyClient(server)
	res, err := c.Fetch(context.Background(), &query.Query{
		Kind: query.KindSingleTrack, Source: query.SourceSpotify, ID: "missing",
	})
	require.NoError(t, err)
	assert.Empty(t, res.Tracks)
}

func TestSpotifyMissingCredentials(t *testing.T) {
	c := NewSpotifyClient("https://api.example.invalid", "", "")
	_, err := c.Fetch(context.Background(), &query.Query{
		Kind: query.KindSingleTrack, Source: query.SourceSpotify, ID: "x",
	})
	assert.ErrorIs(t, err, ErrAuthMissing)
}
