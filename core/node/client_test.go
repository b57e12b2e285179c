package node

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"GuildFM/core/provider"
	"GuildFM/core/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clientFor(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	return NewClient(u.Hostname(), u.Port(), "secret")
}

func TestLoadTracksDecodesResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/loadtracks", r.URL.Path)
		assert.Equal(t, "ytsearch:rick astley", r.URL.Query().Get("identifier"))
		assert.Equal(t, "secret", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{
			"loadType": "SEARCH_RESULT",
			"tracks": [
				{"track":"enc1","info":{"identifier":"v1","title":"One","author":"A","uri":"u1","length":213000}},
				{"track":"enc2","info":{"identifier":"v2","title":"Radio","author":"B","uri":"u2","length":9999999,"isStream":true}}
			]
		}`)
	}))
	defer server.Close()

	c := clientFor(t, server)
	res, err := c.LoadTracks(context.Background(), "ytsearch:rick astley")
	require.NoError(t, err)
	require.Len(t, res.Tracks, 2)

	assert.Equal(t, "enc1", res.Tracks[0].ID)
	assert.Equal(t, "One", res.Tracks[0].Title)
	assert.Equal(t, int64(213000), res.Tracks[0].Duration)

	// Streams carry no meaningful length.
	assert.True(t, res.Tracks[1].IsStream)
	assert.Zero(t, res.Tracks[1].Duration)
	assert.Nil(t, res.Playlist)
}

func TestLoadTracksPlaylistInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"loadType": "PLAYLIST_LOADED",
			"playlistInfo": {"name": "My Mix"},
			"tracks": [{"track":"enc1","info":{"title":"One"}}]
		}`)
	}))
	defer server.Close()

	c := clientFor(t, server)
	res, err := c.LoadTracks(context.Background(), "https://www.youtube.com/playlist?list=PL1")
	require.NoError(t, err)
	require.NotNil(t, res.Playlist)
	assert.Equal(t, "My Mix", res.Playlist.Name)
}

func TestLoadTracksFailureMapsToUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"loadType":"LOAD_FAILED","exception":{"message":"video unavailable"}}`)
	}))
	defer server.Close()

	c := clientFor(t, server)
	_, err := c.LoadTracks(context.Background(), "bad")
	assert.ErrorIs(t, err, provider.ErrUpstreamUnavailable)
	assert.Contains(t, err.Error(), "video unavailable")
}

func TestLoadTracksAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c := clientFor(t, server)
	_, err := c.LoadTracks(context.Background(), "anything")
	assert.ErrorIs(t, err, provider.ErrAuthMissing)
}

func TestFetchPrefixesSearchQueries(t *testing.T) {
	var gotIdentifier string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIdentifier = r.URL.Query().Get("identifier")
		fmt.Fprint(w, `{"loadType":"NO_MATCHES","tracks":[]}`)
	}))
	defer server.Close()

	c := clientFor(t, server)
	_, err := c.Fetch(context.Background(), &query.Query{Kind: query.KindSearch, Raw: "some words"})
	require.NoError(t, err)
	assert.Equal(t, "ytsearch:some words", gotIdentifier)

	_, err = c.Fetch(context.Background(), &query.Query{Kind: query.KindSingleTrack, Raw: "https://youtu.be/x"})
	require.NoError(t, err)
	assert.Equal(t, "https://youtu.be/x", gotIdentifier)
}

func TestControlOpsRequireConnection(t *testing.T) {
	c := NewClient("localhost", "2333", "secret")
	err := c.Stop(context.Background(), "guild-1")
	assert.Error(t, err)
}
