package node

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"GuildFM/core/provider"
	"GuildFM/core/query"
	"GuildFM/logger"
	"GuildFM/model"

	"github.com/gorilla/websocket"
)

// EventType names a track lifecycle event reported by the audio node.
type EventType string

const (
	EventTrackStart     EventType = "TrackStartEvent"
	EventTrackEnd       EventType = "TrackEndEvent"
	EventTrackStuck     EventType = "TrackStuckEvent"
	EventTrackException EventType = "TrackExceptionEvent"
)

// Event is one decoded node event, delivered asynchronously.
type Event struct {
	Type    EventType `json:"type"`
	GuildID string    `json:"guildId"`
	TrackID string    `json:"track"`
	Error   string    `json:"error,omitempty"`
}

// Controller is the control surface the player needs from the node.
type Controller interface {
	Play(ctx context.Context, guildID string, track model.Track) error
	Stop(ctx context.Context, guildID string) error
	Pause(ctx context.Context, guildID string, paused bool) error
	Volume(ctx context.Context, guildID string, volume int) error
	Destroy(ctx context.Context, guildID string) error
}

// Handler receives decoded node events.
type Handler func(Event)

// Client drives the external audio node: track resolution over REST and
// playback control plus lifecycle events over a websocket.
type Client struct {
	restURL    string
	wsURL      string
	password   string
	httpClient *http.Client

	mu      sync.Mutex
	conn    *websocket.Conn
	handler Handler

	done chan struct{}
}

// NewClient creates a node client. host:port is the node's control
// endpoint; password authenticates both channels.
func NewClient(host, port, password string) *Client {
	return &Client{
		restURL:  fmt.Sprintf("http://%s:%s", host, port),
		wsURL:    fmt.Sprintf("ws://%s:%s", host, port),
		password: password,
		httpClient: &http.Client{
			Timeout: time.Second * 10,
		},
		done: make(chan struct{}),
	}
}

// Name implements provider.Provider.
func (c *Client) Name() string { return "node" }

// Connect dials the node websocket and starts the event read loop. The
// handler is invoked for every decoded event.
func (c *Client) Connect(ctx context.Context, handler Handler) error {
	header := http.Header{}
	header.Set("Authorization", c.password)

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.wsURL, header)
	if err != nil {
		return fmt.Errorf("failed to connect to audio node at %s: %w", c.wsURL, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.handler = handler
	c.mu.Unlock()

	go c.readLoop(conn)
	return nil
}

// Close shuts down the websocket.
func (c *Client) Close() error {
	close(c.done)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		select {
		case <-c.done:
			return
		default:
		}

		var frame struct {
			Op string `json:"op"`
			Event
		}
		if err := conn.ReadJSON(&frame); err != nil {
			select {
			case <-c.done:
			default:
				logger.Error("audio node websocket read failed", logger.ErrorField(err))
			}
			return
		}
		if frame.Op != "event" {
			continue
		}

		c.mu.Lock()
		handler := c.handler
		c.mu.Unlock()
		if handler != nil {
			handler(frame.Event)
		}
	}
}

// send writes one control frame to the node.
func (c *Client) send(payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("audio node not connected")
	}
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := c.conn.WriteJSON(payload); err != nil {
		return fmt.Errorf("failed to send node op: %w", err)
	}
	return nil
}

// Play implements Controller.
func (c *Client) Play(ctx context.Context, guildID string, track model.Track) error {
	return c.send(map[string]interface{}{
		"op":        "play",
		"guildId":   guildID,
		"track":     track.ID,
		"startTime": track.StartTime,
	})
}

// Stop implements Controller.
func (c *Client) Stop(ctx context.Context, guildID string) error {
	return c.send(map[string]interface{}{"op": "stop", "guildId": guildID})
}

// Pause implements Controller.
func (c *Client) Pause(ctx context.Context, guildID string, paused bool) error {
	return c.send(map[string]interface{}{"op": "pause", "guildId": guildID, "pause": paused})
}

// Volume implements Controller.
func (c *Client) Volume(ctx context.Context, guildID string, volume int) error {
	return c.send(map[string]interface{}{"op": "volume", "guildId": guildID, "volume": volume})
}

// Destroy implements Controller.
func (c *Client) Destroy(ctx context.Context, guildID string) error {
	return c.send(map[string]interface{}{"op": "destroy", "guildId": guildID})
}

// Fetch implements provider.Provider for search and direct-URL queries by
// delegating to the node's track resolution endpoint.
func (c *Client) Fetch(ctx context.Context, q *query.Query) (*provider.LoadResult, error) {
	identifier := q.Raw
	if q.Kind == query.KindSearch {
		identifier = "ytsearch:" + q.Raw
	}
	return c.LoadTracks(ctx, identifier)
}

// LoadTracks asks the node to resolve an identifier into tracks.
func (c *Client) LoadTracks(ctx context.Context, identifier string) (*provider.LoadResult, error) {
	reqURL := fmt.Sprintf("%s/loadtracks?identifier=%s", c.restURL, url.QueryEscape(identifier))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create loadtracks request: %w", err)
	}
	req.Header.Set("Authorization", c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, provider.ErrAuthMissing
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: loadtracks status %d", provider.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var result struct {
		LoadType     string `json:"loadType"`
		PlaylistInfo struct {
			Name string `json:"name"`
		} `json:"playlistInfo"`
		Tracks []struct {
			Track string `json:"track"`
			Info  struct {
				Identifier string `json:"identifier"`
				Title      string `json:"title"`
				Author     string `json:"author"`
				URI        string `json:"uri"`
				Length     int64  `json:"length"`
				IsStream   bool   `json:"isStream"`
			} `json:"info"`
		} `json:"tracks"`
		Exception struct {
			Message string `json:"message"`
		} `json:"exception"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode loadtracks response: %w", err)
	}

	if result.LoadType == "LOAD_FAILED" {
		return nil, fmt.Errorf("%w: %s", provider.ErrUpstreamUnavailable, result.Exception.Message)
	}

	out := &provider.LoadResult{}
	for _, t := range result.Tracks {
		duration := t.Info.Length
		if t.Info.IsStream {
			duration = 0
		}
		out.Tracks = append(out.Tracks, model.Track{
			ID:       t.Track,
			Title:    t.Info.Title,
			Author:   t.Info.Author,
			URI:      t.Info.URI,
			Duration: duration,
			IsStream: t.Info.IsStream,
		})
	}
	if result.LoadType == "PLAYLIST_LOADED" {
		out.Playlist = &provider.PlaylistInfo{Name: result.PlaylistInfo.Name, URL: identifier}
	}
	return out, nil
}
