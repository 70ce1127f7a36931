package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// AskStreamEvent is one token event from the streaming ask endpoint.
type AskStreamEvent struct {
	Token string  `json:"token"`
	Done  bool    `json:"done"`
	Error *string `json:"error,omitempty"`
}

// AskStream submits a grounded question over a websocket and streams the
// answer token by token. The onToken callback is invoked for each token;
// return an error from onToken to abort.
func (c *Client) AskStream(ctx context.Context, req AskRequest, onToken func(token string) error) error {
	wsEndpoint := c.baseURL + "/ask/stream"
	wsEndpoint = strings.Replace(wsEndpoint, "http://", "ws://", 1)
	wsEndpoint = strings.Replace(wsEndpoint, "https://", "wss://", 1)

	u, err := url.Parse(wsEndpoint)
	if err != nil {
		return fmt.Errorf("parse endpoint: %w", err)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("websocket connect: %w", err)
	}

	// Track connection state so cancellation and defer do not double-close.
	var mu sync.Mutex
	closed := false
	closeConn := func() {
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			closed = true
			conn.Close()
		}
	}
	defer closeConn()

	if err := conn.WriteJSON(req); err != nil {
		return fmt.Errorf("send question: %w", err)
	}

	// Close the connection when the context is cancelled so the read
	// loop below unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			closeConn()
		case <-done:
		}
	}()

	for {
		var event AskStreamEvent
		if err := conn.ReadJSON(&event); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read event: %w", err)
		}

		if event.Error != nil {
			return fmt.Errorf("stream error: %s", *event.Error)
		}

		if event.Token != "" {
			if err := onToken(event.Token); err != nil {
				return err
			}
		}

		if event.Done {
			return nil
		}
	}
}
