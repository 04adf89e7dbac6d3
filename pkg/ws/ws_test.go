package ws_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/orderdesk/pkg/ws"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestServeRepliesInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws.Serve(w, r, func(_ context.Context, msg []byte) ([]byte, error) {
			if string(msg) == "quiet" {
				return nil, nil
			}
			if string(msg) == "bye" {
				return nil, errors.New("client said bye")
			}
			return bytes.ToUpper(msg), nil
		})
	}))
	defer srv.Close()

	conn := dial(t, srv)
	for _, m := range []string{"one", "quiet", "two"} {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(m)))
	}

	_, got, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "ONE", string(got))
	_, got, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "TWO", string(got))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("bye")))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestHubPublish(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := ws.NewHub()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.Upgrade))
	defer srv.Close()

	a, b := dial(t, srv), dial(t, srv)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(map[string]any{"event": "order.created", "id": 7}))
	for _, c := range []*websocket.Conn{a, b} {
		_, got, err := c.ReadMessage()
		require.NoError(t, err)
		assert.JSONEq(t, `{"event":"order.created","id":7}`, string(got))
	}

	a.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	_, _, err := b.ReadMessage()
	assert.Error(t, err)
}
