package routes_test

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type liveReply struct {
	State map[string]any `json:"state"`
	Error string         `json:"error"`
	Path  string         `json:"path"`
}

func TestLiveFormSession(t *testing.T) {
	a := newAPI(t)
	id := a.createOrder(2)

	srv := httptest.NewServer(a.handler)
	defer srv.Close()

	url := fmt.Sprintf("ws%s/ws/orders/form?order=%d&token=%s", strings.TrimPrefix(srv.URL, "http"), id, a.staff)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	send := func(frame map[string]any) liveReply {
		t.Helper()
		require.NoError(t, conn.WriteJSON(frame))
		var reply liveReply
		require.NoError(t, conn.ReadJSON(&reply))
		return reply
	}

	reply := send(map[string]any{"path": "order_products.0.quantity", "value": 4})
	require.Empty(t, reply.Error)
	assert.Equal(t, "10.00", reply.State["total_price"])

	reply = send(map[string]any{"path": "total_price", "value": "1.00"})
	assert.Equal(t, "total_price", reply.Path)
	assert.Contains(t, reply.Error, "not editable")

	// the rejected edit left the session state alone
	reply = send(map[string]any{"path": "status", "value": "finished"})
	require.Empty(t, reply.Error)
	assert.Equal(t, "10.00", reply.State["total_price"])
	assert.Equal(t, "finished", reply.State["status"])
}

func TestLiveFormSessionUnknownOrder(t *testing.T) {
	a := newAPI(t)
	srv := httptest.NewServer(a.handler)
	defer srv.Close()

	url := fmt.Sprintf("ws%s/ws/orders/form?order=999&token=%s", strings.TrimPrefix(srv.URL, "http"), a.staff)
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 404, resp.StatusCode)
}
