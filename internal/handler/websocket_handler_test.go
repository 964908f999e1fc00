package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCloseNormal(t *testing.T) {
	h := NewWebSocketHandler(nil, zaptest.NewLogger(t))
	results := make(chan [2]error, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			results <- [2]error{err, err}
			return
		}
		first := h.closeNormal(conn)
		conn.Close()
		results <- [2]error{first, h.closeNormal(conn)}
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "read error %v", err)

	res := <-results
	assert.NoError(t, res[0])
	assert.Error(t, res[1], "writing to a closed connection must report an error")
}
