package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestResolveURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "localhost", want: "ws://localhost:7890"},
		{in: "ws://host:9000/ws", want: "ws://host:9000/ws"},
		{in: "http://host", want: "ws://host:7890"},
		{in: "https://host:443/live", want: "wss://host:443/live"},
		{in: "  wss://host  ", want: "wss://host:7890"},
		{in: "", wantErr: true},
		{in: "ftp://host", wantErr: true},
		{in: "ws://", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ResolveURL(tt.in)
		if tt.wantErr {
			require.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.want, got, tt.in)
	}
}

func TestWithToken(t *testing.T) {
	require.Equal(t, "ws://h:1/ws", WithToken("ws://h:1/ws", ""))
	require.Equal(t, "ws://h:1/ws?token=abc", WithToken("ws://h:1/ws", "abc"))
	require.Equal(t, "ws://h:1/ws?a=1&token=x%2By", WithToken("ws://h:1/ws?a=1", "x+y"))
}

func TestTokenMessageShape(t *testing.T) {
	msg := newTokenMessage("abc", false)
	require.NotNil(t, msg.Token)
	require.Equal(t, "abc", *msg.Token)
	require.Nil(t, newTokenMessage("ignored", true).Token)
}

func TestWebSocketChannel(t *testing.T) {
	upgrader := websocket.Upgrader{}
	received := make(chan map[string]any, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "t1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"hosts":{"data":[]}}`))
		var msg map[string]any
		if err := conn.ReadJSON(&msg); err == nil {
			received <- msg
		}
		_, _, _ = conn.ReadMessage()
	}))
	defer ts.Close()

	base, err := ResolveURL(strings.Replace(ts.URL, "http://", "ws://", 1))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = WebSocketDialer{}.Dial(ctx, base)
	require.Error(t, err, "dial without token must fail the handshake")

	ch, err := WebSocketDialer{}.Dial(ctx, WithToken(base, "t1"))
	require.NoError(t, err)

	data, err := ch.Read()
	require.NoError(t, err)
	require.JSONEq(t, `{"hosts":{"data":[]}}`, string(data))

	require.NoError(t, ch.Ping())
	require.NoError(t, ch.WriteJSON(newTokenMessage("t2", false)))
	select {
	case msg := <-received:
		require.Equal(t, map[string]any{"action": "validate_token", "token": "t2"}, msg)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not receive token message")
	}

	require.NoError(t, ch.Close())
	require.NoError(t, ch.Close(), "close is idempotent")
}
