package authext

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestWSNotifierDeliversEvents(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		// malformed and kind-less messages must be skipped, not fatal
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"session":null}`)))
		require.NoError(t, conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"kind":"SIGNED_IN","session":{"access_token":"at","user_id":"u1"}}`)))
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"kind":"SIGNED_OUT"}`)))

		// hold the connection open until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	n := NewWSNotifier(wsURL(srv), "test-key", quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, stop, err := n.Subscribe(ctx)
	require.NoError(t, err)
	defer stop()

	select {
	case ev := <-events:
		assert.Equal(t, EventSignedIn, ev.Kind)
		require.NotNil(t, ev.Session)
		assert.Equal(t, "u1", ev.Session.UserID)
	case <-time.After(2 * time.Second):
		t.Fatal("no signed-in event")
	}

	select {
	case ev := <-events:
		assert.Equal(t, EventSignedOut, ev.Kind)
		assert.Nil(t, ev.Session)
	case <-time.After(2 * time.Second):
		t.Fatal("no signed-out event")
	}
}

func TestWSNotifierReconnects(t *testing.T) {
	upgrader := websocket.Upgrader{}
	dials := make(chan struct{}, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dials <- struct{}{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		// drop the connection right away so the client must redial
		conn.Close()
	}))
	defer srv.Close()

	n := NewWSNotifier(wsURL(srv), "", quietLogger())
	n.reconnect = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, stop, err := n.Subscribe(ctx)
	require.NoError(t, err)
	defer stop()

	for i := 0; i < 2; i++ {
		select {
		case <-dials:
		case <-time.After(2 * time.Second):
			t.Fatalf("expected dial %d", i+1)
		}
	}
}

func TestWSNotifierReconnectDoesNotLeakGoroutines(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		// drop the connection right away so the client must redial
		conn.Close()
	}))
	defer srv.Close()

	n := NewWSNotifier(wsURL(srv), "", quietLogger())
	n.reconnect = 2 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	before := runtime.NumGoroutine()

	_, stop, err := n.Subscribe(ctx)
	require.NoError(t, err)
	defer stop()

	// a couple hundred reconnect cycles
	time.Sleep(800 * time.Millisecond)

	after := runtime.NumGoroutine()
	assert.LessOrEqual(t, after, before+20,
		"goroutines grew from %d to %d across reconnects", before, after)
}

func TestWSNotifierStopClosesChannel(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	n := NewWSNotifier(wsURL(srv), "", quietLogger())
	events, stop, err := n.Subscribe(context.Background())
	require.NoError(t, err)

	stop()
	select {
	case _, open := <-events:
		assert.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after stop")
	}
}
