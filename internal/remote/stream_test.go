package remote

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chatsync/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitState(t *testing.T, states <-chan models.ConnectionState, want models.ConnectionState) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case s, ok := <-states:
			if !ok {
				t.Fatalf("state channel closed before %s", want)
			}
			if s == want {
				return
			}
		case <-timeout:
			t.Fatalf("timeout waiting for state %s", want)
		}
	}
}

func TestStream_ClassifiesEvents(t *testing.T) {
	upgrader := websocket.Upgrader{}
	frames := []models.Message{
		{ID: "m1", DialogID: "d1", SenderID: "u2", Type: models.MessageTypeChat, Text: "hi<script>x</script>"},
		{ID: "bad", SenderID: "u2", Type: models.MessageTypeChat},
		{ID: "m2", DialogID: "d1", SenderID: "me", Type: models.MessageTypeSystem, EventType: models.EventTypeLeave},
		{ID: "m3", DialogID: "d1", SenderID: "u2", Type: models.MessageTypeSystem, EventType: models.EventTypeLeave},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("token") != "secret" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		for _, f := range frames {
			if err := conn.WriteJSON(f); err != nil {
				return
			}
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	stream := NewStream(StreamConfig{URL: wsURL(srv), Token: "secret", CurrentUserID: "me", RetryDelay: 10 * time.Millisecond})
	evs, cancelEvents := stream.Events()
	defer cancelEvents()
	states, cancelStates := stream.States()
	defer cancelStates()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- stream.Run(ctx) }()

	waitState(t, states, models.ConnectionConnected)

	want := []struct {
		id   string
		kind models.EventKind
	}{
		{"m1", models.EventNewMessage},
		{"m2", models.EventLeave},
		{"m3", models.EventUserLeave},
	}
	for _, w := range want {
		select {
		case ev := <-evs:
			require.Equal(t, w.id, ev.Message.ID)
			require.Equal(t, w.kind, ev.Kind)
			require.Equal(t, "d1", ev.DialogID)
			if w.id == "m1" {
				require.Equal(t, "hi", ev.Message.Text)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for event %s", w.id)
		}
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	require.Equal(t, models.ConnectionDisconnected, stream.State())

	_, ok := <-evs
	require.False(t, ok, "event channel must be closed after Run returns")
}

func TestStream_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	stream := NewStream(StreamConfig{URL: wsURL(srv), RetryDelay: 10 * time.Millisecond})
	err := stream.Run(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
	require.Equal(t, models.ConnectionUnauthorized, stream.State())
}

func TestStream_Reconnects(t *testing.T) {
	upgrader := websocket.Upgrader{}
	connects := make(chan struct{}, 10)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		connects <- struct{}{}
		// Drop the connection right away to force a reconnect.
		_ = conn.Close()
	}))
	defer srv.Close()

	stream := NewStream(StreamConfig{URL: wsURL(srv), RetryDelay: 5 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stream.Run(ctx) }()

	for i := 0; i < 2; i++ {
		select {
		case <-connects:
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for connection %d", i+1)
		}
	}
}

func TestStreamURL(t *testing.T) {
	u, err := StreamURL("https://chat.example.com/api/")
	require.NoError(t, err)
	require.Equal(t, "wss://chat.example.com/api/events", u)

	u, err = StreamURL("http://localhost:8080")
	require.NoError(t, err)
	require.Equal(t, "ws://localhost:8080/events", u)

	_, err = StreamURL("ftp://x")
	require.Error(t, err)
}

func TestHub_SubscribeUnsubscribe(t *testing.T) {
	h := newHub[int]("test", 1, slog.Default())
	ch, unsubscribe := h.subscribe()

	h.publish(1)
	require.Equal(t, 1, <-ch)

	unsubscribe()
	unsubscribe()
	_, ok := <-ch
	require.False(t, ok)

	h.close()
	late, _ := h.subscribe()
	_, ok = <-late
	require.False(t, ok)
}
