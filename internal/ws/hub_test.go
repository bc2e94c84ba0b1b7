package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub()
	hub.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	go hub.Run(ctx)
	return hub
}

func receive(t *testing.T, ch <-chan []byte) Message {
	t.Helper()
	select {
	case raw := <-ch:
		var msg Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("сообщение не получено")
		return Message{}
	}
}

func TestHub_DeliversOnlyToOwner(t *testing.T) {
	hub := startHub(t)
	owner, stranger := uuid.New(), uuid.New()

	mine := &Client{hub: hub, ownerID: owner, send: make(chan []byte, 1)}
	theirs := &Client{hub: hub, ownerID: stranger, send: make(chan []byte, 1)}
	hub.Register(mine)
	hub.Register(theirs)

	hub.ContentUpdated(owner, 7, "projects")

	msg := receive(t, mine.send)
	assert.Equal(t, EventContentUpdated, msg.Type)
	data := msg.Data.(map[string]interface{})
	assert.Equal(t, float64(7), data["version"])
	assert.Equal(t, "projects", data["section"])
	assert.Equal(t, "2026-01-02T03:04:05Z", data["timestamp"])

	select {
	case <-theirs.send:
		t.Fatal("чужой клиент не должен получать сообщение")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_DropsWhenClientBufferFull(t *testing.T) {
	hub := NewHub()
	owner := uuid.New()
	slow := &Client{hub: hub, ownerID: owner, send: make(chan []byte, 1)}
	hub.addClient(slow)

	hub.send(owner, []byte(`{"type":"content-updated","data":{"version":1}}`))
	hub.send(owner, []byte(`{"type":"content-updated","data":{"version":2}}`))

	first := receive(t, slow.send)
	assert.Equal(t, float64(1), first.Data.(map[string]interface{})["version"])

	select {
	case <-slow.send:
		t.Fatal("второе сообщение должно быть отброшено")
	default:
	}
	assert.Equal(t, 1, hub.Connections(owner))
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub := startHub(t)
	owner := uuid.New()
	c := &Client{hub: hub, ownerID: owner, send: make(chan []byte, 1)}
	hub.Register(c)
	hub.Unregister(c)

	_, ok := <-c.send
	assert.False(t, ok)
	assert.Equal(t, 0, hub.Connections(owner))
}

func TestHub_PublishWithoutRunDoesNotBlock(t *testing.T) {
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(hub.broadcast)+10; i++ {
			hub.ContentUpdated(uuid.New(), i, "all")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("публикация заблокировалась")
	}
}

func TestClient_ReceivesOverWebsocket(t *testing.T) {
	hub := startHub(t)
	owner := uuid.New()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewClient(conn, hub, owner).Run(r.Context())
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Connections(owner) == 1 }, time.Second, 10*time.Millisecond)

	hub.ContentUpdated(owner, 3, "meta")

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, EventContentUpdated, msg.Type)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Connections(owner) == 0 }, 2*time.Second, 10*time.Millisecond)
}
