package feed

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-booking/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	os.Exit(m.Run())
}

func TestRecentKeepsNewestEvents(t *testing.T) {
	h := NewHub(3)
	for i := 1; i <= 5; i++ {
		h.Publish(EventBookingCreated, i)
	}

	recent := h.Recent(10)
	require.Len(t, recent, 3)
	assert.Equal(t, 5, recent[0].Data)
	assert.Equal(t, 3, recent[2].Data)

	assert.Len(t, h.Recent(2), 2)
}

func TestNilHubIsNoop(t *testing.T) {
	var h *Hub
	h.Publish(EventTableCreated, nil)
	assert.Nil(t, h.Recent(5))
	assert.Equal(t, 0, h.ClientCount())
}

func TestPublishReachesConnectedClient(t *testing.T) {
	h := NewHub(10)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.Register(conn, 1)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		h.Unregister(conn)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer client.Close()

	assert.Eventually(t, func() bool { return h.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	h.Publish(EventBookingConfirmed, map[string]int{"id": 42})

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := client.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Event string         `json:"event"`
		Data  map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, EventBookingConfirmed, msg.Event)
	assert.Equal(t, 42, msg.Data["id"])

	client.Close()
	assert.Eventually(t, func() bool { return h.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestFullQueueDropsClientWithoutBlocking(t *testing.T) {
	h := NewHub(10)
	h.sendBuffer = 2
	// no writer goroutine, so nothing drains the queue
	c := h.add(nil, 7)
	require.Equal(t, 1, h.ClientCount())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			h.Publish(EventBookingCreated, i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a client that never reads")
	}

	assert.Equal(t, 0, h.ClientCount())
	var queued int
	for range c.send {
		queued++
	}
	assert.Equal(t, 2, queued)
	assert.Len(t, h.Recent(0), 5)
}
