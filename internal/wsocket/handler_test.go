package wsocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"decentra_research_backend/internal/utils/broker"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/research" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForSubscribers(t *testing.T, b *broker.Broker, topic string, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return b.SubscriberCount(topic) == n }, 2*time.Second, 10*time.Millisecond)
}

func newServer(b *broker.Broker) *httptest.Server {
	h := NewHandler(b, "research", websocket.Upgrader{})
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/research", h.HandleWebSocket)
	return httptest.NewServer(mux)
}

func TestHandlerStreamsEvents(t *testing.T) {
	b := broker.NewBroker()
	srv := newServer(b)
	defer srv.Close()

	conn := dial(t, srv, "")
	waitForSubscribers(t, b, "research", 1)

	ev, err := broker.NewEvent("research.cited", "r1", map[string]int{"citations": 1})
	require.NoError(t, err)
	b.Publish("research", ev)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got broker.Event
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "research.cited", got.Type)
	assert.Equal(t, "r1", got.ID)
	assert.JSONEq(t, `{"citations":1}`, string(got.Data))
}

func TestHandlerFiltersByID(t *testing.T) {
	b := broker.NewBroker()
	srv := newServer(b)
	defer srv.Close()

	conn := dial(t, srv, "?id=wanted")
	waitForSubscribers(t, b, "research", 1)

	other, _ := broker.NewEvent("research.updated", "other", nil)
	wanted, _ := broker.NewEvent("research.updated", "wanted", nil)
	b.Publish("research", other)
	b.Publish("research", wanted)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got broker.Event
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "wanted", got.ID)
}

func TestHandlerUnsubscribesOnClose(t *testing.T) {
	b := broker.NewBroker()
	srv := newServer(b)
	defer srv.Close()

	conn := dial(t, srv, "")
	waitForSubscribers(t, b, "research", 1)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()
	waitForSubscribers(t, b, "research", 0)
}
