package wsocket

import (
	"context"
	"net/http"
	"time"

	"decentra_research_backend/internal/utils/broker"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Subscriber is the broker surface the feed needs.
type Subscriber interface {
	Subscribe(topic string) <-chan broker.Event
	Unsubscribe(topic string, ch <-chan broker.Event)
}

// Handler streams research change events to websocket clients.
type Handler struct {
	events   Subscriber
	topic    string
	upgrader websocket.Upgrader
}

func NewHandler(events Subscriber, topic string, upgrader websocket.Upgrader) *Handler {
	return &Handler{
		events:   events,
		topic:    topic,
		upgrader: upgrader,
	}
}

// HandleWebSocket forwards every event on the topic. With ?id= only events
// for that record are sent.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())
	filterID := r.URL.Query().Get("id")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events := h.events.Subscribe(h.topic)
	defer h.events.Unsubscribe(h.topic, events)
	logger.Debug().Str("filter_id", filterID).Msg("websocket subscriber connected")

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// The read loop only drains control frames and notices the client leaving.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Debug().Err(err).Msg("websocket closed unexpectedly")
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if filterID != "" && ev.ID != filterID {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				logger.Debug().Err(err).Msg("websocket write failed")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
