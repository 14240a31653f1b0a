package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/aegisops/aegisd/services/events"
	"github.com/aegisops/aegisd/services/lifecycle"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  10 * 1024 * 1024,
	WriteBufferSize: 10 * 1024 * 1024,
}

// inboundMessage is the envelope every WebSocket frame must match;
// channel selects which of the three event kinds the payload carries.
type inboundMessage struct {
	Channel string          `json:"channel"`
	Body    json.RawMessage `json:"body"`
}

func sendJSON(ws *websocket.Conn, mu *sync.Mutex, v any) error {
	mu.Lock()
	defer mu.Unlock()
	if err := ws.WriteJSON(v); err != nil {
		slog.Warn("gateway: failed to write websocket frame", "error", err)
		return err
	}
	return nil
}

func handleWebSocket(mgr *lifecycle.Manager, m *metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("gateway: websocket upgrade failed", "error", err)
			return
		}
		defer ws.Close()

		var writeMu sync.Mutex
		unsubscribe := subscribeOutbound(mgr, ws, &writeMu)
		defer unsubscribe()

		for {
			var msg inboundMessage
			if err := ws.ReadJSON(&msg); err != nil {
				return
			}
			reply := handleInbound(mgr, msg)
			if err := sendJSON(ws, &writeMu, reply); err != nil {
				return
			}
		}
	}
}

// subscribeOutbound relays every bus event out to this connection as an
// OutboundEvent and returns a function that detaches the subscription.
// events.Bus has no unsubscribe primitive, so the closure stays registered
// for the process lifetime; stop just makes it a no-op after disconnect.
func subscribeOutbound(mgr *lifecycle.Manager, ws *websocket.Conn, mu *sync.Mutex) func() {
	stop := make(chan struct{})
	mgr.Events.Subscribe(func(e events.Event) {
		select {
		case <-stop:
			return
		default:
		}
		_ = sendJSON(ws, mu, OutboundEvent{
			Kind:      string(e.Kind),
			Source:    e.Source,
			Payload:   e.Payload,
			Timestamp: e.Timestamp,
		})
	})
	return func() { close(stop) }
}

func handleInbound(mgr *lifecycle.Manager, msg inboundMessage) CommandResponse {
	switch msg.Channel {
	case "task:submit":
		var sub TaskSubmission
		if err := json.Unmarshal(msg.Body, &sub); err != nil {
			return CommandResponse{OK: false, Error: err.Error()}
		}
		if err := validate.Struct(sub); err != nil {
			return CommandResponse{OK: false, Error: err.Error()}
		}
		return dispatchCommand(mgr, Command{
			Subchannel: "task:create",
			Args: map[string]any{
				"type":        sub.Type,
				"priority":    sub.Priority,
				"title":       sub.Title,
				"description": sub.Description,
				"payload":     sub.Payload,
			},
		})
	case "gateway:command":
		var cmd Command
		if err := json.Unmarshal(msg.Body, &cmd); err != nil {
			return CommandResponse{OK: false, Error: err.Error()}
		}
		if err := validate.Struct(cmd); err != nil {
			return CommandResponse{OK: false, Error: err.Error()}
		}
		return dispatchCommand(mgr, cmd)
	case "state:request":
		var q StateQuery
		if err := json.Unmarshal(msg.Body, &q); err != nil {
			return CommandResponse{OK: false, Error: err.Error()}
		}
		return dispatchCommand(mgr, Command{Subchannel: "daemon:status"})
	default:
		return CommandResponse{OK: false, Error: "unknown channel: " + msg.Channel}
	}
}
