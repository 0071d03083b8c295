package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/matzehuels/netdiagram/pkg/errors"
	"github.com/matzehuels/netdiagram/pkg/layout"
)

// WebSocket timing and limits.
const (
	wsMaxMessageSize = 4096
	wsPingInterval   = 30 * time.Second
	wsPongWait       = 10 * time.Second
)

// Inbound WebSocket message types.
const (
	WSPointerDown = "pointer.down"
	WSPointerMove = "pointer.move"
	WSPointerUp   = "pointer.up"
	WSPing        = "ping"
)

// PointerMessage is sent by clients over the WebSocket.
type PointerMessage struct {
	Type string  `json:"type"`
	ID   string  `json:"id,omitempty"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// upgrader accepts same-origin and non-browser clients, and browser
// clients whose Origin is in the configured CORS list. Browsers do not
// preflight WebSocket handshakes, so the CORS middleware cannot gate them.
func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.allowedOrigin(origin)
		},
	}
}

// handleWebSocket upgrades the connection. Clients receive every hub event
// and may send pointer messages, which are fed to the drag controller in
// the order they arrive.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	c := s.hub.register("ws")
	go s.writePump(conn, c)
	go s.readPump(conn, c)
}

func (s *Server) readPump(conn *websocket.Conn, c *client) {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		// A drag left open by this client would keep its pointer capture.
		if err := s.loop.Do(context.Background(), func(st *State) error {
			st.releaseDrag(c)
			return nil
		}); err != nil {
			s.logger.Debug("release drag", "id", c.id, "err", err)
		}
		s.hub.unregister(c)
		conn.Close()
	}()

	conn.SetReadLimit(wsMaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(wsPingInterval + wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPingInterval + wsPongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read error", "id", c.id, "err", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsPingInterval + wsPongWait))
		s.handlePointerMessage(ctx, c, data)
	}
}

func (s *Server) writePump(conn *websocket.Conn, c *client) {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case f, ok := <-c.send:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsPongWait))
			if err := conn.WriteMessage(websocket.TextMessage, f.data); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsPongWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handlePointerMessage applies one inbound message. Moves and ups go
// through the pointer dispatcher, so they only reach the drag controller
// while a drag holds its subscriptions.
func (s *Server) handlePointerMessage(ctx context.Context, c *client, data []byte) {
	var msg PointerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.reply(c, Message{Type: MsgError, Payload: "invalid JSON message"})
		return
	}
	p := layout.Point{X: msg.X, Y: msg.Y}

	var (
		payload any
		err     error
	)
	switch msg.Type {
	case WSPointerDown:
		err = s.withSnapshot(ctx, func(st *State) error {
			before := st.Engine.Drag().Session()
			hit, err := st.Engine.Drag().PointerDown(p)
			if err != nil {
				return err
			}
			if st.Engine.Drag().Session() != before {
				st.claimDrag(c)
			}
			status := dragStatus(st)
			status.Hit = &hit
			payload = status
			return nil
		})
	case WSPointerMove:
		err = s.loop.Do(ctx, func(st *State) error {
			st.Pointer.Move(p)
			return nil
		})
		if err == nil {
			return
		}
	case WSPointerUp:
		err = s.loop.Do(ctx, func(st *State) error {
			st.Pointer.Up(p)
			st.claimDrag(c)
			payload = dragStatus(st)
			return nil
		})
	case WSPing:
		s.reply(c, Message{Type: MsgPong, ID: msg.ID})
		return
	default:
		err = errors.New(errors.ErrCodeInvalidInput, "unknown message type %q", msg.Type)
	}

	if err != nil {
		s.reply(c, Message{Type: MsgError, ID: msg.ID, Payload: errors.UserMessage(err)})
		return
	}
	s.reply(c, Message{Type: MsgResponse, ID: msg.ID, Payload: payload})
}

func (s *Server) reply(c *client, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("encode reply", "err", err)
		return
	}
	if !s.hub.sendTo(c, frame{event: msg.Type, data: data}) {
		s.logger.Debug("reply dropped", "id", c.id, "type", msg.Type)
	}
}
