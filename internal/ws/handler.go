package ws

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin policy is enforced by the CORS layer on the router; the game
	// client connects from configured origins only.
	CheckOrigin: func(*http.Request) bool { return true },
}

// connSender serializes writes to one websocket connection.
type connSender struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *connSender) SendFrame(frameType string, data any) {
	payload, err := EncodeFrame(frameType, data)
	if err != nil {
		log.Printf("ws: %v", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		log.Printf("ws: write failed: %v", err)
	}
}

// Handler upgrades the request and runs the per-connection read loop. One
// goroutine per connection; frames are processed sequentially in arrival
// order, so responses for a connection keep their emission order.
func Handler(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("ws: upgrade failed: %v", err)
			return
		}

		connID := uuid.NewString()
		engine.Connect(connID)
		sender := &connSender{conn: conn}
		defer func() {
			engine.Disconnect(connID)
			conn.Close()
		}()

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Printf("ws: read failed: %v", err)
				}
				return
			}
			engine.HandleFrame(r.Context(), connID, raw, sender)
		}
	}
}
