package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// RecognitionHandler streams recognition results over WebSocket. Each client
// first receives the latest result, then every change as it happens.
type RecognitionHandler struct {
	recognizer Recognizer
	log        zerolog.Logger
}

// NewRecognitionHandler creates a RecognitionHandler for recognizer.
func NewRecognitionHandler(recognizer Recognizer, log zerolog.Logger) *RecognitionHandler {
	return &RecognitionHandler{
		recognizer: recognizer,
		log:        log.With().Str("component", "ws").Logger(),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *RecognitionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	results, unsubscribe := h.recognizer.Subscribe()
	defer unsubscribe()

	// Reads only serve to notice the client going away and to answer pings.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	if err := h.write(conn, h.recognizer.Latest()); err != nil {
		return
	}

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
			return
		case res, ok := <-results:
			if !ok {
				return
			}
			if err := h.write(conn, res); err != nil {
				h.log.Debug().Err(err).Msg("websocket write failed")
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (h *RecognitionHandler) write(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}
