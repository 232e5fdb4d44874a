package rest

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from client.
	maxMessageSize = 4096
)

// newUpgrader accepts WebSocket handshakes from the comma-separated origins,
// or from anywhere when the list contains "*". Requests without an Origin
// header are not browser requests and are accepted.
func newUpgrader(allowedOrigins string) *websocket.Upgrader {
	origins := strings.Split(allowedOrigins, ",")
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, o := range origins {
				o = strings.TrimSpace(o)
				if o == "*" || o == origin {
					return true
				}
			}
			return false
		},
	}
}

// serveSocket runs conn until the peer goes away, ctx ends or out closes.
// Every value from out is written as one JSON text message; every client
// message is passed to onMessage on the reading goroutine.
func serveSocket[M any](ctx context.Context, log *slog.Logger, conn *websocket.Conn, out <-chan M, onMessage func(ctx context.Context, msg []byte)) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		defer cancel()
		readLoop(ctx, log, conn, onMessage)
	}()

	writeLoop(ctx, conn, out)
	conn.Close()
	<-readDone
}

func readLoop(ctx context.Context, log *slog.Logger, conn *websocket.Conn, onMessage func(context.Context, []byte)) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) &&
				!errors.Is(err, net.ErrClosed) {
				log.WarnContext(ctx, "websocket read failed", slog.String("error", err.Error()))
			}
			return
		}
		if onMessage != nil {
			onMessage(ctx, msg)
		}
	}
}

func writeLoop[M any](ctx context.Context, conn *websocket.Conn, out <-chan M) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			conn.WriteMessage(websocket.CloseMessage, //nolint:errcheck
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg, ok := <-out:
			conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, //nolint:errcheck
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
