// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/quizbuzz/quizbuzz/internal/middleware"
	"github.com/quizbuzz/quizbuzz/internal/room"
)

// WSHandler upgrades the HTTP connection to a websocket and runs the event
// loop for one client. The session cookie identity becomes the connection
// identity for every room operation; when the read loop exits, the session
// is evicted from all rooms it was part of.
func WSHandler(logger *logrus.Logger, coord *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr

		// Resolve the session before the upgrade hijacks the response, so a
		// fresh cookie can still be set on the handshake.
		sessionID, err := EnsureSession(w, r)
		if err != nil {
			logger.Warnf("session setup failed for %s: %v", remoteAddr, err)
			http.Error(w, "could not establish session", http.StatusInternalServerError)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"quiz"},
			OriginPatterns: []string{"*"}, // Adjust in production.
		})
		if err != nil {
			logger.Warnf("websocket accept error from %s: %v", remoteAddr, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "quiz" {
			c.Close(BadSubprotocolError, "client must speak the quiz subprotocol")
			return
		}

		middleware.LogWebSocketConnect(logger, sessionID.String(), remoteAddr)

		ctx, cancel := context.WithCancel(r.Context())
		conn := room.NewConn(sessionID)

		go writePump(ctx, c, conn, logger)
		readPump(ctx, c, coord, conn, logger)

		// The socket is gone; evict the session from every room it was in.
		coord.Rooms.HandleDisconnect(sessionID)
		cancel()
		middleware.LogWebSocketDisconnect(logger, sessionID.String(), remoteAddr, nil)
	}
}

// readPump decodes inbound JSON packets and hands them to the dispatcher.
// Returns when the connection closes or the context is cancelled.
func readPump(ctx context.Context, c *websocket.Conn, coord *Coordinator, conn *room.Conn, logger *logrus.Logger) {
	for {
		typ, msg, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			switch {
			case closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway:
				logger.Infof("session %s: websocket closed normally", conn.SessionID)
			case strings.Contains(err.Error(), "context canceled"):
			default:
				logger.Warnf("session %s: read error: %v", conn.SessionID, err)
			}
			return
		}
		if typ != websocket.MessageText {
			logger.Warnf("session %s: ignoring non-text message type %d", conn.SessionID, typ)
			continue
		}

		var packet map[string]interface{}
		if err := json.Unmarshal(msg, &packet); err != nil {
			logger.Warnf("session %s: invalid json: %v", conn.SessionID, err)
			conn.WriteError("invalid JSON")
			continue
		}

		handleMessage(coord, conn, packet, logger)
	}
}

// writePump drains the connection's outbound channel onto the websocket and
// keeps the connection alive with periodic pings.
func writePump(ctx context.Context, c *websocket.Conn, conn *room.Conn, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-conn.OutChan:
			data, err := json.Marshal(ev)
			if err != nil {
				logger.Warnf("session %s: failed to marshal event %q: %v", conn.SessionID, ev.Type, err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("session %s: write failed: %v", conn.SessionID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("session %s: ping failed, assuming disconnect: %v", conn.SessionID, err)
				return
			}
		}
	}
}
