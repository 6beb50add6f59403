package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/Martig3/valorant-matchbot/internal/lobby"
	"github.com/Martig3/valorant-matchbot/internal/types"
)

const (
	writeTimeout = 3 * time.Second
	readTimeout  = 60 * time.Second
)

// Handler streams session snapshots to a read-only observer. A "Refresh"
// message re-sends the current snapshot.
func Handler(session *lobby.Lobby, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			log.Debug("websocket accept", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan lobby.Snapshot, 8)
		clientID := uuid.NewString()
		if err := session.Watch(r.Context(), clientID, out); err != nil {
			conn.Close(websocket.StatusTryAgainLater, "session unavailable")
			return
		}
		defer session.Unwatch(clientID)
		log := log.With(zap.String("watcher", clientID))
		log.Debug("watcher connected")

		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for snap := range out {
				if err := write(writeCtx, conn, types.Snapshot(snap.Version, snap.State)); err != nil {
					log.Debug("write snapshot", zap.Error(err))
					return
				}
			}
			// dropped as a slow watcher, or the session stopped
			conn.Close(websocket.StatusGoingAway, "session closed")
		}()

		for {
			ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("watcher read", zap.Error(err))
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				_ = write(r.Context(), conn, types.ServerMessage{Type: types.MsgError, Error: "bad json"})
				continue
			}
			if cm.Type != types.MsgRefresh {
				_ = write(r.Context(), conn, types.ServerMessage{Type: types.MsgError, Error: "unknown type"})
				continue
			}

			view, err := session.State(r.Context())
			if err != nil {
				return
			}
			_ = write(r.Context(), conn, types.Snapshot(view.Version, view.State))
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, msg types.ServerMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}
