package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/Martig3/valorant-matchbot/internal/engine"
	"github.com/Martig3/valorant-matchbot/internal/lobby"
	"github.com/Martig3/valorant-matchbot/internal/types"
)

func readMsg(t *testing.T, ctx context.Context, conn *websocket.Conn) types.ServerMessage {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg types.ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return msg
}

func TestHandler_StreamsSnapshots(t *testing.T) {
	session := lobby.NewLobby(context.Background(), engine.NewEmptyState(), nil, zap.NewNop())
	t.Cleanup(session.Close)

	srv := httptest.NewServer(Handler(session, zap.NewNop()))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	first := readMsg(t, ctx, conn)
	if first.Type != types.MsgSnapshot || first.Session == nil || first.Session.Phase != engine.PhaseIdle {
		t.Fatalf("want idle snapshot on connect, got %+v", first)
	}

	if _, err := session.Apply(ctx, engine.StartSetup{Players: []engine.Actor{"p1"}}); err != nil {
		t.Fatalf("start: %v", err)
	}
	next := readMsg(t, ctx, conn)
	if next.Version != 1 || next.Session.Phase != engine.PhaseCaptainSelection {
		t.Fatalf("want captain_selection v1, got %+v", next)
	}

	if err := conn.Write(ctx, websocket.MessageText, []byte(`{"type":"Refresh"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	refreshed := readMsg(t, ctx, conn)
	if refreshed.Version != 1 {
		t.Fatalf("refresh should resend v1, got %+v", refreshed)
	}

	if err := conn.Write(ctx, websocket.MessageText, []byte(`{"type":"Pick"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if bad := readMsg(t, ctx, conn); bad.Type != types.MsgError {
		t.Fatalf("want error for unknown type, got %+v", bad)
	}
}
