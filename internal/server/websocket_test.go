package server

import (
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type wsEnvelope struct {
	Type         string     `json:"type"`
	Success      bool       `json:"success"`
	Message      string     `json:"message"`
	GameState    *GameState `json:"gameState"`
	RoomID       string     `json:"roomId"`
	Description  string     `json:"description"`
	Evidence     *Evidence  `json:"evidence"`
	DiscoveredBy string     `json:"discoveredBy"`
}

func dialWS(t *testing.T, baseURL string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(baseURL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Skipf("skipping test; websocket dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendWS(t *testing.T, conn *websocket.Conn, msg map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readWS(t *testing.T, conn *websocket.Conn) wsEnvelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var envelope wsEnvelope
	if err := conn.ReadJSON(&envelope); err != nil {
		t.Fatalf("read: %v", err)
	}
	return envelope
}

func authenticateWS(t *testing.T, conn *websocket.Conn, userID, username string) {
	t.Helper()
	sendWS(t, conn, map[string]any{"type": "authenticate", "userId": userID, "username": username})
	reply := readWS(t, conn)
	if reply.Type != "authenticated" || !reply.Success {
		t.Fatalf("authenticate reply = %+v", reply)
	}
}

func TestWebsocketAuthenticate(t *testing.T) {
	srv := newTestGameServer(t)
	ts := newTestServer(t, srv.Handler())
	defer ts.Close()

	conn := dialWS(t, ts.URL)
	sendWS(t, conn, map[string]any{"type": "authenticate", "userId": "user-1", "username": "   "})
	if reply := readWS(t, conn); reply.Type != "authenticated" || reply.Success {
		t.Fatalf("blank username reply = %+v", reply)
	}

	authenticateWS(t, conn, "user-1", "Grace")
}

func TestWebsocketRequiresAuthentication(t *testing.T) {
	srv := newTestGameServer(t)
	ts := newTestServer(t, srv.Handler())
	defer ts.Close()

	conn := dialWS(t, ts.URL)
	sendWS(t, conn, map[string]any{"type": "join-game", "roomCode": "ABCDEF"})
	if reply := readWS(t, conn); reply.Type != "error" {
		t.Fatalf("reply = %+v, want error", reply)
	}
}

func TestWebsocketUnknownType(t *testing.T) {
	srv := newTestGameServer(t)
	ts := newTestServer(t, srv.Handler())
	defer ts.Close()

	conn := dialWS(t, ts.URL)
	sendWS(t, conn, map[string]any{"type": "do-a-barrel-roll"})
	if reply := readWS(t, conn); reply.Type != "error" {
		t.Fatalf("reply = %+v, want error", reply)
	}
}

func TestWebsocketJoinUnknownRoom(t *testing.T) {
	srv := newTestGameServer(t)
	ts := newTestServer(t, srv.Handler())
	defer ts.Close()

	conn := dialWS(t, ts.URL)
	authenticateWS(t, conn, "user-1", "Grace")
	sendWS(t, conn, map[string]any{"type": "join-game", "roomCode": "ZZZZZZ"})
	reply := readWS(t, conn)
	if reply.Type != "error" || reply.Message == "" {
		t.Fatalf("reply = %+v, want error with message", reply)
	}
}

func TestWebsocketJoinAndBroadcast(t *testing.T) {
	srv := newTestGameServer(t)
	ts := newTestServer(t, srv.Handler())
	defer ts.Close()

	state := srv.CreateGame("host-user", "Ada")
	t.Cleanup(func() { srv.DeleteGame(state.ID) })

	// The creator joins their own room code; that attaches the connection
	// rather than adding a second participant.
	host := dialWS(t, ts.URL)
	authenticateWS(t, host, "host-user", "Ada")
	sendWS(t, host, map[string]any{"type": "join-game", "roomCode": state.RoomCode})
	update := readWS(t, host)
	if update.Type != "game-state-updated" || update.GameState == nil {
		t.Fatalf("host join reply = %+v", update)
	}
	if len(update.GameState.Participants) != 1 {
		t.Fatalf("participants = %d, want creator only", len(update.GameState.Participants))
	}

	guest := dialWS(t, ts.URL)
	authenticateWS(t, guest, "user-1", "Grace")
	sendWS(t, guest, map[string]any{"type": "join-game", "roomCode": state.RoomCode})

	// Both connections see the join.
	for _, conn := range []*websocket.Conn{host, guest} {
		update := readWS(t, conn)
		if update.Type != "game-state-updated" || update.GameState == nil {
			t.Fatalf("join broadcast = %+v", update)
		}
		if len(update.GameState.Participants) != 2 {
			t.Fatalf("participants = %d, want 2", len(update.GameState.Participants))
		}
	}

	sendWS(t, guest, map[string]any{"type": "send-message", "message": "meet me in the study"})
	for _, conn := range []*websocket.Conn{host, guest} {
		update := readWS(t, conn)
		if update.Type != "message-sent" || update.GameState == nil {
			t.Fatalf("message broadcast = %+v", update)
		}
		if len(update.GameState.Messages) != 1 || update.GameState.Messages[0].Text != "meet me in the study" {
			t.Fatalf("messages = %+v", update.GameState.Messages)
		}
	}
}

func TestWebsocketReadyAndStart(t *testing.T) {
	srv := newTestGameServer(t)
	ts := newTestServer(t, srv.Handler())
	defer ts.Close()

	state := srv.CreateGame("host-user", "Ada")
	t.Cleanup(func() { srv.DeleteGame(state.ID) })

	host := dialWS(t, ts.URL)
	authenticateWS(t, host, "host-user", "Ada")
	sendWS(t, host, map[string]any{"type": "join-game", "roomCode": state.RoomCode})
	readWS(t, host)

	guest := dialWS(t, ts.URL)
	authenticateWS(t, guest, "user-1", "Grace")
	sendWS(t, guest, map[string]any{"type": "join-game", "roomCode": state.RoomCode})
	readWS(t, host)
	readWS(t, guest)

	sendWS(t, host, map[string]any{"type": "set-ready", "isReady": true})
	readWS(t, host)
	readWS(t, guest)
	sendWS(t, guest, map[string]any{"type": "set-ready", "isReady": true})
	readWS(t, host)
	readWS(t, guest)

	sendWS(t, host, map[string]any{"type": "start-game", "difficulty": "easy"})
	for _, conn := range []*websocket.Conn{host, guest} {
		update := readWS(t, conn)
		if update.Type != "game-started" || update.GameState == nil {
			t.Fatalf("start broadcast = %+v", update)
		}
		if update.GameState.Phase != phaseInvestigation {
			t.Fatalf("phase = %q, want %q", update.GameState.Phase, phaseInvestigation)
		}
		if update.GameState.Mystery == nil {
			t.Fatal("mystery missing from start broadcast")
		}
	}
}

func TestWebsocketExploreRoom(t *testing.T) {
	srv := newTestGameServer(t)
	ts := newTestServer(t, srv.Handler())
	defer ts.Close()

	state := startedGame(t, srv, "Grace")

	host := dialWS(t, ts.URL)
	authenticateWS(t, host, "host-user", "Ada")
	sendWS(t, host, map[string]any{"type": "join-game", "roomCode": state.RoomCode})
	readWS(t, host)

	sendWS(t, host, map[string]any{"type": "explore-room", "roomId": "room-2"})

	// The narration is unicast to the explorer first, then the discovery is
	// broadcast (discovery chance is pinned to 1.0 here).
	explored := readWS(t, host)
	if explored.Type != "room-explored" || explored.RoomID != "room-2" {
		t.Fatalf("explore reply = %+v", explored)
	}
	if explored.Description == "" {
		t.Fatal("narration missing")
	}
	discovered := readWS(t, host)
	if discovered.Type != "evidence-discovered" || discovered.Evidence == nil {
		t.Fatalf("discovery broadcast = %+v", discovered)
	}
	if discovered.Evidence.ID != "evidence-3" || discovered.DiscoveredBy != "Ada" {
		t.Fatalf("discovery = %+v by %q", discovered.Evidence, discovered.DiscoveredBy)
	}
}
