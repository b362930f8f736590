package api

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dyncarl8-oss/signalix-ai/internal/predictor"
)

func dialTestServer(t *testing.T, s *Server) (*websocket.Conn, func()) {
	t.Helper()

	server := httptest.NewServer(s.router)
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		server.Close()
		t.Fatalf("dial failed: %v", err)
	}

	return conn, func() {
		conn.Close()
		server.Close()
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) predictor.OutboundMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg predictor.OutboundMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return msg
}

func readWelcome(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	msg := readMessage(t, conn)
	if msg.Type != predictor.MessageTypeBot || msg.Content != predictor.WelcomeText {
		t.Fatalf("expected welcome, got %+v", msg)
	}
}

func TestWebSocket_SelectPair_FullCycle(t *testing.T) {
	ledger := newFakeLedger()
	s := newTestServer(t, ledger, fakeEngine{decision: testDecision()}, "")

	conn, cleanup := dialTestServer(t, s)
	defer cleanup()

	readWelcome(t, conn)

	err := conn.WriteJSON(map[string]string{
		"type":   "select_pair",
		"pair":   "BTC/USDT",
		"userId": "u1",
	})
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}

	wantOrder := []string{
		predictor.MessageTypeBot,
		predictor.MessageTypeTyping,
		predictor.MessageTypePrediction,
		predictor.MessageTypeCreditsUpdate,
		predictor.MessageTypeBot,
	}
	for i, want := range wantOrder {
		msg := readMessage(t, conn)
		if msg.Type != want {
			t.Fatalf("message %d type = %s, want %s", i, msg.Type, want)
		}
		switch i {
		case 0:
			if msg.Content != "Analyzing BTC/USDT..." {
				t.Errorf("opening message = %q", msg.Content)
			}
		case 2:
			if msg.Prediction == nil || msg.Prediction.Direction != predictor.DirectionUp {
				t.Errorf("prediction payload = %+v", msg.Prediction)
			}
		case 3:
			if msg.Credits == nil || *msg.Credits != 9 {
				t.Errorf("credits = %v, want 9", msg.Credits)
			}
		}
	}
}

func TestWebSocket_UserMessage_PairInFreeText(t *testing.T) {
	s := newTestServer(t, newFakeLedger(), fakeEngine{decision: testDecision()}, "")

	conn, cleanup := dialTestServer(t, s)
	defer cleanup()

	readWelcome(t, conn)

	err := conn.WriteJSON(map[string]string{
		"type":    "user_message",
		"content": "what do you think about eth/usdt right now?",
		"userId":  "u1",
	})
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}

	msg := readMessage(t, conn)
	if msg.Type != predictor.MessageTypeBot || msg.Content != "Analyzing ETH/USDT..." {
		t.Fatalf("got %+v", msg)
	}
}

func TestWebSocket_UserMessage_HistoryCommand(t *testing.T) {
	s := newTestServer(t, newFakeLedger(), fakeEngine{decision: testDecision()}, "")

	conn, cleanup := dialTestServer(t, s)
	defer cleanup()

	readWelcome(t, conn)

	err := conn.WriteJSON(map[string]string{
		"type":    "user_message",
		"content": "/HISTORY",
		"userId":  "u1",
	})
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}

	msg := readMessage(t, conn)
	if msg.Type != predictor.MessageTypeBot || msg.Content != predictor.EmptyHistoryMessage {
		t.Fatalf("got %+v", msg)
	}
}

func TestWebSocket_UserMessage_UnrecognizedGetsHelp(t *testing.T) {
	s := newTestServer(t, newFakeLedger(), fakeEngine{decision: testDecision()}, "")

	conn, cleanup := dialTestServer(t, s)
	defer cleanup()

	readWelcome(t, conn)

	err := conn.WriteJSON(map[string]string{
		"type":    "user_message",
		"content": "hello there",
		"userId":  "u1",
	})
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}

	msg := readMessage(t, conn)
	if msg.Type != predictor.MessageTypeBot || !strings.Contains(msg.Content, "BTC/USDT") {
		t.Fatalf("got %+v", msg)
	}
}

func TestWebSocket_MalformedMessageDropped_ConnectionStaysOpen(t *testing.T) {
	s := newTestServer(t, newFakeLedger(), fakeEngine{decision: testDecision()}, "")

	conn, cleanup := dialTestServer(t, s)
	defer cleanup()

	readWelcome(t, conn)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	// Unknown tags are ignored too.
	if err := conn.WriteJSON(map[string]string{"type": "subscribe"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	// The connection still serves the next valid message.
	if err := conn.WriteJSON(map[string]string{"type": "history", "userId": "u1"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	msg := readMessage(t, conn)
	if msg.Type != predictor.MessageTypeBot || msg.Content != predictor.EmptyHistoryMessage {
		t.Fatalf("got %+v", msg)
	}
}

func TestWebSocket_NewSessionResetsHistory(t *testing.T) {
	ledger := newFakeLedger()
	s := newTestServer(t, ledger, fakeEngine{decision: testDecision()}, "")

	conn, cleanup := dialTestServer(t, s)
	defer cleanup()

	readWelcome(t, conn)

	// Run one full cycle so history is non-empty.
	if err := conn.WriteJSON(map[string]string{"type": "select_pair", "pair": "SOL/USDT", "userId": "u1"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		readMessage(t, conn)
	}

	if err := conn.WriteJSON(map[string]string{"type": "new_session", "userId": "u1"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	msg := readMessage(t, conn)
	if msg.Type != predictor.MessageTypeBot || msg.Content != predictor.WelcomeText {
		t.Fatalf("expected welcome after reset, got %+v", msg)
	}

	if err := conn.WriteJSON(map[string]string{"type": "history", "userId": "u1"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	msg = readMessage(t, conn)
	if msg.Content != predictor.EmptyHistoryMessage {
		t.Fatalf("history after reset = %q", msg.Content)
	}

	// Credits survive the reset: one was spent on the cycle above.
	if uc := ledger.balances["u1"]; uc == nil || uc.Credits != 9 {
		t.Errorf("credits after reset = %+v, want 9", uc)
	}
}

func TestWebSocket_InsufficientCredits(t *testing.T) {
	ledger := newFakeLedger()
	ledger.SetCredits(context.Background(), "u1", 0)
	s := newTestServer(t, ledger, fakeEngine{decision: testDecision()}, "")

	conn, cleanup := dialTestServer(t, s)
	defer cleanup()

	readWelcome(t, conn)

	if err := conn.WriteJSON(map[string]string{"type": "select_pair", "pair": "BTC/USDT", "userId": "u1"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	msg := readMessage(t, conn)
	if msg.Type != predictor.MessageTypeInsufficientCredits {
		t.Fatalf("got %+v, want insufficient_credits", msg)
	}
}
