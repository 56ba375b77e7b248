// Package integration contains end-to-end tests that exercise the chat
// server through real HTTP and WebSocket connections.
package integration

import (
	"strings"
	"testing"
	"time"

	"github.com/smartwinnr/chat-server/internal/server"
	"github.com/smartwinnr/chat-server/test/testhelpers"
)

func setupRelayServer(t *testing.T) (*server.Hub, string) {
	t.Helper()

	cfg := server.NewConfig()
	cfg.RateLimit.Burst = 100
	server.SetConfig(cfg)
	t.Cleanup(func() { server.SetConfig(nil) })

	hub := testhelpers.StartTestHub(t)
	srv := testhelpers.CreateTestServer(server.SetupRoutes(hub, nil, ""))
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func TestRoomBroadcastScenario(t *testing.T) {
	_, wsURL := setupRelayServer(t)

	connA, err := testhelpers.ConnectWebSocket(wsURL)
	if err != nil {
		t.Fatalf("Failed to connect client A: %v", err)
	}
	defer connA.Close()
	connB, err := testhelpers.ConnectWebSocket(wsURL)
	if err != nil {
		t.Fatalf("Failed to connect client B: %v", err)
	}
	defer connB.Close()

	if err := testhelpers.SendEvent(connA, server.EventUserJoin, server.UserJoinPayload{UserID: "user-a", UserName: "Alice"}); err != nil {
		t.Fatalf("Failed to send user_join: %v", err)
	}
	if err := testhelpers.SendEvent(connB, server.EventUserJoin, server.UserJoinPayload{UserID: "user-b", UserName: "Bob"}); err != nil {
		t.Fatalf("Failed to send user_join: %v", err)
	}

	// Both clients end up with a presence list naming both users.
	var list []server.PresenceEntry
	for len(list) < 2 {
		testhelpers.ExpectEvent(t, connA, server.EventUsersList, &list, 2*time.Second)
	}
	list = nil
	for len(list) < 2 {
		testhelpers.ExpectEvent(t, connB, server.EventUsersList, &list, 2*time.Second)
	}

	if err := testhelpers.SendEvent(connA, server.EventJoinRoom, server.RoomPayload{RoomID: "general"}); err != nil {
		t.Fatalf("Failed to join room: %v", err)
	}
	if err := testhelpers.SendEvent(connB, server.EventJoinRoom, server.RoomPayload{RoomID: "general"}); err != nil {
		t.Fatalf("Failed to join room: %v", err)
	}

	// Room joins produce no reply; give the relay a moment to apply them.
	time.Sleep(100 * time.Millisecond)

	if err := testhelpers.SendEvent(connA, server.EventSendMessage, server.ChatMessagePayload{
		RoomID:     "general",
		Message:    "hi",
		SenderID:   "user-a",
		SenderName: "Alice",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		t.Fatalf("Failed to send message: %v", err)
	}

	var gotA, gotB server.ChatMessagePayload
	testhelpers.ExpectEvent(t, connA, server.EventReceiveMessage, &gotA, 2*time.Second)
	testhelpers.ExpectEvent(t, connB, server.EventReceiveMessage, &gotB, 2*time.Second)
	if gotA.Message != "hi" || gotB.Message != "hi" {
		t.Errorf("Expected both clients to receive %q, got %q and %q", "hi", gotA.Message, gotB.Message)
	}

	// B drops; A keeps receiving its own echo only.
	if err := testhelpers.CloseWebSocket(connB); err != nil {
		t.Logf("Close returned: %v", err)
	}

	// A sees the shrunken presence list once the disconnect lands.
	list = nil
	for len(list) != 1 {
		testhelpers.ExpectEvent(t, connA, server.EventUsersList, &list, 2*time.Second)
	}

	if err := testhelpers.SendEvent(connA, server.EventSendMessage, server.ChatMessagePayload{
		RoomID:     "general",
		Message:    "still here",
		SenderID:   "user-a",
		SenderName: "Alice",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		t.Fatalf("Failed to send second message: %v", err)
	}

	var echo server.ChatMessagePayload
	testhelpers.ExpectEvent(t, connA, server.EventReceiveMessage, &echo, 2*time.Second)
	if echo.Message != "still here" {
		t.Errorf("Expected sender echo, got %q", echo.Message)
	}
}

func TestTypingIndicatorsOverWire(t *testing.T) {
	_, wsURL := setupRelayServer(t)

	connA, err := testhelpers.ConnectWebSocket(wsURL)
	if err != nil {
		t.Fatalf("Failed to connect client A: %v", err)
	}
	defer connA.Close()
	connB, err := testhelpers.ConnectWebSocket(wsURL)
	if err != nil {
		t.Fatalf("Failed to connect client B: %v", err)
	}
	defer connB.Close()

	if err := testhelpers.SendEvent(connA, server.EventJoinRoom, server.RoomPayload{RoomID: "general"}); err != nil {
		t.Fatalf("Failed to join room: %v", err)
	}
	if err := testhelpers.SendEvent(connB, server.EventJoinRoom, server.RoomPayload{RoomID: "general"}); err != nil {
		t.Fatalf("Failed to join room: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	if err := testhelpers.SendEvent(connA, server.EventTyping, server.TypingPayload{RoomID: "general", UserName: "Alice"}); err != nil {
		t.Fatalf("Failed to send typing: %v", err)
	}
	if err := testhelpers.SendEvent(connA, server.EventStopTyping, server.TypingPayload{RoomID: "general"}); err != nil {
		t.Fatalf("Failed to send stop_typing: %v", err)
	}

	var typing server.TypingPayload
	testhelpers.ExpectEvent(t, connB, server.EventUserTyping, &typing, 2*time.Second)
	if typing.UserName != "Alice" {
		t.Errorf("Expected Alice typing, got %q", typing.UserName)
	}
	testhelpers.ExpectEvent(t, connB, server.EventUserStopTyping, nil, 2*time.Second)

	// The sender must see neither indicator.
	testhelpers.ExpectNoEvent(t, connA, 300*time.Millisecond)
}

func TestPrivateMessageOverWire(t *testing.T) {
	_, wsURL := setupRelayServer(t)

	connA, err := testhelpers.ConnectWebSocket(wsURL)
	if err != nil {
		t.Fatalf("Failed to connect client A: %v", err)
	}
	defer connA.Close()
	connB, err := testhelpers.ConnectWebSocket(wsURL)
	if err != nil {
		t.Fatalf("Failed to connect client B: %v", err)
	}
	defer connB.Close()

	if err := testhelpers.SendEvent(connA, server.EventUserJoin, server.UserJoinPayload{UserID: "user-a", UserName: "Alice"}); err != nil {
		t.Fatalf("Failed to send user_join: %v", err)
	}
	if err := testhelpers.SendEvent(connB, server.EventUserJoin, server.UserJoinPayload{UserID: "user-b", UserName: "Bob"}); err != nil {
		t.Fatalf("Failed to send user_join: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	if err := testhelpers.SendEvent(connA, server.EventPrivateMessage, server.PrivateMessagePayload{
		RecipientID: "user-b",
		Message:     "psst",
		SenderID:    "user-a",
		SenderName:  "Alice",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		t.Fatalf("Failed to send private message: %v", err)
	}

	var got server.PrivateMessagePayload
	testhelpers.ExpectEvent(t, connB, server.EventReceivePrivateMessage, &got, 2*time.Second)
	if got.Message != "psst" || got.SenderName != "Alice" {
		t.Errorf("Unexpected private message: %+v", got)
	}
}
