package integration

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/smartwinnr/chat-server/internal/server"
	"github.com/smartwinnr/chat-server/test/testhelpers"
)

func dialWithOrigin(wsURL, origin string) (*websocket.Conn, *http.Response, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}
	return dialer.Dial(wsURL, headers)
}

func TestWebSocketRejectsDisallowedOrigin(t *testing.T) {
	_, wsURL := setupRelayServer(t)

	conn, resp, err := dialWithOrigin(wsURL, "http://evil.example.com")
	if conn != nil {
		conn.Close()
	}
	if resp != nil {
		resp.Body.Close()
	}
	if !errors.Is(err, websocket.ErrBadHandshake) {
		t.Fatalf("Expected handshake rejection, got err=%v", err)
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("Expected 403 response for disallowed origin, got %+v", resp)
	}
}

func TestWebSocketRejectsMissingOrigin(t *testing.T) {
	_, wsURL := setupRelayServer(t)

	conn, resp, err := dialWithOrigin(wsURL, "")
	if conn != nil {
		conn.Close()
	}
	if resp != nil {
		resp.Body.Close()
	}
	if !errors.Is(err, websocket.ErrBadHandshake) {
		t.Fatalf("Expected handshake rejection, got err=%v", err)
	}
}

func TestWebSocketAcceptsConfiguredOrigin(t *testing.T) {
	_, wsURL := setupRelayServer(t)

	conn, resp, err := dialWithOrigin(wsURL, "http://localhost:3000")
	if resp != nil {
		resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("Expected handshake to succeed for configured origin: %v", err)
	}
	conn.Close()
}

func TestWebSocketAllowsAnyOriginWithWildcard(t *testing.T) {
	cfg := server.NewConfig()
	cfg.AllowedOrigins = []string{"*"}
	server.SetConfig(cfg)
	t.Cleanup(func() { server.SetConfig(nil) })

	hub := testhelpers.StartTestHub(t)
	srv := testhelpers.CreateTestServer(server.SetupRoutes(hub, nil, ""))
	t.Cleanup(srv.Close)
	wsURL := "ws" + srv.URL[len("http"):] + "/ws"

	conn, resp, err := dialWithOrigin(wsURL, "http://anything.example.com")
	if resp != nil {
		resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("Expected wildcard config to accept any origin: %v", err)
	}
	conn.Close()
}
