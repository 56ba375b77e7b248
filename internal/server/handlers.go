// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, and the built-in test page.
package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

// NewWebSocketHandler returns the WebSocket upgrade handler bound to the
// given hub. It validates that the request uses the GET method, upgrades the
// HTTP connection, and registers a new Client; the hub launches the
// read/write pumps.
func NewWebSocketHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			return
		}

		client := NewClient(conn, hub, r.RemoteAddr)
		hub.register <- client
	}
}

// HealthHandler provides a simple health check endpoint that returns server status.
// It responds with a plain text message indicating the server is running.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Chat server is running!")
}

// TestPageHandler serves a bare-bones HTML page for exercising the realtime
// event protocol by hand: identify, join a room, and exchange messages.
func TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	html := `<!DOCTYPE html>
<html>
<head>
    <title>Chat Relay Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #log { border: 1px solid #ccc; height: 300px; padding: 10px; overflow-y: scroll; margin: 10px 0; background: #f9f9f9; }
        input { padding: 5px; margin-right: 5px; }
    </style>
</head>
<body>
    <h1>Chat Relay Test</h1>
    <div>
        <input id="name" placeholder="Name">
        <input id="room" placeholder="Room" value="general">
        <button onclick="connect()">Connect</button>
    </div>
    <div>
        <input id="msg" placeholder="Message" size="40">
        <button onclick="send()">Send</button>
    </div>
    <div id="log"></div>
    <script>
        let ws = null;
        const logDiv = document.getElementById('log');

        function append(text) {
            const el = document.createElement('div');
            el.textContent = text;
            logDiv.appendChild(el);
            logDiv.scrollTop = logDiv.scrollHeight;
        }

        function emit(event, data) {
            ws.send(JSON.stringify({event: event, data: data}));
        }

        function connect() {
            const name = document.getElementById('name').value || 'anonymous';
            const room = document.getElementById('room').value || 'general';
            ws = new WebSocket('ws://' + location.host + '/ws');
            ws.onopen = () => {
                append('connected');
                emit('user_join', {userId: name, userName: name});
                emit('join_room', {roomId: room});
            };
            ws.onmessage = (e) => {
                const env = JSON.parse(e.data);
                if (env.event === 'receive_message') {
                    append(env.data.senderName + ': ' + env.data.message);
                } else if (env.event === 'users_list') {
                    append('online: ' + env.data.map(u => u.userName).join(', '));
                } else if (env.event === 'user_typing') {
                    append(env.data.userName + ' is typing...');
                }
            };
            ws.onclose = () => append('disconnected');
        }

        function send() {
            const name = document.getElementById('name').value || 'anonymous';
            const room = document.getElementById('room').value || 'general';
            const msg = document.getElementById('msg').value;
            if (!msg || !ws) return;
            emit('send_message', {
                roomId: room,
                message: msg,
                senderId: name,
                senderName: name,
                timestamp: new Date().toISOString(),
                messageType: 'text'
            });
            document.getElementById('msg').value = '';
        }
    </script>
</body>
</html>`
	if _, err := fmt.Fprint(w, html); err != nil {
		log.Printf("Error writing HTML response: %v", err)
	}
}
