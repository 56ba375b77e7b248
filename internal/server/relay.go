// Package server coordinates client registration, realtime event dispatch,
// and connection cleanup for the chat relay via the Hub type.
package server

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"
)

// inboundEvent pairs a decoded envelope with the connection it arrived on.
type inboundEvent struct {
	sender   *Client
	envelope Envelope
}

// Hub is the broadcast relay. It owns the set of live connections and
// dispatches every inbound event to the right subscriber set using the
// presence table and room index handed to it at construction. All table
// mutations happen on the Run loop goroutine, so reads never observe a
// partially applied transition. Delivery is fire-and-forget through each
// client's buffered send channel.
type Hub struct {
	presence *PresenceTable
	rooms    *RoomIndex

	clients    map[string]*Client
	events     chan inboundEvent
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHub creates a Hub bound to the given presence table and room index.
// The tables are passed in rather than owned globally so multiple relay
// instances can coexist, for tests in particular.
func NewHub(presence *PresenceTable, rooms *RoomIndex) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		presence:   presence,
		rooms:      rooms,
		clients:    make(map[string]*Client),
		events:     make(chan inboundEvent),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Presence returns the presence table the hub dispatches against.
func (h *Hub) Presence() *PresenceTable {
	return h.presence
}

// Rooms returns the room subscription index the hub dispatches against.
func (h *Hub) Rooms() *RoomIndex {
	return h.rooms
}

// GetRegisterChan returns the channel used for registering new clients.
func (h *Hub) GetRegisterChan() chan<- *Client {
	return h.register
}

// GetUnregisterChan returns the channel used for unregistering clients.
func (h *Hub) GetUnregisterChan() chan<- *Client {
	return h.unregister
}

// Submit hands an inbound event to the hub's dispatch loop. It blocks until
// the loop picks the event up, which keeps per-connection ordering intact.
func (h *Hub) Submit(sender *Client, env Envelope) {
	h.events <- inboundEvent{sender: sender, envelope: env}
}

// Run starts the hub's main event loop, handling client registration,
// unregistration, and event dispatch. This method should be called in a
// separate goroutine as it runs until Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				log.Printf("Received nil client registration; skipping")
				continue
			}

			h.mutex.Lock()
			client.closed = false
			h.clients[client.id] = client
			clientCount := len(h.clients)
			h.mutex.Unlock()
			log.Printf("Client %s connected from %s. Total clients: %d", client.id, client.addr, clientCount)

			// Unit tests register clients without a transport.
			if client.conn != nil {
				h.wg.Add(2)
				go func() {
					defer h.wg.Done()
					client.writePump()
				}()
				go func() {
					defer h.wg.Done()
					client.readPump()
				}()
			}

		case client := <-h.unregister:
			h.dropClient(client)

		case evt := <-h.events:
			h.dispatch(evt.sender, evt.envelope)
		}
	}
}

// dispatch translates one inbound event into zero or more deliveries.
// Payloads that fail to decode are dropped silently; there is no NACK.
// Events arriving before user_join or join_room are processed with empty
// effect rather than rejected, matching the behavior clients depend on.
func (h *Hub) dispatch(sender *Client, env Envelope) {
	switch env.Event {
	case EventUserJoin:
		var p UserJoinPayload
		if !decodePayload(sender, env, &p) {
			return
		}
		h.presence.Upsert(sender.id, p.UserID, p.UserName)
		log.Printf("%s joined. Connected users: %d", p.UserName, h.presence.Len())
		h.broadcastUsersList()

	case EventJoinRoom:
		var p RoomPayload
		if !decodePayload(sender, env, &p) {
			return
		}
		h.rooms.Join(p.RoomID, sender.id)

	case EventLeaveRoom:
		var p RoomPayload
		if !decodePayload(sender, env, &p) {
			return
		}
		h.rooms.Leave(p.RoomID, sender.id)

	case EventSendMessage:
		var p ChatMessagePayload
		if !decodePayload(sender, env, &p) {
			return
		}
		if p.MessageType == "" {
			p.MessageType = "text"
		}
		roomID := p.RoomID
		// receive_message mirrors the payload minus the room id. The sender's
		// own connection is included on purpose; clients deduplicate.
		p.RoomID = ""
		h.broadcastToRoom(roomID, EventReceiveMessage, p, nil)

	case EventTyping:
		var p TypingPayload
		if !decodePayload(sender, env, &p) {
			return
		}
		h.broadcastToRoom(p.RoomID, EventUserTyping, TypingPayload{UserName: p.UserName}, sender)

	case EventStopTyping:
		var p TypingPayload
		if !decodePayload(sender, env, &p) {
			return
		}
		h.broadcastToRoom(p.RoomID, EventUserStopTyping, struct{}{}, sender)

	case EventPrivateMessage:
		var p PrivateMessagePayload
		if !decodePayload(sender, env, &p) {
			return
		}
		connectionID, ok := h.presence.FindUser(p.RecipientID)
		if !ok {
			// Recipient is offline: drop without error or queuing.
			return
		}
		h.sendToConnection(connectionID, EventReceivePrivateMessage, PrivateMessagePayload{
			Message:    p.Message,
			SenderID:   p.SenderID,
			SenderName: p.SenderName,
			Timestamp:  p.Timestamp,
		})

	default:
		log.Printf("Dropping unknown event %q from %s", env.Event, sender.addr)
	}
}

func decodePayload(sender *Client, env Envelope, dst any) bool {
	if err := json.Unmarshal(env.Data, dst); err != nil {
		log.Printf("Dropping malformed %s payload from %s: %v", env.Event, sender.addr, err)
		return false
	}
	return true
}

// broadcastUsersList pushes the full presence snapshot to every connection.
// Full snapshots rather than diffs keep clients reconciliation-free.
func (h *Hub) broadcastUsersList() {
	payload, err := encodeEvent(EventUsersList, h.presence.Snapshot())
	if err != nil {
		log.Printf("Error encoding users_list: %v", err)
		return
	}

	var failed []*Client
	for _, client := range h.clientSnapshot() {
		if !h.safeSend(client, payload) {
			failed = append(failed, client)
		}
	}
	h.removeFailedClients(failed)
}

// BroadcastAll delivers an event to every live connection. Used by the REST
// layer to announce room creation.
func (h *Hub) BroadcastAll(event string, data any) {
	payload, err := encodeEvent(event, data)
	if err != nil {
		log.Printf("Error encoding %s broadcast: %v", event, err)
		return
	}

	var failed []*Client
	for _, client := range h.clientSnapshot() {
		if !h.safeSend(client, payload) {
			failed = append(failed, client)
		}
	}
	h.removeFailedClients(failed)
}

// broadcastToRoom delivers an event to every subscriber of a room, minus the
// excluded connection if any. Subscribership is read once at dispatch time;
// a racing disconnect simply misses the delivery.
func (h *Hub) broadcastToRoom(roomID, event string, data any, exclude *Client) {
	payload, err := encodeEvent(event, data)
	if err != nil {
		log.Printf("Error encoding %s for room %s: %v", event, roomID, err)
		return
	}

	var failed []*Client
	for _, connectionID := range h.rooms.Subscribers(roomID) {
		if exclude != nil && connectionID == exclude.id {
			continue
		}
		client := h.clientByID(connectionID)
		if client == nil {
			continue
		}
		if !h.safeSend(client, payload) {
			failed = append(failed, client)
		}
	}
	h.removeFailedClients(failed)
}

// sendToConnection delivers an event to a single connection.
func (h *Hub) sendToConnection(connectionID, event string, data any) {
	client := h.clientByID(connectionID)
	if client == nil {
		return
	}

	payload, err := encodeEvent(event, data)
	if err != nil {
		log.Printf("Error encoding %s for %s: %v", event, connectionID, err)
		return
	}
	if !h.safeSend(client, payload) {
		h.removeFailedClients([]*Client{client})
	}
}

func (h *Hub) safeSend(client *Client, payload []byte) bool {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic in safeSend: %v", r)
		}
	}()

	// Hold the lock during the entire send so a concurrent unregister cannot
	// close the channel mid-send.
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	current, exists := h.clients[client.id]
	if !exists || current != client || client.closed {
		return false
	}

	select {
	case client.send <- payload:
		return true
	default:
		return false
	}
}

func (h *Hub) clientSnapshot() []*Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	return clients
}

func (h *Hub) clientByID(connectionID string) *Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.clients[connectionID]
}

// dropClient runs the disconnect transition exactly once per connection:
// every room subscription goes, the presence entry goes, and the remaining
// connections get a fresh users_list. Repeated transport-close reports for
// the same connection are no-ops.
func (h *Hub) dropClient(client *Client) {
	if client == nil {
		return
	}

	h.mutex.Lock()
	_, exists := h.clients[client.id]
	if exists {
		delete(h.clients, client.id)
		client.closed = true
	}
	clientCount := len(h.clients)
	h.mutex.Unlock()

	if !exists {
		return
	}
	close(client.send)

	h.rooms.LeaveAll(client.id)
	identified := h.presence.Remove(client.id)
	log.Printf("Client %s disconnected from %s. Total clients: %d", client.id, client.addr, clientCount)

	if identified {
		h.broadcastUsersList()
	}
}

// removeFailedClients tears down clients whose send buffers are full. With
// no backpressure signal, a stuck consumer is treated as disconnected.
func (h *Hub) removeFailedClients(failed []*Client) {
	for _, client := range failed {
		log.Printf("Client %s from %s removed due to full send buffer", client.id, client.addr)
		h.dropClient(client)
	}
}

// shutdownClients gracefully closes all active client connections.
func (h *Hub) shutdownClients() {
	log.Println("Shutting down all client connections...")

	clients := h.clientSnapshot()
	for _, client := range clients {
		if client.conn != nil {
			if err := client.conn.Close(); err != nil {
				if !isExpectedCloseError(err) {
					log.Printf("Error closing client connection from %s: %v", client.addr, err)
				}
			}
		}
	}

	log.Printf("Closed %d client connections", len(clients))
}

// Shutdown initiates graceful shutdown of the hub and waits for all client
// goroutines to complete, or for the timeout to be reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	log.Println("Initiating hub shutdown...")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		log.Println("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
