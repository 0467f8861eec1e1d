package ws

import (
	"encoding/json"
	"testing"
	"time"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub) *Client {
	return &Client{
		hub:  hub,
		send: make(chan []byte, 256),
	}
}

func TestHubRegistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub)

	// Register client
	hub.register <- client

	// Give hub time to process
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if !hub.clients[client] {
		t.Fatal("client not registered")
	}
}

func TestHubUnregistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub)

	// Register client
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	// Unregister client
	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if hub.clients[client] {
		t.Fatal("client still registered after unregister")
	}

	// Send channel must be closed so WritePump exits
	select {
	case _, ok := <-client.send:
		if ok {
			t.Fatal("expected closed send channel")
		}
	default:
		t.Fatal("send channel not closed")
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client1 := mockClient(hub)
	client2 := mockClient(hub)
	client3 := mockClient(hub)

	// Register all clients
	hub.register <- client1
	hub.register <- client2
	hub.register <- client3
	time.Sleep(10 * time.Millisecond)

	// Broadcast event
	testPayload := json.RawMessage(`{"queue_number":3,"status":"pending"}`)
	event := Event{
		Type:    EventOrderCreated,
		Payload: testPayload,
	}
	hub.Broadcast(event)

	// All three clients should receive the message
	clients := []*Client{client1, client2, client3}
	for i, client := range clients {
		select {
		case msg := <-client.send:
			var received Event
			if err := json.Unmarshal(msg, &received); err != nil {
				t.Fatalf("client%d: failed to unmarshal: %v", i+1, err)
			}
			if received.Type != EventOrderCreated {
				t.Errorf("client%d: expected type %q, got %q", i+1, EventOrderCreated, received.Type)
			}
			if string(received.Payload) != string(testPayload) {
				t.Errorf("client%d: expected payload %s, got %s", i+1, testPayload, received.Payload)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("client%d did not receive message", i+1)
		}
	}
}

func TestBroadcastSkipsUnregisteredClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	stays := mockClient(hub)
	leaves := mockClient(hub)

	hub.register <- stays
	hub.register <- leaves
	time.Sleep(10 * time.Millisecond)

	hub.unregister <- leaves
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast(Event{
		Type:    EventOrderStatusUpdated,
		Payload: json.RawMessage(`{"status":"done"}`),
	})

	select {
	case msg := <-stays.send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if received.Type != EventOrderStatusUpdated {
			t.Errorf("expected type %q, got %q", EventOrderStatusUpdated, received.Type)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("remaining client did not receive message")
	}
}

func TestBroadcastWithNoClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// Must not block or panic with an empty client set.
	hub.Broadcast(Event{
		Type:    EventOrderCreated,
		Payload: json.RawMessage(`{"test":"data"}`),
	})
	time.Sleep(10 * time.Millisecond)
}

func TestEventSerialization(t *testing.T) {
	event := Event{
		Type:    EventOrderCreated,
		Payload: json.RawMessage(`{"id":"abc","total":13000}`),
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded Event
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Type != event.Type {
		t.Errorf("type mismatch: got %s, want %s", decoded.Type, event.Type)
	}
	if string(decoded.Payload) != string(event.Payload) {
		t.Errorf("payload mismatch: got %s, want %s", decoded.Payload, event.Payload)
	}
}
