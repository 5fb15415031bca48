package ws

import (
	"encoding/json"
	"testing"
	"time"
)

// mockClient creates a client for testing without a real WebSocket connection.
func mockClient(hub *Hub, site string) *Client {
	return &Client{
		hub:  hub,
		site: site,
		send: make(chan []byte, 256),
	}
}

func TestHubRegistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, "RANKIN")
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if hub.rooms["RANKIN"] == nil {
		t.Fatal("site room not created")
	}
	if !hub.rooms["RANKIN"][client] {
		t.Fatal("client not registered in site room")
	}
}

func TestHubUnregistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, "RANKIN")
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	// Room should be cleaned up when empty
	if hub.rooms["RANKIN"] != nil {
		t.Fatal("site room not cleaned up after last client unregistered")
	}
}

func TestBroadcastToSingleSite(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client1 := mockClient(hub, "RANKIN")
	client2 := mockClient(hub, "COUCHI")

	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	testPayload := json.RawMessage(`{"summary_id":"test-123"}`)
	event := Event{
		Type:    "cash_summary.submitted",
		Payload: testPayload,
	}
	hub.BroadcastToSite("RANKIN", event)

	// client1 receives the message
	select {
	case msg := <-client1.send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal message: %v", err)
		}
		if received.Type != "cash_summary.submitted" {
			t.Errorf("expected type 'cash_summary.submitted', got '%s'", received.Type)
		}
		if string(received.Payload) != string(testPayload) {
			t.Errorf("expected payload '%s', got '%s'", testPayload, received.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("client1 did not receive message")
	}

	// client2 must NOT receive it
	select {
	case <-client2.send:
		t.Fatal("client2 should not have received message for different site")
	case <-time.After(50 * time.Millisecond):
		// Expected - no message received
	}
}

func TestBroadcastToMultipleClientsInSameSite(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client1 := mockClient(hub, "RANKIN")
	client2 := mockClient(hub, "RANKIN")
	client3 := mockClient(hub, "RANKIN")

	hub.register <- client1
	hub.register <- client2
	hub.register <- client3
	time.Sleep(10 * time.Millisecond)

	event := Event{
		Type:    "safesheet.entry_added",
		Payload: json.RawMessage(`{"balance":"150.00"}`),
	}
	hub.BroadcastToSite("RANKIN", event)

	clients := []*Client{client1, client2, client3}
	for i, client := range clients {
		select {
		case msg := <-client.send:
			var received Event
			if err := json.Unmarshal(msg, &received); err != nil {
				t.Fatalf("client%d: failed to unmarshal: %v", i+1, err)
			}
			if received.Type != "safesheet.entry_added" {
				t.Errorf("client%d: expected type 'safesheet.entry_added', got '%s'", i+1, received.Type)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("client%d did not receive message", i+1)
		}
	}
}

func TestHubMultipleSitesIsolation(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// Two clients per site
	clients := map[string][]*Client{
		"RANKIN": {mockClient(hub, "RANKIN"), mockClient(hub, "RANKIN")},
		"COUCHI": {mockClient(hub, "COUCHI"), mockClient(hub, "COUCHI")},
		"HQ":     {mockClient(hub, "HQ"), mockClient(hub, "HQ")},
	}

	for _, clientList := range clients {
		for _, client := range clientList {
			hub.register <- client
		}
	}
	time.Sleep(10 * time.Millisecond)

	event := Event{
		Type:    "cash_summary.submitted",
		Payload: json.RawMessage(`{"site":"COUCHI"}`),
	}
	hub.BroadcastToSite("COUCHI", event)

	for site, clientList := range clients {
		for i, client := range clientList {
			select {
			case msg := <-client.send:
				if site != "COUCHI" {
					t.Fatalf("site %s client %d should not receive message", site, i)
				}
				var received Event
				if err := json.Unmarshal(msg, &received); err != nil {
					t.Fatalf("unmarshal error: %v", err)
				}
				if received.Type != "cash_summary.submitted" {
					t.Errorf("wrong event type: %s", received.Type)
				}
			case <-time.After(50 * time.Millisecond):
				if site == "COUCHI" {
					t.Fatalf("COUCHI client %d should have received message", i)
				}
				// Expected for other sites
			}
		}
	}
}

func TestHubCleanupEmptyRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client1 := mockClient(hub, "RANKIN")
	client2 := mockClient(hub, "RANKIN")

	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if len(hub.rooms["RANKIN"]) != 2 {
		t.Fatalf("expected 2 clients, got %d", len(hub.rooms["RANKIN"]))
	}
	hub.mu.RUnlock()

	hub.unregister <- client1
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if len(hub.rooms["RANKIN"]) != 1 {
		t.Fatalf("expected 1 client after first unregister, got %d", len(hub.rooms["RANKIN"]))
	}
	hub.mu.RUnlock()

	hub.unregister <- client2
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if hub.rooms["RANKIN"] != nil {
		t.Fatal("room should be deleted when last client unregisters")
	}
	hub.mu.RUnlock()
}

func TestBroadcastToUnknownSite(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client1 := mockClient(hub, "RANKIN")
	hub.register <- client1
	time.Sleep(10 * time.Millisecond)

	event := Event{
		Type:    "cash_summary.submitted",
		Payload: json.RawMessage(`{"test":"data"}`),
	}
	hub.BroadcastToSite("NOWHERE", event)

	select {
	case <-client1.send:
		t.Fatal("client should not receive message for different site")
	case <-time.After(50 * time.Millisecond):
		// Expected - no message
	}
}
