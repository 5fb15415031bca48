package ws

import (
	"encoding/json"
	"sync"
)

// Event is one message broadcast to a site's dashboard clients, e.g. a
// cash-summary submission.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// siteEvent routes an event to one site's room.
type siteEvent struct {
	Site  string
	Event Event
}

// Hub maintains the set of active clients and broadcasts messages to
// them, one room per site.
type Hub struct {
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	broadcast chan *siteEvent

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *siteEvent, 256),
	}
}

// Run starts the hub's main loop. Call as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.site] == nil {
				h.rooms[client.site] = make(map[*Client]bool)
			}
			h.rooms[client.site][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.site]; ok {
				if _, exists := clients[client]; exists {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.rooms, client.site)
					}
				}
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()
			clients := h.rooms[event.Site]

			message, err := json.Marshal(event.Event)
			if err != nil {
				h.mu.Unlock()
				continue
			}

			for client := range clients {
				select {
				case client.send <- message:
				default:
					// Send buffer full; drop the slow client.
					close(client.send)
					delete(h.rooms[event.Site], client)
					if len(h.rooms[event.Site]) == 0 {
						delete(h.rooms, event.Site)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToSite sends an event to all clients watching a site. This
// is the public API for handlers and services.
func (h *Hub) BroadcastToSite(site string, event Event) {
	h.broadcast <- &siteEvent{Site: site, Event: event}
}
