package events

import (
	"context"
	"log"
	"sync"

	"github.com/counselhub/counselhub/internal/stats"
	"github.com/counselhub/counselhub/internal/types"
)

const activeClientsMetric = "NumActiveClients"

const (
	EventMessage = "message"
	EventError   = "error"
)

// Event is the envelope pushed to subscribed clients.
type Event struct {
	Type      string         `json:"type"`
	SessionId string         `json:"session_id,omitempty"`
	Message   *types.Message `json:"message,omitempty"`
	Error     string         `json:"error,omitempty"`
}

type subscription struct {
	client    *Client
	sessionId string
}

// Hub fans committed message events out to connected session participants.
// Session membership is owned by the run loop; every mutation flows through
// its channels. A client whose send buffer is full is dropped rather than
// blocking delivery to the rest of the session.
type Hub struct {
	log             *log.Logger
	stats           stats.StatsProvider
	registerChan    chan *Client
	deregisterChan  chan *Client
	subscribeChan   chan subscription
	unsubscribeChan chan subscription
	publishChan     chan Event
	clients         map[*Client]struct{}
	clientsLock     sync.Mutex
	sessions        map[string]map[*Client]struct{}
	stop            chan struct{}
	done            chan struct{}
}

func NewHub(logger *log.Logger, st stats.StatsProvider) *Hub {
	if st != nil {
		st.RegisterMetric(activeClientsMetric)
	}

	return &Hub{
		log:             logger,
		stats:           st,
		registerChan:    make(chan *Client),
		deregisterChan:  make(chan *Client),
		subscribeChan:   make(chan subscription, 256),
		unsubscribeChan: make(chan subscription, 256),
		publishChan:     make(chan Event, 256),
		clients:         make(map[*Client]struct{}),
		sessions:        make(map[string]map[*Client]struct{}),
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.registerChan:
			h.addClient(client)
		case client := <-h.deregisterChan:
			h.removeClient(client)
		case sub := <-h.subscribeChan:
			clients, ok := h.sessions[sub.sessionId]
			if !ok {
				clients = make(map[*Client]struct{})
				h.sessions[sub.sessionId] = clients
			}
			clients[sub.client] = struct{}{}
		case sub := <-h.unsubscribeChan:
			if clients, ok := h.sessions[sub.sessionId]; ok {
				delete(clients, sub.client)
				if len(clients) == 0 {
					delete(h.sessions, sub.sessionId)
				}
			}
		case ev := <-h.publishChan:
			for client := range h.sessions[ev.SessionId] {
				if !client.queueEvent(&ev) {
					h.log.Printf("dropping slow client %d from session %q", client.userId, ev.SessionId)
					h.removeClient(client)
					client.stopClient()
				}
			}
		case <-h.stop:
			for client := range h.clients {
				client.stopClient()
			}
			close(h.done)
			return
		}
	}
}

// PublishMessage queues a committed message for live delivery. Delivery is
// best effort: a full hub queue drops the event, durable state is already
// committed.
func (h *Hub) PublishMessage(sessionId string, msg types.Message) {
	ev := Event{
		Type:      EventMessage,
		SessionId: sessionId,
		Message:   &msg,
	}

	select {
	case h.publishChan <- ev:
	default:
		h.log.Printf("publish queue full, dropping event for session %q", sessionId)
	}
}

func (h *Hub) Register(c *Client) {
	h.registerChan <- c
}

func (h *Hub) Shutdown(ctx context.Context) error {
	close(h.stop)
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) addClient(c *Client) {
	h.clientsLock.Lock()
	defer h.clientsLock.Unlock()
	h.clients[c] = struct{}{}
	if h.stats != nil {
		h.stats.Incr(activeClientsMetric)
	}
}

func (h *Hub) removeClient(c *Client) {
	h.clientsLock.Lock()
	defer h.clientsLock.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}

	delete(h.clients, c)
	for sessionId, clients := range h.sessions {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.sessions, sessionId)
		}
	}

	if h.stats != nil {
		h.stats.Decr(activeClientsMetric)
	}
}
