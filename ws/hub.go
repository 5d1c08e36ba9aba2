package ws

import (
	"container/ring"
	"encoding/json"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/wavelink-chat/wavelink-relay/config"
	"github.com/wavelink-chat/wavelink-relay/globals"
	"github.com/wavelink-chat/wavelink-relay/presence"
	"github.com/wavelink-chat/wavelink-relay/room"
	"github.com/wavelink-chat/wavelink-relay/types"
)

const (
	maxMessageSize          = 4096
	pongWait                = 2 * time.Minute
	pingPeriod              = time.Minute
	writeWait               = 10 * time.Second
	sendChannelSize         = 256
	compiledFilterCacheSize = 128
	defaultRecentFeedSize   = 20
)

// Hub routes events between all live connections of the relay. It owns the
// presence registry, the room membership table and the recent-message feed;
// every mutation of shared state goes through the hub or through the
// mutex-guarded registry/room tables, which preserves the
// one-connection-per-identity invariant during online/disconnect races.
type Hub struct {
	cfg *config.Config

	// Registered clients by connection id.
	clients map[string]*Client

	Presence *presence.Registry
	Rooms    *room.Rooms

	filter *messageFilter

	// recent normalized message summaries in a ring buffer, newest last
	recentStart, recentEnd *ring.Ring

	started         time.Time
	relayedMessages uint64
	brokeredCalls   uint64

	// mutex for manipulating the clients map, the counters and the feed
	sync.RWMutex
}

func NewHub(cfg *config.Config) *Hub {
	feedSize := defaultRecentFeedSize
	if cfg != nil && cfg.HistoryConfig.HistorySize > 0 {
		feedSize = cfg.HistoryConfig.HistorySize
	}
	// one extra slot: recentEnd always points at the next write position
	recent := ring.New(feedSize + 1)
	return &Hub{
		cfg:         cfg,
		clients:     make(map[string]*Client),
		Presence:    presence.NewRegistry(),
		Rooms:       room.NewRooms(),
		filter:      newMessageFilter(),
		recentStart: recent,
		recentEnd:   recent,
		started:     time.Now(),
	}
}

// Register adds a freshly upgraded connection to the hub.
func (h *Hub) Register(c *Client) {
	h.Lock()
	h.clients[c.ID] = c
	total := len(h.clients)
	h.Unlock()
	globals.AppLogger.Info("connection open", "conn", c.ID, "label", c.Label, "total", total)
}

// Disconnect removes the connection from the hub, clears its room
// memberships and its presence entry, and broadcasts the offline status if a
// user identity was bound to it. Safe to call more than once.
func (h *Hub) Disconnect(c *Client) {
	h.Lock()
	if _, ok := h.clients[c.ID]; !ok {
		h.Unlock()
		return
	}
	delete(h.clients, c.ID)
	total := len(h.clients)
	h.Unlock()

	h.Rooms.DropConnection(c.ID)
	if userID, ok := h.Presence.RemoveByConnection(c.ID); ok {
		globals.AppLogger.Info("user offline", "user", userID, "conn", c.ID)
		h.Broadcast(types.EventUserStatusUpdate, types.UserStatusUpdate{UserId: userID, Status: types.StatusOffline})
	}
	// Safe to close here: send only happens under RLock after a membership
	// check, and the client was removed under the full lock above.
	close(c.Send)
	globals.AppLogger.Info("connection closed", "conn", c.ID, "label", c.Label, "total", total)
}

// NoClients returns the number of clients registered
func (h *Hub) NoClients() int {
	h.RLock()
	defer h.RUnlock()
	return len(h.clients)
}

func (h *Hub) client(connID string) *Client {
	h.RLock()
	defer h.RUnlock()
	return h.clients[connID]
}

// send queues one frame for a single connection. Delivery is fire-and-forget:
// if the client's send buffer is full the frame is dropped for that client,
// the connection is not closed.
func (h *Hub) send(c *Client, data []byte) {
	h.RLock()
	defer h.RUnlock()
	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	select {
	case c.Send <- data:
	default:
		globals.AppLogger.Warn("send buffer full, dropping frame", "conn", c.ID, "label", c.Label)
	}
}

// Broadcast emits an event to every connection process-wide.
func (h *Hub) Broadcast(event string, payload interface{}) {
	data, err := types.NewWebsocketMessage(event, payload)
	if err != nil {
		globals.AppLogger.Error("could not marshal broadcast", "event", event, "error", err)
		return
	}
	for _, c := range h.clientSnapshot() {
		h.send(c, data)
	}
}

// BroadcastRoom emits an event to every connection subscribed to the room.
func (h *Hub) BroadcastRoom(roomID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		globals.AppLogger.Error("could not marshal room broadcast", "event", event, "error", err)
		return
	}
	h.broadcastRoomRaw(roomID, event, data)
}

// broadcastRoomRaw emits a raw payload to the room, used to echo inbound
// message payloads unchanged.
func (h *Hub) broadcastRoomRaw(roomID, event string, data json.RawMessage) {
	frame, err := json.Marshal(types.WebsocketMessage{Event: event, Data: data})
	if err != nil {
		globals.AppLogger.Error("could not marshal room frame", "event", event, "error", err)
		return
	}
	for _, connID := range h.Rooms.Members(roomID) {
		if c := h.client(connID); c != nil {
			h.send(c, frame)
		}
	}
}

// UnicastUser emits an event to whichever connection currently represents
// the given user identity. It reports whether the identity resolved to a
// live connection.
func (h *Hub) UnicastUser(userID, event string, payload interface{}) bool {
	connID, ok := h.Presence.Lookup(userID)
	if !ok {
		return false
	}
	c := h.client(connID)
	if c == nil {
		// registry entry for a connection that is already gone, treat as offline
		return false
	}
	data, err := types.NewWebsocketMessage(event, payload)
	if err != nil {
		globals.AppLogger.Error("could not marshal unicast", "event", event, "error", err)
		return true
	}
	h.send(c, data)
	return true
}

func (h *Hub) reply(c *Client, event string, payload interface{}) {
	data, err := types.NewWebsocketMessage(event, payload)
	if err != nil {
		globals.AppLogger.Error("could not marshal reply", "event", event, "error", err)
		return
	}
	h.send(c, data)
}

func (h *Hub) clientSnapshot() []*Client {
	h.RLock()
	defer h.RUnlock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	return clients
}

// pushRecent attaches a normalized summary to the recent-message feed.
func (h *Hub) pushRecent(nm types.NewMessage) {
	h.Lock()
	defer h.Unlock()
	h.recentEnd.Value = nm
	h.recentEnd = h.recentEnd.Next()
	if h.recentEnd == h.recentStart {
		h.recentStart = h.recentStart.Next()
	}
	h.relayedMessages++
}

// RecentMessages returns the feed contents, oldest first.
func (h *Hub) RecentMessages() []types.NewMessage {
	h.RLock()
	defer h.RUnlock()
	recent := make([]types.NewMessage, 0)
	for current := h.recentStart; current != h.recentEnd; current = current.Next() {
		recent = append(recent, current.Value.(types.NewMessage))
	}
	return recent
}

func (h *Hub) countCall() {
	h.Lock()
	h.brokeredCalls++
	h.Unlock()
}

// Stats is the live state snapshot exposed on the admin API and in the
// periodic stats report.
type Stats struct {
	Connections     int    `json:"connections"`
	OnlineUsers     int    `json:"onlineUsers"`
	Rooms           int    `json:"rooms"`
	RelayedMessages uint64 `json:"relayedMessages"`
	BrokeredCalls   uint64 `json:"brokeredCalls"`
	UptimeSeconds   int64  `json:"uptimeSeconds"`
}

func (h *Hub) GetStats() Stats {
	h.RLock()
	relayed := h.relayedMessages
	calls := h.brokeredCalls
	conns := len(h.clients)
	started := h.started
	h.RUnlock()
	return Stats{
		Connections:     conns,
		OnlineUsers:     h.Presence.NoUsers(),
		Rooms:           h.Rooms.NoRooms(),
		RelayedMessages: relayed,
		BrokeredCalls:   calls,
		UptimeSeconds:   int64(time.Since(started).Seconds()),
	}
}

// StartStatsReporter schedules a periodic log line with the relay
// statistics. The returned runner should be stopped by the caller.
func (h *Hub) StartStatsReporter(spec string) (*cron.Cron, error) {
	runner := cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := runner.AddFunc(spec, func() {
		s := h.GetStats()
		globals.AppLogger.Info("relay stats",
			"connections", s.Connections,
			"online_users", s.OnlineUsers,
			"rooms", s.Rooms,
			"relayed_messages", s.RelayedMessages,
			"brokered_calls", s.BrokeredCalls)
	})
	if err != nil {
		return nil, err
	}
	runner.Start()
	return runner, nil
}
