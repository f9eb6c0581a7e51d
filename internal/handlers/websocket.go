package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pdfdesk/internal/interfaces"
	"github.com/ternarybob/pdfdesk/internal/models"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

const writeWait = 5 * time.Second

// Message types pushed to clients
const (
	MessageSession       = "session"
	MessageExportStatus  = "export_status"
	MessageSessionClosed = "session_closed"
)

// WSMessage is the envelope of every pushed message
type WSMessage struct {
	Type             string      `json:"type"`
	ServerInstanceID string      `json:"server_instance_id,omitempty"`
	Payload          interface{} `json:"payload"`
}

// wsClient is one connection watching one session. Session views are
// throttled per client; the latest view held back is flushed once the
// interval has passed.
type wsClient struct {
	conn      *websocket.Conn
	sessionID string

	writeMu sync.Mutex

	mu          sync.Mutex
	limiter     *rate.Limiter
	interval    time.Duration
	lastVersion uint64
	pending     *models.SessionView
	flushTimer  *time.Timer
	closed      bool
}

// WebSocketHandler pushes session projections to connected clients
type WebSocketHandler struct {
	logger           arbor.ILogger
	editor           interfaces.EditorService
	eventService     interfaces.EventService
	interval         time.Duration
	serverInstanceID string // clients use it to detect a server restart

	mu      sync.RWMutex
	clients map[string]map[*wsClient]bool

	subscriptions []interfaces.Subscription
}

// NewWebSocketHandler creates the handler and subscribes it to session events.
// A zero interval disables throttling.
func NewWebSocketHandler(editor interfaces.EditorService, eventService interfaces.EventService, interval time.Duration, logger arbor.ILogger) *WebSocketHandler {
	h := &WebSocketHandler{
		logger:           logger,
		editor:           editor,
		eventService:     eventService,
		interval:         interval,
		serverInstanceID: uuid.New().String(),
		clients:          make(map[string]map[*wsClient]bool),
	}
	if eventService != nil {
		for eventType, handler := range map[interfaces.EventType]interfaces.EventHandler{
			interfaces.EventSessionUpdated: h.handleSessionUpdated,
			interfaces.EventExportStatus:   h.handleExportStatus,
			interfaces.EventSessionClosed:  h.handleSessionClosed,
		} {
			sub, err := eventService.Subscribe(eventType, handler)
			if err != nil {
				logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("Failed to subscribe WebSocket handler")
				continue
			}
			h.subscriptions = append(h.subscriptions, sub)
		}
	}

	logger.Info().
		Str("server_instance_id", h.serverInstanceID).
		Dur("throttle_interval", interval).
		Msg("WebSocket handler initialized")
	return h
}

// HandleWebSocket handles GET /ws?session={id}
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		WriteError(w, http.StatusBadRequest, "Missing session parameter")
		return
	}
	session, err := h.editor.Get(sessionID)
	if err != nil {
		WriteEditorError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	c := &wsClient{
		conn:      conn,
		sessionID: sessionID,
		interval:  h.interval,
	}
	if h.interval > 0 {
		c.limiter = rate.NewLimiter(rate.Every(h.interval), 1)
	}

	count := h.register(c)
	h.logger.Debug().
		Str("session_id", sessionID).
		Int("clients", count).
		Msg("WebSocket client connected")

	// Initial projection bypasses the throttle
	view := session.View()
	c.mu.Lock()
	c.lastVersion = view.Version
	c.mu.Unlock()
	h.write(c, WSMessage{Type: MessageSession, Payload: view})

	defer func() {
		remaining := h.unregister(c)
		c.stop()
		conn.Close()
		h.logger.Debug().
			Str("session_id", sessionID).
			Int("clients", remaining).
			Msg("WebSocket client disconnected")
	}()

	// Read messages from client (keep connection alive)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			return
		}
	}
}

// ClientCount returns the number of clients watching a session
func (h *WebSocketHandler) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

// Close unsubscribes from the event bus and disconnects every client
func (h *WebSocketHandler) Close() {
	if h.eventService != nil {
		for _, sub := range h.subscriptions {
			h.eventService.Unsubscribe(sub)
		}
		h.subscriptions = nil
	}

	h.mu.Lock()
	var all []*wsClient
	for _, set := range h.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	h.clients = make(map[string]map[*wsClient]bool)
	h.mu.Unlock()

	for _, c := range all {
		c.stop()
		c.conn.Close()
	}
}

func (h *WebSocketHandler) register(c *wsClient) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.sessionID]
	if !ok {
		set = make(map[*wsClient]bool)
		h.clients[c.sessionID] = set
	}
	set[c] = true
	return len(set)
}

func (h *WebSocketHandler) unregister(c *wsClient) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.clients[c.sessionID]
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.sessionID)
	}
	return len(set)
}

func (h *WebSocketHandler) sessionClients(sessionID string) []*wsClient {
	h.mu.RLock()
	defer h.mu.RUnlock()

	set := h.clients[sessionID]
	out := make([]*wsClient, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

func (h *WebSocketHandler) handleSessionUpdated(ctx context.Context, event interfaces.Event) error {
	view, ok := event.Payload.(models.SessionView)
	if !ok {
		h.logger.Warn().Str("session_id", event.SessionID).Msg("Invalid session update payload type")
		return nil
	}
	for _, c := range h.sessionClients(event.SessionID) {
		h.pushView(c, view)
	}
	return nil
}

func (h *WebSocketHandler) handleExportStatus(ctx context.Context, event interfaces.Event) error {
	for _, c := range h.sessionClients(event.SessionID) {
		h.write(c, WSMessage{Type: MessageExportStatus, Payload: event.Payload})
	}
	return nil
}

func (h *WebSocketHandler) handleSessionClosed(ctx context.Context, event interfaces.Event) error {
	for _, c := range h.sessionClients(event.SessionID) {
		h.write(c, WSMessage{Type: MessageSessionClosed, Payload: map[string]string{"session_id": event.SessionID}})
		c.stop()
		c.conn.Close()
	}
	return nil
}

// pushView sends a view now, or holds it for the trailing flush when the
// client is throttled. Views older than the last one sent are dropped since
// events are delivered concurrently.
func (h *WebSocketHandler) pushView(c *wsClient, view models.SessionView) {
	c.mu.Lock()
	if c.closed || view.Version <= c.lastVersion {
		c.mu.Unlock()
		return
	}
	if c.limiter != nil && !c.limiter.Allow() {
		if c.pending == nil || view.Version > c.pending.Version {
			v := view
			c.pending = &v
		}
		if c.flushTimer == nil {
			c.flushTimer = time.AfterFunc(c.interval, func() { h.flush(c) })
		}
		c.mu.Unlock()
		return
	}
	c.lastVersion = view.Version
	c.mu.Unlock()

	h.write(c, WSMessage{Type: MessageSession, Payload: view})
}

// flush sends the view held back by the throttle
func (h *WebSocketHandler) flush(c *wsClient) {
	c.mu.Lock()
	c.flushTimer = nil
	view := c.pending
	c.pending = nil
	if c.closed || view == nil || view.Version <= c.lastVersion {
		c.mu.Unlock()
		return
	}
	c.lastVersion = view.Version
	c.limiter.Allow()
	c.mu.Unlock()

	h.write(c, WSMessage{Type: MessageSession, Payload: *view})
}

func (h *WebSocketHandler) write(c *wsClient, msg WSMessage) {
	msg.ServerInstanceID = h.serverInstanceID
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("type", msg.Type).Msg("Failed to marshal WebSocket message")
		return
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.logger.Warn().Err(err).Str("session_id", c.sessionID).Msg("Failed to send WebSocket message")
	}
}

func (c *wsClient) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.pending = nil
	if c.flushTimer != nil {
		c.flushTimer.Stop()
		c.flushTimer = nil
	}
}
