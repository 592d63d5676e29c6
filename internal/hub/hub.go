// Package hub is the websocket command surface. Each participant connects
// to /ws?participant=<id>; frames they send are handled as command requests,
// and the hub doubles as the notify.Gateway that delivers private messages
// back over the same sessions.
//
// A participant connected with dms=closed is treated as not accepting
// private messages. Replies to their own commands still reach them.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roach88/santa/internal/command"
	"github.com/roach88/santa/internal/metrics"
	"github.com/roach88/santa/internal/notify"
)

// ErrClosed is returned by Deliver after Close.
var ErrClosed = errors.New("hub closed")

// ErrBufferFull means no session of the participant could take the message.
var ErrBufferFull = errors.New("send buffer full")

// Event types sent to clients.
const (
	EventInfo    = "info"
	EventAck     = "ack"
	EventReply   = "reply"
	EventMessage = "message"
	EventError   = "error"
)

const (
	defaultSendBuffer   = 16
	defaultPingInterval = 30 * time.Second
	writeWait           = 10 * time.Second
	maxFrameSize        = 1 << 20
)

// Event is a server-to-client frame.
type Event struct {
	Type    string         `json:"type"`
	Reply   *command.Reply `json:"reply,omitempty"`
	Message *MessageFrame  `json:"message,omitempty"`
	Data    string         `json:"data,omitempty"`
}

// MessageFrame is a private message rendered for the client.
type MessageFrame struct {
	Kind       notify.Kind        `json:"kind"`
	Text       string             `json:"text"`
	Attachment *notify.Attachment `json:"attachment,omitempty"`
}

// Handler handles one command request. Implemented by *command.Dispatcher.
type Handler interface {
	Handle(ctx context.Context, req command.Request, ack func(command.Reply)) command.Reply
}

// session is one websocket connection.
type session struct {
	participant string
	dmsOpen     bool
	conn        *websocket.Conn
	send        chan Event
	done        chan struct{}
	closeOnce   sync.Once
}

func (s *session) enqueue(evt Event) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- evt:
		return true
	default:
		return false
	}
}

func (s *session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.conn != nil {
			s.conn.Close()
		}
	})
}

// Hub tracks live sessions by participant.
type Hub struct {
	renderer     *notify.Renderer
	metrics      metrics.Collector
	logger       *slog.Logger
	sendBuffer   int
	pingInterval time.Duration
	upgrader     websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string]map[*session]bool
	closed   bool
	wg       sync.WaitGroup
}

// Option configures a Hub.
type Option func(*Hub)

// WithSendBuffer sets the per-session outbound buffer size.
func WithSendBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

// WithPingInterval sets how often idle sessions are pinged. Sessions that
// do not answer within twice the interval are dropped.
func WithPingInterval(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.pingInterval = d
		}
	}
}

// WithMetrics reports the session count to c.
func WithMetrics(c metrics.Collector) Option {
	return func(h *Hub) {
		if c != nil {
			h.metrics = c
		}
	}
}

// WithLogger replaces slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// New creates a Hub that renders messages with r.
func New(r *notify.Renderer, opts ...Option) *Hub {
	h := &Hub{
		renderer:     r,
		metrics:      metrics.NewNop(),
		logger:       slog.Default(),
		sendBuffer:   defaultSendBuffer,
		pingInterval: defaultPingInterval,
		sessions:     make(map[string]map[*session]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// register adds s and reserves its two goroutines. It fails once the hub is
// closed.
func (h *Hub) register(s *session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	if h.sessions[s.participant] == nil {
		h.sessions[s.participant] = make(map[*session]bool)
	}
	h.sessions[s.participant][s] = true
	h.wg.Add(2)
	h.metrics.SetSessions(h.countLocked())
	return true
}

func (h *Hub) unregister(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if peers, ok := h.sessions[s.participant]; ok {
		delete(peers, s)
		if len(peers) == 0 {
			delete(h.sessions, s.participant)
		}
	}
	h.metrics.SetSessions(h.countLocked())
}

func (h *Hub) countLocked() int {
	n := 0
	for _, peers := range h.sessions {
		n += len(peers)
	}
	return n
}

// Sessions returns the number of live sessions.
func (h *Hub) Sessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.countLocked()
}

// Deliver implements notify.Gateway. It reports ErrUnreachable when the
// participant has no session accepting private messages.
func (h *Hub) Deliver(ctx context.Context, participantID string, msg notify.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return fmt.Errorf("deliver to %s: %w", participantID, ErrClosed)
	}

	evt := Event{
		Type: EventMessage,
		Message: &MessageFrame{
			Kind:       msg.Kind,
			Text:       h.renderer.Text(msg),
			Attachment: msg.Attachment,
		},
	}

	open, sent := 0, 0
	for s := range h.sessions[participantID] {
		if !s.dmsOpen {
			continue
		}
		open++
		if s.enqueue(evt) {
			sent++
		}
	}
	switch {
	case open == 0:
		return fmt.Errorf("deliver to %s: %w", participantID, notify.ErrUnreachable)
	case sent == 0:
		return fmt.Errorf("deliver to %s: %w", participantID, ErrBufferFull)
	}
	return nil
}

// Close disconnects every session and waits for their goroutines.
// Deliver fails with ErrClosed afterwards.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	for _, peers := range h.sessions {
		for s := range peers {
			s.close()
		}
	}
	h.mu.Unlock()

	h.wg.Wait()
	return nil
}

// Handler returns the /ws endpoint routing frames to d.
func (h *Hub) Handler(d Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		participant := r.URL.Query().Get("participant")
		if participant == "" {
			http.Error(w, "participant is required", http.StatusBadRequest)
			return
		}

		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("websocket upgrade failed", "participant", participant, "error", err)
			return
		}

		s := &session{
			participant: participant,
			dmsOpen:     r.URL.Query().Get("dms") != "closed",
			conn:        conn,
			send:        make(chan Event, h.sendBuffer),
			done:        make(chan struct{}),
		}
		if !h.register(s) {
			conn.Close()
			return
		}
		h.logger.Debug("session opened", "participant", participant, "dms_open", s.dmsOpen)

		s.enqueue(Event{Type: EventInfo, Data: "connected"})

		go h.writer(s)
		h.reader(r.Context(), s, d)
	})
}

func (h *Hub) reader(ctx context.Context, s *session, d Handler) {
	defer func() {
		h.unregister(s)
		s.close()
		h.logger.Debug("session closed", "participant", s.participant)
		h.wg.Done()
	}()

	pongWait := 2 * h.pingInterval
	s.conn.SetReadLimit(maxFrameSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))

		var req command.Request
		if err := json.Unmarshal(payload, &req); err != nil {
			s.enqueue(Event{Type: EventError, Data: "invalid frame"})
			continue
		}
		// The session is the only trusted source of identity.
		req.Sender = s.participant
		if req.Channel == "" {
			req.Channel = command.ChannelDM
		}

		reply := d.Handle(ctx, req, func(ack command.Reply) {
			s.enqueue(Event{Type: EventAck, Reply: &ack})
		})
		if !s.enqueue(Event{Type: EventReply, Reply: &reply}) {
			h.logger.Warn("reply dropped", "participant", s.participant, "kind", req.Kind)
		}
	}
}

func (h *Hub) writer(s *session) {
	ticker := time.NewTicker(h.pingInterval)
	defer func() {
		ticker.Stop()
		s.close()
		h.wg.Done()
	}()

	for {
		select {
		case <-s.done:
			return
		case evt := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
