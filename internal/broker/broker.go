// Package broker implements the Broker component of SPEC_FULL.md §4.5: a
// logical pub/sub fan-out between one host endpoint and N participant
// endpoints of the same meeting, identified by access code.
//
// Architecture:
//   - Broker: owns every channel group, keyed by group name
//   - Subscriber: one registered WebSocket connection's outbound queue
//   - GroupAdd/GroupDiscard/GroupSend: the contract SPEC_FULL.md §4.5 names
//
// Message flow:
//  1. HostEndpoint/ParticipantEndpoint calls GroupAdd on connect
//  2. HostEndpoint calls GroupSend to push to the participant group
//  3. Broker delivers to every subscriber currently in that group
//  4. A subscriber's writePump drains its queue onto the WebSocket connection
//
// Concurrency:
//   - All group membership mutations go through a single mutex-protected map
//   - GroupSend never blocks the caller: a full subscriber queue triggers an
//     immediate force-close (SPEC_FULL.md §5 backpressure, close code 1013)
//
// This package is grounded on internal/websocket/hub.go's Hub/Client
// registration and backpressure pattern from the teacher codebase, replacing
// org-scoped multi-tenancy with access-code-scoped channel groups.
package broker

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/meetingspace/api/internal/logger"
)

// queueSize bounds each subscriber's outbound buffer. A subscriber whose
// queue fills is considered slow and is force-closed per SPEC_FULL.md §5.
const queueSize = 256

// outbound is one queued unit of work for a subscriber's write pump: a
// message to write and, if set, a close frame to send immediately after
// (used to deliver a final broadcast like end_meeting before disconnecting,
// without racing the write against a concurrent ForceClose).
type outbound struct {
	message   []byte
	closeCode int
	closeMsg  string
}

// Subscriber is one registered WebSocket connection's outbound queue.
type Subscriber struct {
	ID   string
	conn *websocket.Conn
	send chan outbound

	closeOnce sync.Once
	closed    chan struct{}
}

// NewSubscriber wraps a WebSocket connection for group delivery and starts
// its write pump. Callers own read-side message handling separately.
func NewSubscriber(id string, conn *websocket.Conn) *Subscriber {
	s := &Subscriber{
		ID:     id,
		conn:   conn,
		send:   make(chan outbound, queueSize),
		closed: make(chan struct{}),
	}
	go s.writePump()
	return s
}

// Send enqueues a message for delivery. Returns false if the queue was full
// (the caller should then force-close and unregister the subscriber).
func (s *Subscriber) Send(message []byte) bool {
	select {
	case s.send <- outbound{message: message}:
		return true
	default:
		return false
	}
}

// SendAndClose enqueues a final message followed by a graceful close frame,
// both handled in order by the write pump so the message is flushed before
// the connection goes away (SPEC_FULL.md §4.3/§4.4 end_meeting).
func (s *Subscriber) SendAndClose(message []byte, code int, reason string) bool {
	select {
	case s.send <- outbound{message: message, closeCode: code, closeMsg: reason}:
		return true
	default:
		s.ForceClose(code, reason)
		return false
	}
}

// ForceClose closes the subscriber's connection immediately with the given
// WebSocket close code, used for backpressure (1013) and abrupt termination.
func (s *Subscriber) ForceClose(code int, reason string) {
	s.closeOnce.Do(func() {
		close(s.closed)
		deadline := time.Now().Add(5 * time.Second)
		msg := websocket.FormatCloseMessage(code, reason)
		s.conn.WriteControl(websocket.CloseMessage, msg, deadline)
		s.conn.Close()
	})
}

func (s *Subscriber) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case out, ok := <-s.send:
			if !ok {
				return
			}
			s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if out.message != nil {
				if err := s.conn.WriteMessage(websocket.TextMessage, out.message); err != nil {
					return
				}
			}
			if out.closeCode != 0 {
				s.ForceClose(out.closeCode, out.closeMsg)
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.closed:
			return
		}
	}
}

// Broker owns every channel group. One Broker instance serves the whole
// process; groups come and go as meetings start and end.
type Broker struct {
	mu     sync.RWMutex
	groups map[string]map[string]*Subscriber // group name -> subscriber ID -> subscriber
}

// New creates an empty Broker.
func New() *Broker {
	return &Broker{groups: make(map[string]map[string]*Subscriber)}
}

// GroupAdd enrolls a subscriber into a channel group.
func (b *Broker) GroupAdd(group string, sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.groups[group] == nil {
		b.groups[group] = make(map[string]*Subscriber)
	}
	b.groups[group][sub.ID] = sub
}

// GroupDiscard removes a subscriber from a channel group. Safe to call
// multiple times or for a subscriber that was never added.
func (b *Broker) GroupDiscard(group string, sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	members, ok := b.groups[group]
	if !ok {
		return
	}
	delete(members, sub.ID)
	if len(members) == 0 {
		delete(b.groups, group)
	}
}

// GroupSend delivers message to every subscriber currently in group.
// Delivery is best-effort per-subscriber: a subscriber whose queue is full
// is force-closed with WSCloseBackpressure and dropped from every group it
// belongs to (SPEC_FULL.md §5).
func (b *Broker) GroupSend(group string, message []byte) {
	b.mu.RLock()
	members := make([]*Subscriber, 0, len(b.groups[group]))
	for _, sub := range b.groups[group] {
		members = append(members, sub)
	}
	b.mu.RUnlock()

	for _, sub := range members {
		if !sub.Send(message) {
			logger.WebSocket().Warn().Str("subscriber", sub.ID).Str("group", group).
				Msg("subscriber outbound queue full, force-closing")
			sub.ForceClose(1013, "backpressure")
			b.GroupDiscard(group, sub)
		}
	}
}

// GroupSendAndClose delivers message to every subscriber in group and then
// gracefully closes each connection with the given close code, in that
// order per subscriber. Used for end_meeting, where the participant group
// must see the final broadcast before its connections go away.
func (b *Broker) GroupSendAndClose(group string, message []byte, code int, reason string) {
	b.mu.RLock()
	members := make([]*Subscriber, 0, len(b.groups[group]))
	for _, sub := range b.groups[group] {
		members = append(members, sub)
	}
	b.mu.RUnlock()

	for _, sub := range members {
		if !sub.SendAndClose(message, code, reason) {
			logger.WebSocket().Warn().Str("subscriber", sub.ID).Str("group", group).
				Msg("subscriber outbound queue full while closing, force-closed")
		}
		b.GroupDiscard(group, sub)
	}
}

// GroupSize reports how many subscribers are currently in a group.
func (b *Broker) GroupSize(group string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.groups[group])
}

// Host group and participant group names, per SPEC_FULL.md §4.5, grounded on
// original_source/apps/meeting/constants.py's GroupPrefixes.
func HostGroup(accessCode string) string {
	return "meeting_host_" + accessCode
}

func ParticipantGroup(accessCode string) string {
	return "meeting_" + accessCode
}
