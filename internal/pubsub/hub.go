// Package pubsub implements the named-channel fan-out layer: publish
// returns the number of subscribers delivered to, and each subscriber
// reads from a bounded queue that reports lag instead of blocking the
// publisher (§4.4).
package pubsub

import (
	"sync"
)

// DefaultBacklog is the per-subscriber bounded queue depth (§4.4).
const DefaultBacklog = 1024

// Message is one delivered publish. When the subscriber's queue overflowed,
// Lagged also reports how many earlier messages were dropped for it.
type Message struct {
	Channel string
	Payload []byte
	Lagged  int // >0 means this many messages were dropped before Payload
}

// Subscription is a live subscriber's receive handle. Unsubscribe must be
// called when the connection task stops reading it.
type Subscription struct {
	Channel string
	ch      chan Message

	hub *Hub
	id  uint64
}

// C returns the channel to receive delivered messages and lag notices on.
func (sub *Subscription) C() <-chan Message {
	return sub.ch
}

// Unsubscribe removes this subscriber from its channel. Safe to call more
// than once.
func (sub *Subscription) Unsubscribe() {
	sub.hub.unsubscribe(sub)
}

// Hub maintains the channel-name → subscriber-set map under its own lock,
// independent of the Keyspace lock (§5).
type Hub struct {
	mu       sync.Mutex
	channels map[string]map[uint64]*Subscription
	nextID   uint64
	backlog  int
}

// NewHub returns an empty Hub using the default per-subscriber backlog.
func NewHub() *Hub {
	return &Hub{
		channels: make(map[string]map[uint64]*Subscription),
		backlog:  DefaultBacklog,
	}
}

// Subscribe creates channel on first subscriber and returns a handle the
// caller reads delivered messages from.
func (h *Hub) Subscribe(channel string) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{
		Channel: channel,
		ch:      make(chan Message, h.backlog),
		hub:     h,
		id:      h.nextID,
	}

	subs, ok := h.channels[channel]
	if !ok {
		subs = make(map[uint64]*Subscription)
		h.channels[channel] = subs
	}
	subs[sub.id] = sub
	return sub
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.channels[sub.Channel]
	if !ok {
		return
	}
	delete(subs, sub.id)
	if len(subs) == 0 {
		delete(h.channels, sub.Channel)
	}
}

// Publish delivers payload to every current subscriber of channel without
// blocking on any of them: for a subscriber whose queue is full, the oldest
// queued message is dropped to make room and payload is enqueued tagged
// with the lag count, rather than stalling the publisher (§5 backpressure). Returns the subscriber count at call time,
// or 0 (and creates nothing) if the channel has no subscribers.
func (h *Hub) Publish(channel string, payload []byte) int {
	h.mu.Lock()
	subs := h.channels[channel]
	delivered := len(subs)
	targets := make([]*Subscription, 0, delivered)
	for _, sub := range subs {
		targets = append(targets, sub)
	}
	h.mu.Unlock()

	msg := Message{Channel: channel, Payload: payload}
	for _, sub := range targets {
		select {
		case sub.ch <- msg:
		default:
			// Queue full: drain-and-tag the next delivered message as
			// lagged rather than blocking the publisher.
			drainAndTagLag(sub.ch, msg)
		}
	}
	return delivered
}

// drainAndTagLag discards the oldest queued message (if any) to make room,
// counts how many were dropped, and enqueues msg carrying that lag count.
// Never blocks: if the queue is being concurrently drained by the reader
// it simply enqueues msg with whatever lag was observed.
func drainAndTagLag(ch chan Message, msg Message) {
	lagged := 0
	for {
		select {
		case <-ch:
			lagged++
			select {
			case ch <- tagLag(msg, lagged):
				return
			default:
				continue
			}
		default:
			select {
			case ch <- tagLag(msg, lagged):
			default:
				// Reader is draining concurrently and refilled the queue
				// faster than we could insert; the message is dropped for
				// this subscriber, who will observe the gap via the next
				// successful lag tag.
			}
			return
		}
	}
}

func tagLag(msg Message, lagged int) Message {
	if lagged > 0 {
		msg.Lagged = lagged
	}
	return msg
}

// ChannelSubscriberCount returns the current subscriber count for channel,
// for INFO/diagnostics.
func (h *Hub) ChannelSubscriberCount(channel string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.channels[channel])
}
