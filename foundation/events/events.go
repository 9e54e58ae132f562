// Package events allows for the registering and receiving of events.
package events

import (
	"fmt"
	"strings"
	"sync"
)

// messageBuffer is the per subscriber backlog. Websocket sends can be slow
// and a message is dropped once a subscriber's buffer is full.
const messageBuffer = 100

type subscriber struct {
	ch       chan string
	prefixes []string
}

// wants reports whether the subscriber asked for this message. A subscriber
// without prefixes receives everything.
func (s subscriber) wants(msg string) bool {
	if len(s.prefixes) == 0 {
		return true
	}

	for _, p := range s.prefixes {
		if strings.HasPrefix(msg, p) {
			return true
		}
	}

	return false
}

// Events maintains a mapping of unique id and channels so goroutines
// can register and receive events.
type Events struct {
	m  map[string]subscriber
	mu sync.RWMutex
}

// New constructs an events for registering and receiving events.
func New() *Events {
	return &Events{
		m: make(map[string]subscriber),
	}
}

// Shutdown closes and removes all channels that were provided by
// the call to Acquire.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, sub := range evt.m {
		delete(evt.m, id)
		close(sub.ch)
	}
}

// Acquire takes a unique id and returns a channel that can be used
// to receive events. When prefixes are provided only messages starting
// with one of them are delivered, such as "viewer:" for accepted blocks.
func (evt *Events) Acquire(id string, prefixes ...string) chan string {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if sub, exists := evt.m[id]; exists {
		return sub.ch
	}

	sub := subscriber{
		ch:       make(chan string, messageBuffer),
		prefixes: prefixes,
	}
	evt.m[id] = sub

	return sub.ch
}

// Release closes and removes the channel that was provided by
// the call to Acquire.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	sub, exists := evt.m[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.m, id)
	close(sub.ch)
	return nil
}

// Count returns the number of registered subscribers.
func (evt *Events) Count() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.m)
}

// Send signals a message to every interested channel. Send will not block
// waiting for a receiver on any given channel.
func (evt *Events) Send(s string) {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, sub := range evt.m {
		if !sub.wants(s) {
			continue
		}

		select {
		case sub.ch <- s:
		default:
		}
	}
}
