// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"
)

// subscriberBuffer is the per-subscriber channel capacity.
const subscriberBuffer = 16

// broadcaster distributes session changes to subscribers.
type broadcaster struct {
	mu   sync.RWMutex
	subs map[ulid.ULID]chan Change
}

func newBroadcaster() *broadcaster {
	return &broadcaster{
		subs: make(map[ulid.ULID]chan Change),
	}
}

// subscribe creates a channel for receiving session changes.
func (b *broadcaster) subscribe() (ulid.ULID, chan Change) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := ulid.Make()
	ch := make(chan Change, subscriberBuffer)
	b.subs[id] = ch
	return id, ch
}

// unsubscribe removes a subscriber and closes its channel.
func (b *broadcaster) unsubscribe(id ulid.ULID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// broadcast sends a change to all subscribers. A subscriber whose
// buffer is full misses the change; session state can be re-fetched, so
// delivery is best effort.
func (b *broadcaster) broadcast(change Change) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs {
		select {
		case ch <- change:
		default:
			slog.Warn("session change dropped: subscriber buffer full",
				"subscriber_id", id.String(),
				"change_type", change.Type,
			)
		}
	}
}

// count returns the number of active subscribers.
func (b *broadcaster) count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
