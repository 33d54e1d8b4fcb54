// Package events is the in-process notification bus shared by the HTTP
// layer, the runner and the file watcher.
package events

import (
	"sync"
	"time"
)

// Topic names a kind of event.
type Topic string

const (
	SettingsChanged  Topic = "settings.changed"
	CheckActivated   Topic = "check.activated"
	CheckDeactivated Topic = "check.deactivated"
	RunStarted       Topic = "run.started"
	RunFinished      Topic = "run.finished"
	RunlogUpdated    Topic = "runlog.updated"
)

// Event is one notification. Data is topic specific and must be JSON
// encodable.
type Event struct {
	Topic Topic     `json:"topic"`
	Time  time.Time `json:"time"`
	Data  any       `json:"data,omitempty"`
}

// subscriberBuffer is the per-subscriber queue length.
const subscriberBuffer = 64

// Bus fans events out to subscribers. Publish never blocks: a subscriber
// whose queue is full misses the event.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	next   int
	closed bool
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Publish delivers ev to every current subscriber. A zero Time is set to now.
func (b *Bus) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe registers a new subscriber. The returned cancel func removes it
// and closes the channel; calling it more than once is safe.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

// Close closes every subscriber channel. Later publishes are dropped and
// later subscriptions receive an already closed channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

// Subscribers reports the number of live subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
