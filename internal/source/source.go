// Package source provides the grade data source used by the grades screen:
// a cache of the most recent payload and named ready notifications.
package source

import (
	"sync"

	"github.com/verte-zerg/gradebook/internal/model"
)

// EventLoadGrades is published once a grade fetch finishes. A nil payload
// signals that nothing could be loaded.
const EventLoadGrades = "load_grades"

// DataSource is what the grades screen needs from the fetch layer.
type DataSource interface {
	// TryGetCached returns the cached payload when one was already loaded.
	TryGetCached() (*model.Payload, bool)
	// OnReady registers fn for the next grades-ready notification.
	OnReady(fn func(*model.Payload)) Subscription
}

// Subscription is released on teardown.
type Subscription interface {
	Cancel()
}

type listener struct {
	id int
	fn func(*model.Payload)
}

// Notifier dispatches named events to registered listeners. Delivery happens
// synchronously on the publishing goroutine.
type Notifier struct {
	mu        sync.Mutex
	nextID    int
	listeners map[string][]listener
}

// NewNotifier returns an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{listeners: map[string][]listener{}}
}

// Subscribe registers fn under event and returns a handle to remove it.
func (n *Notifier) Subscribe(event string, fn func(*model.Payload)) Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	id := n.nextID
	n.listeners[event] = append(n.listeners[event], listener{id: id, fn: fn})
	return &subscription{notifier: n, event: event, id: id}
}

// Publish delivers payload to every listener of event. It returns the number
// of listeners invoked.
func (n *Notifier) Publish(event string, payload *model.Payload) int {
	n.mu.Lock()
	current := append([]listener(nil), n.listeners[event]...)
	n.mu.Unlock()
	for _, l := range current {
		l.fn(payload)
	}
	return len(current)
}

// Listeners reports how many listeners are registered for event.
func (n *Notifier) Listeners(event string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.listeners[event])
}

func (n *Notifier) remove(event string, id int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	ls := n.listeners[event]
	for i, l := range ls {
		if l.id == id {
			n.listeners[event] = append(ls[:i:i], ls[i+1:]...)
			break
		}
	}
	if len(n.listeners[event]) == 0 {
		delete(n.listeners, event)
	}
}

type subscription struct {
	once     sync.Once
	notifier *Notifier
	event    string
	id       int
}

func (s *subscription) Cancel() {
	s.once.Do(func() {
		s.notifier.remove(s.event, s.id)
	})
}

// Cache holds the most recently loaded payload and announces new loads.
type Cache struct {
	mu       sync.RWMutex
	payload  *model.Payload
	notifier *Notifier
}

// NewCache returns an empty cache publishing on notifier.
func NewCache(notifier *Notifier) *Cache {
	return &Cache{notifier: notifier}
}

// TryGetCached implements DataSource.
func (c *Cache) TryGetCached() (*model.Payload, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.payload == nil || !c.payload.Loaded {
		return nil, false
	}
	return c.payload, true
}

// OnReady implements DataSource.
func (c *Cache) OnReady(fn func(*model.Payload)) Subscription {
	return c.notifier.Subscribe(EventLoadGrades, fn)
}

// Listeners reports how many screens wait for the next load.
func (c *Cache) Listeners() int {
	return c.notifier.Listeners(EventLoadGrades)
}

// Store records the outcome of a fetch and notifies listeners. A nil
// payload clears the cache and is delivered as a failure. The caller's
// payload is not modified; listeners receive a loaded copy.
func (c *Cache) Store(payload *model.Payload) {
	if payload != nil {
		loaded := *payload
		loaded.Loaded = true
		payload = &loaded
	}
	c.mu.Lock()
	c.payload = payload
	c.mu.Unlock()
	c.notifier.Publish(EventLoadGrades, payload)
}

// Reset forgets the cached payload without notifying anyone.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payload = nil
}
