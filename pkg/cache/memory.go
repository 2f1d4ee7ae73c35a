package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Memory is a capacity-bounded in-memory cache with LRU eviction and
// timer-driven expiry. It is safe for concurrent use. The last Set for a key
// wins and its timer is authoritative.
type Memory[V any] struct {
	mu      sync.Mutex
	max     int
	clock   clockwork.Clock
	entries map[string]*list.Element
	order   *list.List // front = most recently used
}

// memoryItem holds one entry in the LRU list.
type memoryItem[V any] struct {
	key   string
	value V
	timer clockwork.Timer
	gen   uint64 // bumped by each Set; guards against stale timers
}

// NewMemory creates a Memory cache holding at most max entries.
func NewMemory[V any](max int) *Memory[V] {
	return NewMemoryWithClock[V](max, clockwork.NewRealClock())
}

// NewMemoryWithClock creates a Memory cache with an injected clock. Tests use
// a fake clock to drive expiry without sleeping.
func NewMemoryWithClock[V any](max int, clock clockwork.Clock) *Memory[V] {
	if max <= 0 {
		max = 1
	}
	return &Memory[V]{
		max:     max,
		clock:   clock,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

// Get returns the value for key. A hit refreshes the entry's recency. Get
// never fails; the error is always nil.
func (m *Memory[V]) Get(_ context.Context, key string) (V, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.entries[key]
	if !ok {
		var zero V
		return zero, false, nil
	}
	m.order.MoveToFront(elem)
	return elem.Value.(*memoryItem[V]).value, true, nil
}

// Set stores value under key for ttl. Overwriting an existing key cancels its
// pending timer and arms a fresh one. Inserting at capacity evicts the
// least-recently-used entry. A ttl <= 0 stores without expiry.
func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.entries[key]; ok {
		item := elem.Value.(*memoryItem[V])
		if item.timer != nil {
			item.timer.Stop()
		}
		item.value = value
		item.gen++
		item.timer = m.armTimer(key, elem, item.gen, ttl)
		m.order.MoveToFront(elem)
		return nil
	}

	for m.order.Len() >= m.max {
		oldest := m.order.Back()
		if oldest == nil {
			break
		}
		m.remove(oldest)
	}

	item := &memoryItem[V]{key: key, value: value}
	elem := m.order.PushFront(item)
	m.entries[key] = elem
	item.timer = m.armTimer(key, elem, item.gen, ttl)
	return nil
}

// Delete removes the entry for key, cancelling its pending timer.
func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.entries[key]; ok {
		m.remove(elem)
	}
	return nil
}

// Len returns the number of live entries.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// armTimer schedules unconditional removal of elem after ttl. The callback
// re-checks entry identity and generation under the lock: if the slot was
// deleted or re-Set before the timer could be stopped, it is a no-op. This
// keeps a stale timer from removing a later entry that reused the key.
func (m *Memory[V]) armTimer(key string, elem *list.Element, gen uint64, ttl time.Duration) clockwork.Timer {
	if ttl <= 0 {
		return nil
	}
	return m.clock.AfterFunc(ttl, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		current, ok := m.entries[key]
		if !ok || current != elem {
			return
		}
		if current.Value.(*memoryItem[V]).gen != gen {
			return
		}
		m.remove(elem)
	})
}

// remove drops elem from the map and list and stops its timer. Caller holds
// the lock.
func (m *Memory[V]) remove(elem *list.Element) {
	item := elem.Value.(*memoryItem[V])
	if item.timer != nil {
		item.timer.Stop()
	}
	m.order.Remove(elem)
	delete(m.entries, item.key)
}
