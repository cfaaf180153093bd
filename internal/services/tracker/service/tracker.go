// Package service keeps the most recent delivery per request id in memory
package service

import (
	"container/list"
	"encoding/json"
	"sync"
)

// DefaultCap bounds the number of tracked requests before eviction
const DefaultCap = 1024

type entry struct {
	id      string
	payload json.RawMessage
}

// Tracker is a capped last-write-wins store. Writing an existing id
// replaces its payload and refreshes its recency; when the cap is reached
// the least recently written id is evicted. Contents do not survive a
// process restart
type Tracker struct {
	mu    sync.Mutex
	cap   int
	order *list.List               // front = most recent write
	items map[string]*list.Element // id -> element holding *entry
}

// New builds a tracker holding at most capacity entries (minimum 1)
func New(capacity int) *Tracker {
	if capacity < 1 {
		capacity = DefaultCap
	}
	return &Tracker{
		cap:   capacity,
		order: list.New(),
		items: make(map[string]*list.Element, capacity),
	}
}

// Put records payload as the latest delivery for id
func (t *Tracker) Put(id string, payload json.RawMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if el, ok := t.items[id]; ok {
		el.Value.(*entry).payload = payload
		t.order.MoveToFront(el)
		return
	}

	if t.order.Len() >= t.cap {
		oldest := t.order.Back()
		if oldest != nil {
			t.order.Remove(oldest)
			delete(t.items, oldest.Value.(*entry).id)
		}
	}
	t.items[id] = t.order.PushFront(&entry{id: id, payload: payload})
}

// Get returns the latest delivery for id, if any
func (t *Tracker) Get(id string) (json.RawMessage, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	el, ok := t.items[id]
	if !ok {
		return nil, false
	}
	return el.Value.(*entry).payload, true
}

// Len reports the number of tracked ids
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.order.Len()
}
