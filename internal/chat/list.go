package chat

import (
	"sync"

	"chatsync/internal/models"
	"chatsync/internal/ordered"
)

// List is a sorted, id-unique list of items safe for concurrent use.
// Writes are serialized; readers get copies.
type List[T any] struct {
	order ordered.Order
	key   ordered.KeyFunc[T]
	items []T

	mux sync.RWMutex
}

func NewList[T any](order ordered.Order, key ordered.KeyFunc[T]) *List[T] {
	return &List[T]{order: order, key: key}
}

func dialogKey(d models.Dialog) ordered.Key {
	return ordered.Key{At: d.UpdatedAt, ID: d.ID}
}

func messageKey(m models.Message) ordered.Key {
	return ordered.Key{At: m.SentAt, ID: m.ID}
}

// NewDialogList keeps the most recently updated dialog first.
func NewDialogList() *List[models.Dialog] {
	return NewList(ordered.Descending, dialogKey)
}

// NewMessageList keeps messages in sending order, oldest first.
func NewMessageList() *List[models.Message] {
	return NewList(ordered.Ascending, messageKey)
}

func (l *List[T]) Upsert(items ...T) {
	l.mux.Lock()
	defer l.mux.Unlock()

	for _, item := range items {
		l.items = ordered.Insert(l.items, item, l.order, l.key)
	}
}

func (l *List[T]) Remove(id string) bool {
	l.mux.Lock()
	defer l.mux.Unlock()

	var removed bool
	l.items, removed = ordered.Remove(l.items, id, l.key)
	return removed
}

func (l *List[T]) Clear() {
	l.mux.Lock()
	defer l.mux.Unlock()
	l.items = nil
}

func (l *List[T]) Get(id string) (T, bool) {
	l.mux.RLock()
	defer l.mux.RUnlock()

	for _, item := range l.items {
		if l.key(item).ID == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

func (l *List[T]) Items() []T {
	l.mux.RLock()
	defer l.mux.RUnlock()

	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

func (l *List[T]) Len() int {
	l.mux.RLock()
	defer l.mux.RUnlock()
	return len(l.items)
}

// Timelines holds one message list per dialog.
type Timelines struct {
	lists map[string]*List[models.Message]

	mux sync.Mutex
}

func NewTimelines() *Timelines {
	return &Timelines{lists: make(map[string]*List[models.Message])}
}

// For returns the message list of a dialog, creating it on first use.
func (t *Timelines) For(dialogID string) *List[models.Message] {
	t.mux.Lock()
	defer t.mux.Unlock()

	l, ok := t.lists[dialogID]
	if !ok {
		l = NewMessageList()
		t.lists[dialogID] = l
	}
	return l
}

func (t *Timelines) Drop(dialogID string) {
	t.mux.Lock()
	defer t.mux.Unlock()
	delete(t.lists, dialogID)
}

func (t *Timelines) Reset() {
	t.mux.Lock()
	defer t.mux.Unlock()
	clear(t.lists)
}
