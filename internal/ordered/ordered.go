// Package ordered keeps lists of timestamped, identity-keyed items sorted under
// incremental inserts and updates.
package ordered

import "time"

type Order int

const (
	Ascending Order = iota
	Descending
)

// Key identifies an item and its position in the order.
type Key struct {
	At time.Time
	ID string
}

// KeyFunc extracts the ordering key from an item.
type KeyFunc[T any] func(T) Key

// precedes reports whether a ties-or-comes-before b under the order.
func (o Order) precedes(a, b time.Time) bool {
	if o == Descending {
		return !a.Before(b)
	}
	return !a.After(b)
}

func (k Key) same(other Key) bool {
	return k.ID == other.ID && k.At.Equal(other.At)
}

// Insert places item into list, which must already be sorted by order, and returns
// the resulting list. An element with the same id and timestamp is replaced in place.
// An element with the same id but a different timestamp is moved, so ids stay unique.
// The caller must serialize concurrent calls on the same list.
func Insert[T any](list []T, item T, order Order, key KeyFunc[T]) []T {
	k := key(item)

	for i := range list {
		existing := key(list[i])
		if existing.ID != k.ID {
			continue
		}
		if existing.At.Equal(k.At) {
			list[i] = item
			return list
		}
		list = append(list[:i], list[i+1:]...)
		break
	}

	if len(list) == 0 {
		return append(list, item)
	}

	first := key(list[0])
	if order.precedes(k.At, first.At) {
		if k.same(first) {
			list[0] = item
			return list
		}
		return insertAt(list, 0, item)
	}

	last := len(list) - 1
	if order.precedes(key(list[last]).At, k.At) {
		if k.same(key(list[last])) {
			list[last] = item
			return list
		}
		return append(list, item)
	}

	for i := range list {
		existing := key(list[i])
		if !order.precedes(k.At, existing.At) {
			continue
		}
		if k.same(existing) {
			list[i] = item
			return list
		}
		return insertAt(list, i, item)
	}

	return append(list, item)
}

// Remove drops the element with the given id, if present.
func Remove[T any](list []T, id string, key KeyFunc[T]) ([]T, bool) {
	for i := range list {
		if key(list[i]).ID == id {
			return append(list[:i], list[i+1:]...), true
		}
	}
	return list, false
}

// IsSorted reports whether list respects order.
func IsSorted[T any](list []T, order Order, key KeyFunc[T]) bool {
	for i := 1; i < len(list); i++ {
		if !order.precedes(key(list[i-1]).At, key(list[i]).At) {
			return false
		}
	}
	return true
}

func insertAt[T any](list []T, i int, item T) []T {
	var zero T
	list = append(list, zero)
	copy(list[i+1:], list[i:])
	list[i] = item
	return list
}
