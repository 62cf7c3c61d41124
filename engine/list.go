package engine

// List is an ordered container over an equality-comparable element type.
// Hands, the deck, the crib, and the pegging sequence are all Lists of
// Cards: order-sensitive for play, with removal by value identity. Callers
// own contained values by value; Items and Clone copy.
type List[T comparable] struct {
	items []T
}

// NewList returns a List seeded with the given items.
func NewList[T comparable](items ...T) *List[T] {
	l := &List[T]{items: make([]T, len(items))}
	copy(l.items, items)
	return l
}

// Len returns the number of items.
func (l *List[T]) Len() int { return len(l.items) }

// At returns the item at index i.
func (l *List[T]) At(i int) T { return l.items[i] }

// Items returns a copy of the contents in order.
func (l *List[T]) Items() []T {
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// Append adds v at the end.
func (l *List[T]) Append(v T) { l.items = append(l.items, v) }

// Insert places v at index i, shifting later items right.
// i == Len() appends.
func (l *List[T]) Insert(i int, v T) {
	l.items = append(l.items, v)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = v
}

// IndexOf returns the index of the first item equal to v, or -1.
func (l *List[T]) IndexOf(v T) int {
	for i, item := range l.items {
		if item == v {
			return i
		}
	}
	return -1
}

// Contains reports whether v is present.
func (l *List[T]) Contains(v T) bool { return l.IndexOf(v) >= 0 }

// Remove deletes the first item equal to v, preserving order.
// Returns false if v is not present.
func (l *List[T]) Remove(v T) bool {
	i := l.IndexOf(v)
	if i < 0 {
		return false
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	return true
}

// Pop removes and returns the last item. Returns false when empty.
func (l *List[T]) Pop() (T, bool) {
	var zero T
	if len(l.items) == 0 {
		return zero, false
	}
	v := l.items[len(l.items)-1]
	l.items = l.items[:len(l.items)-1]
	return v, true
}

// RemoveAll empties the list.
func (l *List[T]) RemoveAll() { l.items = l.items[:0] }

// Swap exchanges the items at i and j.
func (l *List[T]) Swap(i, j int) { l.items[i], l.items[j] = l.items[j], l.items[i] }

// Clone returns an independent copy.
func (l *List[T]) Clone() *List[T] { return NewList(l.items...) }
