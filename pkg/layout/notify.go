package layout

import "sync"

// listeners is an ordered set of callbacks. add returns a release func that
// removes the callback; calling it more than once is harmless.
type listeners[T any] struct {
	mu      sync.Mutex
	nextID  int
	entries []listener[T]
}

type listener[T any] struct {
	id int
	fn func(T)
}

func (l *listeners[T]) add(fn func(T)) (release func()) {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.entries = append(l.entries, listener[T]{id: id, fn: fn})
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { l.remove(id) })
	}
}

func (l *listeners[T]) remove(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, e := range l.entries {
		if e.id == id {
			l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
			return
		}
	}
}

// emit calls every callback in registration order. Callbacks may release
// themselves or others while being called.
func (l *listeners[T]) emit(v T) {
	l.mu.Lock()
	fns := make([]func(T), len(l.entries))
	for i, e := range l.entries {
		fns[i] = e.fn
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

func (l *listeners[T]) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
