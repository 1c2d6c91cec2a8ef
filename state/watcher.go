package state

// Watcher wraps a callback so it has an identity. Go funcs cannot be
// compared, so a subject recognises a watcher by its pointer: registering
// the same *Watcher twice is rejected, two Watchers around the same func
// are distinct.
type Watcher[T any] struct {
	fn func(T)
}

func NewWatcher[T any](fn func(T)) *Watcher[T] {
	return &Watcher[T]{fn: fn}
}

func (w *Watcher[T]) valid() bool {
	return w != nil && w.fn != nil
}
