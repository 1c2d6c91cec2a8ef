package state

import (
	"fmt"
	"reflect"
	"slices"
)

type Kind uint8

const (
	KindReactive Kind = iota + 1
	KindDerived
)

func (k Kind) String() string {
	switch k {
	case KindReactive:
		return "reactive"
	case KindDerived:
		return "derived"
	default:
		return "unknown"
	}
}

// Source is the type-erased view of a subject. It lets subjects of
// different value types feed the same derivation or effect, and is what a
// Binder receives.
type Source interface {
	ID() uint64
	Tag() string
	Kind() Kind
	Len() int
	Any() any
	SetAny(v any) error
	// Subscribe registers fn as a watcher, with the same runImmediately
	// behavior as Watch.
	Subscribe(fn func(v any), runImmediately bool) (unsubscribe func(), err error)
}

type subjectConfig struct {
	tag string
}

type SubjectOption func(*subjectConfig)

// WithTag names the subject for the system's Binder.
func WithTag(tag string) SubjectOption {
	return func(c *subjectConfig) {
		c.tag = tag
	}
}

// Subject holds a value and the ordered list of watchers to call every
// time it is set.
type Subject[T any] struct {
	rs       *ReactiveSystem
	id       uint64
	tag      string
	kind     Kind
	value    T
	watchers []*Watcher[T]
}

// Reactive creates a subject holding initial. It fails with ErrNilValue
// when initial is nil, or with the Binder's error when a tag is given and
// cannot be bound. rs is required; a nil system fails with ErrNilSystem.
func Reactive[T any](rs *ReactiveSystem, initial T, opts ...SubjectOption) (*Subject[T], error) {
	if rs == nil {
		return nil, fmt.Errorf("reactive: %w", ErrNilSystem)
	}
	s, err := newSubject(rs, KindReactive, initial, opts)
	if err != nil {
		return nil, rs.report(nil, fmt.Errorf("reactive: %w", err))
	}
	if err := rs.bind(s.tag, s); err != nil {
		return nil, rs.report(s, fmt.Errorf("reactive: bind %q: %w", s.tag, err))
	}
	return s, nil
}

func newSubject[T any](rs *ReactiveSystem, kind Kind, initial T, opts []SubjectOption) (*Subject[T], error) {
	if isNil(initial) {
		return nil, fmt.Errorf("initial %T: %w", initial, ErrNilValue)
	}

	cfg := &subjectConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Subject[T]{
		rs:    rs,
		id:    rs.nextID(),
		tag:   cfg.tag,
		kind:  kind,
		value: initial,
	}, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map,
		reflect.Pointer, reflect.Slice, reflect.UnsafePointer:
		return rv.IsNil()
	default:
		return false
	}
}

// ID is zero for a nil subject.
func (s *Subject[T]) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

func (s *Subject[T]) Tag() string {
	return s.tag
}

func (s *Subject[T]) Kind() Kind {
	return s.kind
}

// Len returns the number of registered watchers.
func (s *Subject[T]) Len() int {
	return len(s.watchers)
}

func (s *Subject[T]) Get() T {
	return s.value
}

func (s *Subject[T]) Any() any {
	return s.value
}

// Set stores v and calls every watcher with it, in registration order,
// before returning. There is no equality check: setting the current value
// again still notifies. A watcher that sets a subject recurses; the nested
// notification finishes before the remaining outer watchers run.
func (s *Subject[T]) Set(v T) T {
	s.value = v
	if s.rs.hooks != nil {
		s.rs.hooks.Set(s)
	}
	s.notify(v)
	return v
}

func (s *Subject[T]) SetAny(v any) error {
	tv, ok := v.(T)
	if !ok {
		return s.rs.report(s, fmt.Errorf("set %T on subject %d: %w", v, s.id, ErrTypeMismatch))
	}
	s.Set(tv)
	return nil
}

// notify calls a snapshot of the watchers, so watchers added or removed
// during the pass only take effect on the next one.
func (s *Subject[T]) notify(v T) {
	rs := s.rs
	if rs.maxDepth > 0 && rs.depth >= rs.maxDepth {
		rs.report(s, fmt.Errorf("notify subject %d at depth %d: %w", s.id, rs.depth, ErrMaxDepth))
		return
	}
	rs.depth++
	defer func() { rs.depth-- }()

	watchers := slices.Clone(s.watchers)
	if rs.hooks != nil {
		rs.hooks.Notify(s, len(watchers))
	}
	for _, w := range watchers {
		w.fn(v)
	}
}

// Watch appends w to the watcher list and returns a copy of the list. A nil
// watcher or one already registered is reported and rejected.
//
// When runImmediately is true every registered watcher, not only w, is
// called once with the current value before Watch returns.
func (s *Subject[T]) Watch(w *Watcher[T], runImmediately bool) ([]*Watcher[T], error) {
	if !w.valid() {
		return nil, s.rs.report(s, fmt.Errorf("watch subject %d: %w", s.id, ErrNilWatcher))
	}
	if slices.Contains(s.watchers, w) {
		return nil, s.rs.report(s, fmt.Errorf("watch subject %d: %w", s.id, ErrDuplicateWatcher))
	}

	s.watchers = append(s.watchers, w)
	if runImmediately {
		s.notify(s.value)
	}
	return slices.Clone(s.watchers), nil
}

// Unwatch removes w and returns the remaining watchers.
func (s *Subject[T]) Unwatch(w *Watcher[T]) []*Watcher[T] {
	s.watchers = slices.DeleteFunc(s.watchers, func(existing *Watcher[T]) bool {
		return existing == w
	})
	return slices.Clone(s.watchers)
}

// Forget removes every watcher, including the ones derivations and effects
// registered on this subject.
func (s *Subject[T]) Forget() []*Watcher[T] {
	s.watchers = nil
	return []*Watcher[T]{}
}

func (s *Subject[T]) Subscribe(fn func(v any), runImmediately bool) (func(), error) {
	if fn == nil {
		return nil, s.rs.report(s, fmt.Errorf("subscribe subject %d: %w", s.id, ErrNilWatcher))
	}
	w := NewWatcher(func(v T) {
		fn(v)
	})
	if _, err := s.Watch(w, runImmediately); err != nil {
		return nil, err
	}
	return func() {
		s.Unwatch(w)
	}, nil
}
