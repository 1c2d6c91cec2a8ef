package state

import (
	"fmt"
	"slices"
)

// Derivation is a subject whose value is recomputed from its sources. It
// embeds the subject it notifies through, so it supports every Subject
// operation.
type Derivation[T any] struct {
	*Subject[T]

	sources []Source
	compute func() T
}

// Derived creates a derivation from compute, which is called once now and
// again every time any source is set. Each source gets its own internal
// watcher, so a set on any one of them recomputes the whole function and
// notifies the derivation's watchers; there is no coalescing when several
// sources change together. With no sources the derivation never updates
// on its own.
//
// Each internal watcher is registered the way Watch(w, true) registers,
// so every watcher already on that source runs once, and the derivation
// recomputes once per source, before Derived returns. WithLazyRegistration
// turns that off.
func Derived[T any](rs *ReactiveSystem, sources []Source, compute func() T, opts ...SubjectOption) (*Derivation[T], error) {
	if rs == nil {
		return nil, fmt.Errorf("derived: %w", ErrNilSystem)
	}
	if compute == nil {
		return nil, rs.report(nil, fmt.Errorf("derived: %w", ErrNilCompute))
	}
	if err := validateSources(sources); err != nil {
		return nil, rs.report(nil, fmt.Errorf("derived: %w", err))
	}

	s, err := newSubject(rs, KindDerived, compute(), opts)
	if err != nil {
		return nil, rs.report(nil, fmt.Errorf("derived: compute returned nil: %w", err))
	}
	d := &Derivation[T]{
		Subject: s,
		sources: slices.Clone(sources),
		compute: compute,
	}
	if err := rs.bind(d.tag, d); err != nil {
		return nil, rs.report(d, fmt.Errorf("derived: bind %q: %w", d.tag, err))
	}

	if err := subscribeAll(d.sources, !rs.lazyRegistration, func(any) { d.recompute() }); err != nil {
		return nil, rs.report(d, fmt.Errorf("derived: %w", err))
	}
	return d, nil
}

// Set overwrites the computed value. It is allowed but logged, since the
// next set on any source replaces it again.
func (d *Derivation[T]) Set(v T) T {
	d.rs.logger.Warn(
		"setting the value of a derived subject directly is not recommended",
		"subject", d.id,
		"tag", d.tag,
	)
	return d.Subject.Set(v)
}

func (d *Derivation[T]) SetAny(v any) error {
	tv, ok := v.(T)
	if !ok {
		return d.rs.report(d, fmt.Errorf("set %T on derived %d: %w", v, d.id, ErrTypeMismatch))
	}
	d.Set(tv)
	return nil
}

// ID is zero for a nil derivation.
func (d *Derivation[T]) ID() uint64 {
	if d == nil {
		return 0
	}
	return d.Subject.ID()
}

func (d *Derivation[T]) Sources() []Source {
	return slices.Clone(d.sources)
}

func (d *Derivation[T]) recompute() {
	rs := d.rs
	if rs.recomputing != nil {
		if rs.recomputing.Contains(d.id) {
			rs.report(d, fmt.Errorf("recompute derived %d: %w", d.id, ErrCycle))
			return
		}
		rs.recomputing.Add(d.id)
		defer rs.recomputing.Remove(d.id)
	}

	if rs.hooks != nil {
		rs.hooks.Recompute(d)
	}
	v := d.compute()
	d.value = v
	d.notify(v)
}

func validateSources(sources []Source) error {
	for i, src := range sources {
		if src == nil || src.ID() == 0 {
			return fmt.Errorf("source %d: %w", i, ErrInvalidSource)
		}
	}
	return nil
}

// subscribeAll subscribes fn to every source, undoing earlier subscriptions
// if one fails.
func subscribeAll(sources []Source, runImmediately bool, fn func(any)) error {
	unsubscribes := make([]func(), 0, len(sources))
	for i, src := range sources {
		unsubscribe, err := src.Subscribe(fn, runImmediately)
		if err != nil {
			for _, u := range unsubscribes {
				u()
			}
			return fmt.Errorf("source %d: %w", i, err)
		}
		unsubscribes = append(unsubscribes, unsubscribe)
	}
	return nil
}
