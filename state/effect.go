package state

import "fmt"

// Effect calls callback, with no arguments, every time any of sources is
// set. Registration runs like Watch(w, true) on each source: callback runs
// once per source and every watcher already on that source runs again,
// unless the system uses WithLazyRegistration. The effect has no handle of
// its own; it lives as one watcher on each source until that source is
// forgotten.
func Effect(rs *ReactiveSystem, sources []Source, callback func()) error {
	if rs == nil {
		return fmt.Errorf("effect: %w", ErrNilSystem)
	}
	if callback == nil {
		return rs.report(nil, fmt.Errorf("effect: %w", ErrNilCallback))
	}
	if err := validateSources(sources); err != nil {
		return rs.report(nil, fmt.Errorf("effect: %w", err))
	}

	if err := subscribeAll(sources, !rs.lazyRegistration, func(any) { callback() }); err != nil {
		return rs.report(nil, fmt.Errorf("effect: %w", err))
	}
	return nil
}
