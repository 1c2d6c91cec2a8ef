package state

import "errors"

var (
	// ErrNilValue is returned when a subject would be created holding nil,
	// either as an explicit initial value or as the first result of a
	// derivation's compute function.
	ErrNilValue = errors.New("state: value must not be nil")

	// ErrNilWatcher is returned when a nil watcher, or a watcher wrapping a
	// nil func, is registered.
	ErrNilWatcher = errors.New("state: watcher must be a non-nil function")

	// ErrDuplicateWatcher is returned when a watcher is already registered
	// on the subject. The watcher list is left unchanged.
	ErrDuplicateWatcher = errors.New("state: watcher already exists")

	// ErrNilSystem is returned by the constructors when no ReactiveSystem
	// is given. It cannot be reported anywhere but the return value.
	ErrNilSystem = errors.New("state: reactive system is required")

	ErrNilCompute  = errors.New("state: derivation must be a non-nil function")
	ErrNilCallback = errors.New("state: effect callback must be a non-nil function")

	// ErrInvalidSource is returned when a source list holds a nil subject.
	ErrInvalidSource = errors.New("state: sources must be subjects")

	// ErrTypeMismatch is returned by SetAny when the dynamic type of the
	// value cannot be stored in the subject.
	ErrTypeMismatch = errors.New("state: value type does not match subject")

	// ErrMaxDepth is reported when nested notifications exceed the depth set
	// with WithMaxDepth.
	ErrMaxDepth = errors.New("state: maximum notification depth exceeded")

	// ErrCycle is reported when cycle detection is enabled and a derivation
	// is asked to recompute while its own recomputation is still running.
	ErrCycle = errors.New("state: cycle detected")
)
