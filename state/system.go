package state

import (
	"log/slog"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/delaneyj/watchparty/internal/logging"
)

type OnErrorFunc func(from Source, err error)

// Hooks observe propagation. Every method is called synchronously on the
// goroutine that triggered it.
type Hooks interface {
	Set(from Source)
	Notify(from Source, watchers int)
	Recompute(from Source)
	Error(from Source, err error)
}

// Binder resolves a subject's tag to whatever external collaborator wants
// to follow it. It is called once, while the subject is being constructed,
// and an error fails that construction.
type Binder interface {
	Bind(tag string, src Source) error
}

// ReactiveSystem owns the shared configuration of a graph of subjects.
// It is not safe for concurrent use; all subjects created from it must be
// read and written from one goroutine at a time.
type ReactiveSystem struct {
	logger  *slog.Logger
	onError OnErrorFunc
	hooks   Hooks
	binder  Binder

	lastID uint64

	maxDepth int
	depth    int

	recomputing mapset.Set[uint64]

	lazyRegistration bool
}

type Option func(*ReactiveSystem)

func WithLogger(logger *slog.Logger) Option {
	return func(rs *ReactiveSystem) {
		if logger != nil {
			rs.logger = logger
		}
	}
}

func WithErrorHandler(onError OnErrorFunc) Option {
	return func(rs *ReactiveSystem) {
		rs.onError = onError
	}
}

func WithHooks(hooks Hooks) Option {
	return func(rs *ReactiveSystem) {
		rs.hooks = hooks
	}
}

func WithBinder(binder Binder) Option {
	return func(rs *ReactiveSystem) {
		rs.binder = binder
	}
}

// WithMaxDepth stops a notification from starting once n notifications are
// already on the stack. The value is still stored, but its watchers are
// skipped and ErrMaxDepth is reported. Zero disables the limit.
func WithMaxDepth(n int) Option {
	return func(rs *ReactiveSystem) {
		rs.maxDepth = n
	}
}

// WithCycleDetection makes a derivation refuse to recompute while it is
// already recomputing further up the stack, reporting ErrCycle instead of
// recursing until the stack overflows.
func WithCycleDetection() Option {
	return func(rs *ReactiveSystem) {
		rs.recomputing = mapset.NewThreadUnsafeSet[uint64]()
	}
}

// WithLazyRegistration makes Derived and Effect register their watchers
// without running anything, so constructing them has no side effects on
// their sources.
func WithLazyRegistration() Option {
	return func(rs *ReactiveSystem) {
		rs.lazyRegistration = true
	}
}

func NewReactiveSystem(opts ...Option) *ReactiveSystem {
	rs := &ReactiveSystem{
		logger: logging.New(slog.LevelWarn),
	}
	for _, opt := range opts {
		opt(rs)
	}
	return rs
}

func (rs *ReactiveSystem) nextID() uint64 {
	rs.lastID++
	return rs.lastID
}

// report hands err to every configured sink and returns it unchanged.
// from is nil when the error happened before a subject existed.
func (rs *ReactiveSystem) report(from Source, err error) error {
	attrs := []any{"error", err}
	if from != nil {
		attrs = append(attrs, "subject", from.ID(), "kind", from.Kind().String())
		if tag := from.Tag(); tag != "" {
			attrs = append(attrs, "tag", tag)
		}
	}
	rs.logger.Error("reactive state error", attrs...)

	if rs.hooks != nil {
		rs.hooks.Error(from, err)
	}
	if rs.onError != nil {
		rs.onError(from, err)
	}
	return err
}

func (rs *ReactiveSystem) bind(tag string, src Source) error {
	if tag == "" {
		return nil
	}
	if rs.binder == nil {
		rs.logger.Debug("tag given without a binder", "subject", src.ID(), "tag", tag)
		return nil
	}
	return rs.binder.Bind(tag, src)
}
