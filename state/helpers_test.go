package state_test

import (
	"fmt"
	"testing"

	"github.com/delaneyj/watchparty/internal/logging"
	"github.com/delaneyj/watchparty/state"
)

type reported struct {
	from state.Source
	err  error
}

// newSystem returns a quiet system that records every reported error.
func newSystem(t *testing.T, opts ...state.Option) (*state.ReactiveSystem, *[]reported) {
	t.Helper()
	errs := &[]reported{}
	opts = append([]state.Option{
		state.WithLogger(logging.NewNop()),
		state.WithErrorHandler(func(from state.Source, err error) {
			*errs = append(*errs, reported{from: from, err: err})
		}),
	}, opts...)
	return state.NewReactiveSystem(opts...), errs
}

type recordingHooks struct {
	events []string
}

func (h *recordingHooks) Set(from state.Source) {
	h.events = append(h.events, fmt.Sprintf("set %s/%d", from.Kind(), from.ID()))
}

func (h *recordingHooks) Notify(from state.Source, watchers int) {
	h.events = append(h.events, fmt.Sprintf("notify %s/%d x%d", from.Kind(), from.ID(), watchers))
}

func (h *recordingHooks) Recompute(from state.Source) {
	h.events = append(h.events, fmt.Sprintf("recompute %s/%d", from.Kind(), from.ID()))
}

func (h *recordingHooks) Error(from state.Source, err error) {
	h.events = append(h.events, "error")
}

type recordingBinder struct {
	tags    []string
	sources []state.Source
	err     error
}

func (b *recordingBinder) Bind(tag string, src state.Source) error {
	if b.err != nil {
		return b.err
	}
	b.tags = append(b.tags, tag)
	b.sources = append(b.sources, src)
	return nil
}
