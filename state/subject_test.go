package state_test

import (
	"fmt"
	"testing"

	"github.com/delaneyj/watchparty/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct{ X, Y int }

func TestReactiveGet(t *testing.T) {
	rs, errs := newSystem(t)

	i, err := state.Reactive(rs, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, i.Get())

	s, err := state.Reactive(rs, "")
	require.NoError(t, err)
	assert.Equal(t, "", s.Get())

	p, err := state.Reactive(rs, point{1, 2})
	require.NoError(t, err)
	assert.Equal(t, point{1, 2}, p.Get())

	empty, err := state.Reactive(rs, []int{})
	require.NoError(t, err)
	assert.Empty(t, empty.Get())

	assert.NotEqual(t, i.ID(), s.ID())
	assert.Equal(t, state.KindReactive, i.Kind())
	assert.Empty(t, *errs)
}

func TestReactiveRejectsNil(t *testing.T) {
	rs, errs := newSystem(t)

	var nilPtr *point
	p, err := state.Reactive(rs, nilPtr)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, state.ErrNilValue)

	a, err := state.Reactive[any](rs, nil)
	assert.Nil(t, a)
	assert.ErrorIs(t, err, state.ErrNilValue)

	var nilSlice []int
	sl, err := state.Reactive(rs, nilSlice)
	assert.Nil(t, sl)
	assert.ErrorIs(t, err, state.ErrNilValue)

	var nilMap map[string]int
	m, err := state.Reactive(rs, nilMap)
	assert.Nil(t, m)
	assert.ErrorIs(t, err, state.ErrNilValue)

	require.Len(t, *errs, 4)
	for _, r := range *errs {
		assert.Nil(t, r.from)
	}
}

func TestSetSameValueStillNotifies(t *testing.T) {
	rs, _ := newSystem(t)
	r, err := state.Reactive(rs, 1)
	require.NoError(t, err)

	var got []int
	_, err = r.Watch(state.NewWatcher(func(v int) {
		got = append(got, v)
	}), false)
	require.NoError(t, err)

	assert.Equal(t, 1, r.Set(1))
	assert.Equal(t, 2, r.Set(2))
	assert.Equal(t, 2, r.Set(2))
	assert.Equal(t, []int{1, 2, 2}, got)
	assert.Equal(t, 2, r.Get())
}

func TestWatchersRunInRegistrationOrder(t *testing.T) {
	rs, _ := newSystem(t)
	r, err := state.Reactive(rs, "a")
	require.NoError(t, err)

	var calls []string
	for _, name := range []string{"w1", "w2", "w3"} {
		_, err := r.Watch(state.NewWatcher(func(v string) {
			calls = append(calls, name+":"+v)
		}), false)
		require.NoError(t, err)
	}

	r.Set("b")
	r.Set("c")
	assert.Equal(t, []string{
		"w1:b", "w2:b", "w3:b",
		"w1:c", "w2:c", "w3:c",
	}, calls)
}

func TestUnwatch(t *testing.T) {
	rs, _ := newSystem(t)
	r, err := state.Reactive(rs, 0)
	require.NoError(t, err)

	aCount, bCount := 0, 0
	a := state.NewWatcher(func(int) { aCount++ })
	b := state.NewWatcher(func(int) { bCount++ })
	_, err = r.Watch(a, false)
	require.NoError(t, err)
	list, err := r.Watch(b, false)
	require.NoError(t, err)
	assert.Equal(t, []*state.Watcher[int]{a, b}, list)

	remaining := r.Unwatch(a)
	assert.Equal(t, []*state.Watcher[int]{b}, remaining)

	r.Set(1)
	assert.Equal(t, 0, aCount)
	assert.Equal(t, 1, bCount)

	// absent watchers are a no-op
	remaining = r.Unwatch(a)
	assert.Equal(t, []*state.Watcher[int]{b}, remaining)
	remaining = r.Unwatch(nil)
	assert.Len(t, remaining, 1)
}

func TestForget(t *testing.T) {
	rs, _ := newSystem(t)
	r, err := state.Reactive(rs, 0)
	require.NoError(t, err)

	calls := 0
	for i := 0; i < 3; i++ {
		_, err := r.Watch(state.NewWatcher(func(int) { calls++ }), false)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, r.Len())

	assert.Empty(t, r.Forget())
	assert.Equal(t, 0, r.Len())
	r.Set(1)
	assert.Equal(t, 0, calls)
}

func TestDuplicateWatcherIsRejected(t *testing.T) {
	rs, errs := newSystem(t)
	r, err := state.Reactive(rs, 0)
	require.NoError(t, err)

	calls := 0
	fn := func(int) { calls++ }
	w := state.NewWatcher(fn)
	_, err = r.Watch(w, false)
	require.NoError(t, err)

	list, err := r.Watch(w, true)
	assert.ErrorIs(t, err, state.ErrDuplicateWatcher)
	assert.Nil(t, list)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 0, calls, "rejected registration must not run watchers")

	require.Len(t, *errs, 1)
	assert.Equal(t, r.ID(), (*errs)[0].from.ID())

	// same func, different handle
	_, err = r.Watch(state.NewWatcher(fn), false)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())
}

func TestNilWatcherIsRejected(t *testing.T) {
	rs, errs := newSystem(t)
	r, err := state.Reactive(rs, 0)
	require.NoError(t, err)

	_, err = r.Watch(nil, true)
	assert.ErrorIs(t, err, state.ErrNilWatcher)

	_, err = r.Watch(state.NewWatcher[int](nil), true)
	assert.ErrorIs(t, err, state.ErrNilWatcher)

	_, err = r.Subscribe(nil, true)
	assert.ErrorIs(t, err, state.ErrNilWatcher)

	assert.Equal(t, 0, r.Len())
	assert.Len(t, *errs, 3)
}

func TestWatchRunImmediatelyRunsEveryWatcher(t *testing.T) {
	rs, _ := newSystem(t)
	r, err := state.Reactive(rs, 7)
	require.NoError(t, err)

	var calls []string
	_, err = r.Watch(state.NewWatcher(func(v int) {
		calls = append(calls, fmt.Sprintf("first:%d", v))
	}), false)
	require.NoError(t, err)
	assert.Empty(t, calls)

	_, err = r.Watch(state.NewWatcher(func(v int) {
		calls = append(calls, fmt.Sprintf("second:%d", v))
	}), true)
	require.NoError(t, err)
	assert.Equal(t, []string{"first:7", "second:7"}, calls)

	calls = nil
	_, err = r.Watch(state.NewWatcher(func(v int) {
		calls = append(calls, fmt.Sprintf("third:%d", v))
	}), false)
	require.NoError(t, err)
	assert.Empty(t, calls)
}

func TestReentrantSetCompletesBeforeOuterWatchers(t *testing.T) {
	rs, _ := newSystem(t)
	r, err := state.Reactive(rs, 0)
	require.NoError(t, err)

	var calls []string
	_, err = r.Watch(state.NewWatcher(func(v int) {
		calls = append(calls, fmt.Sprintf("w1:%d", v))
		if v == 1 {
			r.Set(2)
		}
	}), false)
	require.NoError(t, err)
	_, err = r.Watch(state.NewWatcher(func(v int) {
		calls = append(calls, fmt.Sprintf("w2:%d", v))
	}), false)
	require.NoError(t, err)

	r.Set(1)
	assert.Equal(t, []string{"w1:1", "w1:2", "w2:2", "w2:1"}, calls)
	assert.Equal(t, 2, r.Get())
}

func TestWatchersAddedDuringSetWaitForNextSet(t *testing.T) {
	rs, _ := newSystem(t)
	r, err := state.Reactive(rs, 0)
	require.NoError(t, err)

	lateCalls := 0
	late := state.NewWatcher(func(int) { lateCalls++ })
	_, err = r.Watch(state.NewWatcher(func(int) {
		r.Watch(late, false)
	}), false)
	require.NoError(t, err)

	r.Set(1)
	assert.Equal(t, 0, lateCalls)
	r.Set(2)
	assert.Equal(t, 1, lateCalls)
}

func TestSetAny(t *testing.T) {
	rs, errs := newSystem(t)
	r, err := state.Reactive(rs, 1)
	require.NoError(t, err)

	var src state.Source = r
	require.NoError(t, src.SetAny(5))
	assert.Equal(t, 5, r.Get())
	assert.Equal(t, 5, src.Any())

	err = src.SetAny("five")
	assert.ErrorIs(t, err, state.ErrTypeMismatch)
	assert.Equal(t, 5, r.Get())
	assert.Len(t, *errs, 1)
}

func TestSubscribe(t *testing.T) {
	rs, _ := newSystem(t)
	r, err := state.Reactive(rs, "x")
	require.NoError(t, err)

	var got []any
	unsubscribe, err := r.Subscribe(func(v any) {
		got = append(got, v)
	}, false)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 1, r.Len())

	r.Set("y")
	unsubscribe()
	r.Set("z")
	assert.Equal(t, []any{"y"}, got)
	assert.Equal(t, 0, r.Len())
}

func TestNilSubjectHasNoID(t *testing.T) {
	var s *state.Subject[int]
	assert.Zero(t, s.ID())

	var d *state.Derivation[int]
	assert.Zero(t, d.ID())
}

func TestSubscribeRunImmediately(t *testing.T) {
	rs, _ := newSystem(t)
	r, err := state.Reactive(rs, 1)
	require.NoError(t, err)

	existing := 0
	_, err = r.Watch(state.NewWatcher(func(int) { existing++ }), false)
	require.NoError(t, err)

	var got []any
	_, err = r.Subscribe(func(v any) {
		got = append(got, v)
	}, true)
	require.NoError(t, err)
	assert.Equal(t, []any{1}, got)
	assert.Equal(t, 1, existing)
}

func TestConstructorsRequireSystem(t *testing.T) {
	r, err := state.Reactive(nil, 1)
	assert.Nil(t, r)
	assert.ErrorIs(t, err, state.ErrNilSystem)

	d, err := state.Derived(nil, nil, func() int { return 1 })
	assert.Nil(t, d)
	assert.ErrorIs(t, err, state.ErrNilSystem)

	assert.ErrorIs(t, state.Effect(nil, nil, func() {}), state.ErrNilSystem)
}
