package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/delaneyj/watchparty/state"
)

// Collector counts propagation work as a state.Hooks.
type Collector struct {
	sets          *prometheus.CounterVec
	notifications *prometheus.CounterVec
	recomputes    *prometheus.CounterVec
	errors        *prometheus.CounterVec
}

var _ state.Hooks = (*Collector)(nil)

func NewCollector(namespace string) *Collector {
	return &Collector{
		sets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sets_total",
			Help:      "Number of direct sets on subjects. Recomputations are counted separately.",
		}, []string{"kind"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Number of watcher invocations.",
		}, []string{"kind"}),
		recomputes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recomputes_total",
			Help:      "Number of derivation recomputations.",
		}, []string{"kind"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Number of reported construction, registration and propagation errors.",
		}, []string{"kind", "reason"}),
	}
}

func (c *Collector) Register(reg prometheus.Registerer) error {
	for _, col := range []prometheus.Collector{c.sets, c.notifications, c.recomputes, c.errors} {
		if err := reg.Register(col); err != nil {
			return err
		}
	}
	return nil
}

func kind(from state.Source) string {
	if from == nil {
		return "none"
	}
	return from.Kind().String()
}

func (c *Collector) Set(from state.Source) {
	c.sets.WithLabelValues(kind(from)).Inc()
}

func (c *Collector) Notify(from state.Source, watchers int) {
	c.notifications.WithLabelValues(kind(from)).Add(float64(watchers))
}

func (c *Collector) Recompute(from state.Source) {
	c.recomputes.WithLabelValues(kind(from)).Inc()
}

func (c *Collector) Error(from state.Source, err error) {
	c.errors.WithLabelValues(kind(from), Reason(err)).Inc()
}

// Reason maps err to a short label value.
func Reason(err error) string {
	switch {
	case errors.Is(err, state.ErrNilValue):
		return "nil_value"
	case errors.Is(err, state.ErrNilWatcher):
		return "nil_watcher"
	case errors.Is(err, state.ErrDuplicateWatcher):
		return "duplicate_watcher"
	case errors.Is(err, state.ErrNilCompute), errors.Is(err, state.ErrNilCallback):
		return "nil_func"
	case errors.Is(err, state.ErrInvalidSource):
		return "invalid_source"
	case errors.Is(err, state.ErrTypeMismatch):
		return "type_mismatch"
	case errors.Is(err, state.ErrMaxDepth):
		return "max_depth"
	case errors.Is(err, state.ErrCycle):
		return "cycle"
	default:
		return "other"
	}
}
