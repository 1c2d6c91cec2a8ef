package binding

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/valyala/quicktemplate"

	"github.com/delaneyj/watchparty/internal/logging"
	"github.com/delaneyj/watchparty/state"
)

var (
	ErrUnboundTag    = errors.New("binding: no subject bound to tag")
	ErrNotToggleable = errors.New("binding: toggle requires a bool subject")
	ErrTagCollision  = errors.New("binding: tag hash collision")
)

// interpolation matches "{{ tag }}". Anything between the braces that is
// not a bound tag is left as written.
var interpolation = regexp.MustCompile(`\{\{\s*([^{}]*?)\s*\}\}`)

type entry struct {
	tag     string
	sources []state.Source
}

// Registry is a state.Binder that keeps subjects by tag so that inputs,
// toggles and text templates can reach them without a document tree.
type Registry struct {
	logger  *slog.Logger
	entries map[uint64]*entry
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Registry{
		logger:  logger,
		entries: map[uint64]*entry{},
	}
}

func key(tag string) uint64 {
	return xxhash.Sum64String(tag)
}

// Bind implements state.Binder. Several subjects may share a tag; they are
// kept in bind order.
func (r *Registry) Bind(tag string, src state.Source) error {
	k := key(tag)
	e, ok := r.entries[k]
	if !ok {
		e = &entry{tag: tag}
		r.entries[k] = e
	} else if e.tag != tag {
		return fmt.Errorf("%q and %q: %w", e.tag, tag, ErrTagCollision)
	}
	e.sources = append(e.sources, src)
	r.logger.Debug("bound subject", "tag", tag, "subject", src.ID(), "kind", src.Kind().String())
	return nil
}

// Bound returns the subjects bound to tag, oldest first.
func (r *Registry) Bound(tag string) []state.Source {
	e, ok := r.entries[key(tag)]
	if !ok || e.tag != tag {
		return nil
	}
	return slices.Clone(e.sources)
}

func (r *Registry) mustBound(tag string) ([]state.Source, error) {
	sources := r.Bound(tag)
	if len(sources) == 0 {
		return nil, fmt.Errorf("%q: %w", tag, ErrUnboundTag)
	}
	return sources, nil
}

// Input writes value into every subject bound to tag, the way an input
// element pushes its text into its subject.
func (r *Registry) Input(tag string, value any) error {
	sources, err := r.mustBound(tag)
	if err != nil {
		return err
	}
	var errs []error
	for _, src := range sources {
		if err := src.SetAny(value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Toggle flips every bool subject bound to tag. Subjects holding anything
// else are skipped and reported.
func (r *Registry) Toggle(tag string) error {
	sources, err := r.mustBound(tag)
	if err != nil {
		return err
	}
	var errs []error
	for _, src := range sources {
		v, ok := src.Any().(bool)
		if !ok {
			r.logger.Error("click binding requires a bool subject", "tag", tag, "subject", src.ID(), "type", fmt.Sprintf("%T", src.Any()))
			errs = append(errs, fmt.Errorf("%q holds %T: %w", tag, src.Any(), ErrNotToggleable))
			continue
		}
		if err := src.SetAny(!v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Render replaces every "{{ tag }}" in tmpl with the HTML-escaped value of
// the first subject bound to tag.
func (r *Registry) Render(tmpl string) string {
	buf := &bytes.Buffer{}
	r.render(buf, tmpl)
	return buf.String()
}

func (r *Registry) render(buf *bytes.Buffer, tmpl string) {
	qw := quicktemplate.AcquireWriter(buf)
	defer quicktemplate.ReleaseWriter(qw)

	last := 0
	for _, m := range interpolation.FindAllStringSubmatchIndex(tmpl, -1) {
		qw.N().S(tmpl[last:m[0]])
		last = m[1]

		sources := r.Bound(tmpl[m[2]:m[3]])
		if len(sources) == 0 {
			qw.N().S(tmpl[m[0]:m[1]])
			continue
		}
		qw.E().V(sources[0].Any())
	}
	qw.N().S(tmpl[last:])
}

// Interpolate renders tmpl into sink every time a subject bound to tag is
// set. Like any other watcher it also renders while registering, once per
// bound subject. The returned func stops the updates.
func (r *Registry) Interpolate(tag, tmpl string, sink func(string)) (func(), error) {
	return r.follow(tag, func(any) {
		sink(r.Render(tmpl))
	})
}

// Attribute keeps an attribute in step with the subjects bound to tag:
// sink receives original, a space and the subject's value, now and after
// every set.
func (r *Registry) Attribute(tag, original string, sink func(string)) (func(), error) {
	return r.follow(tag, func(v any) {
		sink(original + " " + fmt.Sprint(v))
	})
}

// Follow pushes the value of every subject bound to tag into sink, now and
// after every set. It is the subject-to-input half of an input binding;
// Input is the other half.
func (r *Registry) Follow(tag string, sink func(any)) (func(), error) {
	return r.follow(tag, sink)
}

func (r *Registry) follow(tag string, fn func(any)) (func(), error) {
	sources, err := r.mustBound(tag)
	if err != nil {
		return nil, err
	}

	unsubscribes := make([]func(), 0, len(sources))
	stop := func() {
		for _, u := range unsubscribes {
			u()
		}
	}
	for _, src := range sources {
		u, err := src.Subscribe(fn, true)
		if err != nil {
			stop()
			return nil, err
		}
		unsubscribes = append(unsubscribes, u)
	}
	return stop, nil
}
