// Package objectcache provides a thin transforming facade over an
// ArrayFile-backed object store (the higher-level indexed data store that
// ArrayFile persists for is out of scope here; this package only adapts
// whatever satisfies Store).
package objectcache

// Store is the minimal surface an ArrayFile-backed object store exposes.
// Facade delegates every method except Get/Set, which it wraps with
// transforms.
type Store[T any] interface {
	Get(id int64) (T, bool, error)
	Set(id int64, value T) error
	Delete(id int64) error
	Persist() error
	GetObjectIDStart() int64
	GetObjectIDCount() int64
}

// Transform mutates a value of type T in place (or returns a replacement)
// before it crosses the facade boundary. A nil Transform is a pass-through.
type Transform[T any] func(T) T

// Facade wraps a Store with an optional inbound transform (applied to the
// value passed to Set) and an optional outbound transform (applied to the
// value returned from Get). Delete, Persist, and the object-id accessors are
// faithful passthroughs.
type Facade[T any] struct {
	store    Store[T]
	inbound  Transform[T]
	outbound Transform[T]
}

// New wraps store. Either transform may be nil.
func New[T any](store Store[T], inbound, outbound Transform[T]) *Facade[T] {
	return &Facade[T]{store: store, inbound: inbound, outbound: outbound}
}

// Get retrieves the value for id, applying the outbound transform to it
// before returning, if one was configured.
func (f *Facade[T]) Get(id int64) (T, bool, error) {
	v, ok, err := f.store.Get(id)
	if err != nil || !ok {
		return v, ok, err
	}
	if f.outbound != nil {
		v = f.outbound(v)
	}
	return v, true, nil
}

// Set applies the inbound transform to value, if one was configured, then
// delegates to the underlying store.
func (f *Facade[T]) Set(id int64, value T) error {
	if f.inbound != nil {
		value = f.inbound(value)
	}
	return f.store.Set(id, value)
}

func (f *Facade[T]) Delete(id int64) error { return f.store.Delete(id) }

func (f *Facade[T]) Persist() error { return f.store.Persist() }

func (f *Facade[T]) GetObjectIDStart() int64 { return f.store.GetObjectIDStart() }

func (f *Facade[T]) GetObjectIDCount() int64 { return f.store.GetObjectIDCount() }
