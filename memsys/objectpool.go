package memsys

import "sync"

// Poolable is implemented by values recycled through an ObjectPool. Reset
// must clear any state referencing the previous lease before reuse.
type Poolable interface {
	Reset()
}

// ObjectPool is a typed wrapper over sync.Pool for poolable objects, used
// where an allocation is a struct rather than a byte buffer (e.g. a
// BufferLease wrapper or a dispatch-pipeline work item).
type ObjectPool[T Poolable] struct {
	pool sync.Pool
}

// NewObjectPool builds an ObjectPool whose New func is supplied by the caller.
func NewObjectPool[T Poolable](newFn func() T) *ObjectPool[T] {
	return &ObjectPool[T]{
		pool: sync.Pool{New: func() any { return newFn() }},
	}
}

func (p *ObjectPool[T]) Get() T {
	return p.pool.Get().(T)
}

func (p *ObjectPool[T]) Put(v T) {
	v.Reset()
	p.pool.Put(v)
}
