package pool

// SharedRegion is an opt-out from the pool's copy-isolation convention:
// a byte region deliberately shared between the submitter and worker
// runtimes. The pool never copies, locks, or inspects the region; the
// caller owns all synchronization between concurrent tasks that touch
// it.
//
// Payloads that embed a *SharedRegion cross the worker boundary by
// reference. Everything else submitted to a pool should be treated as
// owned by the worker until the handle resolves.
type SharedRegion struct {
	buf []byte
}

// NewSharedRegion allocates a shared region of the given size.
// It panics if size is negative.
func NewSharedRegion(size int) *SharedRegion {
	if size < 0 {
		panic("pool: shared region size must be non-negative")
	}
	return &SharedRegion{buf: make([]byte, size)}
}

// Bytes returns the underlying buffer. The slice aliases the region's
// memory; concurrent access requires caller-side synchronization.
func (r *SharedRegion) Bytes() []byte {
	return r.buf
}

// Len returns the size of the region.
func (r *SharedRegion) Len() int {
	return len(r.buf)
}
