// Package buffer provides a generic, thread-safe circular buffer used by the
// event emitter's scheduled flush path.
//
// The buffer preserves arrival order, collects statistics unconditionally,
// and can optionally expose those statistics as Prometheus metrics via the
// WithMetrics functional option. When full it applies a configurable
// overflow policy; Write never blocks the caller.
package buffer

// Buffer is a generic FIFO buffer parameterized by item type T.
type Buffer[T any] interface {
	// Write adds an item to the buffer. When the buffer is full the
	// overflow policy decides which item is dropped; Write never blocks.
	Write(item T) error

	// Read retrieves and removes the oldest item.
	// Returns the zero value and false if the buffer is empty.
	Read() (T, bool)

	// ReadBatch retrieves and removes up to max items in arrival order.
	ReadBatch(max int) []T

	// Drain removes and returns all buffered items in arrival order.
	Drain() []T

	// Peek returns the oldest item without removing it.
	Peek() (T, bool)

	// Size returns the current number of items in the buffer.
	Size() int

	// Capacity returns the maximum number of items the buffer can hold.
	Capacity() int

	// IsFull returns true if the buffer is at capacity.
	IsFull() bool

	// IsEmpty returns true if the buffer contains no items.
	IsEmpty() bool

	// Clear removes all items from the buffer.
	Clear()

	// Stats returns buffer statistics.
	Stats() *Statistics

	// Close shuts down the buffer. Subsequent writes fail.
	Close() error
}

// OverflowPolicy defines how the buffer behaves when it reaches capacity.
type OverflowPolicy int

const (
	// DropOldest removes the oldest item to make room for new items.
	DropOldest OverflowPolicy = iota

	// DropNewest drops new items when the buffer is full.
	DropNewest
)

// String returns a human-readable representation of the overflow policy.
func (p OverflowPolicy) String() string {
	switch p {
	case DropOldest:
		return "DropOldest"
	case DropNewest:
		return "DropNewest"
	default:
		return "Unknown"
	}
}

// DropCallback is called with each item dropped by the overflow policy.
type DropCallback[T any] func(item T)

// NewCircularBuffer creates a circular buffer with the specified capacity.
// Returns an error if metrics registration fails when metrics are requested.
func NewCircularBuffer[T any](capacity int, options ...Option[T]) (Buffer[T], error) {
	opts := applyOptions(options...)
	return newCircularBuffer(capacity, opts)
}
