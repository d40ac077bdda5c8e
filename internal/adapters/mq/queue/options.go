// Package queue defines the contract for enqueuing and consuming batch
// ranking jobs.
package queue

// Option applies a configuration option to the InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity sets the maximum capacity of the queue.
func WithCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// WithBufferSize sets the buffer size for the jobs channel.
func WithBufferSize(size int) Option {
	return func(q *InMemoryQueue) {
		if size > 0 {
			q.bufferSize = size
		}
	}
}

// WithDropHandler sets a callback invoked for a job that was pulled off the
// queue but could not be delivered to a consumer before the dequeue context
// ended. Lets the owner count the job instead of losing it silently.
func WithDropHandler(fn func(Job)) Option {
	return func(q *InMemoryQueue) {
		q.onDrop = fn
	}
}
