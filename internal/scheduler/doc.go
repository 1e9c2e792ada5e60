// Package scheduler runs one batch of independent tasks with a bounded number
// of workers.
//
// Workers share a single Batch. Each worker repeatedly takes the next task
// from the front of the batch and runs it without holding the lock. The first
// failure stops further dispatch; Run returns once all workers have exited.
package scheduler
