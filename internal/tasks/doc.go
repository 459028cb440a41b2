// Package tasks runs background jobs with an observable completion signal.
//
// A Queue executes submitted functions on a fixed number of workers. Each
// submission returns a Task whose status can be polled by ID and whose Done
// channel closes when the job has finished.
package tasks
