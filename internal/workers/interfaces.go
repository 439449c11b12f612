// Package workers runs the client's background jobs: the startup cache prune
// and the periodic collection refresh.
//
// A Worker starts its job in Run and returns without blocking. Workers that
// hold a long-running goroutine also implement Stopper.
package workers

// Worker is a background job started once at process start.
type Worker interface {
	Run()
}

// Stopper is implemented by workers that must be stopped on shutdown. Stop
// blocks until the worker's goroutine has exited.
type Stopper interface {
	Stop()
}
