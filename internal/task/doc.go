// Package task manages background job queuing, processing, and lifecycle.
// It provides mechanisms for asynchronous work that must not block HTTP
// request handling: achievement evaluation after reviews and purchases, and
// the periodic resurfacing of overdue topics. Persisted tasks survive and
// recover from application restarts.
package task
