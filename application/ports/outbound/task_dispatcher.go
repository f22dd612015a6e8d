package outbound

// TaskDispatcher submits work to the shared bounded worker pool.
type TaskDispatcher interface {
	Submit(task func()) error
}
