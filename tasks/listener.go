package tasks

// Listener observes committed task changes. Implementations must not block
// for long; they run on the goroutine that performed the change.
type Listener interface {
	TaskChanged(task *ConversionTask)
	TaskRemoved(task *ConversionTask)
}

// Listeners fans out notifications to several listeners in order.
type Listeners []Listener

func (ls Listeners) TaskChanged(task *ConversionTask) {
	for _, l := range ls {
		l.TaskChanged(task.Clone())
	}
}

func (ls Listeners) TaskRemoved(task *ConversionTask) {
	for _, l := range ls {
		l.TaskRemoved(task.Clone())
	}
}
