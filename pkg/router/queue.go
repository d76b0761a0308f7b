package router

import "sync"

// eventQueue coalesces watch events for a single consumer. Events for a path
// already pending are merged (the latest op wins) so nothing is dropped and
// each path is processed once per pass.
type eventQueue struct {
	mu      sync.Mutex
	pending []Event
	index   map[string]int
	ready   chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		index: make(map[string]int),
		ready: make(chan struct{}, 1),
	}
}

func (q *eventQueue) push(ev Event) {
	q.mu.Lock()
	if i, ok := q.index[ev.Path]; ok {
		q.pending[i].Op = ev.Op
	} else {
		q.index[ev.Path] = len(q.pending)
		q.pending = append(q.pending, ev)
	}
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// drain returns the pending events in arrival order and empties the queue.
func (q *eventQueue) drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	batch := q.pending
	q.pending = nil
	clear(q.index)
	return batch
}
