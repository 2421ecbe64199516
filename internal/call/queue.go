package call

import (
	"sync"

	"github.com/emmaarthur191/coastal-project-sub004/internal/protocol/signal"
)

const maxQueuedSignals = 512

// signalQueue holds signals that arrived before local media was ready.
// push and pop run under Manager.routeMu; mu is for clear, which teardown
// calls without it.
type signalQueue struct {
	mu    sync.Mutex
	items []signal.Message
}

// push appends msg. It reports false when the queue is full.
func (q *signalQueue) push(msg signal.Message) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= maxQueuedSignals {
		return false
	}
	q.items = append(q.items, msg)
	return true
}

// pop removes the oldest signal.
func (q *signalQueue) pop() (signal.Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	msg := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return msg, true
}

func (q *signalQueue) clear() {
	q.mu.Lock()
	q.items = nil
	q.mu.Unlock()
}
