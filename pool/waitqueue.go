package pool

import (
	"context"
	"sync"
)

// waitQueue is a FIFO list of blocked acquirers, each represented by a
// one-shot channel the pool hands an entry to. Modeled on
// server/worker_pool.go's queue+context shutdown idiom, but as a ticket
// per waiter instead of a task queue: the pool pushes work (an entry) to
// the oldest waiter rather than waiters pulling from a shared channel,
// which is what gives strict FIFO delivery under contention.
type waitQueue struct {
	mu      sync.Mutex
	tickets []chan *entry
}

func newWaitQueue() *waitQueue {
	return &waitQueue{}
}

// wait registers a new ticket at the back of the queue and blocks until
// either an entry is handed to it or ctx is done. On timeout/cancel, the
// ticket is removed so a later handOff can't race a dead waiter.
func (q *waitQueue) wait(ctx context.Context) (*entry, error) {
	ticket := make(chan *entry, 1)

	q.mu.Lock()
	q.tickets = append(q.tickets, ticket)
	q.mu.Unlock()

	select {
	case e := <-ticket:
		return e, nil
	case <-ctx.Done():
		q.remove(ticket)
		// A handOff may have raced the cancellation and already sent on
		// the buffered channel; honor it rather than dropping a live
		// connection on the floor.
		select {
		case e := <-ticket:
			return e, nil
		default:
		}
		return nil, ctx.Err()
	}
}

func (q *waitQueue) remove(ticket chan *entry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, t := range q.tickets {
		if t == ticket {
			q.tickets = append(q.tickets[:i], q.tickets[i+1:]...)
			return
		}
	}
}

// handOff delivers e to the oldest waiting ticket, if any, preserving
// FIFO order. Returns false if no waiter was present.
func (q *waitQueue) handOff(e *entry) bool {
	q.mu.Lock()
	if len(q.tickets) == 0 {
		q.mu.Unlock()
		return false
	}
	ticket := q.tickets[0]
	q.tickets = q.tickets[1:]
	q.mu.Unlock()

	ticket <- e
	return true
}

func (q *waitQueue) hasWaiters() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tickets) > 0
}

func (q *waitQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tickets)
}

// closeAll is called on pool Close; waiters still blocked simply time
// out on their own context, so this only needs to exist for symmetry —
// kept as a no-op hook in case future shutdown semantics need it.
func (q *waitQueue) closeAll() {}
