package controller

import "sync"

// dispatcher runs jobs concurrently across users while keeping each user's
// jobs in receipt order. A lane goroutine exists only while its user has
// pending work.
type dispatcher struct {
	mu    sync.Mutex
	lanes map[int64]*lane
	wg    sync.WaitGroup
}

type lane struct {
	pending []func()
	running bool
}

func newDispatcher() *dispatcher {
	return &dispatcher{lanes: make(map[int64]*lane)}
}

func (d *dispatcher) enqueue(userID int64, job func()) {
	d.mu.Lock()
	ln, ok := d.lanes[userID]
	if !ok {
		ln = &lane{}
		d.lanes[userID] = ln
	}
	ln.pending = append(ln.pending, job)
	if ln.running {
		d.mu.Unlock()
		return
	}
	ln.running = true
	d.wg.Add(1)
	d.mu.Unlock()

	go d.drain(userID, ln)
}

func (d *dispatcher) drain(userID int64, ln *lane) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		if len(ln.pending) == 0 {
			ln.running = false
			delete(d.lanes, userID)
			d.mu.Unlock()
			return
		}
		job := ln.pending[0]
		ln.pending = ln.pending[1:]
		d.mu.Unlock()

		job()
	}
}

// wait blocks until every enqueued job has finished. Test helper.
func (d *dispatcher) wait() {
	d.wg.Wait()
}
