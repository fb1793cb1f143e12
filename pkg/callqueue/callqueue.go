// Package callqueue provides a FIFO queue for calling functions
// sequentially.
//
// Property value containers use a shared Queue to deliver change
// notifications. The queue flattens reentrant notification chains: a
// call enqueued from inside another queued call is appended to the queue
// and executed after the current call completes, rather than run
// recursively. This turns notify/set/notify chains of unbounded depth
// into linear sequential dispatch, and guarantees that notifications
// across different containers are delivered in a single total order.
//
// The queue is designed for single-threaded, callback-driven use. It is
// not safe for concurrent access from multiple goroutines.
package callqueue

import (
	"github.com/golang/glog"

	"github.com/pauldmccarthy/fsleyes-props/pkg/errors"
)

// Call is a single queued function invocation.
type Call struct {
	// Desc identifies the call in failure reports, typically the listener
	// name and the container it is registered on.
	Desc string
	// Func is the function to invoke.
	Func func()
}

// Queue calls functions in first-in, first-out order.
//
// The first caller to enqueue while the queue is idle becomes the drainer:
// it synchronously executes queued calls, including calls enqueued during
// drainage, before returning. Callers that enqueue while a drain is in
// progress append their calls and return immediately.
type Queue struct {
	pending  []Call
	draining bool
	holds    int
}

// Default is the process-wide queue shared by all property value
// containers that are not constructed with an explicit queue.
var Default = New()

// New creates an empty queue.
func New() *Queue {
	return &Queue{}
}

// Call enqueues a single function and drains the queue if no drain is in
// progress.
func (q *Queue) Call(desc string, fn func()) {
	q.CallAll([]Call{{Desc: desc, Func: fn}})
}

// CallAll enqueues the given calls as a contiguous block and drains the
// queue if no drain is in progress. Enqueueing a notification round as one
// block keeps its calls adjacent even when listeners trigger further
// changes mid-round.
func (q *Queue) CallAll(calls []Call) {
	for _, c := range calls {
		if c.Func == nil {
			continue
		}
		glog.V(2).Infof("queueing call %s (%d in queue)", c.Desc, len(q.pending))
		q.pending = append(q.pending, c)
	}
	q.drain()
}

// Hold defers draining until the matching Release. Containers hold the
// queue while they enqueue a multi-container propagation cascade, so that
// the whole cascade is appended before dispatch begins. Holds nest.
func (q *Queue) Hold() {
	q.holds++
}

// Release undoes one Hold and drains the queue once no holds remain.
func (q *Queue) Release() {
	if q.holds > 0 {
		q.holds--
	}
	q.drain()
}

// Len returns the number of calls currently waiting in the queue.
func (q *Queue) Len() int {
	return len(q.pending)
}

// drain executes queued calls until the queue is empty. A failed call is
// reported and does not abort the drain.
func (q *Queue) drain() {
	if q.draining || q.holds > 0 {
		return
	}
	q.draining = true
	defer func() { q.draining = false }()

	for len(q.pending) > 0 {
		c := q.pending[0]
		q.pending = q.pending[1:]

		glog.V(2).Infof("calling %s (%d in queue)", c.Desc, len(q.pending))
		q.invoke(c)
	}
	q.pending = nil
}

// invoke runs a single call, isolating panics so one misbehaving listener
// cannot block the others.
func (q *Queue) invoke(c Call) {
	defer func() {
		if r := recover(); r != nil {
			errors.ReportListenerError(&errors.ListenerError{
				Desc:       c.Desc,
				Recovered:  r,
				StackTrace: errors.CaptureStack(),
			})
		}
	}()
	c.Func()
}
