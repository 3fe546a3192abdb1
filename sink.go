package eventsink

import (
	"runtime"
	"sync/atomic"
	"time"
)

// Sink is a best-effort destination for serialized records.
//
// Write hands a line to the sink and returns immediately. It never reports
// failure: disk, permission and stream errors are absorbed by the sink and routed
// to its error handler. Callers cannot tell whether a line reached its destination.
type Sink interface {
	Write(line string)
	// Flush blocks until every line written before the call has been handed to the
	// destination, or the sink is closed.
	Flush()
	Close() error
}

var (
	defaultQueueSize = 10000
	maxBatchSize     = 100
	closeTimeout     = 5 * time.Second
)

// lineTerminator is the platform line ending appended to every record.
var lineTerminator = func() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}()

type queued struct {
	line    string
	flushed chan struct{}
}

// asyncWriter decouples callers from I/O. Lines go into a bounded FIFO queue that
// a single background worker drains in batches, so lines from one goroutine are
// written in the order that goroutine enqueued them.
type asyncWriter struct {
	name      string
	queue     chan queued
	closeChan chan struct{}
	done      chan struct{}
	closed    atomic.Bool
	dropped   atomic.Int64
	writeFn   func(batch []string)
	metrics   sinkMetrics
	diag      *diagnostics
}

func newAsyncWriter(name string, queueSize int, writeFn func([]string), m sinkMetrics, diag *diagnostics) *asyncWriter {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	w := &asyncWriter{
		name:      name,
		queue:     make(chan queued, queueSize),
		closeChan: make(chan struct{}),
		done:      make(chan struct{}),
		writeFn:   writeFn,
		metrics:   m,
		diag:      diag,
	}
	go w.run()
	return w
}

func (w *asyncWriter) enqueue(line string) {
	if w.closed.Load() {
		return
	}
	select {
	case w.queue <- queued{line: line}:
	default:
		w.dropped.Add(1)
		w.metrics.dropped.Inc()
		w.diag.report(w.name, ErrQueueFull)
	}
}

func (w *asyncWriter) run() {
	defer close(w.done)
	batch := make([]string, 0, maxBatchSize)

	for {
		select {
		case q := <-w.queue:
			batch = w.drain(batch[:0], q)
		case <-w.closeChan:
			for {
				select {
				case q := <-w.queue:
					batch = w.drain(batch[:0], q)
				default:
					return
				}
			}
		}
	}
}

// drain collects whatever else is already queued behind first, up to one batch,
// writes it, then releases any Flush callers whose markers were collected.
func (w *asyncWriter) drain(batch []string, first queued) []string {
	var waiters []chan struct{}
	take := func(q queued) {
		if q.flushed != nil {
			waiters = append(waiters, q.flushed)
			return
		}
		batch = append(batch, q.line)
	}

	take(first)
collect:
	for len(batch) < maxBatchSize {
		select {
		case q := <-w.queue:
			take(q)
		default:
			break collect
		}
	}

	if len(batch) > 0 {
		w.writeFn(batch)
	}
	for _, c := range waiters {
		close(c)
	}
	return batch
}

func (w *asyncWriter) flush() {
	if w.closed.Load() {
		return
	}
	c := make(chan struct{})
	select {
	case w.queue <- queued{flushed: c}:
	case <-w.done:
		return
	}
	select {
	case <-c:
	case <-w.done:
	}
}

// close stops accepting lines, lets the worker drain the queue and waits for it
// for at most closeTimeout. It reports false if the writer was already closed.
func (w *asyncWriter) close() bool {
	if !w.closed.CompareAndSwap(false, true) {
		return false
	}
	close(w.closeChan)

	select {
	case <-w.done:
	case <-time.After(closeTimeout):
	}
	return true
}
