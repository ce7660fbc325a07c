package restclient

import (
	"context"
	"sync"

	"k8s.io/klog/v2"
)

// Consumer is the per-request consumption routine. It pulls chunks from the
// stream, eventually returning a final value or propagating the terminal
// error it received. A consumer instance is single-use: a fresh one is
// created for every physical request.
type Consumer func(s *Stream) (any, error)

// ConsumerFactory builds the consumer for one request. Resumable
// subscriptions call Stream repeatedly, each time with a factory closing over
// an updated cursor.
type ConsumerFactory func() Consumer

// DeliveryMode selects when a streaming request's future settles.
type DeliveryMode int

const (
	// Eager resolves the future as soon as response headers arrive; the
	// consumer runs on as a background effect and handles its own faults.
	Eager DeliveryMode = iota
	// Awaited settles the future only when the consumer returns.
	Awaited
)

// Stream is the consumer's pull interface onto one transport. It is owned by
// exactly one consumer goroutine; the driver feeds it from the other side.
type Stream struct {
	ctx context.Context

	deliver chan []byte

	mu       sync.Mutex
	term     error // ErrEndOfStream or *AbortError once the transport ended
	termCh   chan struct{}
	cleanups []func() error
}

func newStream(ctx context.Context) *Stream {
	return &Stream{
		ctx:     ctx,
		deliver: make(chan []byte),
		termCh:  make(chan struct{}),
	}
}

// Context returns the request's context. A consumer can use it to tell a
// client-initiated cancel apart from a server-side disconnect before deciding
// to resume.
func (s *Stream) Context() context.Context { return s.ctx }

// Recv blocks for the next chunk. It returns ErrEndOfStream on graceful end
// and an *AbortError on abnormal termination; after either, every further
// call returns the same terminal signal, so a consumer loop always drains to
// a return.
func (s *Stream) Recv() ([]byte, error) {
	s.mu.Lock()
	term := s.term
	s.mu.Unlock()
	if term != nil {
		return nil, term
	}
	select {
	case chunk := <-s.deliver:
		return chunk, nil
	case <-s.termCh:
		s.mu.Lock()
		term = s.term
		s.mu.Unlock()
		return nil, term
	}
}

// Defer registers a cleanup run by the driver after the consumer returns,
// regardless of outcome. Cleanup errors are logged, never escalated.
func (s *Stream) Defer(fn func() error) {
	s.mu.Lock()
	s.cleanups = append(s.cleanups, fn)
	s.mu.Unlock()
}

// driver runs one consumer against one transport, translating transport
// events into the strict pull protocol: chunks in arrival order, then exactly
// one terminal signal, then disposal.
type driver struct {
	stream   *Stream
	mode     DeliveryMode
	future   *Future
	finished chan struct{}

	value any
	err   error
}

func newDriver(ctx context.Context, mode DeliveryMode, future *Future) *driver {
	return &driver{
		stream:   newStream(ctx),
		mode:     mode,
		future:   future,
		finished: make(chan struct{}),
	}
}

// start launches the consumer goroutine. The consumer's setup code runs up to
// its first Recv, which parks it until the driver feeds a chunk.
func (d *driver) start(consume Consumer) {
	go func() {
		defer close(d.finished)
		d.value, d.err = consume(d.stream)
	}()
}

// feed hands one chunk to the consumer, blocking until it is received.
// It returns false when the consumer already finished: the chunk is dropped
// and the caller must stop reading the transport.
func (d *driver) feed(chunk []byte) bool {
	select {
	case d.stream.deliver <- chunk:
		return true
	case <-d.finished:
		return false
	}
}

// terminate records the terminal signal (graceful end or abort), waits for
// the consumer to return, settles the future per delivery mode, and runs
// disposal. Safe against double invocation via the future's one-shot
// semantics; the terminal signal itself is first-writer-wins.
func (d *driver) terminate(term error) {
	s := d.stream
	s.mu.Lock()
	if s.term == nil {
		s.term = term
		close(s.termCh)
	}
	s.mu.Unlock()

	<-d.finished

	if d.err != nil {
		if d.mode == Awaited {
			d.future.reject(d.err)
		} else {
			// The eager future settled at header time; the fault is only
			// visible here. Surface it on the diagnostic channel.
			klog.ErrorS(d.err, "stream consumer failed")
		}
	} else {
		d.future.resolve(d.value)
	}

	s.mu.Lock()
	cleanups := s.cleanups
	s.cleanups = nil
	s.mu.Unlock()
	for _, fn := range cleanups {
		if err := fn(); err != nil {
			klog.ErrorS(err, "stream cleanup failed")
		}
	}
}
