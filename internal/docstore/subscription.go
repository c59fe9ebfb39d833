package docstore

import (
	"context"
	"errors"
	"sync"

	"github.com/aftras/crm/internal/utils"
)

// Subscription delivers document snapshots to a callback on a dedicated
// goroutine. Snapshots that arrive while the callback is busy are coalesced:
// only the most recent one is delivered next. Close must not be called from
// inside the callback.
type Subscription struct {
	fn     func(*Document)
	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	pending    *Document
	hasPending bool
	signal     chan struct{}

	producers sync.WaitGroup
	exited    chan struct{}
	closeOnce sync.Once
}

// NewSubscription starts the delivery loop. The returned Subscription's
// Context is cancelled on Close and should bound the backend's watch loop.
func NewSubscription(ctx context.Context, fn func(*Document)) *Subscription {
	subCtx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		fn:     fn,
		ctx:    subCtx,
		cancel: cancel,
		signal: make(chan struct{}, 1),
		exited: make(chan struct{}),
	}
	go s.loop()
	return s
}

// Context is done once the subscription is closed.
func (s *Subscription) Context() context.Context { return s.ctx }

// Go runs a backend watch loop that Close waits for.
func (s *Subscription) Go(fn func(ctx context.Context)) {
	s.producers.Add(1)
	go func() {
		defer s.producers.Done()
		fn(s.ctx)
	}()
}

// Deliver queues a snapshot (nil for "absent"). The document is copied.
func (s *Subscription) Deliver(doc *Document) {
	if s.ctx.Err() != nil {
		return
	}
	var cp *Document
	if doc != nil {
		c := doc.Clone()
		cp = &c
	}
	s.mu.Lock()
	s.pending = cp
	s.hasPending = true
	s.mu.Unlock()
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// End reports why a backend watch loop stopped. A permission failure
// delivers an absent snapshot, matching what a denied read returns. Other
// failures are logged. Nothing happens once the subscription is closed.
func (s *Subscription) End(err error) {
	if err == nil || s.ctx.Err() != nil {
		return
	}
	if errors.Is(err, ErrPermissionDenied) {
		s.Deliver(nil)
		return
	}
	utils.Logger.WithError(err).Warn("docstore: listener stopped")
}

// Close stops the subscription. Once Close returns the callback is never
// invoked again.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		s.producers.Wait()
		<-s.exited
	})
}

func (s *Subscription) loop() {
	defer close(s.exited)
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.signal:
		}
		s.mu.Lock()
		doc, ok := s.pending, s.hasPending
		s.pending, s.hasPending = nil, false
		s.mu.Unlock()
		if !ok {
			continue
		}
		if s.ctx.Err() != nil {
			return
		}
		s.fn(doc)
	}
}
