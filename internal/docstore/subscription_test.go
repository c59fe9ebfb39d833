package docstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestSubscriptionDeliversLatestAndStopsOnClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	var mu sync.Mutex
	var got []*Document
	sub := NewSubscription(context.Background(), func(d *Document) {
		mu.Lock()
		got = append(got, d)
		mu.Unlock()
	})

	sub.Deliver(&Document{ID: "x", Data: map[string]any{"n": float64(1)}})
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)

	sub.Deliver(nil)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2 && got[1] == nil
	}, time.Second, 5*time.Millisecond)

	sub.Close()
	sub.Deliver(&Document{ID: "x"})
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	require.Len(t, got, 2)
	mu.Unlock()
}

func TestSubscriptionCloseWaitsForProducers(t *testing.T) {
	defer goleak.VerifyNone(t)

	sub := NewSubscription(context.Background(), func(*Document) {})
	stopped := make(chan struct{})
	sub.Go(func(ctx context.Context) {
		<-ctx.Done()
		close(stopped)
	})
	sub.Close()
	select {
	case <-stopped:
	default:
		t.Fatal("producer still running after Close")
	}
	sub.Close()
}

func TestSubscriptionEndDeliversAbsentOnPermissionDenied(t *testing.T) {
	defer goleak.VerifyNone(t)

	got := make(chan *Document, 4)
	sub := NewSubscription(context.Background(), func(d *Document) { got <- d })
	defer sub.Close()

	sub.End(nil)
	sub.End(errors.New("stream reset"))
	sub.End(fmt.Errorf("listen: %w", ErrPermissionDenied))

	select {
	case d := <-got:
		require.Nil(t, d)
	case <-time.After(time.Second):
		t.Fatal("no snapshot after permission failure")
	}
	select {
	case d := <-got:
		t.Fatalf("unexpected snapshot %v", d)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestSubscriptionEndAfterCloseIsSilent(t *testing.T) {
	defer goleak.VerifyNone(t)

	called := make(chan struct{}, 1)
	sub := NewSubscription(context.Background(), func(*Document) { called <- struct{}{} })
	sub.Close()
	sub.End(ErrPermissionDenied)

	select {
	case <-called:
		t.Fatal("callback ran after Close")
	case <-time.After(20 * time.Millisecond):
	}
}
