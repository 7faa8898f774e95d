package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/quod-portal/account-service/internal/core/ports"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []ports.Notification
	err  error
	done chan struct{}
}

func newRecordingNotifier(err error) *recordingNotifier {
	return &recordingNotifier{err: err, done: make(chan struct{}, 16)}
}

func (n *recordingNotifier) Send(_ context.Context, msg ports.Notification) error {
	n.mu.Lock()
	n.sent = append(n.sent, msg)
	n.mu.Unlock()
	n.done <- struct{}{}
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for delivery")
	}
}

func TestDispatcher_DeliversEnqueued(t *testing.T) {
	notifier := newRecordingNotifier(nil)
	d := NewDispatcher(1, notifier, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	d.Enqueue(ports.Notification{Kind: ports.KindRegistration, To: "admin@example.com"})
	waitFor(t, notifier.done)

	cancel()
	d.Wait()

	require.Equal(t, 1, notifier.count())
	require.Equal(t, "admin@example.com", notifier.sent[0].To)
}

func TestDispatcher_FailureDoesNotStopWorker(t *testing.T) {
	notifier := newRecordingNotifier(errors.New("provider down"))
	d := NewDispatcher(1, notifier, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Enqueue(ports.Notification{Kind: ports.KindRegistration, To: "a@example.com"})
	d.Enqueue(ports.Notification{Kind: ports.KindPasswordReset, To: "b@example.com"})
	waitFor(t, notifier.done)
	waitFor(t, notifier.done)

	require.Equal(t, 2, notifier.count())
}

func TestDispatcher_EnqueueNeverBlocks(t *testing.T) {
	notifier := newRecordingNotifier(nil)
	d := NewDispatcher(1, notifier, zerolog.Nop())
	// Workers not started: the buffer fills and the rest are dropped.

	finished := make(chan struct{})
	go func() {
		for i := 0; i < channelBuffer+10; i++ {
			d.Enqueue(ports.Notification{Kind: ports.KindRegistration})
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatalf("Enqueue blocked on a full queue")
	}
	require.Len(t, d.ch, channelBuffer)
}

func TestNewDispatcher_DefaultWorkers(t *testing.T) {
	d := NewDispatcher(0, newRecordingNotifier(nil), zerolog.Nop())
	require.Equal(t, defaultWorkers, d.workers)
}
