package queue

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/quod-portal/account-service/internal/api/metrics"
	"github.com/quod-portal/account-service/internal/core/ports"
)

const (
	defaultWorkers = 2
	channelBuffer  = 256
	sendTimeout    = 15 * time.Second
)

// Dispatcher delivers notifications in the background through a fixed pool
// of workers. Delivery is best effort: failures are logged and counted.
type Dispatcher struct {
	ch       chan ports.Notification
	notifier ports.Notifier
	workers  int
	log      zerolog.Logger
	wg       sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, notifier ports.Notifier, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	return &Dispatcher{
		ch:       make(chan ports.Notification, channelBuffer),
		notifier: notifier,
		workers:  numWorkers,
		log:      log,
	}
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.runWorker(ctx, i)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands a notification to the workers without blocking. When the
// buffer is full the notification is dropped.
func (d *Dispatcher) Enqueue(n ports.Notification) {
	select {
	case d.ch <- n:
		metrics.NotificationQueueDepth.Set(float64(len(d.ch)))
	default:
		metrics.NotificationsTotal.WithLabelValues(string(n.Kind), "dropped").Inc()
		d.log.Warn().
			Str("kind", string(n.Kind)).
			Str("to", n.To).
			Msg("notification queue full, dropping")
	}
}

func (d *Dispatcher) runWorker(ctx context.Context, id int) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-d.ch:
			metrics.NotificationQueueDepth.Set(float64(len(d.ch)))
			d.deliver(ctx, id, n)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, id int, n ports.Notification) {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	start := time.Now()
	err := d.notifier.Send(sendCtx, n)
	metrics.NotificationSendDuration.WithLabelValues(string(n.Kind)).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.NotificationsTotal.WithLabelValues(string(n.Kind), "failed").Inc()
		d.log.Error().Err(err).
			Str("kind", string(n.Kind)).
			Str("to", n.To).
			Int("worker_id", id).
			Msg("notification delivery failed")
		return
	}

	metrics.NotificationsTotal.WithLabelValues(string(n.Kind), "sent").Inc()
	d.log.Info().
		Str("kind", string(n.Kind)).
		Str("to", n.To).
		Msg("notification sent")
}
