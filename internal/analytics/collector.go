package analytics

import (
	"context"
	"log/slog"

	"github.com/expvault/expvault/pkg/kafka"
)

// Collector buffers events and publishes them to Kafka in the background.
// Emitting never blocks a request: when the buffer is full the event is
// dropped and counted in the log.
type Collector struct {
	producer *kafka.Producer
	eventCh  chan interface{}
	logger   *slog.Logger
	done     chan struct{}
}

// NewCollector creates a Collector. producer may be nil, in which case the
// collector accepts and discards events.
func NewCollector(producer *kafka.Producer, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	return &Collector{
		producer: producer,
		eventCh:  make(chan interface{}, bufferSize),
		logger:   slog.Default().With("component", "analytics-collector"),
		done:     make(chan struct{}),
	}
}

// Start launches the background publish loop.
func (c *Collector) Start(ctx context.Context) {
	if c.producer == nil {
		close(c.done)
		return
	}
	go func() {
		defer close(c.done)
		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					return
				}
				if err := c.producer.Publish(ctx, kafka.Event{
					Key:   "expvault",
					Value: event,
				}); err != nil {
					c.logger.Error("failed to publish analytics event", "error", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Emit queues an event for publishing without blocking.
func (c *Collector) Emit(event interface{}) {
	if c.producer == nil {
		return
	}
	select {
	case c.eventCh <- event:
	default:
		c.logger.Warn("analytics buffer full, dropping event")
	}
}

// Close stops accepting events and waits for the publish loop to drain.
func (c *Collector) Close() {
	if c.producer == nil {
		return
	}
	close(c.eventCh)
	<-c.done
}
