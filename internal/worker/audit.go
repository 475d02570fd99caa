package worker

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/commentera/commentera-api/internal/dispatcher"
	"github.com/commentera/commentera-api/internal/kafka"
	"github.com/commentera/commentera-api/internal/metrics"
	"github.com/commentera/commentera-api/internal/model"
	"github.com/commentera/commentera-api/internal/repository"
)

// Audit:
// - fetches badge events from Kafka (published from the outbox table),
// - batches ClickHouse inserts,
// - broadcasts each stored event to customer webhooks,
// - commits Kafka offsets only after the batch is persisted.
type Audit struct {
	// Dependencies
	Consumer *kafka.Consumer
	Events   repository.EventsRepository
	Dispatch *dispatcher.Dispatcher

	// Behavior
	BatchSize int           // max buffered events per flush
	BatchWait time.Duration // max time to wait before flush
}

// NewAudit builds a worker with sane defaults.
func NewAudit(consumer *kafka.Consumer, eventsRepo repository.EventsRepository, dispatch *dispatcher.Dispatcher) *Audit {
	return &Audit{
		Consumer:  consumer,
		Events:    eventsRepo,
		Dispatch:  dispatch,
		BatchSize: 200,
		BatchWait: 300 * time.Millisecond,
	}
}

type pending struct {
	event model.BadgeEvent
	msg   kafka.Message
}

// Run starts the worker and blocks until ctx is cancelled.
func (w *Audit) Run(ctx context.Context) error {
	if w.BatchSize <= 0 {
		w.BatchSize = 200
	}
	if w.BatchWait <= 0 {
		w.BatchWait = 300 * time.Millisecond
	}

	var batch []pending

	tick := time.NewTicker(w.BatchWait)
	defer tick.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		events := make([]model.BadgeEvent, 0, len(batch))
		msgs := make([]kafka.Message, 0, len(batch))
		for _, p := range batch {
			events = append(events, p.event)
			msgs = append(msgs, p.msg)
		}

		if err := w.Events.InsertBatch(ctx, events); err != nil {
			// keep the batch; offsets stay uncommitted and Kafka redelivers
			log.Printf("[audit] clickhouse insert err: %v", err)
			return
		}
		metrics.AuditEventsTotal.WithLabelValues("stored").Add(float64(len(events)))

		if w.Dispatch != nil && w.Dispatch.Endpoints() > 0 {
			for _, ev := range events {
				if err := w.Dispatch.Broadcast(ctx, ev); err != nil {
					// webhook delivery is best-effort; the audit row is the record
					metrics.AuditEventsTotal.WithLabelValues("webhook_failed").Inc()
					log.Printf("[audit] webhook broadcast err: %v", err)
					continue
				}
				metrics.AuditEventsTotal.WithLabelValues("webhook_ok").Inc()
			}
		}

		if err := w.Consumer.Commit(ctx, msgs...); err != nil {
			log.Printf("[audit] kafka commit err: %v", err)
		}

		log.Printf("[audit] flushed: events=%d", len(events))
		batch = batch[:0]
	}

	// Fetch loop with channel hand-off so the ticker can force flushes while
	// a fetch is blocked.
	msgCh := make(chan kafka.Message, w.BatchSize)
	go func() {
		defer close(msgCh)
		for {
			m, err := w.Consumer.Fetch(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("[audit] kafka fetch err: %v", err)
				time.Sleep(200 * time.Millisecond)
				continue
			}
			select {
			case msgCh <- m:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			flush()
			return nil

		case m, ok := <-msgCh:
			if !ok {
				flush()
				return nil
			}

			var ev model.BadgeEvent
			if err := json.Unmarshal(m.Value, &ev); err != nil || !ev.Op.Valid() {
				// poison message: skip it rather than wedging the partition
				log.Printf("[audit] drop malformed event offset=%d err=%v", m.Offset, err)
				if err := w.Consumer.Commit(ctx, m); err != nil {
					log.Printf("[audit] kafka commit err: %v", err)
				}
				continue
			}
			metrics.AuditEventsTotal.WithLabelValues("consumed").Inc()

			batch = append(batch, pending{event: ev, msg: m})
			if len(batch) >= w.BatchSize {
				flush()
			}

		case <-tick.C:
			flush()
		}
	}
}
