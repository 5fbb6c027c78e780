package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"docchat/internal/model"
	"docchat/internal/pkg/log"
)

const (
	consumerTag = "docchat-events"
	prefetch    = 16
)

// EventHandler receives one decoded document event. Returning an error
// drops the delivery without requeueing it.
type EventHandler func(ctx context.Context, event model.DocumentEvent) error

// DocumentEventWorker consumes the queue fed by rabbitmq.EventPublisher.
type DocumentEventWorker struct {
	conn      *amqp.Connection
	queueName string
	handle    EventHandler
	logger    *zap.SugaredLogger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDocumentEventWorker(conn *amqp.Connection, queueName string, handle EventHandler) *DocumentEventWorker {
	return &DocumentEventWorker{
		conn:      conn,
		queueName: queueName,
		handle:    handle,
		logger:    log.With("component", "document_event_worker", "queue", queueName),
	}
}

// Start subscribes and handles deliveries on one goroutine until ctx ends or
// Close is called. Calling Start twice is a no-op.
func (w *DocumentEventWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	ch, deliveries, err := w.subscribe()
	if err != nil {
		return err
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()
		w.logger.Info("document event worker started")

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					w.logger.Warn("document event delivery channel closed")
					return
				}
				w.process(workerCtx, d)
			}
		}
	}()
	return nil
}

func (w *DocumentEventWorker) subscribe() (*amqp.Channel, <-chan amqp.Delivery, error) {
	ch, err := w.conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("open worker channel failed: %w", err)
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		_ = ch.Close()
		return nil, nil, fmt.Errorf("set worker prefetch failed: %w", err)
	}
	// Same declaration as the publisher, so either side may create the queue.
	if _, err := ch.QueueDeclare(w.queueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, nil, fmt.Errorf("declare worker queue failed: %w", err)
	}
	deliveries, err := ch.Consume(w.queueName, consumerTag, false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, nil, fmt.Errorf("consume queue failed: %w", err)
	}
	return ch, deliveries, nil
}

func (w *DocumentEventWorker) process(ctx context.Context, d amqp.Delivery) {
	var event model.DocumentEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		w.logger.Warnw("worker decode event failed", "delivery_tag", d.DeliveryTag, "error", err)
		_ = d.Nack(false, false)
		return
	}

	if err := w.handle(ctx, event); err != nil {
		w.logger.Warnw("worker handle event failed", "type", event.Type, "document_id", event.DocumentID, "error", err)
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

// Close stops consuming and waits for the in-flight delivery.
func (w *DocumentEventWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
