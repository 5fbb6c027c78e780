package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"docchat/internal/model"
)

type fakeChannel struct {
	declareErrs []error
	declares    int
	published   []amqp.Publishing
	keys        []string
	closed      int
}

func (c *fakeChannel) QueueDeclare(name string, durable, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	c.declares++
	if len(c.declareErrs) > 0 {
		err := c.declareErrs[0]
		c.declareErrs = c.declareErrs[1:]
		if err != nil {
			return amqp.Queue{}, err
		}
	}
	if !durable {
		return amqp.Queue{}, errors.New("queue must be durable")
	}
	return amqp.Queue{Name: name}, nil
}

func (c *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	c.keys = append(c.keys, key)
	c.published = append(c.published, msg)
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed++
	return nil
}

func newTestPublisher(ch *fakeChannel) *EventPublisher {
	return &EventPublisher{
		openChannel: func() (publishChannel, error) { return ch, nil },
		queueName:   "docchat.document.events",
	}
}

func TestPublishDocumentEvent(t *testing.T) {
	ch := &fakeChannel{}
	p := newTestPublisher(ch)
	event := model.DocumentEvent{
		Type:       model.EventDocumentAttached,
		SessionID:  "s-1",
		DocumentID: "d-1",
		Chunks:     3,
		OccurredAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	if err := p.PublishDocumentEvent(context.Background(), event); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if len(ch.published) != 1 || ch.keys[0] != "docchat.document.events" {
		t.Fatalf("unexpected publishes: %+v", ch.keys)
	}
	msg := ch.published[0]
	if msg.DeliveryMode != amqp.Persistent || msg.Type != model.EventDocumentAttached || msg.ContentType != "application/json" {
		t.Errorf("unexpected publishing %+v", msg)
	}
	var decoded model.DocumentEvent
	if err := json.Unmarshal(msg.Body, &decoded); err != nil || decoded.DocumentID != "d-1" || decoded.Chunks != 3 {
		t.Errorf("unexpected body %s (%v)", msg.Body, err)
	}
	if ch.closed != 1 {
		t.Errorf("channel closed %d times, want 1", ch.closed)
	}
}

func TestPublishDocumentEvent_RetriesDeclareAfterFailure(t *testing.T) {
	ch := &fakeChannel{declareErrs: []error{errors.New("channel timeout")}}
	p := newTestPublisher(ch)
	event := model.DocumentEvent{Type: model.EventDocumentAttached, DocumentID: "d-1"}

	if err := p.PublishDocumentEvent(context.Background(), event); err == nil {
		t.Fatal("expected the first publish to fail")
	}
	if len(ch.published) != 0 {
		t.Fatalf("nothing should be published after a failed declare")
	}

	if err := p.PublishDocumentEvent(context.Background(), event); err != nil {
		t.Fatalf("second publish should declare again and succeed: %v", err)
	}
	if ch.declares != 2 || len(ch.published) != 1 {
		t.Errorf("declares=%d published=%d, want 2 and 1", ch.declares, len(ch.published))
	}
}

func TestPublishDocumentEvent_OpenChannelError(t *testing.T) {
	p := &EventPublisher{
		openChannel: func() (publishChannel, error) { return nil, amqp.ErrClosed },
		queueName:   "q",
	}
	if err := p.PublishDocumentEvent(context.Background(), model.DocumentEvent{}); !errors.Is(err, amqp.ErrClosed) {
		t.Errorf("expected wrapped ErrClosed, got %v", err)
	}
}
