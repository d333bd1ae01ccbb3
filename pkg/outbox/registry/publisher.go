package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/harnoorlabs/aromas-backend/pkg/config"
	"github.com/harnoorlabs/aromas-backend/pkg/db/models"
	"github.com/harnoorlabs/aromas-backend/pkg/enums"
	"github.com/harnoorlabs/aromas-backend/pkg/outbox"
	"github.com/harnoorlabs/aromas-backend/pkg/outbox/payloads"
)

// EventDescriptor binds an event type to its aggregate, destination topic
// and payload schema.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() interface{}
}

// ResolvedEvent is a decoded outbox row ready for publishing.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    interface{}
}

// NonRetryableError marks a row as permanently undeliverable. The publisher
// quarantines such rows instead of retrying them.
type NonRetryableError struct {
	Err error
}

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error {
	return e.Err
}

// EventRegistry maps every supported event type to its descriptor. An event
// type absent from the registry cannot be emitted or published.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NewEventRegistry builds the registry against the configured topics.
// Order lifecycle events fan out on the orders topic; everything the
// notification worker consumes goes on the notification topic.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.OrdersTopic == "" {
		return nil, errors.New("orders topic is required")
	}
	if cfg.NotificationTopic == "" {
		return nil, errors.New("notification topic is required")
	}

	type binding struct {
		eventType     enums.OutboxEventType
		aggregateType enums.OutboxAggregateType
		topic         string
		factory       func() interface{}
	}
	bindings := []binding{
		{enums.EventOrderPlaced, enums.AggregateOrder, cfg.OrdersTopic, func() interface{} { return &payloads.OrderPlacedEvent{} }},
		{enums.EventOrderPaid, enums.AggregateOrder, cfg.OrdersTopic, func() interface{} { return &payloads.OrderPaidEvent{} }},
		{enums.EventOrderStatusChanged, enums.AggregateOrder, cfg.OrdersTopic, func() interface{} { return &payloads.OrderStatusChangedEvent{} }},
		{enums.EventOrderCancelled, enums.AggregateOrder, cfg.OrdersTopic, func() interface{} { return &payloads.OrderCancelledEvent{} }},
		{enums.EventOrderExpired, enums.AggregateOrder, cfg.OrdersTopic, func() interface{} { return &payloads.OrderExpiredEvent{} }},
		{enums.EventPaymentFailed, enums.AggregatePayment, cfg.OrdersTopic, func() interface{} { return &payloads.PaymentFailedEvent{} }},

		{enums.EventInvoiceRequested, enums.AggregateOrder, cfg.NotificationTopic, func() interface{} { return &payloads.InvoiceRequestedEvent{} }},
		{enums.EventLowStock, enums.AggregateProduct, cfg.NotificationTopic, func() interface{} { return &payloads.LowStockEvent{} }},
		{enums.EventNotificationCreated, enums.AggregateNotification, cfg.NotificationTopic, func() interface{} { return &payloads.NotificationCreatedEvent{} }},
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor, len(bindings))}
	for _, b := range bindings {
		reg.entries[b.eventType] = EventDescriptor{
			EventType:      b.eventType,
			AggregateType:  b.aggregateType,
			Topic:          b.topic,
			PayloadFactory: b.factory,
		}
	}
	return reg, nil
}

// Resolve validates the row against its descriptor and decodes the typed
// payload. Every failure here is non-retryable: a malformed row will not
// fix itself with time.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	}
	if desc.AggregateType != event.AggregateType {
		return nil, NewNonRetryableError(fmt.Errorf("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType))
	}
	if event.AggregateID == uuid.Nil {
		return nil, NewNonRetryableError(errors.New("missing aggregate_id"))
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode envelope: %w", err))
	}
	if data := bytes.TrimSpace(envelope.Data); len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, NewNonRetryableError(fmt.Errorf("payload missing for %s", event.EventType))
	}

	payload := desc.PayloadFactory()
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}

	return &ResolvedEvent{Descriptor: desc, Envelope: envelope, Payload: payload}, nil
}
