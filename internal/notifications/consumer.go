package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/harnoorlabs/aromas-backend/pkg/db/models"
	"github.com/harnoorlabs/aromas-backend/pkg/enums"
	"github.com/harnoorlabs/aromas-backend/pkg/logger"
	"github.com/harnoorlabs/aromas-backend/pkg/outbox"
	"github.com/harnoorlabs/aromas-backend/pkg/outbox/idempotency"
	"github.com/harnoorlabs/aromas-backend/pkg/outbox/payloads"
	"github.com/harnoorlabs/aromas-backend/pkg/outbox/registry"
)

const orderNotificationConsumer = "order-notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Consumer watches the published order events and mirrors them as in-app
// notifications. Placement and low-stock notifications are written
// synchronously at checkout; this consumer covers the async payment and
// fulfillment legs.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds an order notification consumer.
func NewConsumer(repo repository, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

var handledEvents = map[enums.OutboxEventType]bool{
	enums.EventOrderPaid:          true,
	enums.EventOrderStatusChanged: true,
	enums.EventOrderCancelled:     true,
	enums.EventOrderExpired:       true,
}

var orderEventDecoders = newOrderEventDecoders()

func newOrderEventDecoders() *registry.DecoderRegistry {
	decoders := registry.NewDecoderRegistry()
	decoders.Register(enums.EventOrderPaid, 1, func(data json.RawMessage) (interface{}, error) {
		var payload payloads.OrderPaidEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	})
	decoders.Register(enums.EventOrderStatusChanged, 1, func(data json.RawMessage) (interface{}, error) {
		var payload payloads.OrderStatusChangedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	})
	decoders.Register(enums.EventOrderCancelled, 1, func(data json.RawMessage) (interface{}, error) {
		var payload payloads.OrderCancelledEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	})
	decoders.Register(enums.EventOrderExpired, 1, func(data json.RawMessage) (interface{}, error) {
		var payload payloads.OrderExpiredEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	})
	return decoders
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	if !handledEvents[eventType] {
		c.logg.Info(logCtx, "skipping event without notification mapping")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, orderNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	version := envelope.Version
	if version == 0 {
		version = 1
	}
	decoded, err := orderEventDecoders.Decode(eventType, version, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.idempotency.Delete(ctx, orderNotificationConsumer, eventID)
		return processResult{nack: true}
	}

	notification := buildNotification(decoded)
	if notification == nil {
		return processResult{ack: true}
	}

	if err := c.repo.Create(ctx, notification); err != nil {
		c.logg.Error(logCtx, "notification insert failed", err)
		_ = c.idempotency.Delete(ctx, orderNotificationConsumer, eventID)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "notification created")
	return processResult{ack: true}
}

func buildNotification(decoded interface{}) *models.Notification {
	switch payload := decoded.(type) {
	case *payloads.OrderPaidEvent:
		return &models.Notification{
			ID:          uuid.New(),
			RecipientID: payload.CustomerID,
			Type:        enums.NotificationTypePaymentReceived,
			Title:       "Payment received",
			Message:     fmt.Sprintf("Payment for order %s was received. Your order is confirmed.", payload.OrderNumber),
			Link:        orderLink(payload.OrderID),
		}

	case *payloads.OrderStatusChangedEvent:
		return &models.Notification{
			ID:          uuid.New(),
			RecipientID: payload.CustomerID,
			Type:        enums.NotificationTypeOrderStatus,
			Title:       "Order update",
			Message:     fmt.Sprintf("Order %s is now %s.", payload.OrderNumber, payload.To.Label()),
			Link:        orderLink(payload.OrderID),
		}

	case *payloads.OrderCancelledEvent:
		return &models.Notification{
			ID:          uuid.New(),
			RecipientID: payload.CustomerID,
			Type:        enums.NotificationTypeOrderStatus,
			Title:       "Order cancelled",
			Message:     fmt.Sprintf("Order %s has been cancelled.", payload.OrderNumber),
			Link:        orderLink(payload.OrderID),
		}

	case *payloads.OrderExpiredEvent:
		return &models.Notification{
			ID:          uuid.New(),
			RecipientID: payload.CustomerID,
			Type:        enums.NotificationTypeOrderStatus,
			Title:       "Order expired",
			Message:     fmt.Sprintf("Order %s expired because payment was not completed in time.", payload.OrderNumber),
			Link:        orderLink(payload.OrderID),
		}
	}
	return nil
}

func orderLink(orderID uuid.UUID) *string {
	link := fmt.Sprintf("/orders/%s", orderID)
	return &link
}
