package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/firecms/cms/pkg/events"
)

// decoders maps each event type to a constructor for its payload.
var decoders = map[events.EventType]func() any{
	events.PageGeneratedEvent:        func() any { return &events.PageGenerated{} },
	events.PageGenerationFailedEvent: func() any { return &events.PageGenerationFailed{} },
	events.DocumentSubmittedEvent:    func() any { return &events.DocumentSubmitted{} },
	events.DocumentActedEvent:        func() any { return &events.DocumentActed{} },
	events.DocumentApprovedEvent:     func() any { return &events.DocumentApproved{} },
	events.DocumentRejectedEvent:     func() any { return &events.DocumentRejected{} },
}

type WatermillEventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber

	mu            sync.RWMutex
	subscriptions map[events.EventType]EventHandler
}

func NewWatermillEventBus(pub message.Publisher, sub message.Subscriber) EventBus {
	return &WatermillEventBus{
		publisher:     pub,
		subscriber:    sub,
		subscriptions: make(map[events.EventType]EventHandler),
	}
}

func (eb *WatermillEventBus) GenerateID() string {
	return watermill.NewULID()
}

// Publish sends event on the CMS topic. key is used as the partition key by Kafka.
func (eb *WatermillEventBus) Publish(ctx context.Context, key string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.GetType(), err)
	}

	msg := message.NewMessage("msg-"+eb.GenerateID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set(events.EventMetadataKey, key)
	msg.Metadata.Set(events.EventTypeMetadataKey, string(event.GetType()))

	return eb.publisher.Publish(events.Topic, msg)
}

// Subscribe starts delivering messages to the registered handlers until ctx is done.
// Messages of a type without a handler are acked and dropped.
func (eb *WatermillEventBus) Subscribe(ctx context.Context) error {
	messages, err := eb.subscriber.Subscribe(ctx, events.Topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			eventType := events.EventType(msg.Metadata.Get(events.EventTypeMetadataKey))

			eb.mu.RLock()
			handler, exists := eb.subscriptions[eventType]
			eb.mu.RUnlock()

			if !exists {
				msg.Ack()

				continue
			}

			decode, known := decoders[eventType]
			if !known {
				msg.Nack()

				continue
			}

			event := decode()

			err := json.Unmarshal(msg.Payload, event)
			if err != nil {
				msg.Nack()

				continue
			}

			err = handler(ctx, event)
			if err != nil {
				msg.Nack()

				continue
			}

			msg.Ack()
		}
	}()

	return nil
}

func (eb *WatermillEventBus) Handle(eventType events.EventType, handler EventHandler) error {
	if _, known := decoders[eventType]; !known {
		return fmt.Errorf("unknown event type %q", eventType)
	}

	eb.mu.Lock()
	eb.subscriptions[eventType] = handler
	eb.mu.Unlock()

	return nil
}

func (eb *WatermillEventBus) Close() error {
	err := eb.publisher.Close()
	if err != nil {
		return err
	}

	return eb.subscriber.Close()
}
