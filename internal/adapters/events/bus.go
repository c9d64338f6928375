// Package events carries domain events over an in-process watermill bus.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"github.com/anvkup/avnmusicstudio/internal/core/ports"
)

const DefaultBufferSize = 100

// Bus publishes JSON encoded events. Subscribers attach through Subscribe.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
}

var _ ports.EventPublisher = (*Bus)(nil)

// NewGoChannelBus builds a non persistent in-memory bus. A nil logger
// silences watermill.
func NewGoChannelBus(bufferSize int, logger watermill.LoggerAdapter) *Bus {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	goChannel := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer: int64(bufferSize),
			Persistent:          false,
		},
		logger,
	)
	return NewBus(goChannel, goChannel)
}

// NewBus wraps any watermill transport.
func NewBus(publisher message.Publisher, subscriber message.Subscriber) *Bus {
	return &Bus{publisher: publisher, subscriber: subscriber}
}

func (b *Bus) Publish(ctx context.Context, topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", topic, err)
	}

	msg := message.NewMessage(uuid.NewString(), data)
	msg.SetContext(ctx)
	if err := b.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}

func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.subscriber.Subscribe(ctx, topic)
}

func (b *Bus) Close() error {
	pubErr := b.publisher.Close()
	subErr := b.subscriber.Close()
	if pubErr != nil {
		return pubErr
	}
	return subErr
}
