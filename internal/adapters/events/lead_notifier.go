package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/anvkup/avnmusicstudio/internal/core/domain"
)

// LeadHandler reacts to one stored lead. Errors are logged and the event is
// not redelivered.
type LeadHandler func(ctx context.Context, event domain.LeadSubmittedEvent) error

// LogLeads is the default handler: the studio team reads new leads from the
// service log until a mail integration exists.
func LogLeads(logger *slog.Logger) LeadHandler {
	return func(_ context.Context, event domain.LeadSubmittedEvent) error {
		logger.Info("new lead received",
			slog.String("lead_id", event.LeadID),
			slog.String("name", event.Name),
			slog.String("email", event.Email),
			slog.String("enquiry_type", event.EnquiryType),
			slog.Time("submitted_at", event.SubmittedAt))
		return nil
	}
}

// Chain runs every handler in order and joins their errors.
func Chain(handlers ...LeadHandler) LeadHandler {
	return func(ctx context.Context, event domain.LeadSubmittedEvent) error {
		var errs []error
		for _, h := range handlers {
			if err := h(ctx, event); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}

// ListenForLeads consumes lead events until ctx is cancelled or the bus is
// closed. The returned channel is closed once the consumer stops.
func ListenForLeads(ctx context.Context, bus *Bus, handle LeadHandler, logger *slog.Logger) (<-chan struct{}, error) {
	messages, err := bus.Subscribe(ctx, domain.TopicLeadSubmitted)
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", domain.TopicLeadSubmitted, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range messages {
			consumeLead(ctx, msg, handle, logger)
		}
	}()
	return done, nil
}

func consumeLead(ctx context.Context, msg *message.Message, handle LeadHandler, logger *slog.Logger) {
	var event domain.LeadSubmittedEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		logger.Error("dropping malformed lead event", slog.String("message_id", msg.UUID), slog.Any("error", err))
		msg.Ack()
		return
	}

	if err := handle(ctx, event); err != nil {
		logger.Error("lead handler failed", slog.String("lead_id", event.LeadID), slog.Any("error", err))
	}
	msg.Ack()
}
