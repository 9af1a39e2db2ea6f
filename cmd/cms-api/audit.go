package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/firecms/cms/pkg/eventbus"
	"github.com/firecms/cms/pkg/events"
)

// registerAuditLog logs approval decisions and page failures as they are published.
func registerAuditLog(logger *slog.Logger, bus eventbus.EventSubscriber) error {
	audit := logger.With("module", "audit")

	handlers := map[events.EventType]eventbus.EventHandler{
		events.DocumentApprovedEvent: func(ctx context.Context, event any) error {
			e, ok := event.(*events.DocumentApproved)
			if !ok {
				return fmt.Errorf("unexpected event %T", event)
			}

			audit.InfoContext(ctx, "document approved", "document_id", e.DocumentID, "title", e.Title)

			return nil
		},
		events.DocumentRejectedEvent: func(ctx context.Context, event any) error {
			e, ok := event.(*events.DocumentRejected)
			if !ok {
				return fmt.Errorf("unexpected event %T", event)
			}

			audit.InfoContext(ctx, "document rejected",
				"document_id", e.DocumentID,
				"title", e.Title,
				"rejected_by", e.RejectedBy,
				"reason", e.Reason,
			)

			return nil
		},
		events.PageGenerationFailedEvent: func(ctx context.Context, event any) error {
			e, ok := event.(*events.PageGenerationFailed)
			if !ok {
				return fmt.Errorf("unexpected event %T", event)
			}

			audit.WarnContext(ctx, "page generation failed", "product_id", e.ProductID, "error", e.Error)

			return nil
		},
	}

	for eventType, handler := range handlers {
		if err := bus.Handle(eventType, handler); err != nil {
			return err
		}
	}

	return nil
}
