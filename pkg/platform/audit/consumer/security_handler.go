package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	audit "schemematch/pkg/platform/audit"
)

// SecurityHandler persists catalog changes and denied admin access. Store
// failures are returned so the record is redelivered.
type SecurityHandler struct {
	store  audit.Store
	logger *slog.Logger
}

// NewSecurityHandler creates a security event handler.
func NewSecurityHandler(store audit.Store, logger *slog.Logger) *SecurityHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SecurityHandler{store: store, logger: logger}
}

// Handle processes a security audit record.
func (h *SecurityHandler) Handle(ctx context.Context, msg *Message) error {
	event, err := decodeEvent(msg)
	if err != nil {
		// Malformed records would block the partition forever.
		h.logger.ErrorContext(ctx, "CRITICAL: dropping malformed security audit record",
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}
	if event.Action == "" {
		h.logger.ErrorContext(ctx, "CRITICAL: security audit record has no action",
			"offset", msg.Offset,
			"subject", event.Subject,
		)
		return nil
	}

	event.Category = audit.CategorySecurity
	if err := h.store.Append(ctx, event); err != nil {
		h.logger.ErrorContext(ctx, "failed to store security audit event",
			"action", event.Action,
			"subject", event.Subject,
			"error", err,
		)
		return fmt.Errorf("store security event: %w", err)
	}
	return nil
}

func decodeEvent(msg *Message) (audit.Event, error) {
	var event audit.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return audit.Event{}, err
	}
	if event.Subject == "" {
		event.Subject = string(msg.Key)
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return event, nil
}
