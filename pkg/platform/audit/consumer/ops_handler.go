package consumer

import (
	"context"
	"log/slog"

	audit "schemematch/pkg/platform/audit"
)

// OpsHandler persists routine lookups on a best-effort basis. Every record is
// committed, stored or not.
type OpsHandler struct {
	store  audit.Store
	logger *slog.Logger
}

// NewOpsHandler creates an operations event handler.
func NewOpsHandler(store audit.Store, logger *slog.Logger) *OpsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OpsHandler{store: store, logger: logger}
}

// Handle processes an operations audit record.
func (h *OpsHandler) Handle(ctx context.Context, msg *Message) error {
	event, err := decodeEvent(msg)
	if err != nil {
		h.logger.DebugContext(ctx, "failed to decode ops audit record", "offset", msg.Offset, "error", err)
		return nil
	}

	event.Category = audit.CategoryOperations
	if err := h.store.Append(ctx, event); err != nil {
		h.logger.DebugContext(ctx, "failed to store ops audit event",
			"action", event.Action,
			"error", err,
		)
	}
	return nil
}
