package consumer

import (
	"context"
	"log/slog"

	audit "schemematch/pkg/platform/audit"
)

// HeaderCategory carries the event category on every published record.
const HeaderCategory = "category"

// Router dispatches messages to category-specific handlers.
type Router struct {
	handlers map[audit.EventCategory]Handler
	fallback Handler
	logger   *slog.Logger
}

// NewRouter creates a category router with an optional fallback handler.
func NewRouter(logger *slog.Logger, fallback Handler) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		handlers: make(map[audit.EventCategory]Handler),
		fallback: fallback,
		logger:   logger,
	}
}

// Register adds a handler for a category.
func (r *Router) Register(category audit.EventCategory, handler Handler) {
	r.handlers[category] = handler
}

// Handle routes the message to the handler for its category header.
func (r *Router) Handle(ctx context.Context, msg *Message) error {
	category := audit.EventCategory(msg.Headers[HeaderCategory])
	handler, ok := r.handlers[category]
	if !ok {
		if r.fallback != nil {
			return r.fallback.Handle(ctx, msg)
		}
		r.logger.WarnContext(ctx, "no handler for audit category, skipping record",
			"category", category,
			"key", string(msg.Key),
			"offset", msg.Offset,
		)
		return nil
	}
	return handler.Handle(ctx, msg)
}

// NewStoreRouter wires the strict security handler and the best-effort
// operations handler to one store. Unlabelled records go to the operations path.
func NewStoreRouter(store audit.Store, logger *slog.Logger) *Router {
	ops := NewOpsHandler(store, logger)
	r := NewRouter(logger, ops)
	r.Register(audit.CategorySecurity, NewSecurityHandler(store, logger))
	r.Register(audit.CategoryOperations, ops)
	return r
}
