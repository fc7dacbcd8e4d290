package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose so sinks can
// route and retain them differently.
type EventCategory string

const (
	// CategoryOperations covers routine lookups: matching, mapping, validation.
	// These can be sampled or aggregated with shorter retention.
	CategoryOperations EventCategory = "operations"

	// CategorySecurity covers catalog changes and rejected admin access.
	CategorySecurity EventCategory = "security"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
//
// Events never carry profile attributes; Subject is a program id or "catalog".
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	Subject   string        `json:"subject"`
	Action    string        `json:"action"`
	Decision  string        `json:"decision,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
	ActorID   string        `json:"actor_id,omitempty"`
	// CatalogVersion is the snapshot version the action was served from.
	CatalogVersion uint64 `json:"catalog_version,omitempty"`
}

type AuditEvent string

const (
	EventEligibilityEvaluated AuditEvent = "eligibility_evaluated"
	EventGapsExplained        AuditEvent = "gaps_explained"
	EventFieldsMapped         AuditEvent = "fields_mapped"
	EventMappingValidated     AuditEvent = "mapping_validated"
	EventDocumentsListed      AuditEvent = "documents_listed"

	EventCatalogRefreshed     AuditEvent = "catalog_refreshed"
	EventCatalogRefreshFailed AuditEvent = "catalog_refresh_failed"
	EventCatalogFallbackUsed  AuditEvent = "catalog_fallback_used"
	EventCatalogImported      AuditEvent = "catalog_imported"
	EventAdminAccessDenied    AuditEvent = "admin_access_denied"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventEligibilityEvaluated: CategoryOperations,
	EventGapsExplained:        CategoryOperations,
	EventFieldsMapped:         CategoryOperations,
	EventMappingValidated:     CategoryOperations,
	EventDocumentsListed:      CategoryOperations,

	EventCatalogRefreshed:     CategorySecurity,
	EventCatalogRefreshFailed: CategorySecurity,
	EventCatalogFallbackUsed:  CategorySecurity,
	EventCatalogImported:      CategorySecurity,
	EventAdminAccessDenied:    CategorySecurity,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Emitter is anything that accepts audit events.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
