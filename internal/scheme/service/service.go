// Package service is the matching façade: the one entry point transports and
// tools call. Each call pins a single catalog snapshot for its whole duration.
package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"schemematch/internal/scheme/catalog"
	"schemematch/internal/scheme/mapper"
	"schemematch/internal/scheme/matcher"
	"schemematch/internal/scheme/metrics"
	"schemematch/internal/scheme/models"
	"schemematch/internal/scheme/ports"
	"schemematch/pkg/attrs"
	dErrors "schemematch/pkg/domain-errors"
	"schemematch/pkg/platform/audit"
	"schemematch/pkg/requestcontext"
)

const tracerName = "schemematch/internal/scheme/service"

// Operation names used in metrics, spans and logs.
const (
	opFindEligible      = "find_eligible"
	opExplainGaps       = "explain_gaps"
	opMapFields         = "map_fields"
	opValidate          = "validate"
	opRequiredDocuments = "required_documents"
)

// Service orchestrates catalog, matcher and mapper.
type Service struct {
	catalog        *catalog.Catalog
	matcher        *matcher.Matcher
	logger         *slog.Logger
	auditPublisher ports.AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service.
func New(c *catalog.Catalog, m *matcher.Matcher, opts ...Option) *Service {
	s := &Service{catalog: c, matcher: m}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	return s
}

// CatalogVersion returns the version of the currently published snapshot.
func (s *Service) CatalogVersion() uint64 {
	return s.catalog.Snapshot().Version()
}

// Snapshot returns the currently published snapshot.
func (s *Service) Snapshot() *catalog.Snapshot {
	return s.catalog.Snapshot()
}

// FindEligible returns the ranked programs the profile qualifies for at asOf.
func (s *Service) FindEligible(ctx context.Context, profile *models.Profile, asOf time.Time) (results []models.MatchResult, err error) {
	snap := s.catalog.Snapshot()
	ctx, finish := s.begin(ctx, opFindEligible, snap)
	defer func() { finish(err) }()

	if err := profile.Validate(); err != nil {
		return nil, err
	}
	results, err = s.matcher.FindEligible(profile, snap, asOf)
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveEligible(len(results))
	s.logAudit(ctx, string(audit.EventEligibilityEvaluated), snap,
		"subject", "catalog",
		"eligible_count", len(results),
	)
	return results, nil
}

// ExplainGaps returns the open programs the profile narrowly misses.
func (s *Service) ExplainGaps(ctx context.Context, profile *models.Profile, asOf time.Time, limit int) (gaps []models.Gap, err error) {
	snap := s.catalog.Snapshot()
	ctx, finish := s.begin(ctx, opExplainGaps, snap)
	defer func() { finish(err) }()

	if err := profile.Validate(); err != nil {
		return nil, err
	}
	gaps, err = s.matcher.ExplainGaps(profile, snap, asOf, limit)
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, string(audit.EventGapsExplained), snap,
		"subject", "catalog",
		"gap_count", len(gaps),
	)
	return gaps, nil
}

// MapFields resolves the program's output fields from the profile.
func (s *Service) MapFields(ctx context.Context, programID string, profile *models.Profile) (result models.MappingResult, err error) {
	snap := s.catalog.Snapshot()
	ctx, finish := s.begin(ctx, opMapFields, snap)
	defer func() { finish(err) }()

	if err := profile.Validate(); err != nil {
		return models.MappingResult{}, err
	}
	program, schema, err := resolve(snap, programID)
	if err != nil {
		return models.MappingResult{}, err
	}
	result, err = mapper.MapFields(program, schema, profile)
	if err != nil {
		return models.MappingResult{}, err
	}

	s.metrics.IncrementMapping(result.Complete)
	s.logAudit(ctx, string(audit.EventFieldsMapped), snap,
		"subject", programID,
		"decision", completeness(result.Complete),
		"missing_count", len(result.Missing),
	)
	return result, nil
}

// Validate checks a mapping result against the program's schema.
func (s *Service) Validate(ctx context.Context, programID string, result models.MappingResult) (violations []models.Violation, err error) {
	snap := s.catalog.Snapshot()
	ctx, finish := s.begin(ctx, opValidate, snap)
	defer func() { finish(err) }()

	_, schema, err := resolve(snap, programID)
	if err != nil {
		return nil, err
	}
	violations = mapper.Validate(schema, result)

	decision := "valid"
	if len(violations) > 0 {
		decision = "invalid"
	}
	s.logAudit(ctx, string(audit.EventMappingValidated), snap,
		"subject", programID,
		"decision", decision,
		"violation_count", len(violations),
	)
	return violations, nil
}

// RequiredDocuments returns the documents the program asks for.
func (s *Service) RequiredDocuments(ctx context.Context, programID string) (docs []string, err error) {
	snap := s.catalog.Snapshot()
	ctx, finish := s.begin(ctx, opRequiredDocuments, snap)
	defer func() { finish(err) }()

	program, ok := snap.Program(programID)
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "program %s not found", programID)
	}
	docs = mapper.RequiredDocuments(program)

	s.logAudit(ctx, string(audit.EventDocumentsListed), snap,
		"subject", programID,
		"document_count", len(docs),
	)
	return docs, nil
}

// resolve finds a program and its schema. An unknown program is not found; a
// program whose schema is missing is a catalog configuration problem.
func resolve(snap *catalog.Snapshot, programID string) (*models.Program, *models.FieldSchema, error) {
	program, ok := snap.Program(programID)
	if !ok {
		return nil, nil, dErrors.Newf(dErrors.CodeNotFound, "program %s not found", programID)
	}
	if program.SchemaRef == "" {
		return nil, nil, dErrors.Newf(dErrors.CodeConfiguration, "program %s has no field schema", programID)
	}
	schema, ok := snap.Schema(program.SchemaRef)
	if !ok {
		return nil, nil, dErrors.Newf(dErrors.CodeConfiguration, "program %s references unknown schema %s", programID, program.SchemaRef)
	}
	return program, schema, nil
}

// begin starts the span and timer for one call. finish records the outcome.
func (s *Service) begin(ctx context.Context, operation string, snap *catalog.Snapshot) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "scheme."+operation,
		trace.WithAttributes(
			attribute.Int64("scheme.catalog_version", int64(snap.Version())), //nolint:gosec // versions stay far below MaxInt64
			attribute.String("scheme.request_id", requestcontext.RequestID(ctx)),
		),
	)
	return ctx, func(err error) {
		s.metrics.ObserveOperation(operation, time.Since(start))
		if err != nil {
			code := dErrors.CodeOf(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, string(code))
			s.metrics.IncrementError(operation, string(code))
			s.logFailure(ctx, operation, snap, err)
		}
		span.End()
	}
}

func (s *Service) logFailure(ctx context.Context, operation string, snap *catalog.Snapshot, err error) {
	if s.logger == nil {
		return
	}
	code := dErrors.CodeOf(err)
	args := []any{
		"operation", operation,
		"code", string(code),
		"catalog_version", snap.Version(),
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	}
	// Configuration errors are for operators; applicant input errors are routine.
	if code == dErrors.CodeConfiguration || code == dErrors.CodeInternal {
		s.logger.ErrorContext(ctx, "scheme operation failed", args...)
		return
	}
	s.logger.InfoContext(ctx, "scheme operation rejected", args...)
}

// logAudit writes the structured audit line and emits the audit event.
// Audit failures are logged and never fail the call.
func (s *Service) logAudit(ctx context.Context, event string, snap *catalog.Snapshot, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit", "catalog_version", snap.Version())
	if s.logger != nil {
		s.logger.InfoContext(ctx, event, args...)
	}
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Subject:        attrs.ExtractString(attributes, "subject"),
		Action:         event,
		Decision:       attrs.ExtractString(attributes, "decision"),
		RequestID:      requestcontext.RequestID(ctx),
		ActorID:        requestcontext.Actor(ctx),
		CatalogVersion: snap.Version(),
	})
	if err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", event, "error", err)
	}
}

func completeness(complete bool) string {
	if complete {
		return "complete"
	}
	return "incomplete"
}
