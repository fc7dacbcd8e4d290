package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	platformmetrics "schemematch/internal/platform/metrics"
	"schemematch/internal/scheme/catalog"
	"schemematch/internal/scheme/handler"
	"schemematch/internal/scheme/matcher"
	"schemematch/internal/scheme/refresh"
	"schemematch/internal/scheme/service"
	"schemematch/internal/scheme/store"
	"schemematch/pkg/platform/audit"
	"schemematch/pkg/platform/audit/publisher"
	"schemematch/pkg/platform/audit/store/memory"
	"schemematch/pkg/platform/middleware/auth"
	"schemematch/pkg/platform/middleware/metadata"
	"schemematch/pkg/testutil"
)

const routerCatalog = `
version: "1.0.0"
programs:
  - id: pension
    name: Old Age Pension
    schema: pension-form
    required_documents: [aadhaar, age_proof]
    criteria:
      - kind: range
        attribute: age
        mandatory: true
        params: {min: 60}
schemas:
  - id: pension-form
    fields:
      - {key: name, source: name, required: true}
      - {key: age, source: age, required: true}
      - {key: address, source: location, required: true}
`

const routerKey = "router-test-key-router-test-key!"

type RouterSuite struct {
	suite.Suite
	router  http.Handler
	catalog *catalog.Catalog
	events  *memory.InMemoryStore
	signer  *auth.Signer
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	path := filepath.Join(s.T().TempDir(), "catalog.yaml")
	s.Require().NoError(os.WriteFile(path, []byte(routerCatalog), 0o600))

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.events = memory.NewInMemoryStore()
	pub := publisher.NewPublisher(s.events)
	s.T().Cleanup(pub.Close)

	s.catalog = catalog.New()
	svc := service.New(s.catalog, matcher.New(matcher.DefaultConfig()),
		service.WithLogger(log),
		service.WithAuditPublisher(pub),
	)
	refresher := refresh.New(s.catalog, store.NewFileSource(path),
		refresh.WithLogger(log),
		refresh.WithAuditPublisher(pub),
	)

	s.signer = auth.NewSigner(routerKey, "schemematch")
	s.router = newRouter(routerDeps{
		handler:     handler.New(svc, refresher, log),
		httpMetrics: platformmetrics.NewWithRegisterer(prometheus.NewRegistry()),
		audit:       pub,
		logger:      log,
		jwtKey:      routerKey,
		jwtIssuer:   "schemematch",
		ready:       func() bool { return svc.CatalogVersion() > 0 },
	})
}

func (s *RouterSuite) token(role string) string {
	token, err := s.signer.IssueToken("ops", role, time.Minute)
	s.Require().NoError(err)
	return token
}

func (s *RouterSuite) refresh(role string) int {
	req := testutil.NewRequest(s.T(), http.MethodPost, "/admin/catalog/refresh")
	if role != "" {
		req = testutil.WithBearer(req, s.token(role))
	}
	return testutil.DoRequest(s.router, req).Code
}

func (s *RouterSuite) TestHealthzWaitsForCatalog() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
	s.Equal(http.StatusServiceUnavailable, rr.Code)

	s.Equal(http.StatusOK, s.refresh(auth.RoleAdmin))

	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
	s.Equal(http.StatusOK, rr.Code)
}

func (s *RouterSuite) TestAdminRefreshRequiresAdminToken() {
	s.Equal(http.StatusUnauthorized, s.refresh(""))
	s.Equal(http.StatusForbidden, s.refresh("viewer"))
	s.Equal(uint64(0), s.catalog.Snapshot().Version())

	denied, err := s.events.ListBySubject(context.Background(), "/admin/catalog/refresh")
	s.Require().NoError(err)
	s.Require().Len(denied, 1)
	s.Equal(string(audit.EventAdminAccessDenied), denied[0].Action)

	s.Equal(http.StatusOK, s.refresh(auth.RoleAdmin))
	s.Equal(uint64(1), s.catalog.Snapshot().Version())
}

func (s *RouterSuite) TestEndToEndMatchAndMap() {
	s.Require().Equal(http.StatusOK, s.refresh(auth.RoleAdmin))

	profile := map[string]any{"name": "Asha", "age": 70}
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/schemes/eligible", map[string]any{"profile": profile}))
	s.Equal(http.StatusOK, rr.Code)
	eligible := testutil.UnmarshalResponse[handler.EligibleResponse](s.T(), rr)
	s.Require().Len(eligible.Programs, 1)
	s.Equal("pension", eligible.Programs[0].ProgramID)
	s.NotEmpty(rr.Header().Get(metadata.HeaderRequestID))

	rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/schemes/pension/fields", map[string]any{"profile": profile}))
	s.Equal(http.StatusOK, rr.Code)
	mapping := testutil.UnmarshalResponse[handler.MappingResponse](s.T(), rr)
	s.False(mapping.Complete)
	s.Equal([]string{"address"}, mapping.Missing)
	s.Equal(map[string]string{"name": "Asha", "age": "70"}, mapping.Values)

	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/schemes/ghost/documents"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
}

func TestRouterWithoutSigningKeyHasNoAdminRoutes(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(catalog.New(), matcher.New(matcher.DefaultConfig()))
	r := newRouter(routerDeps{
		handler:     handler.New(svc, nil, log),
		httpMetrics: platformmetrics.NewWithRegisterer(prometheus.NewRegistry()),
		logger:      log,
		ready:       func() bool { return true },
	})

	rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodPost, "/admin/catalog/refresh"))
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}
