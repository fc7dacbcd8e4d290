package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"schemematch/internal/scheme/catalog"
	"schemematch/internal/scheme/handler/mocks"
	"schemematch/internal/scheme/models"
	dErrors "schemematch/pkg/domain-errors"
	"schemematch/pkg/requestcontext"
	"schemematch/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	service   *mocks.MockService
	refresher *mocks.MockRefresher
	router    chi.Router
	now       time.Time
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.T().Cleanup(ctrl.Finish)
	s.service = mocks.NewMockService(ctrl)
	s.refresher = mocks.NewMockRefresher(ctrl)
	s.now = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	h := New(s.service, s.refresher, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			req = testutil.WithRequestTime(req, s.now)
			next.ServeHTTP(w, testutil.WithContextValue(req, requestcontext.ContextKeyRequestID, "req-1"))
		})
	})
	h.Register(r)
	h.RegisterAdmin(r)
	s.router = r
}

func (s *HandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var req *http.Request
	if body == nil {
		req = testutil.NewRequest(s.T(), method, path)
	} else {
		req = testutil.NewJSONRequest(s.T(), method, path, body)
	}
	return testutil.DoRequest(s.router, req)
}

func (s *HandlerSuite) pension() *models.Program {
	deadline := s.now.Add(10 * 24 * time.Hour)
	return &models.Program{
		ID:                "pension",
		Name:              "Old Age Pension",
		Deadline:          &deadline,
		RequiredDocuments: []string{"aadhaar"},
		SchemaRef:         "pension-form",
	}
}

func (s *HandlerSuite) TestEligibleDefaultsAsOfToRequestTime() {
	program := s.pension()
	s.service.EXPECT().FindEligible(gomock.Any(), gomock.Any(), s.now).
		DoAndReturn(func(_ context.Context, p *models.Profile, _ time.Time) ([]models.MatchResult, error) {
			s.Equal(70, *p.Age)
			return []models.MatchResult{{
				Program:           program,
				Eligible:          true,
				Score:             -1,
				SatisfiedOptional: 0,
				UnmetOptional: []models.CriterionResult{{
					Criterion: models.Criterion{ID: "bpl", Kind: models.CriterionBoolean, Attribute: "documents.bpl_card"},
					Outcome:   models.OutcomeUnknown,
				}},
			}}, nil
		})

	rr := s.do(http.MethodPost, "/schemes/eligible", map[string]any{"profile": map[string]any{"age": 70}})
	s.Equal(http.StatusOK, rr.Code)

	resp := testutil.UnmarshalResponse[EligibleResponse](s.T(), rr)
	s.Equal(s.now, resp.AsOf)
	s.Require().Len(resp.Programs, 1)
	got := resp.Programs[0]
	s.Equal("pension", got.ProgramID)
	s.Equal(-1.0, got.Score)
	s.Equal([]string{"aadhaar"}, got.RequiredDocuments)
	s.Require().Len(got.UnmetOptional, 1)
	s.Equal("unknown", got.UnmetOptional[0].Outcome)
}

func (s *HandlerSuite) TestEligibleHonorsAsOf() {
	asOf := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	s.service.EXPECT().FindEligible(gomock.Any(), gomock.Any(), asOf).Return(nil, nil)

	rr := s.do(http.MethodPost, "/schemes/eligible", map[string]any{
		"profile": map[string]any{"name": "Asha"},
		"as_of":   asOf,
	})
	s.Equal(http.StatusOK, rr.Code)
	s.JSONEq(`{"as_of":"2027-01-01T00:00:00Z","programs":[]}`, rr.Body.String())
}

func (s *HandlerSuite) TestEligibleRejectsBadRequests() {
	cases := []struct {
		name string
		body any
		code string
	}{
		{name: "no profile", body: map[string]any{}, code: "validation_error"},
		{name: "negative age", body: map[string]any{"profile": map[string]any{"age": -1}}, code: "validation_error"},
		{name: "bad postal code", body: map[string]any{"profile": map[string]any{"location": map[string]any{"postal_code": "57A"}}}, code: "validation_error"},
		{name: "unknown field", body: map[string]any{"profile": map[string]any{}, "extra": true}, code: "bad_request"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			rr := s.do(http.MethodPost, "/schemes/eligible", tc.body)
			testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, tc.code)
		})
	}
}

func (s *HandlerSuite) TestGaps() {
	program := s.pension()
	s.service.EXPECT().ExplainGaps(gomock.Any(), gomock.Any(), s.now, 2).Return([]models.Gap{{
		Program: program,
		FailedMandatory: []models.CriterionResult{
			{Criterion: models.Criterion{ID: "age", Kind: models.CriterionRange, Attribute: models.AttrAge, Mandatory: true}, Outcome: models.OutcomeUnsatisfied},
			{Criterion: models.Criterion{ID: "state", Kind: models.CriterionGeoMatch, Attribute: models.AttrLocation, Mandatory: true}, Outcome: models.OutcomeUnknown},
		},
	}}, nil)

	rr := s.do(http.MethodPost, "/schemes/gaps", map[string]any{"profile": map[string]any{"age": 40}, "limit": 2})
	s.Equal(http.StatusOK, rr.Code)

	resp := testutil.UnmarshalResponse[GapsResponse](s.T(), rr)
	s.Require().Len(resp.Gaps, 1)
	s.Equal(1, resp.Gaps[0].UnknownCount)
	s.Equal("geo-match", resp.Gaps[0].FailedMandatory[1].Kind)
}

func (s *HandlerSuite) TestGapsRejectsLimitOutOfRange() {
	rr := s.do(http.MethodPost, "/schemes/gaps", map[string]any{"profile": map[string]any{}, "limit": maxGapLimit + 1})
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
}

func (s *HandlerSuite) TestMapFields() {
	s.service.EXPECT().MapFields(gomock.Any(), "pension", gomock.Any()).Return(models.MappingResult{
		ProgramID: "pension",
		SchemaID:  "pension-form",
		Values:    map[string]string{"name": "Asha", "age": "70"},
		Missing:   []string{"address"},
	}, nil)

	rr := s.do(http.MethodPost, "/schemes/pension/fields", map[string]any{"profile": map[string]any{"name": "Asha", "age": 70}})
	s.Equal(http.StatusOK, rr.Code)
	s.JSONEq(`{
		"program_id": "pension",
		"schema_id": "pension-form",
		"values": {"name": "Asha", "age": "70"},
		"missing": ["address"],
		"invalid": [],
		"complete": false
	}`, rr.Body.String())
}

func (s *HandlerSuite) TestServiceErrorsMapToStatus() {
	cases := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{
			name:   "unknown program",
			err:    dErrors.New(dErrors.CodeNotFound, "program ghost not found"),
			status: http.StatusNotFound,
			body:   `{"error":"not_found","error_description":"program ghost not found"}`,
		},
		{
			name:   "configuration error hides detail",
			err:    dErrors.New(dErrors.CodeConfiguration, "schema pension-form is missing"),
			status: http.StatusInternalServerError,
			body:   `{"error":"configuration_error"}`,
		},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.service.EXPECT().MapFields(gomock.Any(), "ghost", gomock.Any()).Return(models.MappingResult{}, tc.err)

			rr := s.do(http.MethodPost, "/schemes/ghost/fields", map[string]any{"profile": map[string]any{}})
			s.Equal(tc.status, rr.Code)
			s.JSONEq(tc.body, rr.Body.String())
		})
	}
}

func (s *HandlerSuite) TestDocumentsConfigurationErrorIsOpaque() {
	s.service.EXPECT().RequiredDocuments(gomock.Any(), "pension").
		Return(nil, dErrors.New(dErrors.CodeConfiguration, "program pension references missing schema"))

	rr := s.do(http.MethodGet, "/schemes/pension/documents", nil)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, "configuration_error")
	testutil.AssertNoDescription(s.T(), rr)
}

func (s *HandlerSuite) TestValidate() {
	s.service.EXPECT().Validate(gomock.Any(), "pension", models.MappingResult{
		ProgramID: "pension",
		Values:    map[string]string{"name": "Asha"},
		Missing:   []string{"age"},
		Complete:  true,
	}).Return([]models.Violation{
		{Key: "age", Rule: models.RuleMissingRequired, Message: "required field age has no value"},
		{Rule: models.RuleCompleteFlag, Message: "complete flag does not match missing fields"},
	}, nil)

	rr := s.do(http.MethodPost, "/schemes/pension/validate", map[string]any{
		"values":   map[string]string{"name": "Asha"},
		"missing":  []string{"age"},
		"complete": true,
	})
	s.Equal(http.StatusOK, rr.Code)

	resp := testutil.UnmarshalResponse[ValidateResponse](s.T(), rr)
	s.False(resp.Valid)
	s.Require().Len(resp.Violations, 2)
	s.Equal("missing_required", resp.Violations[0].Rule)
	s.Equal("complete_flag", resp.Violations[1].Rule)
}

func (s *HandlerSuite) TestValidateCleanResult() {
	s.service.EXPECT().Validate(gomock.Any(), "pension", gomock.Any()).Return(nil, nil)

	rr := s.do(http.MethodPost, "/schemes/pension/validate", map[string]any{
		"values":   map[string]string{"name": "Asha"},
		"complete": true,
	})
	s.Equal(http.StatusOK, rr.Code)
	s.JSONEq(`{"valid":true,"violations":[]}`, rr.Body.String())
}

func (s *HandlerSuite) TestDocuments() {
	s.service.EXPECT().RequiredDocuments(gomock.Any(), "no-docs").Return(nil, nil)

	rr := s.do(http.MethodGet, "/schemes/no-docs/documents", nil)
	s.Equal(http.StatusOK, rr.Code)
	s.JSONEq(`{"program_id":"no-docs","documents":[]}`, rr.Body.String())
}

func (s *HandlerSuite) TestCatalog() {
	c := catalog.New(catalog.WithClock(func() time.Time { return s.now }))
	past := s.now.Add(-time.Hour)
	snap, err := c.Refresh([]models.Program{
		{ID: "closed", Name: "Closed Scheme", Deadline: &past},
		*s.pension(),
	}, []models.FieldSchema{{
		ID:     "pension-form",
		Fields: []models.FieldDefinition{{Key: "name", Source: models.AttrName, Required: true}},
	}}, catalog.WithSource("file"))
	s.Require().NoError(err)
	s.service.EXPECT().Snapshot().Return(snap)

	rr := s.do(http.MethodGet, "/schemes/catalog", nil)
	s.Equal(http.StatusOK, rr.Code)

	resp := testutil.UnmarshalResponse[CatalogResponse](s.T(), rr)
	s.Equal(uint64(1), resp.Version)
	s.Equal("file", resp.Source)
	s.Equal(1, resp.SchemaCount)
	s.Require().Len(resp.Programs, 2)
	s.Equal("closed", resp.Programs[0].ID)
	s.False(resp.Programs[0].Open)
	s.True(resp.Programs[1].Open)
	s.True(resp.Programs[1].HasForm)
}

func (s *HandlerSuite) TestRefresh() {
	snap, err := catalog.New().Refresh([]models.Program{*s.pension()}, nil, catalog.WithSource("postgres"))
	s.Require().NoError(err)
	s.refresher.EXPECT().Refresh(gomock.Any()).Return(snap, nil)

	rr := s.do(http.MethodPost, "/admin/catalog/refresh", nil)
	s.Equal(http.StatusOK, rr.Code)
	resp := testutil.UnmarshalResponse[CatalogResponse](s.T(), rr)
	s.Equal("postgres", resp.Source)
}

func (s *HandlerSuite) TestRefreshFailure() {
	s.refresher.EXPECT().Refresh(gomock.Any()).
		Return(nil, dErrors.Wrap(errors.New("dial tcp"), dErrors.CodeUnavailable, "catalog source postgres unavailable"))

	rr := s.do(http.MethodPost, "/admin/catalog/refresh", nil)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusServiceUnavailable, "unavailable")
}

func TestRefreshWithoutRefresher(t *testing.T) {
	h := New(nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.RegisterAdmin(r)

	rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodPost, "/admin/catalog/refresh"))
	testutil.AssertStatusAndError(t, rr, http.StatusServiceUnavailable, "unavailable")
}

func TestValidateRequestCopiesInput(t *testing.T) {
	req := &ValidateRequest{Values: map[string]string{"a": "1"}, Missing: []string{"b"}}
	result := req.toResult("p")
	result.Values["a"] = "changed"
	result.Missing[0] = "changed"

	if req.Values["a"] != "1" || req.Missing[0] != "b" {
		t.Fatal("toResult must not alias the request")
	}
	if result.ProgramID != "p" {
		t.Fatalf("program id = %q", result.ProgramID)
	}
}
