package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service,HealthChecker

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"carriercheck/internal/domain"
	"carriercheck/internal/intake/handler/mocks"
	"carriercheck/internal/intake/service"
	dErrors "carriercheck/pkg/domain-errors"
	"carriercheck/pkg/platform/sentinel"
	"carriercheck/pkg/testutil"
)

// =============================================================================
// Handler Test Suite
// =============================================================================
// Justification for unit tests: create vs enrich dispatch on the request_id
// key and the status mapping are boundary concerns the service never sees.

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	health  *mocks.MockHealthChecker
	router  chi.Router
	now     time.Time
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.health = mocks.NewMockHealthChecker(s.ctrl)
	s.now = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	s.router = chi.NewRouter()
	New(s.service, s.health, nil).Register(s.router)
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

// =============================================================================
// Create
// =============================================================================

func (s *HandlerSuite) TestCreate() {
	s.Run("valid intake returns summary", func() {
		s.service.EXPECT().Create(gomock.Any(), domain.IntakeFields{
			MCNumber:       "123456",
			Origin:         "Dallas, TX",
			Destination:    "Atlanta, GA",
			PickupDatetime: "2025-06-02T08:00:00Z",
			EquipmentType:  "Dry Van",
		}).Return(&service.CreateResult{
			RequestID:  "req-1",
			ReceivedAt: s.now,
			Summary:    domain.Summary{MCValid: true, MatchesCount: 2, Status: domain.StatusReady},
		}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/", map[string]any{
			"mc_number":       123456,
			"origin":          "Dallas, TX",
			"destination":     "Atlanta, GA",
			"pickup_datetime": "2025-06-02T08:00:00Z",
			"equipment_type":  "Dry Van",
		}))

		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[createResponse](s.T(), rr)
		s.True(resp.OK)
		s.Equal("req-1", resp.RequestID)
		s.Equal(s.now, resp.ReceivedAt)
		s.Equal(2, resp.Summary.MatchesCount)
		s.True(resp.Summary.MCValid)
	})

	s.Run("validation errors list every field", func() {
		s.service.EXPECT().Create(gomock.Any(), domain.IntakeFields{}).Return(nil,
			dErrors.NewValidation("Missing or invalid fields", map[string]string{
				"mc_number": domain.FieldViolationMessage,
				"origin":    domain.FieldViolationMessage,
			}))

		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/", ""))

		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
		resp := testutil.UnmarshalErrorResponse(s.T(), rr)
		s.Equal(false, resp["ok"])
		s.Equal("validation_error", resp["error"])
		s.Len(resp["errors"], 2)
	})

	s.Run("object-valued field is blank", func() {
		s.service.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ any, f domain.IntakeFields) (*service.CreateResult, error) {
				s.Empty(f.Origin)
				s.Equal("true", f.EquipmentType)
				return nil, dErrors.NewValidation("Missing or invalid fields", map[string]string{"origin": domain.FieldViolationMessage})
			})

		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/",
			`{"origin":{"city":"Dallas"},"equipment_type":true}`))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})

	s.Run("malformed json", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/", `{"mc_number":`))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("non-object json", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/", `["mc_number"]`))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})
}

// =============================================================================
// Enrich
// =============================================================================

func (s *HandlerSuite) TestEnrich() {
	s.Run("request_id key dispatches to enrich", func() {
		s.service.EXPECT().Enrich(gomock.Any(), "req-1", gomock.Any()).DoAndReturn(
			func(_ any, _ string, u domain.IntakeUpdate) (*service.EnrichResult, error) {
				s.Require().NotNil(u.Outcome)
				s.Equal("booked", *u.Outcome)
				s.Require().NotNil(u.RateOffer)
				s.True(u.RateOffer.Equal(domain.OfferAmount(decimal.RequireFromString("2100.5"))))
				s.Require().NotNil(u.CounterOffer)
				s.True(u.CounterOffer.Equal(domain.OfferText("$2,200")))
				s.Nil(u.Sentiment, "null is not supplied")
				return &service.EnrichResult{RequestID: "req-1", UpdatedAt: s.now}, nil
			})

		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/",
			`{"request_id":" req-1 ","outcome":"booked","rate_offer":2100.5,"counter_offer":"$2,200","sentiment":null,"mc_number":"999"}`))

		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[enrichResponse](s.T(), rr)
		s.True(resp.OK)
		s.Equal("req-1", resp.RequestID)
		s.Equal(s.now, resp.UpdatedAt)
	})

	s.Run("offer that is neither number nor string is a field violation", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/",
			`{"request_id":"req-1","rate_offer":{"amount":1800}}`))

		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
		resp := testutil.UnmarshalErrorResponse(s.T(), rr)
		s.Contains(resp["errors"], "rate_offer")
	})

	s.Run("status mapping", func() {
		cases := []struct {
			name   string
			err    error
			status int
			code   string
		}{
			{"blank id", dErrors.New(dErrors.CodeValidation, "Invalid request_id"), http.StatusBadRequest, "validation_error"},
			{"unknown id", dErrors.Wrap(service.ErrResultNotFound, dErrors.CodeNotFound, "request_id not found"), http.StatusNotFound, "not_found"},
			{"no fields", dErrors.Wrap(service.ErrNoUpdatableFields, dErrors.CodeBadRequest, "No updatable fields provided"), http.StatusBadRequest, "bad_request"},
			{"persist failure", dErrors.Wrap(service.ErrPersistFailed, dErrors.CodeInternal, "Failed to save"), http.StatusInternalServerError, "internal_error"},
		}
		for _, tc := range cases {
			s.Run(tc.name, func() {
				s.service.EXPECT().Enrich(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, tc.err)

				rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/",
					`{"request_id":"req-1","outcome":"booked"}`))

				testutil.AssertStatusAndError(s.T(), rr, tc.status, tc.code)
			})
		}
	})
}

// =============================================================================
// Retrieve, preflight, health
// =============================================================================

func (s *HandlerSuite) TestRetrieve() {
	stored := &domain.Result{RequestID: "req-1", Status: domain.StatusReady}

	s.Run("path parameter", func() {
		s.service.EXPECT().Retrieve(gomock.Any(), "req-1").Return(stored, nil)
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/req-1"))

		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[resultResponse](s.T(), rr)
		s.True(resp.OK)
		s.Equal("req-1", resp.Result.RequestID)
	})

	s.Run("query parameter", func() {
		s.service.EXPECT().Retrieve(gomock.Any(), "req-1").Return(stored, nil)
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/?request_id=req-1"))
		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("missing id", func() {
		s.service.EXPECT().Retrieve(gomock.Any(), "").Return(nil, dErrors.New(dErrors.CodeValidation, "Missing request_id"))
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/"))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})

	s.Run("not found", func() {
		s.service.EXPECT().Retrieve(gomock.Any(), "nope").Return(nil, dErrors.Wrap(service.ErrResultNotFound, dErrors.CodeNotFound, "Not found"))
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/nope"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})
}

func (s *HandlerSuite) TestPreflight() {
	for _, path := range []string{"/", "/req-1"} {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodOptions, path))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertOK(s.T(), rr, true)
	}
}

func (s *HandlerSuite) TestHealth() {
	s.Run("healthy", func() {
		s.health.EXPECT().Health(gomock.Any()).Return(nil)
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "store", "ok")
	})

	s.Run("not configured is still healthy", func() {
		s.health.EXPECT().Health(gomock.Any()).Return(sentinel.ErrNotConfigured)
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("backend down", func() {
		s.health.EXPECT().Health(gomock.Any()).Return(errors.New("dial tcp: refused"))
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
		testutil.AssertStatus(s.T(), rr, http.StatusServiceUnavailable)
	})
}
