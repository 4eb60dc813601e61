package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carriercheck/internal/intake/handler"
	"carriercheck/internal/intake/service"
	"carriercheck/internal/loads"
	"carriercheck/internal/results"
	"carriercheck/internal/results/store"
	"carriercheck/internal/verification"
	"carriercheck/pkg/testutil"
)

// newStack wires the real service and an in-memory store behind the router.
func newStack(t *testing.T) http.Handler {
	t.Helper()
	registry := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":{"carrier":{"allowedToOperate":"Y","dotNumber":7654321}}}`))
	}))
	t.Cleanup(registry.Close)

	verifier := verification.NewClient(verification.Config{BaseURL: registry.URL, WebKey: "k"})
	repo := results.New(store.NewMemory())
	svc := service.New(verifier, loads.StaticSource{}, repo,
		service.WithClock(testutil.SteppingClock(time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC), time.Second)),
	)

	router := chi.NewRouter()
	handler.New(svc, repo, nil).Register(router)
	return router
}

func TestOffersSurviveStorage(t *testing.T) {
	router := newStack(t)

	rr := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodPost, "/",
		`{"mc_number":"MC-12345","origin":"Dallas, TX","destination":"Atlanta, GA","pickup_datetime":"2024-05-01T08:00:00Z","equipment_type":"Dry Van"}`))
	testutil.AssertStatusOK(t, rr)
	var created struct {
		RequestID string `json:"request_id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.NotEmpty(t, created.RequestID)

	testutil.When(t, "enriched with a numeric and a textual offer", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodPost, "/",
			`{"request_id":"`+created.RequestID+`","rate_offer":2100.50,"counter_offer":"$1,800"}`))
		testutil.AssertStatusOK(t, rr)

		testutil.Then(t, "retrieve returns each offer with its original JSON type", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/"+created.RequestID))
			testutil.AssertStatusOK(t, rr)

			var body struct {
				Result struct {
					Intake map[string]any `json:"intake"`
				} `json:"result"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))

			rate, ok := body.Result.Intake["rate_offer"].(float64)
			require.True(t, ok, "rate_offer should be a JSON number, got %T", body.Result.Intake["rate_offer"])
			assert.InDelta(t, 2100.5, rate, 1e-9)

			counter, ok := body.Result.Intake["counter_offer"].(string)
			require.True(t, ok, "counter_offer should be a JSON string, got %T", body.Result.Intake["counter_offer"])
			assert.Equal(t, "$1,800", counter)
		})
	})
}
