package verification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"carriercheck/internal/domain"
)

// =============================================================================
// Client Test Suite
// =============================================================================
// Justification for unit tests: retry counts, redaction and the failure
// taxonomy are only observable against a controllable upstream.

type ClientSuite struct {
	suite.Suite
	calls    atomic.Int32
	handler  http.HandlerFunc
	server   *httptest.Server
	now      time.Time
	lastPath string
	lastKey  string
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.calls.Store(0)
	s.now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.handler = nil
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		s.lastPath = r.URL.Path
		s.lastKey = r.URL.Query().Get("webKey")
		s.handler(w, r)
	}))
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
}

func (s *ClientSuite) newClient(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = s.server.URL
	}
	if cfg.WebKey == "" {
		cfg.WebKey = "secret-key"
	}
	opts = append([]Option{WithClock(func() time.Time { return s.now })}, opts...)
	return NewClient(cfg, opts...)
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

// =============================================================================
// Payload Handling
// =============================================================================

func (s *ClientSuite) TestPayloads() {
	s.Run("nested carrier allowed to operate is valid", func() {
		s.handler = respond(http.StatusOK, `{"content":{"carrier":{"allowedToOperate":"Y","dotNumber":1234567,"legalName":"ACME TRUCKING LLC"}}}`)
		res := s.newClient(Config{}).Verify(context.Background(), "MC-123456")

		s.True(res.Valid)
		s.Equal("Y", *res.AllowedToOperate)
		s.Equal("1234567", *res.DOTNumber)
		s.Equal("ACME TRUCKING LLC", *res.CarrierName)
		s.Nil(res.Error)
		s.Equal("/carriers/123456", s.lastPath)
		s.Equal("secret-key", s.lastKey)
		s.Equal(s.now, res.CheckedAt)
		s.JSONEq(`{"content":{"carrier":{"allowedToOperate":"Y","dotNumber":1234567,"legalName":"ACME TRUCKING LLC"}}}`, string(res.Raw))
	})

	s.Run("flat content with lowercase flag is valid", func() {
		s.handler = respond(http.StatusOK, `{"content":{"allowedToOperate":"y","dotNumber":"42"}}`)
		res := s.newClient(Config{}).Verify(context.Background(), "42")

		s.True(res.Valid)
		s.Equal("42", *res.DOTNumber)
		s.Nil(res.CarrierName)
	})

	s.Run("usdotNumber used when dotNumber absent", func() {
		s.handler = respond(http.StatusOK, `{"content":{"carrier":{"allowedToOperate":"N","usdotNumber":"99"}}}`)
		res := s.newClient(Config{}).Verify(context.Background(), "99")

		s.False(res.Valid)
		s.Equal("99", *res.DOTNumber)
		s.Equal("N", *res.AllowedToOperate)
		s.Nil(res.Error)
	})

	s.Run("null content is not found", func() {
		s.handler = respond(http.StatusOK, `{"content":null}`)
		res := s.newClient(Config{}).Verify(context.Background(), "1")

		s.False(res.Valid)
		s.Require().NotNil(res.Error)
		s.Equal(domain.ErrCarrierNotFound, *res.Error)
	})

	s.Run("malformed body is not found with empty raw", func() {
		s.handler = respond(http.StatusOK, `<html>oops`)
		res := s.newClient(Config{}).Verify(context.Background(), "1")

		s.False(res.Valid)
		s.Require().NotNil(res.Error)
		s.Equal(domain.ErrCarrierNotFound, *res.Error)
		s.Equal("{}", string(res.Raw))
	})

	s.Run("trailing data after the object is malformed", func() {
		s.handler = respond(http.StatusOK, `{"content":{"allowedToOperate":"Y"}} trailing`)
		res := s.newClient(Config{}).Verify(context.Background(), "1")

		s.False(res.Valid)
		s.Require().NotNil(res.Error)
		s.Equal(domain.ErrCarrierNotFound, *res.Error)
		s.Equal("{}", string(res.Raw))

		_, err := json.Marshal(res)
		s.NoError(err, "verification must stay serializable for persistence")
	})
}

// =============================================================================
// Preconditions
// =============================================================================

func (s *ClientSuite) TestMissingInputsSkipNetwork() {
	s.handler = respond(http.StatusOK, `{}`)

	s.Run("empty mc after normalization", func() {
		res := s.newClient(Config{}).Verify(context.Background(), "MC-")
		s.False(res.Valid)
		s.Require().NotNil(res.Error)
		s.Equal(domain.ErrMissingWebKeyOrMC, *res.Error)
		s.Empty(res.Endpoint)
		s.Equal(s.now, res.CheckedAt)
	})

	s.Run("blank web key", func() {
		c := NewClient(Config{BaseURL: s.server.URL, WebKey: "  "})
		res := c.Verify(context.Background(), "123")
		s.Require().NotNil(res.Error)
		s.Equal(domain.ErrMissingWebKeyOrMC, *res.Error)
	})

	s.Equal(int32(0), s.calls.Load())
}

// =============================================================================
// Retry Policy
// =============================================================================

func (s *ClientSuite) TestRetryPolicy() {
	s.Run("non-2xx fails without retry", func() {
		s.calls.Store(0)
		s.handler = respond(http.StatusNotFound, `{}`)
		res := s.newClient(Config{MaxRetries: 3}).Verify(context.Background(), "123")

		s.False(res.Valid)
		s.Require().NotNil(res.Error)
		s.Equal("HTTP Error 404: Not Found", *res.Error)
		s.Equal(int32(1), s.calls.Load())
	})

	s.Run("timeouts retried up to max retries", func() {
		s.calls.Store(0)
		s.handler = func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}
		reg := prometheus.NewRegistry()
		m := NewMetrics(reg)
		res := s.newClient(Config{MaxRetries: 2, Timeout: 20 * time.Millisecond}, WithMetrics(m)).
			Verify(context.Background(), "123")

		s.False(res.Valid)
		s.Require().NotNil(res.Error)
		s.Equal(int32(3), s.calls.Load())
		s.Equal(float64(3), testutil.ToFloat64(m.Attempts.WithLabelValues(string(ErrorTimeout))))
		s.Equal(float64(1), testutil.ToFloat64(m.Results.WithLabelValues("false")))
	})

	s.Run("timeout followed by success", func() {
		s.calls.Store(0)
		s.handler = func(w http.ResponseWriter, r *http.Request) {
			if s.calls.Load() == 1 {
				<-r.Context().Done()
				return
			}
			respond(http.StatusOK, `{"content":{"allowedToOperate":"Y"}}`)(w, r)
		}
		res := s.newClient(Config{MaxRetries: 1, Timeout: 20 * time.Millisecond}).
			Verify(context.Background(), "123")

		s.True(res.Valid)
		s.Equal(int32(2), s.calls.Load())
		s.Equal(s.now, res.CheckedAt)
	})

	s.Run("backoff doubles between timed out attempts", func() {
		s.calls.Store(0)
		var (
			mu       sync.Mutex
			arrivals []time.Time
		)
		s.handler = func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			arrivals = append(arrivals, time.Now())
			mu.Unlock()
			<-r.Context().Done()
		}
		base := 50 * time.Millisecond
		res := s.newClient(Config{MaxRetries: 3, Backoff: base, Timeout: 10 * time.Millisecond}).
			Verify(context.Background(), "123")

		s.False(res.Valid)
		mu.Lock()
		defer mu.Unlock()
		s.Require().Len(arrivals, 4)
		var gaps []time.Duration
		for i := 1; i < len(arrivals); i++ {
			gaps = append(gaps, arrivals[i].Sub(arrivals[i-1]))
		}
		for i, gap := range gaps {
			s.GreaterOrEqual(gap, base<<i, "gap %d", i)
		}
		s.Greater(gaps[1], gaps[0])
		s.Greater(gaps[2], gaps[1])
		// A constant schedule would leave the last gap near base plus the timeout.
		s.Greater(gaps[2], 3*base)
	})
}

// =============================================================================
// Redaction
// =============================================================================

func (s *ClientSuite) TestRedaction() {
	s.Run("endpoint never carries the key", func() {
		s.handler = respond(http.StatusOK, `{"content":{"allowedToOperate":"Y"}}`)
		res := s.newClient(Config{WebKey: "k+y/1"}).Verify(context.Background(), "7")

		s.Equal("k+y/1", s.lastKey)
		s.NotContains(res.Endpoint, "k+y/1")
		s.NotContains(res.Endpoint, "k%2By%2F1")
		s.True(strings.HasSuffix(res.Endpoint, "/carriers/7?webKey=****"))
	})

	s.Run("transport error text is redacted", func() {
		c := NewClient(Config{BaseURL: "http://127.0.0.1:1", WebKey: "topsecret"})
		res := c.Verify(context.Background(), "7")

		s.False(res.Valid)
		s.Require().NotNil(res.Error)
		s.NotContains(*res.Error, "topsecret")
		s.Contains(*res.Error, "****")
	})
}
