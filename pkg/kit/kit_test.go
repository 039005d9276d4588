package kit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError_Envelope(t *testing.T) {
	h := chimw.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusNotFound, "Part is not available", map[string]any{"id": "p9"})
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/product/p9", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.False(t, got.Success)
	assert.Equal(t, "Part is not available", got.Message)
	assert.NotEmpty(t, got.RequestID)
}

func TestMetricsAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	cases := []struct {
		name, token, header string
		want                int
	}{
		{"closed when no token", "", "", http.StatusForbidden},
		{"closed when no token even with empty bearer", "", "Bearer ", http.StatusForbidden},
		{"missing header", "s3cret", "", http.StatusForbidden},
		{"wrong scheme", "s3cret", "Basic s3cret", http.StatusForbidden},
		{"wrong token", "s3cret", "Bearer nope", http.StatusForbidden},
		{"valid", "s3cret", "Bearer s3cret", http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			MetricsAuth(tc.token)(ok).ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestMetrics_MiddlewareUsesRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	r := chi.NewRouter()
	r.Use(m.Middleware("catalog", ChiRoutePatternOrPath))
	r.Get("/api/product/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/product/"+id, nil))
	}

	got := testutil.ToFloat64(m.Requests.WithLabelValues("catalog", http.MethodGet, "/api/product/{id}", "404"))
	assert.Equal(t, 3.0, got)
}

func TestMetrics_OutcomeNilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.Outcome("search", "hit") })

	m = NewMetrics(prometheus.NewRegistry())
	m.Outcome("search", "miss")
	m.Outcome("search", "miss")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Outcomes.WithLabelValues("search", "miss")))
}
