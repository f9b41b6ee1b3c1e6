package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracing(t *testing.T) {
	var captured string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = TraceIDFromContext(r.Context())
	})

	t.Run("valid inbound id is kept", func(t *testing.T) {
		inbound := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(traceIDHeader, inbound)
		rec := httptest.NewRecorder()

		Tracing(next).ServeHTTP(rec, req)

		assert.Equal(t, inbound, captured)
		assert.Equal(t, inbound, rec.Header().Get(traceIDHeader))
	})

	t.Run("missing id is generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		Tracing(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		_, err := uuid.Parse(captured)
		require.NoError(t, err)
		assert.Equal(t, captured, rec.Header().Get(traceIDHeader))
	})

	t.Run("garbage id is replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(traceIDHeader, "not-a-uuid\ninjected")
		rec := httptest.NewRecorder()

		Tracing(next).ServeHTTP(rec, req)

		_, err := uuid.Parse(captured)
		require.NoError(t, err)
		assert.NotContains(t, rec.Header().Get(traceIDHeader), "injected")
	})
}
