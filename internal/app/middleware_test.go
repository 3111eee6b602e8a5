package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithRequestLogging_CapturesStatus(t *testing.T) {
	log := NewLogger("error")
	metrics := NewMetrics()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/brew", nil)

	WithRequestLogging(next, log, metrics).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", rec.Body.String())
}

func TestLoggingResponseWriter_DefaultsToOK(t *testing.T) {
	log := NewLogger("error")
	metrics := NewMetrics()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("implicit 200"))
	})

	rec := httptest.NewRecorder()
	WithRequestLogging(next, log, metrics).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "2xx", statusLabel(http.StatusOK))
	assert.Equal(t, "3xx", statusLabel(http.StatusFound))
	assert.Equal(t, "4xx", statusLabel(http.StatusConflict))
	assert.Equal(t, "5xx", statusLabel(http.StatusInternalServerError))
}
