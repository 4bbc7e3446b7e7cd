package middleware

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/playersession/internal/testutil"
)

func TestLoggingRecordsStatus(t *testing.T) {
	logger, rec := testutil.CaptureLogger()
	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	entries := rec.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "http request", entries[0]["msg"])
	assert.Equal(t, float64(http.StatusTeapot), entries[0]["status"])
	assert.Equal(t, float64(len("short and stout")), entries[0]["size"])
}

func TestRecoveryUsesPanicHandler(t *testing.T) {
	logger, rec := testutil.CaptureLogger()
	h := Recovery(logger, DefaultPanicHandler)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, []string{"panic recovered"}, rec.Messages())
}

func TestGuard(t *testing.T) {
	logger, rec := testutil.CaptureLogger()

	assert.True(t, Guard(logger, func() {}))
	assert.False(t, Guard(logger, func() { panic("boom") }, "connection_id", 4))

	entries := rec.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "boom", entries[0]["error"])
	assert.Equal(t, float64(4), entries[0]["connection_id"])
}

// hijackRecorder is a ResponseRecorder that can be hijacked
type hijackRecorder struct {
	*httptest.ResponseRecorder
	hijacked bool
}

func (h *hijackRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h.hijacked = true
	return nil, nil, nil
}

func TestResponseWriterPassesHijack(t *testing.T) {
	inner := &hijackRecorder{ResponseRecorder: httptest.NewRecorder()}
	rw := &ResponseWriter{ResponseWriter: inner, status: http.StatusOK}

	_, _, err := rw.Hijack()
	require.NoError(t, err)
	assert.True(t, inner.hijacked)
	assert.Equal(t, http.StatusSwitchingProtocols, rw.Status())

	plain := &ResponseWriter{ResponseWriter: httptest.NewRecorder()}
	_, _, err = plain.Hijack()
	assert.Error(t, err)
}
