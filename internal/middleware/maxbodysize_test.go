package middleware_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/tripcore/internal/middleware"
)

// echoHandler reads the full body and reports the read error status.
// MaxBytesReader surfaces the limit as a read error inside the handler,
// which is the behaviour these tests assert on.
var echoHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	if _, err := io.ReadAll(r.Body); err != nil {
		http.Error(w, "body too large", http.StatusRequestEntityTooLarge)
		return
	}
	w.WriteHeader(http.StatusOK)
})

// TestMaxBodySize_UnderLimit verifies that requests within the limit pass
// through untouched.
func TestMaxBodySize_UnderLimit(t *testing.T) {
	h := middleware.NewMaxBodySizeHandler(64)(echoHandler)

	req := httptest.NewRequest(http.MethodPost, "/trips", strings.NewReader("small body"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

// TestMaxBodySize_ContentLengthOverLimit verifies that a request whose
// declared Content-Length exceeds the limit is rejected before the handler runs.
func TestMaxBodySize_ContentLengthOverLimit(t *testing.T) {
	handlerRan := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerRan = true
	})
	h := middleware.NewMaxBodySizeHandler(8)(next)

	req := httptest.NewRequest(http.MethodPost, "/trips", strings.NewReader("this body is well over eight bytes"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.False(t, handlerRan, "handler must not run for oversized Content-Length")
}

// TestMaxBodySize_ChunkedOverLimit verifies that a request without a declared
// Content-Length is still capped: the handler's body read fails at the limit.
func TestMaxBodySize_ChunkedOverLimit(t *testing.T) {
	h := middleware.NewMaxBodySizeHandler(8)(echoHandler)

	req := httptest.NewRequest(http.MethodPost, "/trips", strings.NewReader("this body is well over eight bytes"))
	// Simulate a chunked request: no Content-Length advertised.
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
