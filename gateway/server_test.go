package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCancelWithoutCSRFTokenIsRejected(t *testing.T) {
	canceled := false
	s := New(":0", func() { canceled = true })
	handler := s.Handler()

	req := httptest.NewRequest(http.MethodPost, "/cancel", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.False(t, canceled)
}

func TestStatusPageServesCSRFToken(t *testing.T) {
	s := New(":0", func() {})
	handler := s.Handler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "gorilla.csrf.Token")
}
