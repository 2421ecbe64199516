package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/emmaarthur191/coastal-project-sub004/internal/domain"
)

func TestParseUser(t *testing.T) {
	u, err := parseUser("u1=Ama Serwaa Mensah")
	require.NoError(t, err)
	require.Equal(t, domain.User{ID: "u1", FirstName: "Ama", LastName: "Serwaa Mensah"}, u)

	u, err = parseUser("u2=")
	require.NoError(t, err)
	require.Equal(t, "u2", u.DisplayName())

	_, err = parseUser("nobody")
	require.Error(t, err)
}

func TestAccessLogRecordsStatus(t *testing.T) {
	h := accessLog(zaptest.NewLogger(t), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/x", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)
}
