package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdminLoginAndListTransactions(t *testing.T) {
	fx := newTestApp(t, "http://gateway.invalid")

	resp := postJSON(t, fx.app, "/api/auth/login", `{"username":"operator","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = postJSON(t, fx.app, "/api/auth/login", `{"username":"operator","password":"operator-secret"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := decodeBody(t, resp)["token"].(string)
	require.NotEmpty(t, token)

	req := httptest.NewRequest(http.MethodGet, "/api/payments/transactions", nil)
	unauthorized, err := fx.app.Test(req, 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, unauthorized.StatusCode)

	postJSON(t, fx.app, "/api/payments/notification", `{"Transaction":{"Id":"X1","Status":"CAPTURED"}}`)

	req = httptest.NewRequest(http.MethodGet, "/api/payments/transactions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	authorized, err := fx.app.Test(req, 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, authorized.StatusCode)
}

func TestAdminLoginMissingFields(t *testing.T) {
	fx := newTestApp(t, "http://gateway.invalid")

	resp := postJSON(t, fx.app, "/api/auth/login", `{"username":"operator"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
