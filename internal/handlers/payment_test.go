package handlers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/example/paygate/internal/config"
	"github.com/example/paygate/internal/routes"
	"github.com/example/paygate/internal/store"
	"github.com/example/paygate/internal/utils"
)

type testApp struct {
	app      *fiber.App
	sessions *store.SessionStore
	ledger   *store.MemoryLedger
	cfg      *config.Config
}

func newTestApp(t *testing.T, gatewayURL string) testApp {
	t.Helper()

	passwordHash, err := utils.HashPassword("operator-secret")
	require.NoError(t, err)

	cfg := &config.Config{
		AppPort:            "8080",
		AppBaseURL:         "http://localhost:8080",
		JWTSecret:          "test-secret",
		TokenExpires:       time.Hour,
		SaferpayBaseURL:    gatewayURL,
		SaferpayCustomerID: "CUST-1",
		SaferpayTerminalID: "TERM-1",
		SaferpayUsername:   "api-user",
		SaferpayPassword:   "api-pass",
		DefaultCurrency:    "EUR",
		AdminUsername:      "operator",
		AdminPasswordHash:  passwordHash,
	}

	sessions := store.NewSessionStore()
	ledger := store.NewMemoryLedger()
	return testApp{
		app:      routes.NewApp(cfg, sessions, ledger),
		sessions: sessions,
		ledger:   ledger,
		cfg:      cfg,
	}
}

func postJSON(t *testing.T, app *fiber.App, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	return decoded
}

func TestInitEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Token":"tok-abc","Expiration":"2026-01-01T00:00:00Z","RedirectUrl":"https://gateway.example/page"}`))
	}))
	defer srv.Close()

	fx := newTestApp(t, srv.URL)

	resp := postJSON(t, fx.app, "/api/payments/init", `{"amount":10}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	require.Equal(t, true, body["success"])
	require.Equal(t, "tok-abc", body["token"])
	require.Equal(t, "https://gateway.example/page", body["redirectUrl"])
	require.Equal(t, 1, fx.sessions.Len())
}

func TestInitEndpointMissingAmount(t *testing.T) {
	fx := newTestApp(t, "http://gateway.invalid")

	resp := postJSON(t, fx.app, "/api/payments/init", `{}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Amount is required", decodeBody(t, resp)["error"])
}

func TestInitEndpointGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"ErrorName":"AUTHENTICATION_FAILED"}`))
	}))
	defer srv.Close()

	fx := newTestApp(t, srv.URL)

	resp := postJSON(t, fx.app, "/api/payments/init", `{"amount":10}`)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, "Saferpay API error", decodeBody(t, resp)["error"])
	require.Zero(t, fx.sessions.Len())
}

func TestAssertEndpointMissingToken(t *testing.T) {
	var gatewayCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gatewayCalls++
	}))
	defer srv.Close()

	fx := newTestApp(t, srv.URL)

	resp := postJSON(t, fx.app, "/api/payments/assert", `{}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Token is required", decodeBody(t, resp)["error"])
	require.Zero(t, gatewayCalls)
}

func TestAssertEndpointAuthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Transaction":{"Id":"T1","Status":"AUTHORIZED"}}`))
	}))
	defer srv.Close()

	fx := newTestApp(t, srv.URL)

	resp := postJSON(t, fx.app, "/api/payments/assert", `{"token":"tok-abc"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	require.Equal(t, true, body["success"])
	require.Equal(t, "AUTHORIZED", body["status"])
	require.Equal(t, "Payment authorized", body["message"])
	require.NotNil(t, body["transaction"])
}

func TestCaptureEndpointMissingTransactionID(t *testing.T) {
	fx := newTestApp(t, "http://gateway.invalid")

	resp := postJSON(t, fx.app, "/api/payments/capture", `{"amount":10}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "TransactionId is required", decodeBody(t, resp)["error"])
}

func TestCaptureEndpointWritesReceipt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Transaction":{"Id":"T1","Status":"CAPTURED"},"PaymentMeans":{"Brand":{"Name":"Visa"}}}`))
	}))
	defer srv.Close()

	fx := newTestApp(t, srv.URL)

	resp := postJSON(t, fx.app, "/api/payments/capture", `{"transactionId":"T3","amount":1000}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	require.Equal(t, "T1", body["transactionId"])
	require.Equal(t, "/receipt.html?transactionId=T1", body["redirectUrl"])

	receipt, ok, err := fx.ledger.Get("T1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Visa", receipt.Method)
}

func TestReturnSuccessRedirectsWithToken(t *testing.T) {
	fx := newTestApp(t, "http://gateway.invalid")
	fx.sessions.Put("ORDER-1", "tok-abc", "")

	req := httptest.NewRequest(http.MethodGet, "/api/payments/return/success?orderId=ORDER-1", nil)
	resp, err := fx.app.Test(req, 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/success.html?token=tok-abc", resp.Header.Get("Location"))
	require.Zero(t, fx.sessions.Len())
}

func TestReturnSuccessUnknownOrderDiagnostic(t *testing.T) {
	fx := newTestApp(t, "http://gateway.invalid")

	req := httptest.NewRequest(http.MethodGet, "/api/payments/return/success?orderId=ORDER-unknown", nil)
	resp, err := fx.app.Test(req, 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	location := resp.Header.Get("Location")
	require.True(t, strings.HasPrefix(location, "/error.html?message="))

	message, err := url.QueryUnescape(strings.TrimPrefix(location, "/error.html?message="))
	require.NoError(t, err)
	require.Contains(t, message, "orderId=ORDER-unknown")
}

func TestNotificationThenLookup(t *testing.T) {
	fx := newTestApp(t, "http://gateway.invalid")

	resp := postJSON(t, fx.app, "/api/payments/notification", `{"Transaction":{"Id":"X9","Status":"CAPTURED","Amount":{"Value":1000,"CurrencyCode":"EUR"}}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "OK", string(data))

	req := httptest.NewRequest(http.MethodGet, "/api/payments/transaction/X9", nil)
	lookup, err := fx.app.Test(req, 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, lookup.StatusCode)

	body := decodeBody(t, lookup)
	require.Equal(t, "CAPTURED", body["status"])
	require.Equal(t, float64(1000), body["amount"])
}

func TestNotificationAcknowledgesGarbage(t *testing.T) {
	fx := newTestApp(t, "http://gateway.invalid")

	resp := postJSON(t, fx.app, "/api/payments/notification", `definitely not json`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTransactionNotFound(t *testing.T) {
	fx := newTestApp(t, "http://gateway.invalid")

	req := httptest.NewRequest(http.MethodGet, "/api/payments/transaction/unknown", nil)
	resp, err := fx.app.Test(req, 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "Transaction not found", decodeBody(t, resp)["error"])
}
