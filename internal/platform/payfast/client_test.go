package payfast

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mzansipay/payfast-gateway/pkg/config"
)

func newTestClient(serverURL string, sandbox bool) *Client {
	cfg := &config.Config{PayFast: config.PayFastConfig{
		MerchantID: "10000100",
		Passphrase: "secret",
		Sandbox:    sandbox,
	}}
	c := NewClient(cfg, nil, zap.NewNop().Sugar())
	c.baseURL = serverURL
	c.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestClient_EmptyTokenNoHTTPCall(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, false)
	err := c.CancelToken(context.Background(), "")
	require.ErrorIs(t, err, ErrEmptyToken)
	require.Zero(t, calls)
}

func TestClient_AdHocSuccessBooleanTrue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"response":true}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, false)
	require.NoError(t, c.SubmitAdHocPayment(context.Background(), "tok-1", 100.50, "Order 42", ""))
}

func TestClient_AdHocSuccessStringTrue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"response":"true"}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, false)
	require.NoError(t, c.SubmitAdHocPayment(context.Background(), "tok-1", 100.50, "Order 42", ""))
}

func TestClient_AdHocNestedFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"response":{"code":51,"reason":"insufficient funds "}}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, false)
	err := c.SubmitAdHocPayment(context.Background(), "tok-1", 100.50, "Order 42", "")
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	require.Equal(t, "51", apiErr.Code)
	require.Equal(t, "insufficient funds", apiErr.Reason)
}

func TestClient_TopLevelFailedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"failed","code":400,"data":{"message":"bad token"}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, false)
	err := c.CancelToken(context.Background(), "tok-1")
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	require.Equal(t, "400", apiErr.Code)
	require.Equal(t, "bad token", apiErr.Reason)
}

func TestClient_Non200Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, false)
	err := c.CancelToken(context.Background(), "tok-1")
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	require.Equal(t, "502", apiErr.Code)
}

func TestClient_CancelSendsSignedHeadersAndZeroContentLength(t *testing.T) {
	var method, path, query string
	var hdr http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		query = r.URL.RawQuery
		hdr = r.Header.Clone()
		_, _ = w.Write([]byte(`{"data":{"response":true}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, true)
	require.NoError(t, c.CancelToken(context.Background(), "tok-9"))

	require.Equal(t, http.MethodPut, method)
	require.Equal(t, "/subscriptions/tok-9/cancel", path)
	require.Equal(t, "testing=true", query)
	require.Equal(t, "10000100", hdr.Get("merchant-id"))
	require.Equal(t, "v1", hdr.Get("version"))
	require.NotEmpty(t, hdr.Get("signature"))
	require.Equal(t, "0", hdr.Get("Content-Length"))
	// SAST offset rides on the timestamp
	require.Contains(t, hdr.Get("timestamp"), "+02:00")
}

func TestClient_SignatureExcludesContentLength(t *testing.T) {
	var gotSig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("signature")
		_, _ = w.Write([]byte(`{"data":{"response":true}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, false)
	require.NoError(t, c.CancelToken(context.Background(), "tok-9"))

	signed := NewData().
		Set("merchant-id", "10000100").
		Set("timestamp", c.now().In(sast).Format(time.RFC3339)).
		Set("version", "v1")
	require.Equal(t, Sign(signed, true, true, "secret"), gotSig)
}

func TestStringify_WholeFloatsRenderAsIntegers(t *testing.T) {
	require.Equal(t, "51", stringify(float64(51)))
	require.Equal(t, "51.5", stringify(51.5))
	require.Equal(t, "x", stringify("x"))
	require.Equal(t, "", stringify(nil))
}
