package payfast

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEchoValidator(serverURL string) *EchoValidator {
	v := NewEchoValidator(true, zap.NewNop().Sugar())
	v.validateURL = serverURL
	return v
}

func TestEchoValidator_ConfirmsOnValidKey(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotBody = r.PostForm.Encode()
		_, _ = w.Write([]byte("VALID"))
	}))
	defer srv.Close()

	v := newTestEchoValidator(srv.URL)
	payload := url.Values{"m_payment_id": {"42"}, "amount_gross": {"100.00"}}
	require.True(t, v.Confirm(context.Background(), payload))
	require.Contains(t, gotBody, "m_payment_id=42")
}

func TestEchoValidator_RejectsInvalidResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("INVALID"))
	}))
	defer srv.Close()

	v := newTestEchoValidator(srv.URL)
	require.False(t, v.Confirm(context.Background(), url.Values{"a": {"1"}}))
}

func TestEchoValidator_RejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	v := newTestEchoValidator(srv.URL)
	require.False(t, v.Confirm(context.Background(), url.Values{"a": {"1"}}))
}

func TestEchoValidator_RejectsEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	v := newTestEchoValidator(srv.URL)
	require.False(t, v.Confirm(context.Background(), url.Values{"a": {"1"}}))
}

func TestEchoValidator_RejectsEmptyPayload(t *testing.T) {
	v := newTestEchoValidator("http://127.0.0.1:1")
	require.False(t, v.Confirm(context.Background(), url.Values{}))
}

func TestEchoValidator_RejectsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	v := newTestEchoValidator(srv.URL)
	require.False(t, v.Confirm(context.Background(), url.Values{"a": {"1"}}))
}
