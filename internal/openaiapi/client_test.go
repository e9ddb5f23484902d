package openaiapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"vatcompanion/internal/openaiapi"
)

func newClient(t *testing.T, url string, retries int) *openaiapi.Client {
	t.Helper()
	c, err := openaiapi.New(openaiapi.Config{BaseURL: url, APIKey: "sk-test", MaxRetries: retries})
	gt.NoError(t, err).Required()
	return openaiapi.NoSleep(c)
}

func TestPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Value(t, r.URL.Path).Equal("/echo")
		gt.Value(t, r.Header.Get("Authorization")).Equal("Bearer sk-test")
		var in map[string]string
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&in)).Required()
		_ = json.NewEncoder(w).Encode(map[string]string{"got": in["say"]})
	}))
	defer srv.Close()

	var out map[string]string
	err := newClient(t, srv.URL+"/", 0).PostJSON(context.Background(), "/echo", map[string]string{"say": "hi"}, &out)
	gt.NoError(t, err).Required()
	gt.Value(t, out["got"]).Equal("hi")
}

func TestPostJSONRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusBadGateway)
		default:
			_, _ = w.Write([]byte(`{"ok": true}`))
		}
	}))
	defer srv.Close()

	var out struct{ OK bool }
	gt.NoError(t, newClient(t, srv.URL, 3).PostJSON(context.Background(), "/x", struct{}{}, &out)).Required()
	gt.Bool(t, out.OK).True()
	gt.Number(t, calls.Load()).Equal(3)
}

func TestPostJSONGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := newClient(t, srv.URL, 2).PostJSON(context.Background(), "/x", struct{}{}, &struct{}{})
	var apiErr *openaiapi.APIError
	gt.Bool(t, errors.As(err, &apiErr)).True()
	gt.Number(t, apiErr.StatusCode).Equal(http.StatusServiceUnavailable)
	gt.Number(t, calls.Load()).Equal(3)
}

func TestPostJSONDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"bad key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := newClient(t, srv.URL, 5).PostJSON(context.Background(), "/x", struct{}{}, &struct{}{})
	var apiErr *openaiapi.APIError
	gt.Bool(t, errors.As(err, &apiErr)).True()
	gt.String(t, apiErr.Body).Contains("bad key")
	gt.Number(t, calls.Load()).Equal(1)
}

func TestNewRequiresKey(t *testing.T) {
	t.Setenv("VAT_TEST_EMPTY_KEY", "")
	_, err := openaiapi.New(openaiapi.Config{APIKeyEnv: "VAT_TEST_EMPTY_KEY"})
	gt.Error(t, err)

	t.Setenv("VAT_TEST_KEY", "sk-env")
	_, err = openaiapi.New(openaiapi.Config{APIKeyEnv: "VAT_TEST_KEY"})
	gt.NoError(t, err)
}

func TestRetryDelayIsCapped(t *testing.T) {
	gt.Value(t, openaiapi.RetryDelay(0)).Equal(200 * time.Millisecond)
	gt.Value(t, openaiapi.RetryDelay(2)).Equal(800 * time.Millisecond)
	gt.Value(t, openaiapi.RetryDelay(10)).Equal(5 * time.Second)
}
