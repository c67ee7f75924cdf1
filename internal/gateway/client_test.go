package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kennethwltu/smspanel/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *HTTPClient {
	cfg := config.DefaultConfig()
	cfg.Gateway.BaseURL = baseURL
	cfg.Gateway.ApplicationID = "test-app"
	cfg.Gateway.SenderNumber = "85299999999"
	cfg.Gateway.Timeout = 2 * time.Second
	return NewHTTPClient(cfg)
}

func TestHTTPClientSend(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var gotForm map[string]string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			gotForm = map[string]string{
				"application": r.PostFormValue("application"),
				"mrt":         r.PostFormValue("mrt"),
				"sender":      r.PostFormValue("sender"),
				"msg_utf8":    r.PostFormValue("msg_utf8"),
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("SUBMIT_OK"))
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		resp, err := client.Send(context.Background(), "85212345678", "Hello")
		require.NoError(t, err)
		require.NotNil(t, resp)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "SUBMIT_OK", resp.Body)
		assert.Equal(t, "test-app", gotForm["application"])
		assert.Equal(t, "85212345678", gotForm["mrt"])
		assert.Equal(t, "85299999999", gotForm["sender"])
		assert.Equal(t, "Hello", gotForm["msg_utf8"])
	})

	t.Run("server error is transient", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gateway unavailable", http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		_, err := client.Send(context.Background(), "85212345678", "Hello")
		require.Error(t, err)
		assert.True(t, IsTransient(err))
		assert.False(t, IsPermanent(err))
	})

	t.Run("rate limited is transient", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		_, err := client.Send(context.Background(), "85212345678", "Hello")
		require.Error(t, err)
		assert.True(t, IsTransient(err))
	})

	t.Run("rejected request is permanent", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "invalid recipient number", http.StatusBadRequest)
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		_, err := client.Send(context.Background(), "not-a-number", "Hello")
		require.Error(t, err)
		assert.True(t, IsPermanent(err))
		assert.False(t, IsTransient(err))
		assert.Contains(t, err.Error(), "invalid recipient number")
	})

	t.Run("connection failure is transient", func(t *testing.T) {
		// Reserve a port then close it so nothing is listening
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		deadURL := server.URL
		server.Close()

		client := newTestClient(deadURL)
		_, err := client.Send(context.Background(), "85212345678", "Hello")
		require.Error(t, err)
		assert.True(t, IsTransient(err))
	})

	t.Run("timeout is transient", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer server.Close()

		cfg := config.DefaultConfig()
		cfg.Gateway.BaseURL = server.URL
		cfg.Gateway.Timeout = 20 * time.Millisecond
		client := NewHTTPClient(cfg)

		_, err := client.Send(context.Background(), "85212345678", "Hello")
		require.Error(t, err)
		assert.True(t, IsTransient(err))
	})

	t.Run("empty inputs are permanent", func(t *testing.T) {
		client := newTestClient("http://gateway.test")

		_, err := client.Send(context.Background(), "", "Hello")
		require.Error(t, err)
		assert.True(t, IsPermanent(err))

		_, err = client.Send(context.Background(), "85212345678", "")
		require.Error(t, err)
		assert.True(t, IsPermanent(err))
	})

	t.Run("cancelled context", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		client := newTestClient(server.URL)
		_, err := client.Send(ctx, "85212345678", "Hello")
		require.Error(t, err)
		assert.True(t, IsTransient(err))
	})
}

func TestErrorClassification(t *testing.T) {
	t.Run("wrap nil", func(t *testing.T) {
		assert.True(t, IsTransient(WrapTransient(nil)))
		assert.True(t, IsPermanent(WrapPermanent(nil)))
	})

	t.Run("error type labels", func(t *testing.T) {
		assert.Equal(t, "transient", ErrorType(WrapTransient(assert.AnError)))
		assert.Equal(t, "permanent", ErrorType(WrapPermanent(assert.AnError)))
		assert.Equal(t, "unknown", ErrorType(assert.AnError))
		assert.Equal(t, "unknown", ErrorType(nil))
	})

	t.Run("wrapped message preserved", func(t *testing.T) {
		err := WrapTransient(assert.AnError)
		assert.Contains(t, err.Error(), assert.AnError.Error())
	})
}
