package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loykin/j2g/internal/retry"
	"github.com/loykin/j2g/internal/server"
	"github.com/loykin/j2g/internal/store"
)

const jenkinsfile = `pipeline {
    stages {
        stage('Build') {
            steps {
                sh 'make build'
            }
        }
    }
}`

func fastRetry() *retry.Config {
	rc := retry.DefaultRetryConfig()
	rc.InitialDelay = time.Millisecond
	rc.MaxDelay = 2 * time.Millisecond
	rc.RetryableErrors = append(rc.RetryableErrors, "service unavailable")
	return rc
}

func newServer(t *testing.T, cfg server.Config, withHistory bool) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var h server.History
	if withHistory {
		st, err := store.Open(context.Background(), store.Config{
			Driver:       store.DriverSqlite,
			DriverConfig: &store.SqliteConfig{Path: filepath.Join(t.TempDir(), "h.db")},
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = st.Close() })
		h = st
	}
	srv := httptest.NewServer(server.New(cfg, h).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_ConvertAndHistory(t *testing.T) {
	srv := newServer(t, server.Config{}, true)
	c, err := New(Config{Server: srv.URL + "/", Retry: fastRetry()})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Health(ctx))

	res, err := c.Convert(ctx, "Jenkinsfile", jenkinsfile, map[string]string{"profile": "basic"})
	require.NoError(t, err)
	assert.Contains(t, string(res.YAML), "run: make build")
	assert.Equal(t, 0, res.Warnings)
	require.NotEmpty(t, res.ConversionID)

	list, err := c.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, res.ConversionID, list[0].ID)
	assert.Equal(t, "Jenkinsfile", list[0].SourceName)
	assert.Equal(t, "basic", list[0].Profile)
	assert.Len(t, list[0].SHA256, 64)
	assert.False(t, list[0].CreatedAt.IsZero())
}

func TestClient_APIErrorIsNotRetried(t *testing.T) {
	srv := newServer(t, server.Config{}, false)
	c, err := New(Config{Server: srv.URL, Retry: fastRetry()})
	require.NoError(t, err)

	_, err = c.Convert(context.Background(), "", jenkinsfile, map[string]string{"profile": "nope"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, apiErr.Message, "unknown profile")
}

func TestClient_RetriesUnavailable(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 2 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"warming up"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c, err := New(Config{Server: srv.URL, Retry: fastRetry()})
	require.NoError(t, err)
	require.NoError(t, c.Health(context.Background()))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_StaticToken(t *testing.T) {
	auth := server.AuthConfig{Secret: []byte("k")}
	srv := newServer(t, server.Config{Auth: auth}, false)

	c, err := New(Config{Server: srv.URL, Retry: fastRetry()})
	require.NoError(t, err)
	_, err = c.Convert(context.Background(), "", jenkinsfile, nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	tok, err := server.IssueToken(auth, server.TokenRequest{TTL: time.Minute})
	require.NoError(t, err)
	c, err = New(Config{Server: srv.URL, Token: tok, Retry: fastRetry()})
	require.NoError(t, err)
	_, err = c.Convert(context.Background(), "", jenkinsfile, nil)
	require.NoError(t, err)
}

func TestClient_OAuth2ClientCredentials(t *testing.T) {
	var gotAuth atomic.Value
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("grant_type") != "client_credentials" || r.Form.Get("client_id") != "cid" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-123","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := New(Config{
		Server: srv.URL,
		Retry:  fastRetry(),
		OAuth2: &OAuth2Config{TokenURL: srv.URL + "/token", ClientID: "cid", ClientSecret: "sec"},
	})
	require.NoError(t, err)
	require.NoError(t, c.Health(context.Background()))
	assert.Equal(t, "Bearer tok-123", gotAuth.Load())
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Server: "ftp://example"})
	assert.Error(t, err)
	_, err = New(Config{OAuth2: &OAuth2Config{TokenURL: "http://x/token"}})
	assert.Error(t, err)
	c, err := New(Config{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(c.http.BaseURL, "http://localhost"))
}
