package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/messmate/internal/auth"
	"github.com/mmynk/messmate/internal/models"
	"github.com/mmynk/messmate/internal/rpc"
)

const (
	whoamiProcedure = "/test.v1.TestService/WhoAmI"
	publicProcedure = "/test.v1.TestService/Public"
)

type whoamiResponse struct {
	UserID string `json:"userId"`
}

func whoami(ctx context.Context, _ *connect.Request[struct{}]) (*connect.Response[whoamiResponse], error) {
	return connect.NewResponse(&whoamiResponse{UserID: GetUserID(ctx)}), nil
}

func newTestServer(t *testing.T, interceptors ...connect.Interceptor) string {
	t.Helper()
	opt := connect.WithInterceptors(interceptors...)
	path, handler := rpc.NewServiceHandler("test.v1.TestService",
		rpc.Unary(whoamiProcedure, whoami, opt),
		rpc.Unary(publicProcedure, whoami, opt),
	)
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server.URL
}

func call(t *testing.T, url, procedure, token string) (*connect.Response[whoamiResponse], error) {
	t.Helper()
	client := rpc.NewClient[struct{}, whoamiResponse](http.DefaultClient, url, procedure)
	req := connect.NewRequest(&struct{}{})
	if token != "" {
		req.Header().Set("Authorization", "Bearer "+token)
	}
	return client.CallUnary(context.Background(), req)
}

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Hour)
	url := newTestServer(t, RequireAuth(jwtManager, publicProcedure))

	session, err := jwtManager.Issue(&models.User{ID: "u1", Email: "a@example.com"})
	require.NoError(t, err)
	token := session.Token

	t.Run("valid token", func(t *testing.T) {
		resp, err := call(t, url, whoamiProcedure, token)
		require.NoError(t, err)
		assert.Equal(t, "u1", resp.Msg.UserID)
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := call(t, url, whoamiProcedure, "")
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	})

	t.Run("bad token", func(t *testing.T) {
		_, err := call(t, url, whoamiProcedure, "garbage")
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	})

	t.Run("public procedure", func(t *testing.T) {
		resp, err := call(t, url, publicProcedure, "")
		require.NoError(t, err)
		assert.Empty(t, resp.Msg.UserID)
	})
}

func TestRateLimiter(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	limiter := NewRateLimiter(0.001, 2, publicProcedure).WithMetrics(metrics)
	url := newTestServer(t, metrics.Interceptor(), limiter.Interceptor())

	for i := 0; i < 2; i++ {
		_, err := call(t, url, publicProcedure, "")
		require.NoError(t, err)
	}
	_, err := call(t, url, publicProcedure, "")
	assert.Equal(t, connect.CodeResourceExhausted, connect.CodeOf(err))

	// Unlisted procedures are not limited.
	for i := 0; i < 3; i++ {
		_, err := call(t, url, whoamiProcedure, "")
		require.NoError(t, err)
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Rejected.WithLabelValues(publicProcedure)))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Requests.WithLabelValues(publicProcedure, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Requests.WithLabelValues(publicProcedure, connect.CodeResourceExhausted.String())))
}

func TestRateLimiterCleanup(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))

	now = now.Add(10 * time.Minute)
	assert.True(t, limiter.Allow("10.0.0.2"))

	assert.Equal(t, 1, limiter.Cleanup(5*time.Minute))
	assert.True(t, limiter.Allow("10.0.0.1"))
}

func TestPeerHost(t *testing.T) {
	assert.Equal(t, "127.0.0.1", peerHost("127.0.0.1:5555"))
	assert.Equal(t, "::1", peerHost("[::1]:80"))
	assert.Equal(t, "pipe", peerHost("pipe"))
}

func TestLoggingInterceptor(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Hour)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	url := newTestServer(t, RequireAuth(jwtManager, publicProcedure), LoggingInterceptor(logger))

	session, err := jwtManager.Issue(&models.User{ID: "u1", Email: "a@example.com"})
	require.NoError(t, err)

	_, err = call(t, url, whoamiProcedure, session.Token)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "RPC ok")
	assert.Contains(t, out, "procedure="+whoamiProcedure)
	assert.Contains(t, out, "user_id=u1")
	assert.Contains(t, out, "email=a@example.com")
}
