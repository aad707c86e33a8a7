package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mmynk/messmate/pkg/logging"
)

func TestCORSMiddleware(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	h := loggingMiddleware(logging.New(io.Discard, 0), corsMiddleware("https://mess.example", next))

	t.Run("preflight short-circuits", func(t *testing.T) {
		called = false
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/messmate.v1.AuthService/Login", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
		if called {
			t.Error("next handler ran for preflight")
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://mess.example" {
			t.Errorf("allow origin = %q", got)
		}
	})

	t.Run("post passes through", func(t *testing.T) {
		called = false
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/messmate.v1.AuthService/Login", nil))
		if !called {
			t.Error("next handler did not run")
		}
	})
}
