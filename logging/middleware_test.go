package logging

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func newCapture() (*slog.Logger, *strings.Builder) {
	var out strings.Builder
	return slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelInfo})), &out
}

func TestLoggingMiddleware_SkipsProbePaths(t *testing.T) {
	logger, out := newCapture()
	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/health", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			out.Reset()
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))

			if rr.Code != http.StatusOK {
				t.Errorf("Expected status 200, got %d", rr.Code)
			}
			if out.Len() != 0 {
				t.Errorf("Expected no logs for %s, got: %s", path, out.String())
			}
		})
	}
}

func TestLoggingMiddleware_LogsRequest(t *testing.T) {
	logger, out := newCapture()
	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("created"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/cases/text?x=1", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req-42"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	logs := out.String()
	for _, want := range []string{
		"request_id=req-42",
		"method=POST",
		"path=/api/cases/text",
		`query="x=1"`,
		"status_code=201",
		"bytes_written=7",
		"level=INFO",
	} {
		if !strings.Contains(logs, want) {
			t.Errorf("Expected log to contain %q, got: %s", want, logs)
		}
	}
}

func TestLoggingMiddleware_ServerErrorsLogAtWarn(t *testing.T) {
	logger, out := newCapture()
	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/cases", nil))

	logs := out.String()
	if !strings.Contains(logs, "level=WARN") {
		t.Errorf("Expected WARN level, got: %s", logs)
	}
	if !strings.Contains(logs, "request_id=unknown") {
		t.Errorf("Expected unknown request id, got: %s", logs)
	}
}
