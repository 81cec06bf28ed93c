package logx

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestInitSetsLevel(t *testing.T) {
	Init(Config{Debug: true})
	if log.Logger.GetLevel() != zerolog.DebugLevel {
		t.Fatalf("expected debug level, got %s", log.Logger.GetLevel())
	}

	Init()
	if log.Logger.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("expected info level, got %s", log.Logger.GetLevel())
	}
}

func TestHTTPMiddlewareWritesAccessLine(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	h := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	out := buf.String()
	if !strings.Contains(out, `"status":418`) {
		t.Fatalf("expected status in access log, got %s", out)
	}
	if !strings.Contains(out, `"request_id"`) {
		t.Fatalf("expected request id in access log, got %s", out)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected request id response header")
	}
}
