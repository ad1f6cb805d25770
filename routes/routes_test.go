package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"OllamaDesk/middleware"
	"OllamaDesk/pkg/relay"
	svc "OllamaDesk/pkg/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func newRouter(limiter *middleware.RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()
	ollama := svc.NewOllamaClient("http://127.0.0.1:1", time.Second, log)
	r := gin.New()
	RegisterRoutes(r, Deps{
		Relay:             relay.New(ollama, relay.Options{DefaultModel: "llama2:latest"}, log),
		Conversations:     svc.NewConversationService(nil, svc.NewSummarizer(ollama, "llama2", time.Second, log), log),
		Models:            svc.NewModelCatalog(ollama, 0, log),
		Desktop:           svc.NewDesktopExiter("unused", log),
		WSMaxMessageBytes: 1 << 10,
		Limiter:           limiter,
		Log:               log,
	})
	return r
}

func TestRoutesRegistered(t *testing.T) {
	r := newRouter(nil)
	want := map[string]bool{
		"GET /healthz":            false,
		"GET /ws":                 false,
		"GET /api/models":         false,
		"POST /api/exit":          false,
		"GET /api/conversations":  false,
		"POST /api/conversations": false,
	}
	for _, ri := range r.Routes() {
		key := ri.Method + " " + ri.Path
		if _, ok := want[key]; ok {
			want[key] = true
		}
	}
	for k, seen := range want {
		if !seen {
			t.Fatalf("route %s not registered", k)
		}
	}
}

func TestCreateConversationIsRateLimited(t *testing.T) {
	r := newRouter(middleware.NewRateLimiter(time.Minute, 1))

	post := func() int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/conversations", strings.NewReader(`{`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w.Code
	}
	if code := post(); code != http.StatusBadRequest {
		t.Fatalf("expected first request to reach the handler, got %d", code)
	}
	if code := post(); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}

	// listing is not limited
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected healthz 200, got %d", w.Code)
	}
}
