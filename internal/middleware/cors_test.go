package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/puckarena/backend/internal/config"
)

func upgradeRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", WebSocketCORSCheck(cfg), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func upgradeRequest(origin string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	return req
}

func TestWebSocketCORSCheck(t *testing.T) {
	prod := &config.Config{Environment: "production", FrontendURL: "https://puckarena.example"}
	dev := &config.Config{Environment: "development"}

	cases := []struct {
		name   string
		cfg    *config.Config
		origin string
		want   int
	}{
		{"prod frontend", prod, "https://puckarena.example", http.StatusNoContent},
		{"prod foreign", prod, "https://evil.example", http.StatusForbidden},
		{"prod no origin", prod, "", http.StatusNoContent},
		{"dev localhost", dev, "http://localhost:3000", http.StatusNoContent},
		{"dev foreign", dev, "https://puckarena.example", http.StatusForbidden},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		upgradeRouter(tc.cfg).ServeHTTP(w, upgradeRequest(tc.origin))
		if w.Code != tc.want {
			t.Errorf("%s: status %d, want %d", tc.name, w.Code, tc.want)
		}
	}
}

func TestWebSocketCORSCheckIgnoresPlainRequests(t *testing.T) {
	cfg := &config.Config{Environment: "production", FrontendURL: "https://puckarena.example"}
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "https://evil.example")

	w := httptest.NewRecorder()
	upgradeRouter(cfg).ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("non-upgrade request blocked: %d", w.Code)
	}
}
