package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

// newCORSRouter はCORSミドルウェアを適用したテスト用ルーターを返す。
func newCORSRouter(allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(CORS(allowedOrigins))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

// doCORSRequest は指定オリジンでGET /testを実行してレコーダーを返す。
func doCORSRequest(router *gin.Engine, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/test", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestCORS はCORSミドルウェアを検証する。
func TestCORS(t *testing.T) {
	t.Parallel()

	t.Run("許可されたオリジンにはクッキー送信込みのCORSヘッダーが返る", func(t *testing.T) {
		t.Parallel()

		router := newCORSRouter([]string{"http://localhost:8082", "https://example.com"})
		w := doCORSRequest(router, http.MethodGet, "http://localhost:8082")

		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusOK)
		}
		wants := map[string]string{
			"Access-Control-Allow-Origin":      "http://localhost:8082",
			"Access-Control-Allow-Credentials": "true",
			"Access-Control-Allow-Methods":     "GET, POST, PUT, DELETE, OPTIONS",
			"Access-Control-Allow-Headers":     "Authorization, Content-Type",
			"Vary":                             "Origin",
		}
		for name, want := range wants {
			if got := w.Header().Get(name); got != want {
				t.Errorf("%s: got %q, want %q", name, got, want)
			}
		}
	})

	t.Run("許可リスト内のどのオリジンでも許可される", func(t *testing.T) {
		t.Parallel()

		router := newCORSRouter([]string{"http://localhost:8082", "https://example.com"})
		w := doCORSRequest(router, http.MethodGet, "https://example.com")

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
			t.Errorf("Access-Control-Allow-Origin: got %q, want %q", got, "https://example.com")
		}
	})

	t.Run("許可外オリジンとOrigin無しにはCORSヘッダーを返さない", func(t *testing.T) {
		t.Parallel()

		router := newCORSRouter([]string{"http://localhost:8082"})
		for _, origin := range []string{"https://evil.example.com", ""} {
			w := doCORSRequest(router, http.MethodGet, origin)
			if w.Code != http.StatusOK {
				t.Errorf("origin=%q ステータスコード: got %d, want %d", origin, w.Code, http.StatusOK)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
				t.Errorf("origin=%q Access-Control-Allow-Origin: got %q, want 空文字列", origin, got)
			}
			if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "" {
				t.Errorf("origin=%q Access-Control-Allow-Credentials: got %q, want 空文字列", origin, got)
			}
		}
	})

	t.Run("プリフライトは204で中断されハンドラに到達しない", func(t *testing.T) {
		t.Parallel()

		handlerCalled := false
		router := gin.New()
		router.Use(CORS([]string{"http://localhost:8082"}))
		router.OPTIONS("/test", func(c *gin.Context) {
			handlerCalled = true
			c.Status(http.StatusOK)
		})

		w := doCORSRequest(router, http.MethodOptions, "http://localhost:8082")

		if w.Code != http.StatusNoContent {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusNoContent)
		}
		if handlerCalled {
			t.Error("プリフライトでハンドラが呼ばれている")
		}
		if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
			t.Errorf("Access-Control-Allow-Credentials: got %q, want %q", got, "true")
		}
	})

	t.Run("許可外オリジンのプリフライトも204だがCORSヘッダーは付かない", func(t *testing.T) {
		t.Parallel()

		router := gin.New()
		router.Use(CORS([]string{"http://localhost:8082"}))
		router.OPTIONS("/test", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		w := doCORSRequest(router, http.MethodOptions, "https://evil.example.com")

		if w.Code != http.StatusNoContent {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusNoContent)
		}
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Access-Control-Allow-Origin: got %q, want 空文字列", got)
		}
	})
}
