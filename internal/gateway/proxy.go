package gateway

import (
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/chavadeepthi/medilaboGateway/internal/session"
	"github.com/chavadeepthi/medilaboGateway/pkg/middleware"
)

// proxyBase はプロキシ面のマウントパス。これより後ろが転送パスになる。
const proxyBase = "/api/proxy"

// upstreamRequestsTotal は上流へ転送したリクエスト数（接頭辞・ステータス別）。
var upstreamRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gateway_upstream_requests_total",
		Help: "Total number of requests forwarded to upstream services.",
	},
	[]string{"prefix", "status"},
)

// upstreamFailuresTotal はトランスポート障害で502に変換した回数（接頭辞別）。
var upstreamFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gateway_upstream_failures_total",
		Help: "Total number of upstream transport failures translated to 502.",
	},
	[]string{"prefix"},
)

// knownMethods は上流へ転送できるHTTPメソッド。
var knownMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodHead:    {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodPatch:   {},
	http.MethodDelete:  {},
	http.MethodOptions: {},
	http.MethodTrace:   {},
}

// handleProxy は /api/proxy/** への全メソッドを上流サービスへ転送するハンドラを返す。
// 転送パスの抽出 → ルート解決 → ヘッダー複製 → Bearer付与 → 上流呼び出し →
// レスポンス中継、の順で処理する。各リクエストは独立しており状態を持たない。
func (s *Server) handleProxy() gin.HandlerFunc {
	return func(c *gin.Context) {
		forwardPath := extractForwardPath(c.Request.URL.Path)
		upstreamURL, route := s.routes.Resolve(forwardPath)
		if query := c.Request.URL.RawQuery; query != "" {
			upstreamURL += "?" + query
		}

		method := resolveMethod(c.Request.Method)
		header := copyRequestHeaders(c.Request.Header)

		// 旧実装の互換動作: POST/PUTはJSONボディ前提でContent-Typeを上書きする
		if route.ForceJSON && (method == http.MethodPost || method == http.MethodPut) {
			header.Set("Content-Type", "application/json")
		}

		if jwt := s.sessionJWT(c); jwt != "" {
			header.Set("Authorization", "Bearer "+jwt)
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusBadGateway, "リクエストボディの読み取りに失敗: %v", err)
			return
		}

		resp, err := s.upstream.Exchange(c.Request.Context(), method, upstreamURL, header, body)
		if err != nil {
			log.Printf("プロキシエラー: url=%s, error=%v", upstreamURL, err)
			upstreamFailuresTotal.WithLabelValues(prefixLabel(route)).Inc()
			c.String(http.StatusBadGateway, "%v", err)
			return
		}
		defer func() { _ = resp.Body.Close() }()

		upstreamRequestsTotal.WithLabelValues(prefixLabel(route), strconv.Itoa(resp.StatusCode)).Inc()
		relayResponse(c, resp)
	}
}

// sessionJWT はリクエストのセッションからJWTを取り出す。
// 認証ゲートを通過済みの場合はコンテキスト値を使い、そうでない場合は
// クッキーからセッションストアを直接参照する。JWTが無い場合は空文字列。
func (s *Server) sessionJWT(c *gin.Context) string {
	if jwt := middleware.SessionJWT(c); jwt != "" {
		return jwt
	}
	id, err := c.Cookie(session.CookieName)
	if err != nil || id == "" {
		return ""
	}
	jwt, err := s.sessions.JWT(c.Request.Context(), id)
	if err != nil {
		return ""
	}
	return jwt
}

// extractForwardPath はリクエストパスからプロキシマウント以降の転送パスを取り出す。
// パスがマウントパス以下の長さの場合は "/" を返す。
func extractForwardPath(requestPath string) string {
	if len(requestPath) <= len(proxyBase) {
		return "/"
	}
	return requestPath[len(proxyBase):]
}

// copyRequestHeaders は受信ヘッダーを複製する。Hostヘッダーのみ除外し、
// 同名ヘッダーの複数値は順序を保って引き継ぐ。
func copyRequestHeaders(inbound http.Header) http.Header {
	outbound := make(http.Header, len(inbound))
	for name, values := range inbound {
		if strings.EqualFold(name, "Host") {
			continue
		}
		outbound[name] = append([]string(nil), values...)
	}
	return outbound
}

// resolveMethod は受信メソッド名を既知のHTTPメソッドに解決する。
// 未知のメソッドはGETに縮退させる。
func resolveMethod(method string) string {
	upper := strings.ToUpper(method)
	if _, ok := knownMethods[upper]; ok {
		return upper
	}
	return http.MethodGet
}

// relayResponse は上流レスポンスのステータス・ヘッダー・ボディを
// そのままクライアントへ中継する。
func relayResponse(c *gin.Context, resp *http.Response) {
	outHeader := c.Writer.Header()
	for name, values := range resp.Header {
		for _, v := range values {
			outHeader.Add(name, v)
		}
	}
	c.Status(resp.StatusCode)
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		log.Printf("レスポンス中継エラー: %v", err)
	}
}

// prefixLabel はメトリクス用のルート接頭辞ラベルを返す。
func prefixLabel(route Route) string {
	if route.Prefix == "" {
		return "default"
	}
	return route.Prefix
}
