package gateway

import (
	"errors"
	"strings"
)

// Route はルートテーブルの1エントリ。
type Route struct {
	// Prefix は転送パスの接頭辞。一致判定は宣言順の先勝ち。
	Prefix string
	// Upstream は転送先のベースURL。
	Upstream string
	// Rewrite が空でない場合、一致した接頭辞をこの値に置き換えて転送する。
	// 空の場合は接頭辞を保持したまま転送パス全体をUpstreamに連結する。
	Rewrite string
	// ForceJSON はこのルートへのPOST/PUT転送時にContent-Typeを
	// application/jsonへ上書きするかどうか。
	ForceJSON bool
}

// Router は転送パスから上流ベースURLを解決する。
// テーブルは起動時に構築された後は変更されず、複数ゴルーチンから安全に使える。
type Router struct {
	// routes は接頭辞ルートの並び。宣言順に評価する。
	routes []Route
	// fallback はどの接頭辞にも一致しない場合の既定ルート。
	fallback Route
}

// NewRouter は新しいRouterを生成する。既定ルートはちょうど1つ必要。
func NewRouter(routes []Route, fallback Route) (*Router, error) {
	if fallback.Upstream == "" {
		return nil, errors.New("既定ルートの上流URLが設定されていません")
	}
	for _, r := range routes {
		if r.Prefix == "" || r.Upstream == "" {
			return nil, errors.New("ルートには接頭辞と上流URLの両方が必要です")
		}
	}
	return &Router{routes: routes, fallback: fallback}, nil
}

// Resolve は転送パスを上流URLへ解決する。
// 宣言順で最初に接頭辞が一致したルートが使われ、一致が無ければ既定ルートに
// 転送パス全体を連結する。純粋関数であり副作用を持たない。
func (r *Router) Resolve(forwardPath string) (string, Route) {
	for _, route := range r.routes {
		if !strings.HasPrefix(forwardPath, route.Prefix) {
			continue
		}
		if route.Rewrite != "" {
			return route.Upstream + route.Rewrite + forwardPath[len(route.Prefix):], route
		}
		return route.Upstream + forwardPath, route
	}
	return r.fallback.Upstream + forwardPath, r.fallback
}

// newRouterFromConfig は設定からルートテーブルを構築する。
// 接頭辞 /patients, /notes, /risk の順で評価し、既定はフロントエンド。
func newRouterFromConfig(cfg *Config) (*Router, error) {
	routes := []Route{
		{Prefix: "/patients", Upstream: cfg.PatientsURL, ForceJSON: cfg.ForceJSON},
		{Prefix: "/notes", Upstream: cfg.NotesURL, ForceJSON: cfg.ForceJSON},
		{Prefix: "/risk", Upstream: cfg.RiskURL, Rewrite: cfg.RiskRewritePrefix, ForceJSON: cfg.ForceJSON},
	}
	fallback := Route{Upstream: cfg.DefaultBackendURL, ForceJSON: cfg.ForceJSON}
	return NewRouter(routes, fallback)
}
