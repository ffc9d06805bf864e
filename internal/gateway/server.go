package gateway

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	gatewaydb "github.com/chavadeepthi/medilaboGateway/internal/gateway/db"
	"github.com/chavadeepthi/medilaboGateway/internal/session"
	"github.com/chavadeepthi/medilaboGateway/pkg/httpclient"
	"github.com/chavadeepthi/medilaboGateway/pkg/middleware"
	"github.com/chavadeepthi/medilaboGateway/pkg/token"
)

// shutdownTimeout は停止時に処理中リクエストの完了を待つ最大時間。
const shutdownTimeout = 10 * time.Second

// Server はgatewayサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// config はサービス設定。起動後は読み取り専用。
	config *Config
	// queries はユーザーディレクトリのクエリ実行オブジェクト。
	queries *gatewaydb.Queries
	// db はSQLiteデータベース接続。
	db *sql.DB
	// minter はBearerトークンの発行・検証を行う。
	minter *token.Minter
	// sessions はセッションストア。
	sessions session.Store
	// routes は転送パスから上流を解決するルーター。
	routes *Router
	// upstream は上流サービスとの通信用HTTPクライアント。
	upstream *httpclient.Client
}

// NewServer は新しいgatewayサーバーを生成する。
// 設定の不備・データベース初期化の失敗は起動時エラーとして返す。
func NewServer(cfg *Config) (*Server, error) {
	sqlDB, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	if err := initSchema(sqlDB); err != nil {
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}

	queries := gatewaydb.New(sqlDB)
	if err := seedStockUsers(context.Background(), queries); err != nil {
		return nil, fmt.Errorf("初期ユーザーの投入に失敗: %w", err)
	}

	minter, err := token.NewMinter(token.Config{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.JWTTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("トークンMinterの生成に失敗: %w", err)
	}

	var sessions session.Store
	if cfg.SessionRedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.SessionRedisAddr})
		sessions = session.NewRedisStore(client, cfg.SessionTTL)
	} else {
		sessions = session.NewMemoryStore(cfg.SessionTTL)
	}

	routes, err := newRouterFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("ルートテーブルの構築に失敗: %w", err)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.Metrics())
	router.Use(middleware.CORS([]string{cfg.FrontendURL}))

	s := &Server{
		router:   router,
		config:   cfg,
		queries:  queries,
		db:       sqlDB,
		minter:   minter,
		sessions: sessions,
		routes:   routes,
		upstream: httpclient.New(httpclient.DefaultTimeout),
	}
	s.setupRoutes()

	return s, nil
}

// Run はHTTPサーバーを起動し、ctxのキャンセルで処理中リクエストを
// 完了させてから停止する。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", s.config.Port),
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("サーバーの起動に失敗: %w", err)
	case <-ctx.Done():
	}

	log.Printf("gatewayサービスを停止します")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("サーバーの停止に失敗: %w", err)
	}
	return s.db.Close()
}

// setupRoutes はAPIルーティングを設定する。
// CSRFトークンは使わない。認証はセッションクッキーで行い、下流への認可は
// Bearerヘッダーで伝える。
func (s *Server) setupRoutes() {
	// 認証不要のエンドポイント
	s.router.GET("/login", s.handleLoginPage())
	s.router.POST("/login", s.handleLoginSubmit())
	s.router.GET("/logout", s.handleLogout())
	s.router.POST("/logout", s.handleLogout())
	s.router.GET("/error", s.handleErrorPage())
	s.router.GET("/metrics", middleware.MetricsHandler())
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "gateway"})
	})

	// 認証必須: プロキシ面とルート
	authRequired := middleware.SessionAuth(s.sessions)
	s.router.Any(proxyBase+"/*forward", authRequired, s.handleProxy())
	s.router.GET("/", authRequired, s.handleRoot())

	// 未登録パス・未知メソッドも認証ゲートを通した上で処理する
	s.router.NoRoute(authRequired, s.handleFallback())
}

// handleRoot は認証済みユーザーをプロキシ経由のフロントエンドへ誘導する。
func (s *Server) handleRoot() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Redirect(http.StatusFound, proxyBase+"/")
	}
}

// handleFallback はルート未登録のリクエストを処理するハンドラを返す。
// 未知のHTTPメソッドによるプロキシ面へのリクエストもここに到達するため、
// パスがプロキシマウント配下であればプロキシへ委譲する。
func (s *Server) handleFallback() gin.HandlerFunc {
	proxy := s.handleProxy()
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, proxyBase) {
			proxy(c)
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "ページが見つかりません"})
	}
}
