package gateway

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// defaultJWTSecret は開発用のJWT秘密鍵。本番ではJWT_SECRETを必ず設定すること。
const defaultJWTSecret = "dev-secret-key-medilabo-gateway-0123456789"

// Config はgatewayサービスの設定。環境変数から読み込み、起動後は変更しない。
type Config struct {
	// Port はサーバーのリッスンポート。
	Port string
	// JWTSecret はJWT署名用の秘密鍵。32バイト以上であること。
	JWTSecret string
	// JWTIssuer はJWTのissクレームに設定する発行者名。
	JWTIssuer string
	// JWTTTL はJWTの有効期間。
	JWTTTL time.Duration
	// SessionTTL はセッションの有効期間。
	SessionTTL time.Duration
	// SessionRedisAddr はRedisセッションストアのアドレス。空の場合はインメモリ。
	SessionRedisAddr string
	// LoginSuccessURL はログイン成功後のリダイレクト先。
	LoginSuccessURL string
	// DBPath はユーザーディレクトリのSQLiteファイルパス。
	DBPath string
	// ForceJSON はPOST/PUT転送時にContent-Typeをapplication/jsonへ
	// 上書きするかどうかの全体スイッチ。
	ForceJSON bool
	// PatientsURL は患者サービスのベースURL。
	PatientsURL string
	// NotesURL はノートサービスのベースURL。
	NotesURL string
	// RiskURL はリスク評価サービスのベースURL。
	RiskURL string
	// FrontendURL はフロントエンドサービスのベースURL。CORS許可オリジンを兼ねる。
	FrontendURL string
	// DefaultBackendURL は接頭辞に一致しないパスの転送先（既定はFrontendURL）。
	DefaultBackendURL string
	// RiskRewritePrefix が空でない場合、/risk接頭辞をこの値に置き換えて転送する。
	// 旧ルーターの /risk → /assessment 書き換えを復元するための設定。
	RiskRewritePrefix string
}

// LoadConfig は環境変数から設定を読み込み、検証する。
// 検証に失敗した場合はエラーを返し、呼び出し側はプロセスを終了させること。
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:              getEnvOr("PORT", "8080"),
		JWTSecret:         getEnvOr("JWT_SECRET", defaultJWTSecret),
		JWTIssuer:         getEnvOr("JWT_ISSUER", "medilabo-gateway"),
		SessionRedisAddr:  os.Getenv("SESSION_REDIS_ADDR"),
		LoginSuccessURL:   getEnvOr("LOGIN_SUCCESS_URL", "/"),
		DBPath:            getEnvOr("GATEWAY_DB_PATH", "/data/gateway.db?_journal_mode=WAL&_busy_timeout=5000"),
		PatientsURL:       getEnvOr("PATIENTS_URL", "http://localhost:8081"),
		NotesURL:          getEnvOr("NOTES_URL", "http://localhost:8083"),
		RiskURL:           getEnvOr("RISK_URL", "http://localhost:8084"),
		FrontendURL:       getEnvOr("FRONTEND_URL", "http://localhost:8082"),
		RiskRewritePrefix: os.Getenv("RISK_REWRITE_PREFIX"),
	}
	cfg.DefaultBackendURL = getEnvOr("BACKEND_BASE_URL", cfg.FrontendURL)

	ttlSeconds, err := getEnvSeconds("JWT_TTL_SECONDS", 3600)
	if err != nil {
		return nil, err
	}
	cfg.JWTTTL = ttlSeconds

	sessionSeconds, err := getEnvSeconds("SESSION_TTL_SECONDS", 1800)
	if err != nil {
		return nil, err
	}
	cfg.SessionTTL = sessionSeconds

	forceJSON, err := getEnvBool("PROXY_FORCE_JSON", true)
	if err != nil {
		return nil, err
	}
	cfg.ForceJSON = forceJSON

	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRETは32バイト以上必要です: got %dバイト", len(cfg.JWTSecret))
	}
	for name, url := range map[string]string{
		"PATIENTS_URL":     cfg.PatientsURL,
		"NOTES_URL":        cfg.NotesURL,
		"RISK_URL":         cfg.RiskURL,
		"FRONTEND_URL":     cfg.FrontendURL,
		"BACKEND_BASE_URL": cfg.DefaultBackendURL,
	} {
		if url == "" {
			return nil, fmt.Errorf("%sが設定されていません", name)
		}
	}

	return cfg, nil
}

// getEnvOr は環境変数を取得し、設定されていない場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// getEnvSeconds は秒数を表す環境変数を取得する。正の整数であること。
func getEnvSeconds(key string, defaultValue int) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return time.Duration(defaultValue) * time.Second, nil
	}
	seconds, err := strconv.Atoi(v)
	if err != nil || seconds <= 0 {
		return 0, fmt.Errorf("%sは正の整数である必要があります: got %q", key, v)
	}
	return time.Duration(seconds) * time.Second, nil
}

// getEnvBool は真偽値を表す環境変数を取得する。
func getEnvBool(key string, defaultValue bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%sは真偽値である必要があります: got %q", key, v)
	}
	return parsed, nil
}
