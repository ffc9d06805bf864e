// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// セッションクッキーに基づく認証ゲート、共有秘密鍵によるBearerトークン検証、
// CORS設定、パニックリカバリ、Prometheusメトリクス収集を含む。
package middleware
