// Package gateway は認証付きリバースプロキシgatewayの内部実装を提供する。
//
// フォームログインで認証したブラウザにサーバー側セッションを張り、ユーザー名と
// ロールを載せた署名付きBearerトークンを発行してセッションに保持する。
// /api/proxy/** へのリクエストは接頭辞ルーティングで上流サービス
// （patients・notes・risk・frontend）を選び、トークンを付与して転送する。
// 外部からアクセス可能な唯一のサービスであり、セキュリティの境界線として機能する。
package gateway
