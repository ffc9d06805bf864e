// Package session はクッキーで運ばれる不透明なセッションIDに紐づく
// サーバー側セッションストアを提供する。
//
// gatewayが扱うセッション属性はJWTスロットひとつだけであり、汎用的な
// 属性マップは公開しない。バックエンドはインメモリ（単一ノード向け）と
// Redis（SESSION_REDIS_ADDR設定時）の2種類。
package session
