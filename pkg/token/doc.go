// Package token は署名付きBearerトークンの発行と検証を提供する。
//
// gatewayサービスがログイン成功時にトークンを発行し、プロキシ転送時に
// Authorizationヘッダーとして下流サービスへ付与する。署名はHMAC-SHA256
// （HS256）の共有秘密鍵方式であり、下流サービスが同じ秘密鍵を持てば
// 独立に検証できる。
package token
