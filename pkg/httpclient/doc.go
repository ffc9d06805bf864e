// Package httpclient は上流サービスへのHTTP通信を行うクライアントを提供する。
//
// gatewayのプロキシ面が上流サービスへリクエストを転送する際に使用する。
// バイト列をそのまま中継し、加工・リトライ・キャッシュは行わない。
package httpclient
