package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"
)

// DefaultTimeout は上流サービスへのリクエストの既定タイムアウト。
const DefaultTimeout = 30 * time.Second

// Client は上流サービスとの通信用HTTPクライアント。
// レスポンスボディの解釈は行わず、ステータスコードにかかわらず
// レスポンスをそのまま呼び出し側に返す。リトライはしない。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
}

// New は新しい上流通信用HTTPクライアントを生成する。
// timeoutが0以下の場合はDefaultTimeoutを使う。
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Exchange は指定URLへ単発の同期リクエストを送信する。
// ヘッダーとボディのバイト列は加工せずそのまま送る。接続拒否・タイムアウト等の
// トランスポート障害の場合のみエラーを返し、上流がエラーステータスを返した
// 場合はレスポンスをそのまま返す。レスポンスボディのCloseは呼び出し側の責務。
// ctxのキャンセル（クライアント切断）で送信中のリクエストも中断される。
func (c *Client) Exchange(ctx context.Context, method, url string, header http.Header, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("上流リクエストの作成に失敗: %w", err)
	}
	if header != nil {
		req.Header = header
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("上流リクエストの送信に失敗: %w", err)
	}
	return resp, nil
}
