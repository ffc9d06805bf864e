package session

import (
	"context"
	"errors"
)

// CookieName はセッションIDを運ぶクッキー名。
const CookieName = "MEDILABO_SESSION"

// ErrNotFound はセッションが存在しない、または期限切れの場合に返される。
var ErrNotFound = errors.New("セッションが見つかりません")

// Store はセッションストアの契約。
// セッションはJWTスロットをひとつだけ持つ。実装はゴルーチン安全であること。
type Store interface {
	// Create は新しいセッションを生成し、不透明なセッションIDを返す。
	Create(ctx context.Context) (string, error)
	// JWT はセッションのJWTスロットを返す。
	// セッションが存在しない場合はErrNotFoundを返す。未設定の場合は空文字列。
	JWT(ctx context.Context, id string) (string, error)
	// SetJWT はセッションのJWTスロットを設定し、有効期限を更新する。
	// セッションが存在しない場合はErrNotFoundを返す。
	SetJWT(ctx context.Context, id, token string) error
	// Destroy はセッションを破棄する。存在しない場合も成功として扱う。
	Destroy(ctx context.Context, id string) error
}
