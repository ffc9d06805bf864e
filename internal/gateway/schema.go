package gateway

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	gatewaydb "github.com/chavadeepthi/medilaboGateway/internal/gateway/db"
)

// スキーマ定義。ユーザーディレクトリのみを持つ。
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    roles TEXT NOT NULL DEFAULT '',
    display_name TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    last_login_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username
    ON users(username);
`

// stockUser は初期シードするアカウント。
type stockUser struct {
	username string
	password string
	roles    string
}

// stockUsers は空のユーザーディレクトリに投入する初期アカウント。
// デモ環境用であり、本番では運用手順で差し替えること。
var stockUsers = []stockUser{
	{username: "user", password: "password", roles: "ROLE_USER"},
	{username: "admin", password: "admin", roles: "ROLE_ADMIN"},
}

// initSchema はSQLiteデータベースにスキーマを適用する。
func initSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("スキーマの適用に失敗: %w", err)
	}
	return nil
}

// seedStockUsers はユーザーディレクトリが空の場合に初期アカウントを投入する。
// パスワードはbcryptでハッシュ化して保存する。
func seedStockUsers(ctx context.Context, queries *gatewaydb.Queries) error {
	count, err := queries.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("ユーザー数の取得に失敗: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, u := range stockUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("パスワードハッシュの生成に失敗: %w", err)
		}
		if err := queries.CreateUser(ctx, gatewaydb.CreateUserParams{
			ID:           uuid.New().String(),
			Username:     u.username,
			PasswordHash: string(hash),
			Roles:        u.roles,
			DisplayName:  u.username,
		}); err != nil {
			return fmt.Errorf("初期ユーザー %s の作成に失敗: %w", u.username, err)
		}
	}
	return nil
}
