package db

import (
	"context"
)

// User はユーザーディレクトリの1レコード。
type User struct {
	// ID はユーザーの一意識別子。
	ID string
	// Username はログインに使うユーザー名。
	Username string
	// PasswordHash はbcryptでハッシュ化されたパスワード。
	PasswordHash string
	// Roles はカンマ区切りのロール一覧（宣言順を保持）。
	Roles string
	// DisplayName は表示名。
	DisplayName string
	// CreatedAt は作成時刻（SQLiteのdatetime文字列）。
	CreatedAt string
	// LastLoginAt は最終ログイン時刻（SQLiteのdatetime文字列）。
	LastLoginAt string
}

const getUserByUsername = `
SELECT id, username, password_hash, roles, display_name, created_at, last_login_at
FROM users
WHERE username = ?
`

// GetUserByUsername はユーザー名でユーザーを検索する。
// 見つからない場合はsql.ErrNoRowsを返す。
func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByUsername, username)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Roles, &u.DisplayName, &u.CreatedAt, &u.LastLoginAt)
	return u, err
}

const createUser = `
INSERT INTO users (id, username, password_hash, roles, display_name)
VALUES (?, ?, ?, ?, ?)
`

// CreateUserParams はCreateUserの引数。
type CreateUserParams struct {
	ID           string
	Username     string
	PasswordHash string
	Roles        string
	DisplayName  string
}

// CreateUser は新しいユーザーを作成する。
func (q *Queries) CreateUser(ctx context.Context, params CreateUserParams) error {
	_, err := q.db.ExecContext(ctx, createUser,
		params.ID, params.Username, params.PasswordHash, params.Roles, params.DisplayName)
	return err
}

const updateLastLogin = `
UPDATE users SET last_login_at = datetime('now') WHERE id = ?
`

// UpdateLastLogin は最終ログイン時刻を現在時刻に更新する。
func (q *Queries) UpdateLastLogin(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, updateLastLogin, id)
	return err
}

const countUsers = `
SELECT COUNT(*) FROM users
`

// CountUsers は登録済みユーザー数を返す。初期シードの要否判定に使う。
func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countUsers)
	var count int64
	err := row.Scan(&count)
	return count, err
}
