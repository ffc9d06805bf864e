package gateway

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/chavadeepthi/medilaboGateway/internal/session"
)

// loginFormPage はログインフォームのHTML。%s にはエラー通知が入る。
const loginFormPage = `<!DOCTYPE html>
<html lang="ja">
<head><meta charset="utf-8"><title>MediLabo Gateway - ログイン</title></head>
<body>
<h1>MediLabo Gateway</h1>
%s
<form method="post" action="/login">
  <label>ユーザー名 <input type="text" name="username" autocomplete="username"></label><br>
  <label>パスワード <input type="password" name="password" autocomplete="current-password"></label><br>
  <button type="submit">ログイン</button>
</form>
</body>
</html>`

// loginErrorNotice は認証失敗時にフォーム上部へ表示する通知。
const loginErrorNotice = `<p>ユーザー名またはパスワードが正しくありません。</p>`

// errorPage は /error 用の汎用エラーページ。
const errorPage = `<!DOCTYPE html>
<html lang="ja">
<head><meta charset="utf-8"><title>MediLabo Gateway - エラー</title></head>
<body>
<h1>エラーが発生しました</h1>
<p><a href="/login">ログインページへ戻る</a></p>
</body>
</html>`

// handleLoginPage はログインフォームを表示するハンドラを返す。
// クエリに error がある場合は認証失敗の通知を併せて表示する。
func (s *Server) handleLoginPage() gin.HandlerFunc {
	return func(c *gin.Context) {
		notice := ""
		if _, failed := c.GetQuery("error"); failed {
			notice = loginErrorNotice
		}
		page := strings.Replace(loginFormPage, "%s", notice, 1)
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
	}
}

// handleLoginSubmit はフォーム送信された資格情報を検証するハンドラを返す。
// 検証に成功した場合はログイン成功シンクへ処理を引き継ぎ、失敗した場合は
// エラー通知付きでログインフォームへ戻す。
func (s *Server) handleLoginSubmit() gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.PostForm("username")
		password := c.PostForm("password")

		user, err := s.queries.GetUserByUsername(c.Request.Context(), username)
		if errors.Is(err, sql.ErrNoRows) {
			c.Redirect(http.StatusFound, "/login?error")
			return
		}
		if err != nil {
			log.Printf("ユーザー取得エラー: username=%s, error=%v", username, err)
			c.Redirect(http.StatusFound, "/error")
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
			c.Redirect(http.StatusFound, "/login?error")
			return
		}

		roles := splitRoles(user.Roles)
		s.onLoginSuccess(c, user.Username, roles)

		if err := s.queries.UpdateLastLogin(c.Request.Context(), user.ID); err != nil {
			log.Printf("最終ログイン時刻の更新エラー: username=%s, error=%v", username, err)
		}
	}
}

// onLoginSuccess はログイン成功シンク。認証済みユーザー名とロール一覧から
// トークンを発行し、セッションのJWTスロットへ格納した上で設定された
// ランディングパスへ302リダイレクトする。
// トークン発行・セッション作成の失敗は500として呼び出し元へ返す。
func (s *Server) onLoginSuccess(c *gin.Context, username string, roles []string) {
	extra := map[string]any{"displayName": username}
	jwt, err := s.minter.Mint(username, roles, extra)
	if err != nil {
		log.Printf("トークン発行エラー: username=%s, error=%v", username, err)
		c.String(http.StatusInternalServerError, "トークンの発行に失敗しました")
		return
	}

	ctx := c.Request.Context()
	id := s.acquireSession(c)
	if id == "" {
		var createErr error
		id, createErr = s.sessions.Create(ctx)
		if createErr != nil {
			log.Printf("セッション作成エラー: username=%s, error=%v", username, createErr)
			c.String(http.StatusInternalServerError, "セッションの作成に失敗しました")
			return
		}
	}
	if err := s.sessions.SetJWT(ctx, id, jwt); err != nil {
		log.Printf("セッション更新エラー: username=%s, error=%v", username, err)
		c.String(http.StatusInternalServerError, "セッションの更新に失敗しました")
		return
	}

	maxAge := int(s.config.SessionTTL.Seconds())
	c.SetCookie(session.CookieName, id, maxAge, "/", "", false, true)
	c.Redirect(http.StatusFound, s.config.LoginSuccessURL)
	log.Printf("ログイン成功: user=%s, roles=%v", username, roles)
}

// acquireSession は既存の有効なセッションのIDを返す。無ければ空文字列。
func (s *Server) acquireSession(c *gin.Context) string {
	id, err := c.Cookie(session.CookieName)
	if err != nil || id == "" {
		return ""
	}
	if _, err := s.sessions.JWT(c.Request.Context(), id); err != nil {
		return ""
	}
	return id
}

// handleLogout はセッションを破棄してログインページへ戻すハンドラを返す。
func (s *Server) handleLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, err := c.Cookie(session.CookieName); err == nil && id != "" {
			if err := s.sessions.Destroy(c.Request.Context(), id); err != nil {
				log.Printf("セッション破棄エラー: error=%v", err)
			}
		}
		c.SetCookie(session.CookieName, "", -1, "/", "", false, true)
		c.Redirect(http.StatusFound, "/login")
	}
}

// handleErrorPage は汎用エラーページを表示するハンドラを返す。
func (s *Server) handleErrorPage() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(errorPage))
	}
}

// splitRoles はカンマ区切りのロール列を宣言順のまま分割する。
func splitRoles(roles string) []string {
	if roles == "" {
		return nil
	}
	parts := strings.Split(roles, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
