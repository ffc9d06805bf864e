package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chavadeepthi/medilaboGateway/internal/session"
)

// contextKeySessionID はGinコンテキストにセッションIDを格納するキー。
const contextKeySessionID = "session_id"

// contextKeySessionJWT はGinコンテキストにセッションのJWTを格納するキー。
const contextKeySessionJWT = "session_jwt"

// loginPath は未認証リクエストのリダイレクト先。
const loginPath = "/login"

// SessionAuth は認証済みセッションを要求するGinミドルウェアを返す。
// セッションクッキーが無い、セッションが存在しない、またはJWTスロットが
// 空の場合は /login へ302リダイレクトする。
// 認証済みの場合はコンテキストにセッションIDとJWTを設定する。
func SessionAuth(store session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(session.CookieName)
		if err != nil || id == "" {
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}

		jwt, err := store.JWT(c.Request.Context(), id)
		if err != nil || jwt == "" {
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}

		c.Set(contextKeySessionID, id)
		c.Set(contextKeySessionJWT, jwt)
		c.Next()
	}
}

// SessionID はGinコンテキストからセッションIDを取得する。
// SessionAuthミドルウェアが事前に適用されている必要がある。
func SessionID(c *gin.Context) string {
	value, _ := c.Get(contextKeySessionID)
	if id, ok := value.(string); ok {
		return id
	}
	return ""
}

// SessionJWT はGinコンテキストからセッションのJWTを取得する。
// SessionAuthミドルウェアが適用されていない場合は空文字列を返す。
func SessionJWT(c *gin.Context) string {
	value, _ := c.Get(contextKeySessionJWT)
	if jwt, ok := value.(string); ok {
		return jwt
	}
	return ""
}
