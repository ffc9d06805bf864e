package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chavadeepthi/medilaboGateway/pkg/token"
)

// contextKeySubject はGinコンテキストに認証済みユーザー名を格納するキー。
const contextKeySubject = "subject"

// contextKeyRoles はGinコンテキストにロール一覧を格納するキー。
const contextKeyRoles = "roles"

// BearerAuth はAuthorizationヘッダーのBearerトークンを検証するGinミドルウェアを返す。
// gatewayと同じ秘密鍵を共有する下流サービスが独立に検証する場合に使う。
// 検証に成功した場合、コンテキストにユーザー名とロール一覧を設定する。
func BearerAuth(minter *token.Minter) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorizationヘッダーが必要です",
			})
			return
		}

		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Bearer トークン形式が不正です",
			})
			return
		}

		claims, err := minter.Parse(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "トークンが無効です",
			})
			return
		}

		c.Set(contextKeySubject, claims.Subject)
		c.Set(contextKeyRoles, claims.Roles)
		c.Next()
	}
}

// Subject はGinコンテキストから認証済みユーザー名を取得する。
// BearerAuthミドルウェアが事前に適用されている必要がある。
func Subject(c *gin.Context) string {
	value, _ := c.Get(contextKeySubject)
	if subject, ok := value.(string); ok {
		return subject
	}
	return ""
}

// Roles はGinコンテキストからロール一覧を取得する。
func Roles(c *gin.Context) []string {
	value, _ := c.Get(contextKeyRoles)
	if roles, ok := value.([]string); ok {
		return roles
	}
	return nil
}
