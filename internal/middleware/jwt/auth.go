package jwt

import (
	"crypto/subtle"
	"strings"

	"MediaHub/pkg/back"
	"MediaHub/pkg/util/myjwt"
	"MediaHub/pkg/xerr"

	"github.com/gin-gonic/gin"
)

// ContextUserID gin 上下文中保存当前用户 id 的键
const ContextUserID = "user_id"

func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			back.Error(c, xerr.Unauthorized, "missing or invalid authorization header")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := myjwt.ParseToken(tokenString)
		if err != nil {
			back.Error(c, xerr.Unauthorized, "invalid token")
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserId)
		c.Set("username", claims.Username)
		c.Next()
	}
}

// InternalAuth 校验服务间调用的 X-Internal-Key，key 为空时拒绝所有请求
func InternalAuth(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader("X-Internal-Key")
		if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			back.Error(c, xerr.Unauthorized, "invalid internal key")
			c.Abort()
			return
		}
		c.Next()
	}
}
