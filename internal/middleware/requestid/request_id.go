package requestid

import (
	"strings"

	"MediaHub/pkg/util"

	"github.com/gin-gonic/gin"
)

const (
	Header     = "X-Request-Id"
	ContextKey = "request_id"
)

// RequestID 沿用上游传入的请求 id，没有则生成
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(Header))
		if id == "" || len(id) > 64 {
			id = util.GenerateUUID()
		}
		c.Set(ContextKey, id)
		c.Header(Header, id)
		c.Next()
	}
}
