package ssl

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
)

// Options 安全响应头配置，RedirectHTTPS 为 true 时把 http 请求重定向到 host:port
type Options struct {
	Host          string
	Port          int
	RedirectHTTPS bool
	IsDevelopment bool
}

func newSecure(opt Options) *secure.Secure {
	o := secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		IsDevelopment:      opt.IsDevelopment,
	}
	if opt.RedirectHTTPS {
		o.SSLRedirect = true
		o.SSLHost = opt.Host + ":" + strconv.Itoa(opt.Port)
		o.STSSeconds = 31536000
	}
	return secure.New(o)
}

func TlsHandler(opt Options) gin.HandlerFunc {
	secureMiddleware := newSecure(opt)
	return func(c *gin.Context) {
		err := secureMiddleware.Process(c.Writer, c.Request)

		// Process 已经写入了重定向响应，只需中止 gin 的处理链
		if err != nil {
			c.Abort()
			return
		}
		c.Next()
	}
}
