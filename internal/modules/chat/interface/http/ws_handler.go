package handler

import (
	"context"
	"net/http"
	"time"

	"MediaHub/internal/modules/chat/application/service"
	"MediaHub/pkg/util/myjwt"
	"MediaHub/pkg/ws"
	"MediaHub/pkg/zlog"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WsHandler struct {
	hub *ws.Hub
	svc service.RealtimeService
}

func NewWsHandler(hub *ws.Hub, svc service.RealtimeService) *WsHandler {
	return &WsHandler{hub: hub, svc: svc}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Connect 浏览器原生 WebSocket 无法带自定义 Header，token 放在 query 中
func (h *WsHandler) Connect(c *gin.Context) {
	claims, err := myjwt.ParseToken(c.Query("token"))
	if err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zlog.Warn("ws upgrade failed", zap.Int64("user_id", claims.UserId), zap.Error(err))
		return
	}

	client := ws.NewClient(claims.UserId, conn)
	h.hub.Register(client)
	defer func() {
		if h.hub.Unregister(client) {
			return
		}
		// 请求上下文可能已结束
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		h.svc.Disconnect(ctx, claims.UserId)
	}()

	go client.WritePump()

	client.ReadPump(func(raw []byte) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		h.svc.HandleFrame(ctx, claims.UserId, claims.Username, raw)
	})
}
