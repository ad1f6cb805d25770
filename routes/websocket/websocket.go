package websocket

import (
	"OllamaDesk/controllers"
	"OllamaDesk/middleware"
	"OllamaDesk/pkg/relay"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func Register(r *gin.Engine, rl *relay.Relay, maxMessageBytes int64, limiter *middleware.RateLimiter, log *zap.Logger) {
	r.GET("/ws", limiter.Handler(), controllers.ChatWS(rl, maxMessageBytes, log))
}
