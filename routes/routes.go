package routes

import (
	"OllamaDesk/middleware"
	"OllamaDesk/pkg/relay"
	svc "OllamaDesk/pkg/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	convRoutes "OllamaDesk/routes/conversation"
	systemRoutes "OllamaDesk/routes/system"
	websocketRoutes "OllamaDesk/routes/websocket"
)

// Deps are the services the HTTP surface is built on.
type Deps struct {
	Relay             *relay.Relay
	Conversations     *svc.ConversationService
	Models            *svc.ModelCatalog
	Desktop           *svc.DesktopExiter
	WSMaxMessageBytes int64
	Limiter           *middleware.RateLimiter
	Log               *zap.Logger
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	systemRoutes.Register(r, d.Models, d.Desktop)
	websocketRoutes.Register(r, d.Relay, d.WSMaxMessageBytes, d.Limiter, d.Log)

	api := r.Group("/api")
	convRoutes.Register(api, d.Conversations, d.Limiter)
}
