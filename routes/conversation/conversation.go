package conversation

import (
	"OllamaDesk/controllers"
	"OllamaDesk/middleware"
	svc "OllamaDesk/pkg/services"

	"github.com/gin-gonic/gin"
)

// Register registers conversation routes. Creating a conversation costs a
// model call, so it sits behind the limiter.
func Register(g *gin.RouterGroup, conversations *svc.ConversationService, limiter *middleware.RateLimiter) {
	g.GET("/conversations", controllers.ListConversations(conversations))
	g.POST("/conversations", limiter.Handler(), controllers.CreateConversation(conversations))
}
