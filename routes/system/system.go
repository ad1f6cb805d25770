package system

import (
	"OllamaDesk/controllers"
	svc "OllamaDesk/pkg/services"

	"github.com/gin-gonic/gin"
)

func Register(r *gin.Engine, models *svc.ModelCatalog, desktop *svc.DesktopExiter) {
	r.GET("/healthz", controllers.Healthz)
	r.POST("/api/exit", controllers.ExitDesktop(desktop))
	r.GET("/api/models", controllers.ListModels(models))
}
