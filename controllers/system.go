package controllers

import (
	"net/http"

	svc "OllamaDesk/pkg/services"

	"github.com/gin-gonic/gin"
)

func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ExitDesktop closes the kiosk shell.
func ExitDesktop(exiter *svc.DesktopExiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := exiter.Exit(c.Request.Context()); err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	}
}

// ListModels always answers 200; failures are described in the body.
func ListModels(catalog *svc.ModelCatalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, catalog.List(c.Request.Context()))
	}
}
