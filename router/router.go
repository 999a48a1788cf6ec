// router/router.go

package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/odoo-mcp/odoo-mcp-server/access"
	"github.com/odoo-mcp/odoo-mcp-server/middleware"
)

// HealthChecker is the slice of the Odoo connection the admin surface
// needs. *odoo.Connection satisfies it.
type HealthChecker interface {
	CheckHealth() (bool, string)
	Database() string
}

// SetupRouter builds the admin HTTP surface served alongside the MCP
// transport: a health probe and cache invalidation.
func SetupRouter(conn HealthChecker, controller *access.Controller) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())

	router.GET("/health", func(c *gin.Context) {
		healthy, detail := conn.CheckHealth()
		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"healthy":  healthy,
			"detail":   detail,
			"database": conn.Database(),
			"tier":     controller.Tier(),
		})
	})

	router.DELETE("/cache", func(c *gin.Context) {
		controller.ClearCache(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"cleared": true})
	})

	return router
}
