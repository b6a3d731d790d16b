package router

import (
	"net/http"

	"github.com/devtrack/internal/config"
	"github.com/devtrack/internal/handler"
	"github.com/devtrack/internal/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Setup 配置 Gin 引擎和路由
func Setup(gdb *gorm.DB, cfg config.AppConfig, log *logger.Logger) *gin.Engine {
	gin.SetMode(cfg.GinMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(handler.RequestLog(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))
	r.Use(handler.RateLimit(cfg))

	api := handler.NewAPI(gdb, cfg, log)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	v1.Use(api.AuthRequired())
	{
		v1.GET("/auth/me", api.GetMe)
		v1.PATCH("/auth/me", api.UpdateMe)

		v1.GET("/skills", api.GetSkills)
		v1.POST("/skills", api.CreateSkill)
		v1.GET("/skills/:id", api.GetSkill)
		v1.PUT("/skills/:id", api.UpdateSkill)
		v1.DELETE("/skills/:id", api.DeleteSkill)
		v1.POST("/skills/batch-update", api.BatchUpdateSkills)

		v1.GET("/projects", api.GetProjects)
		v1.POST("/projects", api.CreateProject)
		v1.GET("/projects/:id", api.GetProject)
		v1.PUT("/projects/:id", api.UpdateProject)
		v1.DELETE("/projects/:id", api.DeleteProject)
		v1.POST("/projects/batch-update", api.BatchUpdateProjects)

		v1.GET("/resources", api.GetResources)
		v1.POST("/resources", api.CreateResource)
		v1.GET("/resources/:id", api.GetResource)
		v1.GET("/resources/:id/notes/preview", api.GetResourceNotesPreview)
		v1.PUT("/resources/:id", api.UpdateResource)
		v1.DELETE("/resources/:id", api.DeleteResource)
		v1.POST("/resources/batch-update", api.BatchUpdateResources)

		v1.GET("/tags", api.GetTags)
		v1.POST("/tags", api.CreateTag)
		v1.PUT("/tags/:id", api.UpdateTag)
		v1.DELETE("/tags/:id", api.DeleteTag)

		v1.GET("/time-entries", api.GetTimeEntries)
		v1.POST("/time-entries/start", api.StartTimeEntry)
		v1.POST("/time-entries/stop", api.StopTimeEntry)
		v1.DELETE("/time-entries/:id", api.DeleteTimeEntry)

		v1.GET("/stats", api.GetStats)
		v1.GET("/stats/progress", api.GetProgress)
		v1.GET("/activities", api.GetActivities)
		v1.GET("/activities/heatmap", api.GetHeatmap)
	}

	return r
}
