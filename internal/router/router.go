package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/aoba-arch/permitdesk/docs"
	"github.com/aoba-arch/permitdesk/internal/middleware"
	"github.com/aoba-arch/permitdesk/internal/modules/handler"
	"github.com/aoba-arch/permitdesk/internal/modules/serializer"
)

type RouterDeps struct {
	Log                *zap.Logger
	ProjectHandler     *handler.ProjectHandler
	ApplicationHandler *handler.ApplicationHandler
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.ZapLogger(d.Log))

	// health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, serializer.Response{Msg: "ok"}) })

	// swagger
	r.GET("/swagger", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	{
		// ping endpoint
		v1.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, serializer.Response{Msg: "pong"}) })

		projects := v1.Group("/projects")
		{
			projects.GET("", d.ProjectHandler.ListProjects)
			projects.POST("", d.ProjectHandler.CreateProject)

			// fixed segments before the :id wildcard
			projects.GET("/search", d.ProjectHandler.SearchProjects)
			projects.GET("/summary", d.ProjectHandler.ProjectSummary)
			projects.GET("/status/:status", d.ProjectHandler.ListProjectsByStatus)
			projects.GET("/code/:code", d.ProjectHandler.GetProjectByCode)

			projects.GET("/:id", d.ProjectHandler.GetProject)
			projects.PUT("/:id", d.ProjectHandler.UpdateProject)
			projects.DELETE("/:id", d.ProjectHandler.DeleteProject)

			projects.PUT("/:id/financial", d.ProjectHandler.UpdateFinancial)
			projects.PUT("/:id/schedule", d.ProjectHandler.UpdateSchedule)
			projects.GET("/:id/audit-trail", d.ProjectHandler.ProjectAuditTrail)
		}

		applications := v1.Group("/applications")
		{
			applications.GET("", d.ApplicationHandler.ListApplications)
			applications.POST("", d.ApplicationHandler.CreateApplication)
			applications.GET("/summary", d.ApplicationHandler.ApplicationSummary)

			applications.GET("/:id", d.ApplicationHandler.GetApplication)
			applications.PUT("/:id", d.ApplicationHandler.UpdateApplication)
			applications.DELETE("/:id", d.ApplicationHandler.DeleteApplication)

			applications.POST("/:id/submit", d.ApplicationHandler.SubmitApplication)
			applications.POST("/:id/approve", d.ApplicationHandler.ApproveApplication)
			applications.POST("/:id/reject", d.ApplicationHandler.RejectApplication)
			applications.POST("/:id/withdraw", d.ApplicationHandler.WithdrawApplication)
			applications.GET("/:id/audit-trail", d.ApplicationHandler.ApplicationAuditTrail)
		}

		types := v1.Group("/application-types")
		{
			types.GET("", d.ApplicationHandler.ListApplicationTypes)
			types.POST("", d.ApplicationHandler.CreateApplicationType)
		}
	}
	return r
}
