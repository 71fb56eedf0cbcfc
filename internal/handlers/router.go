package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/temic137/forms-sub004/internal/services"
	"github.com/temic137/forms-sub004/internal/utils"
	"github.com/temic137/forms-sub004/internal/validator"
)

const requestIDHeader = "X-Request-ID"

type HandlerManager struct {
	formHandler       *FormHandler
	runtimeHandler    *RuntimeHandler
	submissionHandler *SubmissionHandler
	auth              *Authenticator
	logger            utils.Logger
	allowedOrigins    []string
}

type Services struct {
	Form       services.FormService
	Runtime    services.RuntimeService
	Submission services.SubmissionService
}

func NewHandlerManager(
	svc Services,
	auth *Authenticator,
	validator *validator.Validator,
	logger utils.Logger,
	allowedOrigins []string,
) *HandlerManager {
	return &HandlerManager{
		formHandler:       NewFormHandler(svc.Form, logger),
		runtimeHandler:    NewRuntimeHandler(svc.Runtime, validator, logger),
		submissionHandler: NewSubmissionHandler(svc.Submission, logger),
		auth:              auth,
		logger:            logger,
		allowedOrigins:    allowedOrigins,
	}
}

// NewRouter builds a gin engine with the shared middleware chain and all routes.
func (hm *HandlerManager) NewRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(utils.LoggerMiddleware(hm.logger))
	router.Use(utils.ContextLogger(hm.logger))
	router.Use(cors.New(corsConfig(hm.allowedOrigins)))

	hm.SetupRoutes(router)
	return router
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")

	// Authoring and results, owner only
	authoring := v1.Group("/forms", hm.auth.RequireAuth())
	{
		authoring.POST("", hm.formHandler.CreateForm)
		authoring.GET("", hm.formHandler.ListForms)
		authoring.GET("/:id", hm.formHandler.GetForm)
		authoring.PUT("/:id", hm.formHandler.UpdateForm)
		authoring.DELETE("/:id", hm.formHandler.DeleteForm)
		authoring.POST("/:id/publish", hm.formHandler.PublishForm)
		authoring.POST("/:id/close", hm.formHandler.CloseForm)
		authoring.POST("/:id/score-preview", hm.runtimeHandler.ScorePreview)

		authoring.GET("/:id/submissions", hm.submissionHandler.ListSubmissions)
		authoring.GET("/:id/submissions/:submission_id", hm.submissionHandler.GetSubmission)
		authoring.GET("/:id/stats", hm.submissionHandler.GetStats)
		authoring.GET("/:id/export", hm.submissionHandler.ExportSubmissions)
	}

	// Respondent runtime, anonymous allowed
	runtime := v1.Group("/forms", hm.auth.OptionalAuth())
	{
		runtime.GET("/:id/public", hm.runtimeHandler.GetPublicForm)
		runtime.POST("/:id/visibility", hm.runtimeHandler.EvaluateVisibility)
		runtime.POST("/:id/submissions", hm.runtimeHandler.Submit)

		runtime.POST("/:id/sessions", hm.runtimeHandler.StartSession)
		runtime.GET("/:id/sessions/:session_id", hm.runtimeHandler.GetSession)
		runtime.PUT("/:id/sessions/:session_id/answers", hm.runtimeHandler.UpdateAnswers)
		runtime.POST("/:id/sessions/:session_id/next", hm.runtimeHandler.NextStep)
		runtime.POST("/:id/sessions/:session_id/previous", hm.runtimeHandler.PreviousStep)
	}
}

// HealthCheck reports liveness
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "forms-service",
	})
}

// RequestID propagates or generates X-Request-ID and tags the request context with it.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
			c.Request.Header.Set(requestIDHeader, requestID)
		}
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Request = c.Request.WithContext(services.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", requestIDHeader, devUserHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = allowedOrigins
	cfg.AllowCredentials = true
	return cfg
}
