package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"docchat/internal/app"
	"docchat/internal/bootstrap"
	"docchat/internal/transport/http/handler"
	"docchat/internal/transport/http/middleware"
)

type Services struct {
	Chat      *app.ChatService
	Documents *app.DocumentService
	Analysis  *app.AnalysisService
}

type Options struct {
	ServiceName  string
	GinMode      string
	StartedAt    time.Time
	HealthChecks map[string]handler.HealthCheck
	CORSOrigins  []string
	MaxUpload    int64

	// RatePerSecond <= 0 disables rate limiting on gateway-bound routes.
	RatePerSecond float64
	RateBurst     int
}

func NewRouter(a *bootstrap.App) *gin.Engine {
	cfg := a.Config
	return NewEngine(Services{
		Chat:      a.ChatService,
		Documents: a.DocumentService,
		Analysis:  a.AnalysisService,
	}, Options{
		ServiceName:   "ChatPDF",
		GinMode:       cfg.App.GinMode,
		StartedAt:     a.StartedAt,
		HealthChecks:  a.HealthChecks,
		CORSOrigins:   cfg.CORS.Origins,
		MaxUpload:     cfg.Storage.MaxUpload,
		RatePerSecond: cfg.RateLimit.PerSecond,
		RateBurst:     cfg.RateLimit.Burst,
	})
}

func NewEngine(svc Services, opts Options) *gin.Engine {
	if opts.GinMode != "" {
		gin.SetMode(opts.GinMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics(), middleware.CORS(opts.CORSOrigins))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	var limiter *middleware.IPRateLimiter
	if opts.RatePerSecond > 0 {
		limiter = middleware.NewIPRateLimiter(rate.Limit(opts.RatePerSecond), opts.RateBurst)
	}
	limited := middleware.RateLimit(limiter)

	healthHandler := handler.NewHealthHandler(opts.ServiceName, opts.StartedAt, opts.HealthChecks)
	modelHandler := handler.NewModelHandler()
	sessionHandler := handler.NewSessionHandler(svc.Chat)
	chatHandler := handler.NewChatHandler(svc.Chat, opts.CORSOrigins, limiter)
	documentHandler := handler.NewDocumentHandler(svc.Documents, opts.MaxUpload)
	analysisHandler := handler.NewAnalysisHandler(svc.Analysis)

	api := router.Group("/api")
	api.GET("/health", healthHandler.Check)
	api.GET("/models", modelHandler.List)

	sessions := api.Group("/sessions")
	sessions.POST("", sessionHandler.Create)
	sessions.GET("", sessionHandler.List)
	sessions.GET("/:id", sessionHandler.Get)
	sessions.GET("/:id/messages", sessionHandler.Messages)
	sessions.POST("/:id/upload", documentHandler.Upload)
	sessions.POST("/:id/chat", limited, chatHandler.Chat)
	sessions.POST("/:id/chat/stream", limited, chatHandler.Stream)
	sessions.GET("/:id/chat/ws", limited, chatHandler.StreamWS)
	sessions.POST("/:id/generate-qa", limited, analysisHandler.GenerateQA)

	api.POST("/research", limited, analysisHandler.Research)
	api.POST("/translate", limited, analysisHandler.Translate)

	return router
}
