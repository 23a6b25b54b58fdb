package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "nlquery-engine/internal/app"
	"nlquery-engine/internal/bootstrap"
	"nlquery-engine/internal/cache"
	"nlquery-engine/internal/repository"
	"nlquery-engine/internal/transport/http/handler"
	"nlquery-engine/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), middleware.CORS())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/", healthHandler.Root)
	router.GET("/healthz", healthHandler.Check)

	chunkRepo := repository.NewChunkRepository(app.Storage)
	queryCache := cache.NewQueryCache(app.Redis, time.Duration(app.Config.Redis.CacheTTLSeconds)*time.Second)
	historyStore := cache.NewHistoryStore(app.Redis, app.Config.Redis.HistoryLimit)

	schemaService := appsvc.NewSchemaService(app.Pool)
	queryService := appsvc.NewQueryService(
		app.Pool,
		app.Embedder,
		app.IntentModel,
		queryCache,
		historyStore,
		chunkRepo,
		app.Collector,
		app.Config.Query.DefaultConnection,
		app.Config.Query.DefaultLimit,
		app.Config.Query.DefaultDocLimit,
	)

	schemaHandler := handler.NewSchemaHandler(schemaService)
	ingestionHandler := handler.NewIngestionHandler(app.Ingest)
	queryHandler := handler.NewQueryHandler(queryService)
	metricsHandler := handler.NewMetricsHandler(app.Collector, app.Ingest)

	admin := middleware.RequireAdmin(app.Config.Auth.AdminSecret)

	api := router.Group("/api")
	api.POST("/connect-database", schemaHandler.Connect)
	api.POST("/upload-documents", ingestionHandler.Upload)
	api.GET("/ingestion-status/:id", ingestionHandler.Status)
	api.POST("/ingestion/reset", admin, ingestionHandler.Reset)
	api.POST("/query", queryHandler.Run)
	api.GET("/query/history", queryHandler.History)
	api.GET("/metrics", metricsHandler.Get)
	api.POST("/metrics/reset", admin, metricsHandler.Reset)

	return router
}
