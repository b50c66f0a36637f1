package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	pkgAuth "github.com/polkiloo/lotteryengine/internal/pkg/auth"
	"github.com/polkiloo/lotteryengine/internal/server/http/handlers"
	"github.com/polkiloo/lotteryengine/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.LotteryFacade, verifier pkgAuth.TokenVerifier, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	// Preflight requests are answered here and never reach the routes below.
	engine.Use(middleware.CORS())
	engine.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/healthz"})))

	jobHandler := handlers.NewJobHandler(facade, facade, facade)
	roundHandler := handlers.NewRoundHandler(facade)
	healthHandler := handlers.NewHealthHandler(facade)

	engine.GET("/healthz", healthHandler.Check)

	api := engine.Group("/api")
	api.Use(middleware.TriggerAuth(verifier))

	jobs := api.Group("/jobs")
	for path, handler := range map[string]gin.HandlerFunc{
		"/auto-draw":              jobHandler.AutoDraw,
		"/release-expired-orders": jobHandler.ReleaseExpiredOrders,
		"/reconcile-settlements":  jobHandler.ReconcileSettlements,
	} {
		jobs.POST(path, handler)
		jobs.GET(path, handler)
	}

	rounds := api.Group("/rounds/:id")
	rounds.POST("/draw", roundHandler.Draw)
	rounds.GET("/verification", roundHandler.Verification)

	return engine
}
