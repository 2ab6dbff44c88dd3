package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/knighthoot/backend/internal/config"
	"github.com/knighthoot/backend/internal/handler"
	"github.com/knighthoot/backend/internal/middleware"
	"github.com/knighthoot/backend/internal/response"
	"github.com/knighthoot/backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth  *handler.AuthHandler
	Test  *handler.TestHandler
	Live  *handler.LiveHandler
	Score *handler.ScoreHandler
	Card  *handler.CardHandler
	Media *handler.MediaHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// If AllowedOrigins is set in config, restrict to that list; otherwise
	// allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Every response carries a request ID in its metadata.
	router.Use(response.RequestIDMiddleware())

	router.Use(middleware.Brotli())

	// Uploaded images are immutable (UUID filenames), cache for a year.
	uploadsGroup := router.Group("/uploads")
	uploadsGroup.Use(middleware.CacheControl(31536000))
	{
		uploadsGroup.Static("/", cfg.UploadDir)
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for credential endpoints (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// Public auth endpoints.
	api := router.Group("/api")
	{
		api.POST("/register", authLimiter.Middleware(), handlers.Auth.Register)
		api.POST("/login", authLimiter.Middleware(), handlers.Auth.Login)
		api.POST("/requestOTP", authLimiter.Middleware(), handlers.Auth.RequestOTP)
		api.POST("/resetPassword", authLimiter.Middleware(), handlers.Auth.ResetPassword)
	}

	// Endpoints for any signed-in user.
	userAPI := router.Group("/api")
	userAPI.Use(
		middleware.RequireJWT(authService),
		middleware.CheckActiveSession(authService),
	)
	{
		userAPI.POST("/logout", handlers.Auth.Logout)

		// Game polling: players and resuming hosts read the sanitized test.
		userAPI.GET("/test/:id", handlers.Test.GetView)

		// Flashcards.
		userAPI.POST("/addcard", handlers.Card.Add)
		userAPI.POST("/searchcards", handlers.Card.Search)
	}

	// Teacher endpoints: authoring and hosting.
	teacherAPI := router.Group("/api")
	teacherAPI.Use(
		middleware.RequireTeacherJWT(authService),
		middleware.CheckActiveSession(authService),
	)
	{
		teacherAPI.POST("/tests", handlers.Test.Create)
		teacherAPI.GET("/tests", handlers.Test.List)
		teacherAPI.GET("/tests/:id", handlers.Test.Get)
		teacherAPI.PUT("/tests/:id", handlers.Test.Update)
		teacherAPI.DELETE("/tests/:id", handlers.Test.Delete)
		teacherAPI.GET("/tests/:id/scores", handlers.Score.Leaderboard)

		teacherAPI.POST("/startTest", handlers.Live.StartTest)
		teacherAPI.POST("/nextQuestion", handlers.Live.NextQuestion)

		teacherAPI.POST("/upload", handlers.Media.Upload)
	}

	// Student endpoints: answering.
	studentAPI := router.Group("/api")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckActiveSession(authService),
	)
	{
		studentAPI.POST("/submitQuestion", handlers.Live.SubmitQuestion)
	}

	return router
}
