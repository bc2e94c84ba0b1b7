package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/workfolio-backend/internal/config"
	"github.com/ignatzorin/workfolio-backend/internal/http/handlers"
	"github.com/ignatzorin/workfolio-backend/internal/http/middleware"
)

// Handlers собирает все HTTP обработчики сервиса.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Portfolio *handlers.PortfolioHandler
	AI        *handlers.AIHandler
	Billing   *handlers.BillingHandler
	Media     *handlers.MediaHandler
	User      *handlers.UserHandler
	WS        *handlers.WSHandler
	Health    *handlers.HealthHandler
}

// SetupRouter регистрирует маршруты.
func SetupRouter(cfg *config.Config, h Handlers, tokens middleware.AccessTokenParser, users middleware.UserLookup) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	if h.Health != nil {
		r.GET("/health", h.Health.Health)
	}
	r.Static("/media", cfg.MediaStoragePath)

	api := r.Group("/api")
	auth := middleware.AuthMiddleware(tokens, users)

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
	}

	sessions := api.Group("/auth/sessions", auth)
	{
		sessions.GET("", h.Auth.ListSessions)
		sessions.DELETE("/:id", middleware.UUIDValidator("id"), h.Auth.DeleteSession)
	}

	api.GET("/me", auth, h.Auth.Me)

	// Вебхук вызывается провайдером без токена; подлинность проверяется подписью.
	api.POST("/billing/webhook", h.Billing.Webhook)
	api.POST("/billing/checkout", auth, h.Billing.Checkout)

	api.GET("/ws", middleware.QueryTokenAuth(tokens, users), h.WS.Handle)

	portfolio := api.Group("/portfolio", auth)
	{
		portfolio.GET("", h.Portfolio.Public)
		portfolio.GET("/default", h.Portfolio.Default)

		editor := portfolio.Group("/admin")
		editor.GET("", h.Portfolio.Editor)
		editor.PUT("", h.Portfolio.Save)
		editor.PATCH("/publish", h.Portfolio.Publish)
		editor.PATCH("/:section", h.Portfolio.UpdateSection)
		editor.POST("/:list", h.Portfolio.AddItem)
		editor.POST("/:list/move", h.Portfolio.Move)
		editor.PUT("/:list/order", h.Portfolio.Reorder)
		editor.DELETE("/:list/:itemId", h.Portfolio.RemoveItem)
	}

	ai := api.Group("/ai", auth)
	ai.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		ai.POST("/generate", h.AI.Generate)
	}

	api.POST("/upload", auth, h.Media.Upload)
	api.DELETE("/media/:id", auth, middleware.UUIDValidator("id"), h.Media.Delete)

	user := api.Group("/user", auth)
	{
		user.PUT("/profile", h.User.UpdateProfile)
		user.DELETE("/profile", h.User.DeleteAccount)
	}

	admin := api.Group("/users", auth, middleware.RequireAdmin())
	{
		admin.GET("", h.User.List)
		admin.PATCH("/:id", middleware.UUIDValidator("id"), h.User.Update)
		admin.DELETE("/:id", middleware.UUIDValidator("id"), h.User.Delete)
	}

	return r
}
