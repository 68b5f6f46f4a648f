package api

import (
	"net/http"

	"github.com/jmoiron/sqlx"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"toolrental/internal/api/handlers"
	apimw "toolrental/internal/api/middleware"
	"toolrental/internal/api/ws"
	"toolrental/internal/config"
	"toolrental/internal/events"
)

func SetupRoutes(e *echo.Echo, db *sqlx.DB, rdb *redis.Client, cfg *config.Config, publisher events.Publisher, hub *ws.Hub) {
	e.GET("/health", healthCheck)

	e.Validator = NewValidator()

	wsHandler := handlers.NewWebSocketHandler(db, hub, cfg.JWTKey)
	e.GET("/api/ws", wsHandler.HandleConnection)

	webhookHandler := handlers.NewWebhookHandler()
	e.POST("/api/stripe/webhook", webhookHandler.Stripe)

	rateLimit := apimw.RateLimit(cfg.RateLimit, rdb)

	authHandler := handlers.NewAuthHandler(db, rdb, cfg.JWTKey, cfg.JWTTTL)
	toolHandler := handlers.NewToolHandler(db, rdb)
	rentalHandler := handlers.NewRentalHandler(db, rdb, publisher)
	reviewHandler := handlers.NewReviewHandler(db, rdb)
	profileHandler := handlers.NewProfileHandler(db, rdb)
	chatHandler := handlers.NewChatHandler(db, hub)

	public := e.Group("/api", rateLimit)
	public.POST("/auth/register", authHandler.Register)
	public.POST("/auth/login", authHandler.Login)
	public.GET("/tools", toolHandler.ListTools)
	public.GET("/reviews/tool/:toolId", reviewHandler.ListReviews)
	public.GET("/reviews/tool/:toolId/summary", reviewHandler.Summary)

	jwtConfig := echojwt.Config{
		SigningKey: []byte(cfg.JWTKey),
		ContextKey: apimw.JWTContextKey,
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		},
	}

	apiGroup := e.Group("/api")
	apiGroup.Use(echojwt.WithConfig(jwtConfig))
	apiGroup.Use(apimw.ExtractUserIDFromJWT())
	apiGroup.Use(apimw.RequireUserID())
	apiGroup.Use(rateLimit)

	apiGroup.GET("/auth/me", authHandler.Me)

	apiGroup.GET("/profile", profileHandler.GetProfile)
	apiGroup.PUT("/profile", profileHandler.UpdateProfile)
	apiGroup.DELETE("/profile", profileHandler.DeleteProfile)

	apiGroup.GET("/tools/my", toolHandler.MyTools)
	apiGroup.POST("/tools", toolHandler.CreateTool)
	apiGroup.PUT("/tools/:id", toolHandler.UpdateTool)
	apiGroup.DELETE("/tools/:id", toolHandler.DeleteTool)
	public.GET("/tools/:id", toolHandler.GetTool)

	apiGroup.POST("/rentals/request", rentalHandler.RequestRental)
	apiGroup.GET("/rentals/my", rentalHandler.MyRentals)
	apiGroup.GET("/rentals/requests", rentalHandler.RentalRequests)
	apiGroup.GET("/rentals/:id", rentalHandler.GetRental)
	apiGroup.PATCH("/rentals/:id/approve", rentalHandler.Approve)
	apiGroup.PATCH("/rentals/:id/reject", rentalHandler.Reject)
	apiGroup.PATCH("/rentals/:id/return", rentalHandler.MarkReturned)
	apiGroup.PATCH("/rentals/:id/confirm-return", rentalHandler.ConfirmReturn)

	apiGroup.GET("/reviews/tool/:toolId/eligibility", reviewHandler.Eligibility)
	apiGroup.POST("/reviews/tool/:toolId", reviewHandler.SubmitReview)

	apiGroup.GET("/chat/conversation/:rentalId", chatHandler.GetConversation)
	apiGroup.GET("/chat/messages/:conversationId", chatHandler.ListMessages)
	apiGroup.POST("/chat/messages/:conversationId", chatHandler.SendMessage)
}

func healthCheck(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
