package routes

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/drxlabs/drx-store-golang/internal/handlers"
	"github.com/drxlabs/drx-store-golang/internal/middleware"
)

// CORSMiddleware tells the browser the storefront origin may call us.
func CORSMiddleware() gin.HandlerFunc {
	allowedOrigin := os.Getenv("CORS_ORIGIN")
	if allowedOrigin == "" {
		allowedOrigin = "http://localhost:5173"
	}

	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		// Preflight OPTIONS requests get an empty 204.
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func SetupRouter(h *handlers.Handlers) *gin.Engine {
	router := gin.Default()

	// CORS must run before everything else.
	router.Use(CORSMiddleware())

	v1 := router.Group("/v1")
	{
		// --- Ping Route (Public) ---
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		// --- Auth Routes (Public) ---
		v1.POST("/register", h.Register)
		v1.POST("/login", h.Login)

		// --- Public Catalog Routes ---
		v1.GET("/products", h.GetProducts)
		v1.GET("/products/:slug", h.GetProductBySlug)

		// --- Authenticity Verification (Public, rate limited) ---
		v1.POST("/verify-code", h.VerifyCode)

		// --- Anonymous Order Tracking (Public, rate limited) ---
		v1.POST("/orders/track", h.TrackOrder)

		// --- Checkout (Guest or Authenticated) ---
		checkout := v1.Group("/")
		checkout.Use(middleware.OptionalAuthMiddleware())
		{
			checkout.POST("/checkout", h.Checkout)
		}

		// --- Protected Routes (Login Required) ---
		authed := v1.Group("/")
		authed.Use(middleware.AuthMiddleware())
		{
			authed.GET("/orders", h.GetMyOrders)
			authed.GET("/orders/:id", h.GetOrderDetails)

			// --- AI Advisor Route ---
			authed.POST("/ai/advisor", h.NutritionAdvisor)
		}

		// --- Admin-Only Routes ---
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware())
		admin.Use(middleware.AdminMiddleware(h.DB))
		{
			admin.GET("/orders", h.GetAllOrders)
			admin.PATCH("/orders/:id/status", h.UpdateOrderStatus)

			admin.POST("/products", h.CreateProduct)
			admin.PUT("/products/:id", h.UpdateProduct)

			admin.POST("/verification-codes", h.CreateVerificationCodes)
		}
	}

	return router
}
