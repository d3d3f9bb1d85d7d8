package main

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tailorly-api/config"
	"github.com/kendall-kelly/tailorly-api/controllers"
	"github.com/kendall-kelly/tailorly-api/logger"
	"github.com/kendall-kelly/tailorly-api/metrics"
	"github.com/kendall-kelly/tailorly-api/middleware"
	"github.com/kendall-kelly/tailorly-api/models"
)

// setupRouter builds the HTTP surface. auth validates the bearer token and
// stores the subject for middleware.GetUserID; tests pass a stand-in.
func setupRouter(cfg *config.Config, auth gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.RequestLogger())
	router.Use(metrics.Middleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst, 10*time.Minute)))

	// Public routes
	v1.GET("/health", healthCheck)
	v1.GET("/database/status", databaseStatus)
	v1.GET("/tailors", controllers.ListTailors)
	v1.GET("/tailors/nearby", controllers.NearbyTailors)
	v1.GET("/tailors/:id", controllers.GetTailor)
	v1.POST("/payments/webhook", controllers.PaymentWebhook)

	// Sign up only needs a valid token; everything else needs a profile too
	v1.POST("/users", auth, controllers.SignUp)

	api := v1.Group("")
	api.Use(auth, middleware.LoadSession())

	customerOnly := middleware.RequireRole(models.RoleCustomer)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	api.GET("/users/me", controllers.GetMyProfile)
	api.PUT("/users/me", controllers.UpdateMyProfile)
	api.POST("/users/signout", controllers.SignOut)

	orders := api.Group("/orders")
	{
		orders.POST("", customerOnly, controllers.CreateOrder)
		orders.GET("", controllers.ListOrders)
		orders.GET("/:id", controllers.GetOrder)
		orders.GET("/:id/items", controllers.GetOrderItems)
		orders.GET("/:id/history", controllers.GetOrderHistory)
		orders.PATCH("/:id/status", controllers.UpdateOrderStatus)
		orders.POST("/:id/accept", controllers.AcceptOrder)
		orders.POST("/:id/reject", controllers.RejectOrder)
		orders.POST("/:id/complete", controllers.CompleteOrder)
		orders.POST("/:id/cancel", controllers.CancelOrder)
		orders.POST("/:id/designs", controllers.UploadDesignReference)

		orders.POST("/:id/payments", customerOnly, controllers.CreatePayment)
		orders.GET("/:id/payments", controllers.ListOrderPayments)

		orders.POST("/:id/tracking", controllers.UpdateTracking)
		orders.GET("/:id/tracking", controllers.ListTracking)
		orders.GET("/:id/tracking/latest", controllers.GetLatestTracking)
		orders.GET("/:id/tracking/stream", controllers.StreamTracking)
	}

	payments := api.Group("/payments")
	{
		payments.GET("", controllers.ListPayments)
		payments.GET("/:id", controllers.GetPayment)
		payments.POST("/:id/capture", controllers.CapturePayment)
		payments.PATCH("/:id/status", adminOnly, controllers.UpdatePaymentStatus)
	}

	conversations := api.Group("/conversations")
	{
		conversations.POST("", controllers.StartConversation)
		conversations.GET("", controllers.ListConversations)
		conversations.GET("/:id/messages", controllers.ListMessages)
		conversations.POST("/:id/messages", controllers.SendMessage)
		conversations.POST("/:id/read", controllers.MarkConversationRead)
		conversations.POST("/:id/close", controllers.CloseConversation)
		conversations.GET("/:id/stream", controllers.StreamMessages)
	}

	disputes := api.Group("/disputes")
	{
		disputes.POST("", controllers.CreateDispute)
		disputes.GET("", controllers.ListDisputes)
		disputes.GET("/:id", controllers.GetDispute)
		disputes.PATCH("/:id/status", adminOnly, controllers.UpdateDisputeStatus)
		disputes.GET("/:id/messages", controllers.ListDisputeMessages)
		disputes.POST("/:id/messages", controllers.AddDisputeMessage)
	}

	measurements := api.Group("/measurements", customerOnly)
	{
		measurements.GET("", controllers.ListMeasurements)
		measurements.POST("", controllers.CreateMeasurement)
		measurements.PUT("/:id", controllers.UpdateMeasurement)
		measurements.DELETE("/:id", controllers.DeleteMeasurement)
		measurements.POST("/:id/primary", controllers.SetPrimaryMeasurement)
	}

	api.POST("/tailors/:id/reviews", customerOnly, controllers.CreateReview)
	api.GET("/customers/:id", controllers.GetCustomer)

	api.POST("/attachments", controllers.UploadAttachment)
	api.GET("/attachments/:prefix/:filename", controllers.GetAttachment)

	api.GET("/admin/stats", adminOnly, controllers.GetDashboardStats)

	return router
}

// healthCheck handles the health check endpoint.
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Tailorly API is running",
	})
}

// databaseStatus reports connectivity and the tables currently present.
func databaseStatus(c *gin.Context) {
	db := config.GetDB()
	if db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_UNAVAILABLE",
				"message": "Database is not connected",
			},
		})
		return
	}

	sqlDB, err := db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		logger.Error(c.Request.Context(), "Database ping failed", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_UNAVAILABLE",
				"message": "Database ping failed",
			},
		})
		return
	}

	tables, err := db.WithContext(c.Request.Context()).Migrator().GetTables()
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to list tables", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to list tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"connected": true,
			"tables":    tables,
		},
	})
}
