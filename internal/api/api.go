package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/api/handlers"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/api/middleware"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/config"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Register   *service.Register
	Receiving  *service.Receiving
	Transfer   *service.Transfer
	Dispensing *service.Dispensing
	Sync       *service.Sync
	Inventory  *service.Inventory
}

func NewRouter(services *Services, cfg *config.Config) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(gin.Recovery())

	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.Server.AllowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(cfg.Server.AllowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	authed := apiGroup.Group("")
	authed.Use(middleware.Auth(cfg.Auth.JWTSecret))

	if services.Inventory != nil {
		inventoryHandler := handlers.NewInventoryHandler(services.Inventory)
		authed.GET("/inventory/summary", inventoryHandler.Summary)
		authed.GET("/medicines/low-stock", inventoryHandler.LowStock)
		authed.GET("/medicines/:id", inventoryHandler.GetMedicine)
		authed.DELETE("/medicines/:id", inventoryHandler.DeactivateMedicine)
	}

	if services.Register != nil {
		registerHandler := handlers.NewRegisterHandler(services.Register)
		registerGroup := authed.Group("/controlled-substances-register")
		{
			registerGroup.POST("", registerHandler.RecordEntry)
			registerGroup.GET("", registerHandler.ListEntries)
			registerGroup.POST("/:id/verify", registerHandler.VerifyEntry)
		}
	}

	if services.Receiving != nil {
		receivingHandler := handlers.NewReceivingHandler(services.Receiving, services.Inventory)
		poGroup := authed.Group("/purchase-orders")
		{
			poGroup.POST("", receivingHandler.CreatePurchaseOrder)
			poGroup.GET("/:id", receivingHandler.GetPurchaseOrder)
			poGroup.POST("/:id/receive", receivingHandler.ReceiveGoods)
		}
	}

	if services.Transfer != nil {
		transferHandler := handlers.NewTransferHandler(services.Transfer, services.Inventory)
		transferGroup := authed.Group("/stock-transfers")
		{
			transferGroup.POST("", transferHandler.Create)
			transferGroup.GET("/:id", transferHandler.Get)
			transferGroup.PUT("/:id/status", transferHandler.SetStatus)
		}
	}

	if services.Dispensing != nil {
		dispensingHandler := handlers.NewDispensingHandler(services.Dispensing, services.Inventory)
		authed.POST("/sales", dispensingHandler.CreateSale)
		authed.POST("/prescriptions", dispensingHandler.CreatePrescription)
		authed.POST("/prescriptions/:id/dispense", dispensingHandler.Dispense)
	}

	if services.Sync != nil {
		syncHandler := handlers.NewSyncHandler(services.Sync)
		syncGroup := apiGroup.Group("/sync")
		syncGroup.Use(middleware.DeviceAuth(cfg.Auth.JWTSecret, cfg.Auth.DeviceToken))
		{
			syncGroup.GET("/download", syncHandler.Download)
			syncGroup.POST("/upload", syncHandler.Upload)
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
