// Package router wires HTTP routes to handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/greenloop/waste2fertilizer/internal/config"
	"github.com/greenloop/waste2fertilizer/internal/handler"
	"github.com/greenloop/waste2fertilizer/internal/middleware"
	"github.com/greenloop/waste2fertilizer/internal/model"
)

// Handlers groups the endpoint implementations registered on the server.
type Handlers struct {
	Auth       *handler.AuthHandler
	Waste      *handler.WasteHandler
	Products   *handler.ProductHandler
	Orders     *handler.OrderHandler
	Processing *handler.ProcessingHandler
}

// Register mounts every route. All /api routes pass through the rate
// limiter; protected groups pass through the JWT access boundary before
// any handler runs. The Redis response cache is applied per-route to the
// marketplace reads whose bodies are identical for every caller, never to
// owner-scoped endpoints.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	api := e.Group("/api", limiter)

	// Identity & session. Register and login are the only routes outside
	// the access boundary.
	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.GET("/me", h.Auth.Me, middleware.JWTAuth(cfg.JWTSecret))

	// Waste listings.
	waste := api.Group("/waste", middleware.JWTAuth(cfg.JWTSecret))
	waste.POST("", h.Waste.Create, middleware.RequireRole(model.RoleDonor))
	waste.GET("", h.Waste.List, cache)
	waste.GET("/my", h.Waste.My)
	waste.GET("/:id", h.Waste.GetByID)
	waste.PUT("/:id", h.Waste.Update)
	waste.DELETE("/:id", h.Waste.Delete)

	// Fertilizer catalog.
	products := api.Group("/products", middleware.JWTAuth(cfg.JWTSecret))
	products.POST("", h.Products.Create, middleware.RequireRole(model.RoleManufacturer))
	products.GET("", h.Products.List, cache)
	products.GET("/my", h.Products.My, middleware.RequireRole(model.RoleManufacturer))
	products.GET("/:id", h.Products.GetByID)
	products.PUT("/:id", h.Products.Update, middleware.RequireRole(model.RoleManufacturer))
	products.DELETE("/:id", h.Products.Delete, middleware.RequireRole(model.RoleManufacturer))

	// Orders.
	orders := api.Group("/orders", middleware.JWTAuth(cfg.JWTSecret))
	orders.POST("", h.Orders.Create, middleware.RequireRole(model.RoleBuyer))
	orders.GET("/my", h.Orders.My, middleware.RequireRole(model.RoleBuyer))
	orders.GET("/incoming", h.Orders.Incoming, middleware.RequireRole(model.RoleManufacturer))
	orders.GET("/:id", h.Orders.GetByID)
	orders.PUT("/:id/status", h.Orders.UpdateStatus)

	// Processing records.
	processing := api.Group("/processing", middleware.JWTAuth(cfg.JWTSecret))
	processing.POST("", h.Processing.Create, middleware.RequireRole(model.RoleManufacturer))
	processing.GET("/my", h.Processing.My, middleware.RequireRole(model.RoleManufacturer))
	processing.GET("/:id", h.Processing.GetByID)
	processing.PUT("/:id", h.Processing.Update, middleware.RequireRole(model.RoleManufacturer))
}
