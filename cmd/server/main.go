package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/greenloop/waste2fertilizer/internal/config"
	"github.com/greenloop/waste2fertilizer/internal/database"
	"github.com/greenloop/waste2fertilizer/internal/handler"
	"github.com/greenloop/waste2fertilizer/internal/queue"
	"github.com/greenloop/waste2fertilizer/internal/repository"
	"github.com/greenloop/waste2fertilizer/internal/router"
	queuepublisher "github.com/greenloop/waste2fertilizer/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; cache and rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	listings := repository.NewListingRepo(db)
	products := repository.NewProductRepo(db)
	orders := repository.NewOrderRepo(db)
	records := repository.NewProcessingRepo(db)

	h := router.Handlers{
		Auth:       handler.NewAuthHandler(cfg, users),
		Waste:      handler.NewWasteHandler(listings, users, queuepublisher.PublishListingStatusChanged),
		Products:   handler.NewProductHandler(products, users),
		Orders:     handler.NewOrderHandler(orders, products, users),
		Processing: handler.NewProcessingHandler(records, listings, queuepublisher.PublishListingStatusChanged),
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, h, cfg, rdb)

	// Lifecycle audit log consumer. Runs a reconnect loop forever; the
	// API keeps serving if the broker is down.
	go func() {
		if err := queue.StartListingConsumer(); err != nil {
			log.Printf("listing consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
