package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/dangoo/shop-backend/internal/config"
	"github.com/dangoo/shop-backend/internal/database"
	"github.com/dangoo/shop-backend/internal/handler"
	"github.com/dangoo/shop-backend/internal/queue"
	"github.com/dangoo/shop-backend/internal/repository"
	"github.com/dangoo/shop-backend/internal/router"
	queue_publisher "github.com/dangoo/shop-backend/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, database.Pool{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.DBConnLifeMin) * time.Minute,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// nil when Redis is unreachable; cache and rate limiting degrade to
	// pass-throughs.
	rdb := config.NewRedisClient()

	// Background consumer: logs placed orders and triggers notifications.
	go queue.StartOrderConsumer(queue.LogMailer{})

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	products := repository.NewProductRepo(db)
	carts := repository.NewCartRepo(db)
	orders := repository.NewOrderRepo(db)

	h := router.Handlers{
		Auth:     handler.NewAuthHandler(cfg, users, tokens),
		Products: handler.NewProductHandler(cfg, products),
		Carts:    handler.NewCartHandler(products, carts),
		Orders:   handler.NewOrderHandler(orders, carts, queue_publisher.PublishOrderPlaced),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	router.Register(e, h, &cfg, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
