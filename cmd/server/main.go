package main // Entry point package

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/workspace-booking/internal/analytics"
	"github.com/iliyamo/workspace-booking/internal/booking"
	"github.com/iliyamo/workspace-booking/internal/config"
	"github.com/iliyamo/workspace-booking/internal/database"
	"github.com/iliyamo/workspace-booking/internal/handler"
	"github.com/iliyamo/workspace-booking/internal/middleware"
	"github.com/iliyamo/workspace-booking/internal/queue"
	"github.com/iliyamo/workspace-booking/internal/repository"
	"github.com/iliyamo/workspace-booking/internal/router"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	if err := database.Migrate(context.Background(), db); err != nil {
		log.Fatalf("database migrate failed: %v", err)
	}

	// Redis is optional: with no server reachable, caching and rate
	// limiting are disabled and everything else keeps working.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; cache and rate limiting disabled")
	}

	roomRepo := repository.NewRoomRepo(db)
	resRepo := repository.NewReservationRepo(db)
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)

	bookingSvc := booking.NewService(resRepo, booking.Options{
		PendingTTL:   cfg.PendingTTL,
		StoreTimeout: cfg.StoreTimeout,
	})
	analyticsSvc := analytics.NewService(resRepo, roomRepo, analytics.WorkingHours{
		StartHour: cfg.WorkdayStart,
		EndHour:   cfg.WorkdayEnd,
	})

	// Background jobs: pending-reservation expiry sweep and the audit
	// consumer for reservation events.
	bookingSvc.StartExpiryWorker(context.Background(), cfg.PendingTTL/2)
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	publishEvents := os.Getenv("RABBITMQ_URL") != "" || os.Getenv("AMQP_URL") != ""

	authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	roomHandler := handler.NewRoomHandler(roomRepo)
	bookingHandler := handler.NewBookingHandler(bookingSvc, resRepo, publishEvents)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsSvc)

	e := echo.New()
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     allowedOrigins(),
		AllowCredentials: true,
	}))
	e.Use(middleware.NewRateLimiter(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler)
	router.RegisterAPI(e, cfg.JWTSecret, rdb, authHandler, roomHandler, bookingHandler, analyticsHandler)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// allowedOrigins reads CORS_ORIGINS (comma separated) with a localhost
// default for development.
func allowedOrigins() []string {
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		var out []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{"http://localhost:3000"}
}
