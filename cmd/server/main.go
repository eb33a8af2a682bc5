package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/hostel-booking/internal/booking"
	"github.com/iliyamo/hostel-booking/internal/config"
	"github.com/iliyamo/hostel-booking/internal/database"
	"github.com/iliyamo/hostel-booking/internal/handler"
	"github.com/iliyamo/hostel-booking/internal/janitor"
	"github.com/iliyamo/hostel-booking/internal/notify"
	"github.com/iliyamo/hostel-booking/internal/payment"
	"github.com/iliyamo/hostel-booking/internal/queue"
	"github.com/iliyamo/hostel-booking/internal/repository"
	"github.com/iliyamo/hostel-booking/internal/router"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: nil client makes the limiter and the quote
	// cache pass-through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, rate limiting and quote cache disabled")
	}

	blocks := repository.NewBlockedDateRepo(db)
	svc := &booking.Service{
		Categories:   repository.NewCategoryRepo(db),
		Reservations: repository.NewReservationRepo(db),
		Blocks:       blocks,
		Settings:     repository.NewSettingsRepo(db),
		Gateway:      payment.FromEnv(),
		Notifier:     notify.NewPublisher(),
		ReturnURL:    cfg.PaymentReturnURL,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go janitor.Run(ctx, svc, time.Duration(cfg.SweepIntervalMin)*time.Minute)

	// Notification workers consume booking.events and fan out to the
	// configured channels.  Senders are nil when their env vars are
	// missing; the consumer runs regardless so the queue drains.
	go func() {
		var senders []queue.Sender
		if s := notify.EmailFromEnv(); s != nil {
			senders = append(senders, s)
		}
		if s := notify.TelegramFromEnv(); s != nil {
			senders = append(senders, s)
		}
		if err := queue.StartConsumer(senders...); err != nil {
			log.Printf("notify-consumer: stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.RegisterRoutes(e)
	router.RegisterPublic(e, handler.NewPublicHandler(svc), handler.NewWebhookHandler(svc), rdb)
	router.RegisterAdmin(e, handler.NewAdminHandler(svc, blocks), cfg.AdminJWTSecret)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = e.Shutdown(shutdownCtx)
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Printf("server stopped: %v", err)
	}
}
