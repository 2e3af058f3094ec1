package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/slogsolutions/Army-Exam-Portal/internal/config"
	"github.com/slogsolutions/Army-Exam-Portal/internal/database"
	"github.com/slogsolutions/Army-Exam-Portal/internal/handler"
	"github.com/slogsolutions/Army-Exam-Portal/internal/queue"
	"github.com/slogsolutions/Army-Exam-Portal/internal/repository"
	"github.com/slogsolutions/Army-Exam-Portal/internal/router"
	queue_publisher "github.com/slogsolutions/Army-Exam-Portal/internal/service"
)

func main() {
	// Load .env when present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	// Redis is optional: a nil client disables login rate limiting.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, login rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	centers := repository.NewCenterRepo(db)
	sessions := repository.NewSessionRepo(db)
	attempts := repository.NewAttemptRepo(db)
	tokens := repository.NewTokenRepo(db)

	authH := handler.NewAuthHandler(cfg, users, centers, sessions, attempts, tokens)
	authH.Publish = queue_publisher.PublishLoginAttempt
	userH := handler.NewUserHandler(cfg, users, centers)
	centerH := handler.NewCenterHandler(centers)
	monitorH := handler.NewMonitorHandler(users, centers, sessions, attempts, tokens)

	// Background audit consumer mirrors login attempts into logs/auth.log.
	go func() {
		if err := queue.StartAuditConsumer(); err != nil {
			log.Printf("audit consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, userH, config.LoadRateLimitConfig(), rdb)
	router.RegisterAPI(e, cfg.JWTSecret, userH, centerH, monitorH)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
