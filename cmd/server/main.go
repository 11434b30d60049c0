package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/volunteerhub/volunteer-hub/internal/auth"
	"github.com/volunteerhub/volunteer-hub/internal/config"
	"github.com/volunteerhub/volunteer-hub/internal/database"
	"github.com/volunteerhub/volunteer-hub/internal/handler"
	"github.com/volunteerhub/volunteer-hub/internal/mailer"
	"github.com/volunteerhub/volunteer-hub/internal/queue"
	"github.com/volunteerhub/volunteer-hub/internal/repository"
	"github.com/volunteerhub/volunteer-hub/internal/router"
	"github.com/volunteerhub/volunteer-hub/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment directly
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	users := repository.NewUserRepo(db)
	refreshTokens := repository.NewRefreshTokenRepo(db)
	ephemeralTokens := repository.NewEphemeralTokenRepo(db)
	events := repository.NewEventRepo(db)
	posts := repository.NewPostRepo(db)
	comments := repository.NewCommentRepo(db)
	categories := repository.NewCategoryRepo(db)
	notifications := repository.NewNotificationRepo(db)

	hasher := auth.NewHasher(auth.DefaultArgon2Params)
	codec := auth.NewCodec(cfg.JWTSecret, cfg.AccessTTLMin)
	mail := mailer.New(cfg.APIBaseURL, cfg.ClientURL, cfg.AMQPURL)

	authSvc := service.NewAuthService(users, refreshTokens, ephemeralTokens, mail, hasher, codec, cfg.RefreshTTLDays)

	// Outbound mail is drained by a background consumer; delivery never
	// blocks a request.
	go func() {
		if err := queue.StartMailConsumer(cfg.AMQPURL); err != nil {
			log.Printf("mail consumer stopped: %v", err)
		}
	}()

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting disabled")
	}

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, authSvc), codec, users, config.LoadRateLimitConfig(), rdb)
	router.RegisterProfile(e, handler.NewProfileHandler(users), codec, users)
	router.RegisterEvents(e, handler.NewEventHandler(events), codec, users)
	router.RegisterBoard(e, handler.NewPostHandler(posts, comments, events, notifications), codec, users)
	router.RegisterCategories(e, handler.NewCategoryHandler(categories), codec, users)
	router.RegisterNotifications(e, handler.NewNotificationHandler(notifications), codec, users)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
