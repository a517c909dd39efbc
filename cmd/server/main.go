package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/adimehta/sharesphere/internal/config"
	"github.com/adimehta/sharesphere/internal/database"
	"github.com/adimehta/sharesphere/internal/handler"
	"github.com/adimehta/sharesphere/internal/middleware"
	"github.com/adimehta/sharesphere/internal/queue"
	"github.com/adimehta/sharesphere/internal/repository"
	"github.com/adimehta/sharesphere/internal/router"
	"github.com/adimehta/sharesphere/internal/service"
	"github.com/adimehta/sharesphere/internal/storage"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	media, err := storage.NewMediaStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("media store: %v", err)
	}

	// Repositories.
	users := repository.NewUserRepo(db)
	items := repository.NewItemRepo(db)
	txs := repository.NewTransactionRepo(db)
	entries := repository.NewLedgerRepo(db)
	pending := repository.NewPenaltyRepo(db)
	reviews := repository.NewReviewRepo(db)
	complaints := repository.NewComplaintRepo(db)
	damage := repository.NewDamageRepo(db)
	notes := repository.NewNotificationRepo(db)
	tokens := repository.NewTokenRepo(db)
	store := repository.NewStore(db, users, items, txs, entries, pending)

	// Services.
	penalties := service.NewPenaltyEngine(users, entries, pending)
	ledger := service.NewLedger(users, entries, penalties)
	reputation := service.NewReputation(users, reviews, txs)
	notifier := service.NewQueueNotifier(notes)
	lifecycle := service.NewLifecycle(users, items, txs, reviews, complaints, damage,
		ledger, penalties, reputation, notifier,
		func(ctx context.Context) (service.EconomyTx, error) { return store.BeginTx(ctx) })

	// Notification consumer keeps draining broker events; it reconnects on
	// its own and never takes the API down.
	go func() {
		if err := queue.StartNotificationConsumer(); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(echomw.CORS())

	if rdb := config.NewRedisClient(); rdb != nil {
		e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
		e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	} else {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}

	h := router.Handlers{
		Ready:         handler.Ready(db),
		Auth:          handler.NewAuthHandler(cfg, users, items, txs, tokens),
		Items:         handler.NewItemHandler(items, media),
		Transactions:  handler.NewTransactionHandler(lifecycle, txs, media),
		Feedback:      handler.NewFeedbackHandler(lifecycle, txs, reviews, complaints, damage, media),
		Wallet:        handler.NewWalletHandler(users, entries, pending, penalties),
		Notifications: handler.NewNotificationHandler(notes),
		Dashboard:     handler.NewDashboardHandler(users, items, txs, pending, notes),
	}
	router.Register(e, h, users, cfg.JWTSecret, media.Dir())

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
