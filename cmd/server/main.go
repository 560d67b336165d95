package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/storefront/internal/cache"
	"github.com/Skotchmaster/storefront/internal/checkout"
	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/handlers"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/mail"
	loggingmw "github.com/Skotchmaster/storefront/internal/middleware/logging"
	"github.com/Skotchmaster/storefront/internal/notify"
	"github.com/Skotchmaster/storefront/internal/reset"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/token"
	httpserver "github.com/Skotchmaster/storefront/internal/transport/http"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logging.New(cfg.LOG_LEVEL)

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	var producer events.Publisher
	var kafkaProducer *events.KafkaPublisher
	if cfg.KAFKA_ADDRESS != "" {
		kafkaProducer = events.NewKafkaPublisher([]string{cfg.KAFKA_ADDRESS})
		producer = kafkaProducer
	} else {
		logger.Warn("KAFKA_ADDRESS not set, domain events disabled")
	}

	var indexer *search.Indexer
	var searchHandler handlers.SearchHandler
	if cfg.ES_URL != "" {
		esClient, err := search.NewClient(cfg.ES_URL, cfg.ES_USER, cfg.ES_PASSWORD)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		indexer = &search.Indexer{ES: esClient, Index: search.ProductIndex}
		searchHandler = handlers.SearchHandler{ES: esClient, Index: search.ProductIndex}
	} else {
		logger.Warn("ES_URL not set, search disabled")
	}

	var productCache *cache.ProductCache
	if cfg.REDIS_ADDR != "" {
		rdb, err := cache.ConnectRedis(cfg.REDIS_ADDR, cfg.REDIS_PASSWORD)
		if err != nil {
			log.Fatalf("redis init error: %v", err)
		}
		productCache = cache.NewProductCache(rdb)
	}

	var mailer mail.Mailer
	if cfg.SMTP_ADDRESS != "" {
		mailer = &mail.SMTPMailer{
			Address:  cfg.SMTP_ADDRESS,
			Host:     cfg.SMTP_HOST,
			From:     cfg.FROM_EMAIL,
			Password: cfg.FROM_PASSWORD,
		}
	} else {
		logger.Warn("SMTP_ADDRESS not set, email disabled")
	}

	tokens := &token.Service{
		DB:            db,
		JWTSecret:     []byte(cfg.JWT_SECRET),
		RefreshSecret: []byte(cfg.REFRESH_SECRET),
	}
	resetSvc := &reset.Service{DB: db, Mailer: mailer, Tokens: tokens, BaseURL: cfg.BASE_URL}
	checkoutSvc := &checkout.Service{DB: db, Mailer: mailer, Events: producer}

	ctx, cancel := context.WithCancel(logging.IntoContext(context.Background(), logger))
	defer cancel()

	go resetSvc.RunSweeper(ctx, 15*time.Minute)

	var consumer *notify.Consumer
	if cfg.KAFKA_ADDRESS != "" && cfg.SOCIAL_API_URL != "" {
		poster := notify.NewSocialPoster(cfg.SOCIAL_API_URL, cfg.SOCIAL_TOKEN)
		consumer = notify.NewConsumer([]string{cfg.KAFKA_ADDRESS}, "storefront-notifier", poster, logger)
		go consumer.Run(ctx)
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		Tokens:           tokens,
		AuthHandler:      &handlers.AuthHandler{DB: db, Tokens: tokens, Reset: resetSvc},
		StoreHandler:     &handlers.StoreHandler{DB: db, Events: producer},
		ProductHandler:   &handlers.ProductHandler{DB: db, Events: producer, Search: indexer, Cache: productCache},
		CartHandler:      &handlers.CartHandler{DB: db, Checkout: checkoutSvc},
		ReviewHandler:    &handlers.ReviewHandler{DB: db},
		DashboardHandler: &handlers.DashboardHandler{DB: db},
		SearchHandler:    &searchHandler,
		UploadHandler:    &handlers.UploadHandler{MediaDir: cfg.MEDIA_DIR, BaseURL: cfg.BASE_URL},
		MediaDir:         cfg.MEDIA_DIR,
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         cfg.HTTP_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", logging.Err(err))
		}
	}()
	logger.Info("server started", "addr", cfg.HTTP_ADDR)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", logging.Err(err))
	}

	if consumer != nil {
		if err := consumer.Close(); err != nil {
			logger.Error("consumer close error", logging.Err(err))
		}
	}
	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			logger.Error("kafka close error", logging.Err(err))
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", logging.Err(err))
		}
	}

	logger.Info("shutdown complete")
}
