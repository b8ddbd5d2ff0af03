package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tradeforge/propdesk/internal/api"
	"github.com/tradeforge/propdesk/internal/broker"
	"github.com/tradeforge/propdesk/internal/challenge"
	"github.com/tradeforge/propdesk/internal/config"
	"github.com/tradeforge/propdesk/internal/database"
	"github.com/tradeforge/propdesk/internal/events"
	"github.com/tradeforge/propdesk/internal/pricing"
	"github.com/tradeforge/propdesk/internal/scheduler"
	"github.com/tradeforge/propdesk/internal/simulator"
	"github.com/tradeforge/propdesk/internal/summary"
	"github.com/tradeforge/propdesk/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting propdesk evaluation engine")

	// Database
	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.EnsureSchema("db/migrations"); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	log.Info().Msg("Database ready")

	// Redis backs the quote cache, the session store and the KYC flags.
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Redis connected")
	} else if !cfg.Auth.DevMode {
		log.Fatal().Msg("REDIS_ADDR is required outside dev mode")
	}

	// Broker integration
	brokerClient := broker.NewClient(cfg.Broker.BaseURL, log)
	secrets := broker.NewEnvSecretProvider(broker.Credentials{
		APIKey:     cfg.Broker.APIKey,
		ClientCode: cfg.Broker.ClientCode,
		MPin:       cfg.Broker.MPin,
		TotpSecret: cfg.Broker.TotpSecret,
	})
	sessions := broker.NewSessionManager(brokerClient, secrets, log)

	// Pricing
	var quoteCache pricing.Cache
	if redisClient != nil {
		quoteCache = pricing.NewRedisCache(redisClient, time.Duration(cfg.Redis.QuoteTTL)*time.Second)
	}
	resolver := pricing.NewResolver(sessions, brokerClient, quoteCache, log)

	// Domain services
	sim := simulator.New(db, float64(cfg.Simulator.MinPctBps)/10000, float64(cfg.Simulator.MaxPctBps)/10000, log)
	aggregator := summary.NewAggregator(db, resolver, log)

	// Events
	challengeProducer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.EventTopic)
	defer challengeProducer.Close()
	tickProducer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TradeTopic)
	defer tickProducer.Close()

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	consumer := events.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TradeTopic, cfg.Kafka.GroupID, db, log)
	go func() {
		if err := consumer.Start(rootCtx); err != nil {
			log.Error().Err(err).Msg("Trade event consumer stopped")
		}
	}()

	// Identity and KYC come from the shared stores the auth and
	// onboarding systems maintain.
	var verifier api.TokenVerifier
	var kyc challenge.KycChecker
	if redisClient != nil {
		verifier = api.NewRedisTokenVerifier(redisClient)
		kyc = challenge.NewRedisKycChecker(redisClient)
	} else {
		log.Warn().Msg("Dev mode without redis: using dev tokens and open KYC")
		verifier = api.DevTokenVerifier{}
		kyc = challenge.StaticKycChecker(true)
	}

	challengeService := challenge.NewService(db, kyc, challengeProducer, log)

	// Scheduler drives the price tape alongside the cron endpoint.
	sched := scheduler.New(log)
	tickJob := scheduler.NewMarketTickJob(sim, tickProducer, log)
	if err := sched.AddJob(cfg.Simulator.TickSchedule, tickJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register market tick job")
	}
	sched.Start()
	defer sched.Stop()

	// HTTP server
	handler := api.NewHandler(
		db,
		sessions,
		brokerClient,
		sim,
		aggregator,
		challengeService,
		verifier,
		cfg.Auth.CronSecret,
		cfg.Auth.DevMode,
		log,
	)
	router := api.SetupRoutes(handler)

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")
	rootCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Server stopped")
}
