package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"coincafe/config"
	"coincafe/database"
	"coincafe/events"
	"coincafe/jobs"
	"coincafe/lock"
	"coincafe/repository"
	"coincafe/service"
	"coincafe/web"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting coincafe server...")

	cfg := config.Get()

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established")

	log.Info("Connecting to redis...")
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()
	log.Info("Redis connection established")

	eventBus := events.NewBus()
	registerAuditSubscribers(eventBus)

	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)
	pairLocks := lock.NewPairLockFactory(redisClient)

	rankingService := service.NewRankingService(uowFactory)
	limitService := service.NewLimitService(uowFactory, cfg.DefaultLimitMax)
	accountService := service.NewAccountService(uowFactory, rankingService, cfg.InitialBalance)
	transferService := service.NewTransferService(uowFactory, pairLocks, rankingService)
	roomService := service.NewRoomService(uowFactory,
		time.Duration(cfg.RoomTTLMinutes)*time.Minute,
		time.Duration(cfg.HeartbeatTimeoutSeconds)*time.Second,
	)

	if err := limitService.EnsureDefaultRules(ctx); err != nil {
		return fmt.Errorf("failed to seed default limit rules: %w", err)
	}

	sweeper := jobs.NewRoomSweeper(roomService, time.Duration(cfg.SweepIntervalSeconds)*time.Second)
	go sweeper.Start(ctx)
	defer sweeper.Stop()

	handler := web.NewHandler(accountService, transferService, limitService, rankingService, roomService)
	router := web.NewRouter(handler)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.HTTPPort).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server shutdown failed")
	}

	log.Info("Shutdown completed")
	return nil
}

// registerAuditSubscribers logs committed domain events for the audit
// trail
func registerAuditSubscribers(bus *events.Bus) {
	bus.Subscribe(events.EventTypeTransfer, func(ctx context.Context, e events.Event) {
		transfer := e.(events.TransferEvent)
		log.WithFields(log.Fields{
			"transactionID": transfer.TransactionID,
			"senderID":      transfer.SenderID,
			"receiverID":    transfer.ReceiverID,
			"amount":        transfer.Amount,
			"roomCode":      transfer.RoomCode,
		}).Info("Transfer completed")
	})

	bus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, e events.Event) {
		change := e.(events.BalanceChangeEvent)
		log.WithFields(log.Fields{
			"userID":     change.UserID,
			"oldBalance": change.OldBalance,
			"newBalance": change.NewBalance,
			"kind":       change.Kind,
		}).Debug("Balance changed")
	})

	bus.Subscribe(events.EventTypeAccountCreated, func(ctx context.Context, e events.Event) {
		created := e.(events.AccountCreatedEvent)
		log.WithFields(log.Fields{
			"userID":   created.UserID,
			"username": created.Username,
		}).Info("Account created")
	})

	bus.Subscribe(events.EventTypeRoomClosed, func(ctx context.Context, e events.Event) {
		closed := e.(events.RoomClosedEvent)
		log.WithFields(log.Fields{
			"roomID": closed.RoomID,
			"code":   closed.Code,
			"reason": closed.Reason,
		}).Info("Room closed")
	})
}
