package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	api "runup-backend/cmd/api"
	authUsecase "runup-backend/internal/auth/usecase"
	notificationDelivery "runup-backend/internal/notification/delivery"
	"runup-backend/internal/notification/domain"
	"runup-backend/internal/notification/repository"
	"runup-backend/internal/notification/scheduler"
	notificationUsecase "runup-backend/internal/notification/usecase"
	"runup-backend/pkg/config"
	"runup-backend/pkg/database"
	"runup-backend/pkg/fcm"
	firebaseApp "runup-backend/pkg/firebase"
	"runup-backend/pkg/logger"

	firebase "firebase.google.com/go/v4"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	var issueFor string
	flag.StringVar(&issueFor, "issue-token", "", "print an access token for the given user id and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if issueFor != "" {
		if err := issueToken(os.Stdout, cfg, issueFor); err != nil {
			log.Fatal("Failed to issue token:", err)
		}
		return
	}

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server exited", zap.Error(err))
	}
}

// issueToken writes a signed access token for userID, for operators and smoke tests
func issueToken(w io.Writer, cfg *config.Config, userID string) error {
	token, err := authUsecase.NewAuthUsecase(cfg.JWTSecret, cfg.JWTAccessExpiry).GenerateAccessToken(userID)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, token)
	return err
}

// stores groups the three repositories behind one driver
type stores struct {
	settings repository.SettingsRepository
	tokens   repository.TokenRepository
	history  repository.HistoryRepository
	close    func() error
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	// Firebase is required for the Firestore driver and optional otherwise (push disabled)
	var app *firebase.App
	if cfg.StoreDriver == config.StoreFirestore || cfg.FirebaseCredentials != "" || cfg.FirebaseProjectID != "" {
		app, err = firebaseApp.NewApp(ctx, cfg.FirebaseCredentials, cfg.FirebaseProjectID)
		if err != nil {
			if cfg.StoreDriver == config.StoreFirestore {
				return err
			}
			zlog.Warn("Firebase unavailable, push notifications disabled", zap.Error(err))
		}
	}

	st, err := openStores(ctx, cfg, app, zlog)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			zlog.Warn("error closing store", zap.Error(err))
		}
	}()

	// Initialize FCM client (optional, the HTTP API works without it)
	var fcmClient *fcm.Client
	if app != nil {
		fcmClient, err = fcm.NewClient(ctx, app, zlog.Named("fcm"))
		if err != nil {
			zlog.Warn("Failed to initialize FCM client (push notifications disabled)", zap.Error(err))
		}
	}

	var sched *scheduler.Scheduler
	if fcmClient != nil {
		dispatcher := notificationUsecase.NewDispatcher(fcmClient, st.history,
			domain.DefaultDeliveryHints(cfg.AndroidChannelID), zlog.Named("dispatcher"),
			notificationUsecase.WithSendRate(cfg.SendRatePerSecond))
		runner := notificationUsecase.NewBatchRunner(st.settings, notificationUsecase.NewTargetResolver(st.tokens),
			dispatcher, cfg.DispatchWorkers, zlog.Named("runner"))
		sched = scheduler.New(runner, loc, zlog.Named("scheduler"), scheduler.WithSpec(cfg.SchedulerSpec))
	}

	if sched != nil && cfg.SchedulerEnabled {
		if err := sched.Start(ctx); err != nil {
			return err
		}
	} else {
		zlog.Warn("notification scheduler disabled",
			zap.Bool("fcm_available", fcmClient != nil),
			zap.Bool("scheduler_enabled", cfg.SchedulerEnabled))
	}

	// Initialize use cases and HTTP handler (dependency injection)
	settingsUc := notificationUsecase.NewSettingsUsecase(st.settings, st.tokens, st.history, zlog.Named("settings"))
	authUc := authUsecase.NewAuthUsecase(cfg.JWTSecret, cfg.JWTAccessExpiry)

	var status notificationDelivery.SchedulerStatus
	if sched != nil {
		status = sched
	}
	notificationHandler := notificationDelivery.NewNotificationHandler(settingsUc, status, zlog.Named("http"))

	gin.SetMode(gin.ReleaseMode)
	handler := api.NewHandler(authUc, notificationHandler, zlog.Named("http"))
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler.Engine(),
	}

	serveErr := make(chan error, 1)
	go func() {
		zlog.Info("server starting", zap.String("port", cfg.Port), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}

	zlog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if sched != nil {
		select {
		case <-sched.Stop():
		case <-shutdownCtx.Done():
			zlog.Warn("timed out waiting for scheduled runs to finish")
		}
	}
	return srv.Shutdown(shutdownCtx)
}

func openStores(ctx context.Context, cfg *config.Config, app *firebase.App, zlog *zap.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case config.StoreFirestore:
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get Firestore client: %w", err)
		}
		zlog.Info("using Firestore store")
		return &stores{
			settings: repository.NewFirestoreSettingsRepository(client),
			tokens:   repository.NewFirestoreTokenRepository(client),
			history:  repository.NewFirestoreHistoryRepository(client),
			close:    client.Close,
		}, nil

	case config.StorePostgres:
		db, err := database.NewPostgresConnection(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := repository.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		zlog.Info("using Postgres store")
		return &stores{
			settings: repository.NewGormSettingsRepository(db),
			tokens:   repository.NewGormTokenRepository(db),
			history:  repository.NewGormHistoryRepository(db),
			close:    sqlDB.Close,
		}, nil

	case config.StoreMemory:
		zlog.Warn("using in-memory store, data is lost on restart")
		mem := repository.NewMemoryStore()
		return &stores{
			settings: mem.Settings(),
			tokens:   mem.Tokens(),
			history:  mem.History(),
			close:    func() error { return nil },
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
