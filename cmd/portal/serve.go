package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"dentalportal/internal/api"
	"dentalportal/internal/booking"
	"dentalportal/internal/calendar"
	"dentalportal/internal/config"
	"dentalportal/internal/content"
	"dentalportal/internal/database"
	"dentalportal/internal/documents"
	"dentalportal/internal/events"
	"dentalportal/internal/export"
	"dentalportal/internal/metrics"
	"dentalportal/internal/notify"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func runServe(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) error {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	bus := events.NewEventBus(logger)
	bus.Subscribe("*", func(e events.Event) error {
		return db.RecordEvent(context.Background(), e.Type, e.Payload, e.CreatedAt)
	})

	opts := []booking.Option{booking.WithPublisher(bus), booking.WithLogger(logger)}
	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		opts = append(opts, booking.WithLocker(booking.NewRedisLocker(rdb, cfg.LockTTL())))
	}
	resolver := booking.NewResolver(calendar.DefaultPolicy(), booking.DefaultCatalog(), db, opts...)

	err = config.WatchClinic(ctx, cfg.Clinic.Path, time.Duration(cfg.Clinic.WatchIntervalSeconds)*time.Second, logger,
		func(c *config.ClinicConfig) {
			policy, err := c.Policy()
			if err != nil {
				logger.Error().Err(err).Msg("clinic policy rejected")
				return
			}
			db.SetLocation(policy.Loc())
			resolver.SetPolicy(policy)
			resolver.SetCatalog(c.Catalog())
			logger.Info().Str("clinic", c.String()).Msg("clinic config applied")
		})
	if err != nil {
		return fmt.Errorf("load clinic config: %w", err)
	}

	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		return err
	}
	notify.NewDispatcher(notifier, resolver.Catalog).Subscribe(ctx, bus)

	if cfg.Reminders.Enabled {
		notify.NewReminder(db, notifier, resolver.Catalog, cfg.Reminders.Hour, logger).Start(ctx)
	}

	if cfg.Google.Enabled {
		sheetsSvc, err := export.NewSheetsServiceFromFile(ctx, cfg.Google.CredentialsFile, cfg.Google.SpreadsheetID,
			cfg.Google.SheetName, db, resolver.Catalog, logger)
		if err != nil {
			return fmt.Errorf("init google sheets: %w", err)
		}
		sheetsSvc.Subscribe(ctx, bus)
		go func() {
			if err := sheetsSvc.Sync(ctx); err != nil {
				logger.Error().Err(err).Msg("initial sheets sync failed")
			}
		}()
	}

	go database.NewBackupService(db, cfg.Backup, logger).Start(ctx)

	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, db, rdb, logger)
	if cfg.Monitoring.GRPCHealthPort > 0 {
		go startGRPCHealthServer(ctx, cfg.Monitoring.GRPCHealthPort, db, rdb, logger)
	}
	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
	}

	registry := documents.SeededRegistry()
	apiServer := api.NewServer(api.Config{
		Resolver:          resolver,
		Documents:         registry,
		Uploader:          documents.NewUploader(registry, bus, cfg.UploadStepDelay(), logger),
		Content:           content.DefaultLibrary(),
		Logger:            logger,
		RatePerSecond:     cfg.Server.RateLimitPerSecond,
		RateBurst:         cfg.Server.RateLimitBurst,
		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      apiServer.Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("portal API started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("api server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newNotifier(cfg *config.Config, logger *zerolog.Logger) (notify.Notifier, error) {
	if !cfg.Telegram.Enabled {
		return notify.NewLogNotifier(logger), nil
	}
	if cfg.Telegram.BotToken == "" || cfg.Telegram.ChatID == 0 {
		return nil, errors.New("telegram.bot_token and telegram.chat_id are required when telegram is enabled")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	logger.Info().Str("bot", bot.Self.UserName).Msg("telegram notifications enabled")
	return notify.NewTelegramNotifier(bot, cfg.Telegram.ChatID, cfg.Telegram.RatePerSecond), nil
}
