// Command api serves the job board HTTP API, sweeps the read cache and, when
// enabled, runs the deadline scheduler.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"UniJobBoard-backend/internal/application"
	"UniJobBoard-backend/internal/auth"
	"UniJobBoard-backend/internal/cache"
	"UniJobBoard-backend/internal/config"
	"UniJobBoard-backend/internal/database"
	"UniJobBoard-backend/internal/jobposting"
	"UniJobBoard-backend/internal/logger"
	"UniJobBoard-backend/internal/notification"
	"UniJobBoard-backend/internal/scheduler"
	"UniJobBoard-backend/internal/server"
	"UniJobBoard-backend/internal/storage"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogPretty)
	if cfg.SecretKey == "" {
		log.Fatal().Msg("SECRET_KEY is not set")
	}
	auth.SecretKey = cfg.SecretKey

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.GetMainDB()
	if err != nil {
		log.Fatal().Err(err).Msg("database failed to initialize")
	}
	defer func() { _ = db.Close() }()

	readCache := cache.New(cfg.CacheCapacity, cfg.CacheTTL)
	sweeperDone := readCache.StartSweeper(ctx, cfg.CacheSweepInterval)

	objects, closeObjects := objectStore(ctx, cfg)
	defer closeObjects()

	dispatcher := notification.NewDispatcher(db, mailer(cfg))
	jobs := jobposting.NewStore(db, readCache, dispatcher)
	applications := application.NewWorkflow(db, readCache, objects, dispatcher)
	applications.AttentionThreshold = cfg.AttentionThreshold

	schedulerDone := startScheduler(ctx, cfg, jobs, applications)

	srv := server.NewServer(&server.MyServer{
		Config:       cfg,
		DB:           db,
		Jobs:         jobs,
		Applications: applications,
		Inbox:        notification.NewInbox(db),
	})

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down gracefully, press Ctrl+C again to force")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	dispatcher.Wait()
	<-sweeperDone
	if schedulerDone != nil {
		<-schedulerDone
	}
	log.Info().Msg("server exiting")
}

func objectStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, func()) {
	if cfg.GCSBucketName == "" {
		log.Warn().Msg("GCS_BUCKET_NAME not set, résumés are kept in memory")
		return storage.NewMemoryStore("http://localhost/files"), func() {}
	}
	client, err := storage.NewCloudStorageClient(ctx, cfg.GCSBucketName)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create cloud storage client")
	}
	return client, func() { _ = client.Close() }
}

func mailer(cfg *config.Config) notification.Mailer {
	if !cfg.MailEnabled() {
		log.Warn().Msg("SMTP_HOST not set, emails are only logged")
		return notification.LogMailer{}
	}
	return notification.NewSMTPMailer(notification.SMTPConfig{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		Username:  cfg.SMTPUsername,
		Password:  cfg.SMTPPassword,
		From:      cfg.MailFrom,
		PerSecond: cfg.MailRatePerSecond,
	})
}

func startScheduler(ctx context.Context, cfg *config.Config, jobs *jobposting.Store, applications *application.Workflow) <-chan struct{} {
	if !cfg.SchedulerEnabled {
		return nil
	}

	enforcer := scheduler.NewEnforcer(jobs, applications)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		enforcer.Locker = scheduler.NewRedisLocker(redis.NewClient(opts))
	}

	done, err := enforcer.Start(ctx, cfg.SchedulerSpec)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	return done
}
