// Command sweep runs the deadline enforcement and the attention check once,
// for deployments that trigger it from an external scheduler.
package main

import (
	"context"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"UniJobBoard-backend/internal/application"
	"UniJobBoard-backend/internal/config"
	"UniJobBoard-backend/internal/database"
	"UniJobBoard-backend/internal/jobposting"
	"UniJobBoard-backend/internal/logger"
	"UniJobBoard-backend/internal/scheduler"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogPretty)

	db, err := database.GetMainDB()
	if err != nil {
		log.Fatal().Err(err).Msg("database failed to initialize")
	}
	defer func() { _ = db.Close() }()

	// No cache: this process serves no reads. No notifier: sweeping never creates postings.
	jobs := jobposting.NewStore(db, nil, nil)
	applications := application.NewWorkflow(db, nil, nil, nil)
	applications.AttentionThreshold = cfg.AttentionThreshold

	enforcer := scheduler.NewEnforcer(jobs, applications)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		client := redis.NewClient(opts)
		defer func() { _ = client.Close() }()
		enforcer.Locker = scheduler.NewRedisLocker(client)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if err := enforcer.RunScheduledTasks(ctx); err != nil {
		log.Error().Err(err).Msg("sweep failed")
		os.Exit(1)
	}
	log.Info().Msg("sweep finished")
}
