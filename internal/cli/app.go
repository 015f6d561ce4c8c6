package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"

	"github.com/paddockpicks/paddock/internal/cache"
	"github.com/paddockpicks/paddock/internal/config"
	"github.com/paddockpicks/paddock/internal/mattermost"
	"github.com/paddockpicks/paddock/internal/repository"
	"github.com/paddockpicks/paddock/internal/service/badges"
	"github.com/paddockpicks/paddock/internal/service/leaderboard"
	"github.com/paddockpicks/paddock/internal/service/orchestrator"
	"github.com/paddockpicks/paddock/internal/service/predictions"
	"github.com/paddockpicks/paddock/internal/service/standings"
	"github.com/paddockpicks/paddock/pkg/logger"
)

// app holds the wired dependencies shared by the commands.
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *repository.DB
	redis *redis.Client

	events  *repository.EventRepository
	results *repository.ResultRepository
	preds   *repository.PredictionRepository
	bonus   *repository.BonusRepository
	users   *repository.UserRepository
	badges  *repository.BadgeRepository

	badgeService       *badges.Service
	leaderboardService *leaderboard.Service
	standingsService   *standings.Service
	scoringService     *orchestrator.Service
	predictionService  *predictions.Service
}

func loadConfig(configPath string) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	return cfg, log, nil
}

// newApp connects to PostgreSQL and Redis and wires every service. A Redis
// outage is tolerated: the leaderboard then reads straight from the database.
func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	db, err := repository.NewDB(&cfg.Database.Postgres, log)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		log:     log,
		db:      db,
		events:  repository.NewEventRepository(db),
		results: repository.NewResultRepository(db),
		preds:   repository.NewPredictionRepository(db),
		bonus:   repository.NewBonusRepository(db),
		users:   repository.NewUserRepository(db),
		badges:  repository.NewBadgeRepository(db),
	}

	var boardCache leaderboard.Cache
	client, err := cache.NewClient(ctx, &cfg.Database.Redis)
	if err != nil {
		log.Warn().Err(err).Str("addr", cfg.Database.Redis.Addr()).Msg("Redis unavailable, leaderboard cache disabled")
	} else {
		a.redis = client
		boardCache = cache.NewLeaderboardCache(client, cfg.Leaderboard.TTL())
	}

	a.badgeService = badges.NewService(a.badges, log.Component("badges"))
	a.leaderboardService = leaderboard.NewService(a.users, a.badges, a.preds, boardCache, cfg.Leaderboard.DefaultLimit, log.Component("leaderboard"))
	a.standingsService = standings.NewService(a.preds, a.bonus, a.users, a.leaderboardService, cfg.Scoring.Concurrency, log.Component("standings"))
	a.scoringService = orchestrator.NewService(orchestrator.Dependencies{
		Events:      a.events,
		Results:     a.results,
		Predictions: a.preds,
		Bonus:       a.bonus,
		Users:       a.users,
		Badges:      a.badgeService,
		Standings:   a.standingsService,
		Announcer:   mattermost.NewClient(&cfg.Mattermost, log.Component("mattermost")),
	}, cfg.Scoring.Concurrency, log.Component("scoring"))
	a.predictionService = predictions.NewService(a.events, a.users, a.preds, a.bonus, log.Component("predictions"))

	return a, nil
}

func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn().Err(err).Msg("Failed to close redis client")
		}
	}
	if err := a.db.Close(); err != nil {
		a.log.Warn().Err(err).Msg("Failed to close database")
	}
}

func (a *app) redisHealth(ctx context.Context) error {
	if a.redis == nil {
		return fmt.Errorf("redis not connected")
	}
	return a.redis.Ping(ctx).Err()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
