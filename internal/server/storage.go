package server

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/authapi/internal/logging"
	"github.com/dmitrijs2005/authapi/internal/server/config"
	"github.com/dmitrijs2005/authapi/internal/server/metrics"
	"github.com/dmitrijs2005/authapi/internal/server/repositories/renewaltokens"
	"github.com/dmitrijs2005/authapi/internal/server/repositories/repomanager"
	"github.com/redis/go-redis/v9"
)

// openStorage builds the repository manager the configuration asks for. The
// returned closers release the opened backends, in opening order.
func openStorage(ctx context.Context, c *config.Config, logger logging.Logger, mtr *metrics.Metrics) (repomanager.RepositoryManager, []func() error, error) {
	var (
		opts    []repomanager.Option
		closers []func() error
	)

	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	if c.EffectiveRenewalStore() == config.RenewalStoreRedis {
		redisOpts, err := redis.ParseURL(c.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(redisOpts)
		closers = append(closers, client.Close)

		repo := renewaltokens.NewRedisRepository(client)
		if err := repo.Ping(ctx); err != nil {
			closeAll()
			return nil, nil, err
		}
		opts = append(opts, repomanager.WithRenewalTokens(repo))
		logger.Info(ctx, "Renewal tokens stored in redis", "addr", redisOpts.Addr)
	}

	if c.DatabaseDSN == "" {
		logger.Warn(ctx, "DATABASE_URL not set, accounts are kept in memory")
		return repomanager.NewMemoryRepositoryManager(opts...), closers, nil
	}

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	rm := repomanager.NewPostgresRepositoryManager(db, opts...)
	closers = append(closers, rm.Close)
	if err := mtr.RegisterDBStats(db, "accounts"); err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("register db metrics: %w", err)
	}
	logger.Info(ctx, "Accounts stored in postgres")

	return rm, closers, nil
}
