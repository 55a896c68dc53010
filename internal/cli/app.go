package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/CentZek/newesthr-sub000/config"
	"github.com/CentZek/newesthr-sub000/internal/calendar"
	"github.com/CentZek/newesthr-sub000/internal/repository"
	"github.com/CentZek/newesthr-sub000/internal/service"
	"github.com/CentZek/newesthr-sub000/pkg/database"
	"github.com/CentZek/newesthr-sub000/pkg/jwt"
	applogger "github.com/CentZek/newesthr-sub000/pkg/logger"
	"github.com/CentZek/newesthr-sub000/pkg/redis"
)

// app the wired dependencies a command runs against
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
	rdb    *redis.Client
	svc    *service.Service
}

// openDB loads config, the logger and the database only
func openDB() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, err
	}
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return &app{cfg: cfg, logger: logger, db: db}, nil
}

// openApp wires the full service layer. Redis is used when configured so
// that holiday changes reach the running servers' shared calendar cache.
func openApp() (*app, error) {
	a, err := openDB()
	if err != nil {
		return nil, err
	}

	settings, err := service.NewSettings(&a.cfg.Attendance)
	if err != nil {
		a.close()
		return nil, err
	}

	repo := repository.NewRepository(a.db)
	opts := []calendar.Option{calendar.WithTTL(a.cfg.Calendar.CacheTTL), calendar.WithLogger(a.logger)}
	if a.cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(&a.cfg.Redis, a.logger)
		if err != nil {
			a.logger.Warn("redis unavailable, shared calendar cache not updated", zap.Error(err))
		} else {
			a.rdb = rdb
			if a.cfg.Calendar.SharedCache {
				opts = append(opts, calendar.WithSharedCache(rdb))
			}
		}
	}
	cal := calendar.New(repo.Holiday, opts...)

	a.svc = service.NewService(settings, repo, jwt.NewManager(&a.cfg.Auth), nil, cal, a.logger)
	return a, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
	if a.rdb != nil {
		a.rdb.Close()
	}
	_ = a.logger.Sync()
}

// withApp opens the app, runs fn and closes everything afterwards
func withApp(ctx context.Context, full bool, fn func(ctx context.Context, a *app) error) error {
	open := openDB
	if full {
		open = openApp
	}
	a, err := open()
	if err != nil {
		return err
	}
	defer a.close()
	return fn(ctx, a)
}
