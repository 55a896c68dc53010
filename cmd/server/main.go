package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/CentZek/newesthr-sub000/config"
	"github.com/CentZek/newesthr-sub000/internal/api/handler"
	"github.com/CentZek/newesthr-sub000/internal/api/router"
	"github.com/CentZek/newesthr-sub000/internal/calendar"
	"github.com/CentZek/newesthr-sub000/internal/repository"
	"github.com/CentZek/newesthr-sub000/internal/scheduler"
	"github.com/CentZek/newesthr-sub000/internal/service"
	"github.com/CentZek/newesthr-sub000/pkg/database"
	"github.com/CentZek/newesthr-sub000/pkg/jwt"
	applogger "github.com/CentZek/newesthr-sub000/pkg/logger"
	"github.com/CentZek/newesthr-sub000/pkg/redis"
)

func main() {
	// 1. config
	cfg, err := config.Load(os.Getenv("ATTEND_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// 2. logger
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("timezone", cfg.Attendance.Timezone),
	)

	// 3. database and migrations
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("get sql.DB", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}

	// 4. redis is optional: without it logout revocation, login rate
	// limiting and the shared calendar cache are off
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("redis unavailable, continuing without it", zap.Error(err))
			rdb = nil
		}
	}

	// 5. engine settings and the double-time calendar
	settings, err := service.NewSettings(&cfg.Attendance)
	if err != nil {
		logger.Fatal("attendance settings", zap.Error(err))
	}
	repo := repository.NewRepository(db)

	calOpts := []calendar.Option{calendar.WithTTL(cfg.Calendar.CacheTTL), calendar.WithLogger(logger)}
	var blacklist service.TokenBlacklist
	if rdb != nil {
		blacklist = rdb
		if cfg.Calendar.SharedCache {
			calOpts = append(calOpts, calendar.WithSharedCache(rdb))
		}
	}
	cal := calendar.New(repo.Holiday, calOpts...)
	if err := cal.Refresh(context.Background()); err != nil {
		logger.Warn("initial calendar load failed, will retry on demand", zap.Error(err))
	}

	// 6. Repository → Service → Handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	svc := service.NewService(settings, repo, jwtMgr, blacklist, cal, logger)
	h := handler.NewHandler(svc)

	// 7. background jobs
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = scheduler.New(cfg, cal, svc.Reconcile, settings.Location, logger)
		if err != nil {
			logger.Fatal("init scheduler", zap.Error(err))
		}
		sched.Start()
	}

	// 8. HTTP server
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	// 9. graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	if sched != nil {
		sched.Stop(ctx)
	}

	sqlDB.Close()
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("stopped")
}
