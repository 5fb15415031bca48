package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Gen7Fuel/thehub-sub000/internal/cache"
	"github.com/Gen7Fuel/thehub-sub000/internal/cdn"
	"github.com/Gen7Fuel/thehub-sub000/internal/config"
	"github.com/Gen7Fuel/thehub-sub000/internal/database"
	"github.com/Gen7Fuel/thehub-sub000/internal/mailer"
	"github.com/Gen7Fuel/thehub-sub000/internal/router"
	"github.com/Gen7Fuel/thehub-sub000/internal/scheduler"
	"github.com/Gen7Fuel/thehub-sub000/internal/service"
	sftpclient "github.com/Gen7Fuel/thehub-sub000/internal/sftp"
	"github.com/Gen7Fuel/thehub-sub000/internal/tasks"
	"github.com/Gen7Fuel/thehub-sub000/internal/ws"
	"github.com/Gen7Fuel/thehub-sub000/pkg/logger"
)

func main() {
	log := logger.Must(logger.New())
	defer log.Sync()

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("connect database", zap.Error(err))
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatal("ping database", zap.Error(err))
	}

	redisCache := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer redisCache.Close()
	if err := redisCache.Ping(ctx); err != nil {
		log.Warn("redis unreachable, caching and logout degraded", zap.Error(err))
	}

	queries := database.New(pool)

	hub := ws.NewHub()
	go hub.Run()

	queue := tasks.NewQueue(256, 3, 2*time.Second, log.Named("tasks"))
	go queue.Run(ctx)

	mail := mailer.New(cfg.Mail)
	cdnClient := cdn.New(cfg.CDN)
	sftpFactory := sftpclient.NewFactory(cfg.SFTP, log.Named("sftp"))

	submission := service.NewSubmission(queries, queue, mail, hub, log.Named("submission"))
	reportSync := service.NewReportSync(queries, sftpFactory, log.Named("reportsync"))
	resolver := service.NewPermissionResolver(queries, redisCache, log.Named("permissions"))

	sched := scheduler.New(reportSync, log.Named("scheduler"))
	if err := sched.Start(cfg.ReportSyncSchedule); err != nil {
		log.Fatal("start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	r := router.New(router.Deps{
		Config:     cfg,
		Queries:    queries,
		Hub:        hub,
		Cache:      redisCache,
		Queue:      queue,
		Submission: submission,
		ReportSync: reportSync,
		Resolver:   resolver,
		SFTP:       sftpFactory,
		CDN:        cdnClient,
		Mailer:     mail,
		Logger:     log.Named("http"),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("serve", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}
