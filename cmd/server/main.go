package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/linkpage/internal/config"
	"github.com/linkpage/internal/db"
	"github.com/linkpage/internal/logger"
	"github.com/linkpage/internal/router"
	"github.com/linkpage/internal/service"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config failed")
	}
	logger.Init(cfg.IsDevelopment())
	gin.SetMode(cfg.GinMode)

	if err := db.Init(cfg.DatabasePath); err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("initialize database failed")
	}

	if cfg.SuperRootUserName != "" && cfg.SuperRootPassword != "" {
		created, err := db.EnsureUser(db.DB, cfg.SuperRootUserName, cfg.SuperRootPassword)
		if err != nil {
			logger.Fatal().Err(err).Msg("ensure admin user failed")
		}
		if created {
			logger.Info().Str("username", cfg.SuperRootUserName).Msg("admin user created")
		}
	}

	cache, closeCache := buildLinkCache(cfg)
	defer closeCache()

	links := service.NewLinkService(buildLinkStore(cfg, db.DB), cache)
	source, err := buildLinkSource(cfg, links)
	if err != nil {
		logger.Fatal().Err(err).Msg("load link source failed")
	}

	engine, err := router.SetupRouter(router.Options{
		DB:            db.DB,
		Links:         links,
		Source:        source,
		SessionSecret: cfg.SessionSecret,
		SecureCookies: cfg.SecureCookies,
		CORSOrigins:   cfg.CORSOrigins,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("setup router failed")
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().
			Str("addr", cfg.ListenAddr).
			Str("link_source", cfg.LinkSource).
			Str("link_store", cfg.LinkStore).
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("server stopped")
}

func buildLinkStore(cfg config.AppConfig, gdb *gorm.DB) service.LinkStore {
	if cfg.LinkStore == config.LinkStorePostgREST {
		return service.NewPostgRESTStore(cfg.SupabaseURL, cfg.SupabaseKey, cfg.LinksTable)
	}
	return service.NewGormLinkStore(gdb)
}

// buildLinkCache 配置了 REDIS_ADDR 时使用 Redis，多实例部署可共享同一份缓存。
func buildLinkCache(cfg config.AppConfig) (service.LinkCache, func()) {
	if cfg.RedisAddr == "" {
		return service.NewMemoryLinkCache(cfg.CacheTTL), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, cache reads will miss until it recovers")
	}

	return service.NewRedisLinkCache(client, cfg.CacheTTL), func() {
		if err := client.Close(); err != nil {
			logger.Warn().Err(err).Msg("close redis client failed")
		}
	}
}

func buildLinkSource(cfg config.AppConfig, links *service.LinkService) (service.LinkSource, error) {
	if cfg.LinkSource == config.LinkSourceStatic {
		return service.LoadStaticLinkSource(cfg.StaticLinksFile)
	}
	return service.NewStoreLinkSource(links), nil
}
