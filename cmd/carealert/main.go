package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"CareAlert/internal/dispatch"
	handlers "CareAlert/internal/handler"
	"CareAlert/internal/repository"
	"CareAlert/pkg/cache"
	"CareAlert/pkg/config"
	"CareAlert/pkg/logger"
	"CareAlert/pkg/metrics"
	"CareAlert/pkg/middleware"
	"CareAlert/pkg/scheduler"
	"CareAlert/pkg/util"
	"CareAlert/pkg/websocket"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// 加载配置
	if err := config.Load(); err != nil {
		panic(err)
	}
	cfg := config.GlobalConfig

	// 初始化日志
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	// 初始化数据库
	db, err := util.CreateDatabaseInstance(nil, cfg.DSN)
	if err != nil {
		log.Fatal("连接数据库失败", zap.Error(err))
	}

	groups := repository.NewGroupRepository(db, log)
	if err := groups.AutoMigrate(); err != nil {
		log.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 初始化缓存
	store, err := cache.NewCache(cfg.Cache)
	if err != nil {
		log.Fatal("初始化缓存失败", zap.Error(err))
	}
	defer store.Close()

	resolver := repository.NewCachedResolver(groups, store, 0)

	// WebSocket 推送中心
	hub := websocket.NewHub(websocket.LoadConfigFromEnv())

	// 指标与调度器
	m := metrics.NewAlertMetrics(nil)
	dispatcher := dispatch.New(resolver, hub, log,
		dispatch.WithAttentionWindow(cfg.AttentionWindow),
		dispatch.WithMetrics(m),
	)

	// 路由
	gin.SetMode(cfg.Mode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RateLimiter(middleware.RateLimiterConfig{
		Rate:      util.GetEnvDefault("RATE_LIMIT", "120-M"),
		SkipPaths: []string{"/metrics", cfg.APIPrefix + "/health"},
	}))

	handlers.NewHandlers(db, dispatcher, groups, resolver).Register(engine, m)
	websocket.RegisterRoutes(engine.Group(cfg.APIPrefix), websocket.NewHandler(hub))
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 定时打印调度概况
	cron := scheduler.NewCron(time.Local)
	if _, err := cron.Add("@every 1m", scheduler.FuncJob(func(ctx context.Context) {
		g, ongoing, queued := dispatcher.Stats()
		log.Info("调度概况",
			zap.Int("groups", g),
			zap.Int64("ongoing", ongoing),
			zap.Int64("queued", queued),
		)
	})); err != nil {
		log.Fatal("注册定时任务失败", zap.Error(err))
	}
	cron.Start()

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: engine,
	}

	go func() {
		log.Info("服务启动", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("服务异常退出", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("收到退出信号，开始优雅关停")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("HTTP 服务关停失败", zap.Error(err))
	}

	cron.Stop()
	hub.Close()
	dispatcher.Reset()

	log.Info("服务已退出")
}
