package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/SlpAus/anon-voting-backend/api"
	"github.com/SlpAus/anon-voting-backend/internal/election"
	"github.com/SlpAus/anon-voting-backend/internal/platform/config"
	"github.com/SlpAus/anon-voting-backend/internal/platform/database"
	"github.com/SlpAus/anon-voting-backend/internal/platform/health"
	"github.com/SlpAus/anon-voting-backend/internal/platform/shutdown"
	"github.com/SlpAus/anon-voting-backend/internal/platform/startup"
	"github.com/SlpAus/anon-voting-backend/internal/result"
	"github.com/SlpAus/anon-voting-backend/internal/user"
	"github.com/SlpAus/anon-voting-backend/internal/vote"
	"github.com/SlpAus/anon-voting-backend/pkg/lifecycle"
	"github.com/SlpAus/anon-voting-backend/pkg/token"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("加载配置失败: %v", err))
	}

	token.GenerateSecretKey()
	database.InitDB(cfg.Database)
	database.InitRedis(cfg.Database.Redis)

	// 阻塞式获取初始Run ID
	health.InitializeRunID()

	// 执行应用首次启动初始化流程（迁移 + 缓存预热）
	if err := startup.InitializeApplication(); err != nil {
		panic(fmt.Sprintf("应用初始化失败，无法启动: %v", err))
	}

	// 阻塞式执行一次启动后健康检查
	fmt.Println("正在执行启动后健康检查...")
	health.PerformCheck()

	// 装配各模块：依赖自上而下显式注入，核心不依赖任何进程级单例
	tallyCache := result.NewCache(database.RDB)
	resultSvc := result.NewService(database.DB, tallyCache)
	ledger := vote.NewLedger(database.DB, tallyCache.Invalidate)
	userSvc := user.NewService(database.DB)
	electionSvc := election.NewService(database.DB)

	handlers := api.Handlers{
		User:     user.NewHandler(userSvc, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute),
		Election: election.NewHandler(electionSvc),
		Vote:     vote.NewHandler(ledger),
		Result:   result.NewHandler(resultSvc),
	}

	// 后台服务的生命周期管理
	gracefulMgr := lifecycle.NewManager()
	forcefulMgr := lifecycle.NewManager()

	healthHandle, err := gracefulMgr.NewServiceHandle("redis-health-checker")
	if err != nil {
		panic(err)
	}
	go health.StartRedisHealthCheck(healthHandle)

	refresherHandle, err := gracefulMgr.NewServiceHandle("tally-cache-refresher")
	if err != nil {
		panic(err)
	}
	go result.StartCacheRefresher(refresherHandle, resultSvc)

	gin.SetMode(cfg.Server.Mode)
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.Cors.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api.SetupRoutes(r, handlers)

	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	go func() {
		fmt.Printf("服务器已准备就绪，开始监听 %s\n", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic("Failed to start server: " + err.Error())
		}
	}()

	// 阻塞等待停机信号并执行优雅停机
	coordinator := shutdown.NewCoordinator(gracefulMgr, forcefulMgr)
	coordinator.ListenForSignalsAndShutdown(server)
}
