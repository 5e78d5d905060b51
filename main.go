package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/swaggo/swag" // 导入 swag

	"ai_book_recommend/config"
	"ai_book_recommend/db"
	_ "ai_book_recommend/docs" // 导入 swagger 文档
	"ai_book_recommend/handlers"
	"ai_book_recommend/logger"
	"ai_book_recommend/repository"
	"ai_book_recommend/scheduler"
	"ai_book_recommend/services"
	"ai_book_recommend/store"
)

func main() {
	cfg := config.Load()

	// 初始化日志系统
	if err := logger.Init(cfg); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	logger.Info("日志系统初始化成功", "level", cfg.Log.Level, "format", cfg.Log.Format, "output", cfg.Log.Output)

	// 限流状态和推荐缓存的键值存储：配置了数据库则用MySQL共享，否则退化为进程内存
	var kv store.Store
	var usage services.UsageRecorder

	if cfg.DB.DSN != "" {
		if err := db.InitMySQLWithConfig(cfg); err != nil {
			logger.Error("初始化MySQL失败", "error", err)
			os.Exit(1)
		}
		logger.Info("MySQL连接成功",
			"max_open_conns", cfg.DB.MaxOpenConns,
			"max_idle_conns", cfg.DB.MaxIdleConns,
			"conn_max_lifetime", cfg.DB.ConnMaxLifetime)

		kv = repository.NewKVRepo()
		usage = &services.DBUsageRecorder{}
	} else {
		logger.Warn("未配置数据库，限流和缓存状态仅保存在内存中，用量记录不落库")
		kv = store.NewMemoryStore()
	}

	svc := services.NewRecommendationService(cfg, kv, services.NewLLMClient(cfg), usage)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	handlers.RegisterRoutes(r, cfg, svc)

	// 启动过期状态清理任务
	scheduler.Start(cfg, svc)

	serverAddr := cfg.Server.Addr
	logger.Info("服务器启动", "address", serverAddr)
	logger.Info("Swagger文档可访问", "url", fmt.Sprintf("http://%s/swagger/index.html", serverAddr))
	log.Fatal(http.ListenAndServe(serverAddr, r))
}
