package main

import (
	"log"

	"github.com/devtrack/internal/config"
	"github.com/devtrack/internal/db"
	"github.com/devtrack/internal/logger"
	"github.com/devtrack/internal/router"
	"github.com/joho/godotenv"
)

func main() {
	// 本地开发允许通过 .env 注入配置，缺失时静默跳过
	_ = godotenv.Load()

	cfg := config.Load()

	appLog, err := logger.New(cfg.GinMode)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer appLog.Sync()

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		appLog.Fatal("failed to initialize database", "err", err)
	}

	// 设置并运行 Gin 服务器
	r := router.Setup(db.DB, cfg, appLog)
	appLog.Info("server starting", "addr", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		appLog.Fatal("failed to run server", "err", err)
	}
}
