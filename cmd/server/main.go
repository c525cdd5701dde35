package main

import (
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/slipstreak/internal/config"
	"github.com/slipstreak/internal/db"
	"github.com/slipstreak/internal/handler"
	"github.com/slipstreak/internal/router"
	"github.com/slipstreak/internal/service"
)

func main() {
	// .env 仅用于本地开发，缺失时直接忽略
	_ = godotenv.Load()

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		logrus.WithError(err).Fatal("failed to initialize database")
	}

	records := service.NewRecordService(db.NewSnapshotStore(db.DB), service.SystemClock())
	records.Load()
	// 开发模式由配置决定，快照里的历史取值不作数
	records.SetDevelopmentMode(cfg.DevelopmentMode)
	defer records.Close()

	streaks := service.NewStreakService(records)
	api := handler.NewAPI(records, streaks)

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(api, cfg.DevelopmentMode)
	logrus.WithField("addr", cfg.ListenAddr).Info("slipstreak server starting")
	if err := r.Run(cfg.ListenAddr); err != nil {
		logrus.WithError(err).Fatal("failed to run server")
	}
}
