package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // 确保在精简镜像中也能识别时区

	"github.com/joho/godotenv"
	"github.com/user/moovie-catalog/internal/config"
	"github.com/user/moovie-catalog/internal/handler"
	"github.com/user/moovie-catalog/internal/logging"
	"github.com/user/moovie-catalog/internal/repository"
	"github.com/user/moovie-catalog/internal/router"
	"github.com/user/moovie-catalog/internal/service"
)

func main() {
	// 加载环境变量
	envErr := godotenv.Load()

	// 加载配置
	cfg := config.Load()

	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if envErr != nil {
		logging.Info().Msg("未找到 .env 文件，使用系统环境变量")
	}

	// 初始化数据库
	db, err := repository.InitDB(cfg.DatabaseURL, repository.DBOptions{
		MaxOpenConns: cfg.DBMaxOpen,
		MaxIdleConns: cfg.DBMaxIdle,
		Logger:       logging.NewGormLogger(cfg.LogLevel),
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("数据库连接失败")
	}

	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	if cfg.AutoMigrate {
		if err := repository.AutoMigrate(db); err != nil {
			logging.Fatal().Err(err).Msg("数据库迁移失败")
		}
		logging.Info().Msg("数据库迁移完成")
	}

	// 初始化仓库
	repos := repository.NewRepositories(db)

	// 推荐引擎，未配置地址时不做推荐
	var recommender service.Recommender
	if cfg.RecommenderURL != "" {
		recommender = service.NewRecommendationClient(cfg.RecommenderURL, service.RecommenderOptions{
			Timeout: cfg.RecommenderTimeout,
		})
	}

	h := handler.NewHandler(repos, cfg, recommender)
	r := router.New(h)

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// 在 goroutine 中启动服务器，这样我们就可以监听信号
	go func() {
		logging.Info().Str("addr", "http://localhost:"+cfg.Port).Str("site", cfg.SiteName).Msg("服务器启动")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("服务器启动失败")
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Info().Msg("正在关闭服务器...")

	// 5 秒超时上下文用于关闭过程
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("服务器强制关闭")
	}

	logging.Info().Msg("服务器已退出")
}
