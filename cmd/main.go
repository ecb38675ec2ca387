package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-extract-service/api"
	"github.com/fyerfyer/doc-extract-service/api/handler"
	"github.com/fyerfyer/doc-extract-service/api/middleware"
	appconfig "github.com/fyerfyer/doc-extract-service/config"
	"github.com/fyerfyer/doc-extract-service/internal/metrics"
	"github.com/fyerfyer/doc-extract-service/internal/services"
)

// 命令行参数，非零值覆盖配置文件和环境变量
type flags struct {
	ConfigFile string // 配置文件路径
	Port       int    // 服务端口
	Mode       string // 运行模式 (debug/release)
	LogLevel   string // 日志级别
}

func main() {
	// 可选的.env文件
	_ = godotenv.Load()

	f := parseFlags()

	cfg, err := appconfig.Load(f.ConfigFile)
	if err != nil {
		middleware.GetLogger().Fatalf("Failed to load config: %v", err)
	}
	applyFlags(cfg, f)
	if err := cfg.Validate(); err != nil {
		middleware.GetLogger().Fatalf("Invalid config: %v", err)
	}

	gin.SetMode(cfg.Server.Mode)

	logger := middleware.SetupLogger(cfg.Log)
	logger.WithFields(logrus.Fields{
		"addr":          cfg.Server.Addr(),
		"ocr_languages": cfg.OCR.Languages,
		"ocr_dpi":       cfg.OCR.DPI,
	}).Info("Starting document extraction service...")

	m := metrics.New()
	service := services.NewExtractServiceFromConfig(cfg, logger, m)

	extractHandler := handler.NewExtractHandler(service, handler.Defaults{
		ChunkSize:         cfg.Chunk.Size,
		ChunkOverlap:      cfg.Chunk.Overlap,
		FallbackThreshold: cfg.Web.FallbackThreshold,
		MaxUploadBytes:    cfg.Server.MaxUploadMB << 20,
	})

	r := api.SetupRouter(extractHandler, m)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 优雅关闭
	go func() {
		logger.Infof("Server is running on %s", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 等待终止信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// parseFlags 解析命令行参数
func parseFlags() flags {
	var f flags
	flag.StringVar(&f.ConfigFile, "config", "", "Path to config file (optional)")
	flag.IntVar(&f.Port, "port", 0, "Server port (overrides config)")
	flag.StringVar(&f.Mode, "mode", "", "Run mode (debug/release)")
	flag.StringVar(&f.LogLevel, "log-level", "", "Log level (debug/info/warn/error)")
	flag.Parse()
	return f
}

// applyFlags 命令行上明确设置的参数优先
func applyFlags(cfg *appconfig.Config, f flags) {
	if f.Port != 0 {
		cfg.Server.Port = f.Port
	}
	if f.Mode != "" {
		cfg.Server.Mode = f.Mode
	}
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
}
