package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/koopa0/arena-relay/internal"
)

func main() {
	// 解析命令行參數
	var (
		configEnv = flag.String("env", "dev", "配置環境 (dev, prod)")
	)
	flag.Parse()

	// 載入配置
	cfg, err := internal.LoadConfig(*configEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "載入配置失敗: %v\n", err)
		os.Exit(1)
	}

	// 設置日誌
	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)

	// 創建 WebSocket Hub 與房間協調器（互相引用，構造後綁定）
	hub := internal.NewHub(logger)
	game := internal.NewGame(hub, logger, cfg.StartDelay)
	hub.Attach(game)

	// 創建 HTTP 處理器
	handler := internal.NewHandler(game, hub, logger)

	// 設置路由
	mux := http.NewServeMux()
	api := handler.Routes()
	mux.Handle("/health", api)
	mux.Handle("/stats", api)
	mux.HandleFunc("/ws", hub.ServeWS)

	// 客戶端靜態資源（存在時才提供）
	if info, err := os.Stat(cfg.StaticPath); err == nil && info.IsDir() {
		mux.Handle("/", http.FileServer(http.Dir(cfg.StaticPath)))
	}

	// 創建 HTTP 服務器
	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     mux,
		ReadTimeout: cfg.ReadTimeout,
		IdleTimeout: 60 * time.Second,
	}

	// 啟動服務器
	go func() {
		logger.Info("對戰中繼服務器啟動",
			"port", cfg.Port,
			"start_delay", cfg.StartDelay,
			"log_level", cfg.LogLevel)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("服務器啟動失敗", "error", err)
			os.Exit(1)
		}
	}()

	// 等待中斷信號
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("收到關閉信號，開始優雅關閉...")

	// 優雅關閉
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 停止接受新連接
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("服務器關閉失敗", "error", err)
	}

	// 停止 WebSocket Hub
	hub.Stop()

	logger.Info("服務器已關閉")
}

// setupLogger 設置日誌
func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: level == "debug", // debug 模式顯示源碼位置
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
