package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ririyaza/Emotion-Detection-Testing-Stub/internal/config"
	"github.com/ririyaza/Emotion-Detection-Testing-Stub/internal/handler"
	emotionservice "github.com/ririyaza/Emotion-Detection-Testing-Stub/internal/service/emotion"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	emotionSvc, cleanup, err := emotionservice.NewFromConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize emotion service: %v", err)
	}
	defer cleanup()

	router := handler.NewRouter(emotionSvc, handler.Options{
		MaxUploadBytes: cfg.Inference.MaxUploadBytes,
		MetricsEnabled: cfg.Server.MetricsEnabled,
	})

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("emotion detection backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// shutdownGrace 是关闭时等待进行中推理请求的上限。
const shutdownGrace = 10 * time.Second

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Printf("[server] shutdown requested, draining in-flight predictions (up to %s)", shutdownGrace)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			// 超时未完成的推理请求会被直接断开，其临时文件由请求自身的 defer 清理
			log.Printf("[server] drain incomplete: %v", err)
		}
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
