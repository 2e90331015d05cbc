package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/nadfun/trading-mcp/internal/app"
	"github.com/nadfun/trading-mcp/internal/config"
	"github.com/nadfun/trading-mcp/internal/mcp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting nad.fun Trading MCP Server", zap.String("config", config.GetConfigPath()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to start", zap.Error(err))
	}
	defer a.Close()

	handler := mcp.NewMCPHandler(a.Trader, a.Client, logger)
	server := mcp.NewMCPServer(handler, os.Stdin, os.Stdout, logger)

	// unblock the pending read on shutdown
	go func() {
		<-ctx.Done()
		os.Stdin.Close()
	}()

	if err := server.Start(ctx); err != nil {
		logger.Error("MCP server failed", zap.Error(err))
		return
	}

	logger.Info("MCP server stopped")
}
