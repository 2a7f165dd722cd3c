package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kvittera/internal/config"
	"kvittera/internal/logging"
	"kvittera/internal/services"
)

func main() {
	// 0. Parse Command Line Flags
	runAPI := flag.Bool("api", false, "Run REST API service")
	runRealtime := flag.Bool("realtime", false, "Run realtime websocket service")
	runAll := flag.Bool("all", false, "Run all services")
	flag.Parse()

	// Default to running everything if no specific flags are provided
	if *runAll || (!*runAPI && !*runRealtime) {
		*runAPI = true
		*runRealtime = true
	}

	// 1. Load Configuration
	cfg := config.LoadConfig()
	if err := logging.Initialize(cfg.Logging); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Shutdown()

	// 2. Initialize Service Manager
	mgr := services.NewManager(cfg, services.Options{
		RunAPI:      *runAPI,
		RunRealtime: *runRealtime,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := mgr.Init(ctx); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// 3. Start Services
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	mgr.Start(bgCtx)

	// 4. Wait for Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	bgCancel()
	mgr.Shutdown(shutdownCtx)
}
