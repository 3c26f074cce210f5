package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/broadside-gg/broadside/internal/api"
	"github.com/broadside-gg/broadside/internal/buildinfo"
	"github.com/broadside-gg/broadside/internal/config"
	"github.com/broadside-gg/broadside/internal/game"
	"github.com/broadside-gg/broadside/internal/history"
	"github.com/broadside-gg/broadside/internal/session"
)

func main() {
	// 1. Load and validate environment config
	envCfg, err := config.LoadEnvConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}

	log.Printf("Broadside coordinator %s (%s, built %s)",
		buildinfo.Version, buildinfo.GitCommit, buildinfo.BuildTime)

	// 2. Match history archive (optional)
	var hist *history.Service
	var sink session.HistorySink
	if envCfg.HistoryEnabled {
		repo, err := history.OpenRepo(envCfg.StateDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			os.Exit(1)
		}
		defer repo.Close()

		hist = history.NewService(history.ServiceConfig{
			Repo:          repo,
			QueueSize:     envCfg.HistoryQueueSize,
			FlushBatch:    envCfg.HistoryFlushBatch,
			FlushInterval: envCfg.HistoryFlushInterval,
			Retain:        envCfg.HistoryRetain,
			PruneSchedule: envCfg.HistoryPruneSchedule,
		})
		hist.Start()
		defer hist.Stop()
		sink = hist
	}

	// 3. Session registry and housekeeper
	reg := session.NewRegistry(session.Config{
		Timings: game.Timings{
			TurnTimeout:       envCfg.TurnTimeout,
			InactivityTimeout: envCfg.InactivityTimeout,
			ReconnectWindow:   envCfg.ReconnectWindow,
			TerminalGrace:     envCfg.TerminalGrace,
		},
		QuickMatchTimeout: envCfg.QuickMatchTimeout,
		SweepInterval:     envCfg.SweepInterval,
	}, sink)

	keeper := session.NewHousekeeper(reg)
	keeper.Start()
	defer keeper.Stop()

	// 4. API server
	srv := api.NewServer(
		envCfg.ListenAddress,
		envCfg.Port,
		int64(envCfg.APIMaxBodyBytes),
		envCfg.ReadTimeout,
		reg,
		hist,
	)

	go func() {
		log.Printf("API server starting on %s:%d", envCfg.ListenAddress, envCfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("API server error: %v", err)
		}
	}()

	// 5. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("Received signal %s, shutting down...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
