package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/broadside-gg/broadside/internal/buildinfo"
	"github.com/broadside-gg/broadside/internal/router"
)

func main() {
	configPath := flag.String("config", os.Getenv("BROADSIDE_ROUTER_CONFIG"), "path to router YAML config")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "fatal: -config (or BROADSIDE_ROUTER_CONFIG) is required")
		os.Exit(1)
	}

	cfg, err := router.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}

	log.Printf("Broadside router %s (%s, built %s)",
		buildinfo.Version, buildinfo.GitCommit, buildinfo.BuildTime)

	rt, err := router.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- rt.ListenAndServe() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("Received signal %s, shutting down...", sig)
		if err := rt.Close(); err != nil {
			log.Printf("Router shutdown error: %v", err)
		}
	case err := <-serveErr:
		if err != nil {
			log.Fatalf("Router error: %v", err)
		}
	}
	log.Println("Router stopped")
}
