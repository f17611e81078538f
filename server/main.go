package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"neonsnake.io/config"
	"neonsnake.io/engine"
	"neonsnake.io/highscore"
)

func main() {
	port := flag.Int("port", 8080, "Server port")
	configFile := flag.String("config", "", "JSON game config file (optional)")
	envFile := flag.String("env", ".env", "Environment file (optional)")
	staticDir := flag.String("static", "", "Static files directory (default: none)")
	bots := flag.Int("bots", -1, "Number of bots (default: from config)")
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime)

	if err := config.Load(*envFile); err != nil {
		log.Fatal(err)
	}

	cfg := engine.DefaultConfig()
	if *configFile != "" {
		if err := engine.LoadConfigFile(*configFile, &cfg); err != nil {
			log.Fatal(err)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		log.Fatalf("[CONFIG] %v", err)
	}
	if *bots >= 0 {
		cfg.BotCount = *bots
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[CONFIG] invalid game config: %v", err)
	}

	srv := engine.NewServer(cfg, highscore.NewMemoryStore())
	if *staticDir != "" {
		abs, err := filepath.Abs(*staticDir)
		if err != nil {
			log.Fatal(err)
		}
		if _, err := os.Stat(abs); err != nil {
			log.Printf("WARNING: static dir %s not usable: %v", abs, err)
		} else {
			srv.StaticDir = abs
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf("0.0.0.0:%d", *port)
	if err := srv.Run(ctx, addr); err != nil {
		log.Fatal(err)
	}
}
