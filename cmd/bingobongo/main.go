package main

import (
	"flag"
	"log"

	"github.com/lryanle/bingobongo/internal/app"
	"github.com/lryanle/bingobongo/internal/config"
	"github.com/lryanle/bingobongo/internal/logger"
)

func main() {
	cfg := config.Load()

	addr := flag.String("addr", cfg.Addr, "HTTP listen address")
	dbPath := flag.String("db", cfg.DBPath, "Path to the SQLite database file")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	httpLog := flag.Bool("http-log", false, "Log every HTTP request")
	flag.Parse()

	cfg.Addr = *addr
	cfg.DBPath = *dbPath

	appLog := logger.NewWithLevel(logger.ParseLevel(*logLevel))
	if *httpLog {
		appLog.EnableHTTPLogging()
	}

	application, err := app.New(appLog, cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}
	defer application.Close()

	if err := application.Run(cfg.Addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
