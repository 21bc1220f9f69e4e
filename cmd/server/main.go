package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/skomatsu/workchat/db"
	"github.com/skomatsu/workchat/internal/api"
	"github.com/skomatsu/workchat/internal/config"
	"github.com/skomatsu/workchat/internal/database"
	"github.com/skomatsu/workchat/internal/server"
	"github.com/skomatsu/workchat/internal/stats"
)

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

var (
	addr           string
	dsn            string
	signingKey     string
	allowedOrigins stringSliceFlag
	skipMigrations bool
)

func main() {
	flag.StringVar(&addr, "addr", config.Env("WORKCHAT_ADDR", "localhost:8000"), "server address")
	flag.StringVar(&dsn, "dsn", config.Env("WORKCHAT_DSN",
		"host=localhost user=postgres password=postgres dbname=postgres sslmode=disable"), "database connection string")
	flag.StringVar(&signingKey, "signing-key", config.Env("WORKCHAT_SIGNING_KEY", ""), "base64 encoded signing key")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.BoolVar(&skipMigrations, "skip-migrations", false, "do not run database migrations on startup")
	flag.Parse()

	logger := log.New(os.Stderr, "[workchat] ", log.LstdFlags)

	if len(allowedOrigins) == 0 {
		if origins := config.Env("WORKCHAT_ALLOWED_ORIGINS", ""); origins != "" {
			allowedOrigins = strings.Split(origins, ",")
		}
	}

	cfg, err := config.NewConfig(addr, dsn, signingKey, allowedOrigins)
	if err != nil {
		logger.Fatal("config:", err)
	}

	if !skipMigrations {
		if err := db.Migrate(cfg.DatabaseDSN); err != nil {
			logger.Fatal("migrate:", err)
		}
	}

	dbConn, err := database.NewPgWorkChatRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("db open:", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Fatal("db close:", err)
		}
	}()

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	chatServer, err := server.NewChatServer(logger, dbConn, statsUpdater)
	if err != nil {
		logger.Fatal("new chat server:", err)
	}

	srv := api.NewWorkChatApp(mux, logger, chatServer, dbConn, statsUpdater, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	go chatServer.Run()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutting down chat server...")
	chatServer.Shutdown()

	logger.Println("shutdown complete")
}
