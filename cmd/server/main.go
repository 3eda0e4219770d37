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

	"github.com/counselhub/counselhub/internal/api"
	"github.com/counselhub/counselhub/internal/config"
	"github.com/counselhub/counselhub/internal/database"
	"github.com/counselhub/counselhub/internal/directory"
	"github.com/counselhub/counselhub/internal/events"
	"github.com/counselhub/counselhub/internal/message"
	"github.com/counselhub/counselhub/internal/session"
	"github.com/counselhub/counselhub/internal/stats"
	"github.com/counselhub/counselhub/internal/video"
	_ "github.com/lib/pq"
)

const defaultSigningKey = "hjWbPvLeyhmWUYPL8sdYllxDUkCbtT0/b3ZBuqTNkpw="

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
	privilegedDsn  string
	signingKey     string
	videoAPIURL    string
	videoAPIKey    string
	allowedOrigins stringSliceFlag
)

func main() {
	flag.StringVar(&addr, "addr", "localhost:8000", "server address")
	flag.StringVar(&dsn, "dsn", "host=localhost user=counselhub password=counselhub dbname=counselhub sslmode=disable", "database connection string")
	flag.StringVar(&privilegedDsn, "privileged-dsn", "", "elevated-role connection string for fallback writes (defaults to -dsn)")
	flag.StringVar(&signingKey, "signing-key", defaultSigningKey, "base64 encoded signing key")
	flag.StringVar(&videoAPIURL, "video-api", "", "video vendor API base URL")
	flag.StringVar(&videoAPIKey, "video-key", "", "video vendor API key")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.Parse()

	logger := log.New(os.Stderr, "[counselhub] ", log.LstdFlags)

	cfg, err := config.NewConfig(addr, dsn, privilegedDsn, signingKey, allowedOrigins, videoAPIURL, videoAPIKey)
	if err != nil {
		logger.Fatal("config:", err)
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	dbConn, err := database.NewPgCounselRepository(logger, cfg.DatabaseDSN, cfg.PrivilegedDSN, statsUpdater)
	if err != nil {
		logger.Fatal("db open:", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Fatal("db close:", err)
		}
	}()

	if err := dbConn.Migrate(); err != nil {
		logger.Fatal("migrate:", err)
	}

	// policy provisioning needs the privileged role; a failure here leaves
	// the fallback stages degraded but the server still serves
	ensureCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := dbConn.EnsureMessagePolicies(ensureCtx); err != nil {
		logger.Println("message policies:", err)
	}
	cancel()

	dir := directory.NewDirectory(dbConn)

	var rooms video.RoomProvisioner
	if cfg.VideoAPIURL != "" {
		rooms = video.NewVendorClient(logger, cfg.VideoAPIURL, cfg.VideoAPIKey)
	}

	sessionStore := session.NewStore(logger, dbConn, dir, rooms, statsUpdater)
	resolver := session.NewResolver(sessionStore)

	hub := events.NewHub(logger, statsUpdater)

	messageChannel := message.NewChannel(logger, dbConn, resolver, hub, statsUpdater)

	srv := api.NewCounselApp(mux, logger, dbConn, sessionStore, messageChannel, resolver, hub, statsUpdater, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	go hub.Run()

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

	logger.Println("shutting down event hub...")
	if err := hub.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("event hub shutdown:", err)
	}

	logger.Println("shutdown complete")
}
