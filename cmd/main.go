package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"brewsync/internal/aiden"
	"brewsync/internal/handlers"
	"brewsync/internal/logger"
	"brewsync/internal/repository"
	"brewsync/internal/repository/db"
	"brewsync/internal/retry"
	"brewsync/internal/server"
	"brewsync/internal/service"

	"github.com/spf13/viper"
)

// The cloud imposes rate limits, so the routine poll cadence is clamped.
const (
	minPollInterval     = 30 * time.Second
	maxPollInterval     = 300 * time.Second
	defaultPollInterval = 60 * time.Second
)

func main() {
	// load config.yml first so the logger level comes from it
	if err := loadConfig(); err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(viper.GetString("log_level"))

	// open DB
	database, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := database.Close(); cerr != nil {
			log.Fatalw("failed to close sqlite", "err", cerr)
		}
	}()

	loc, err := loadLocation()
	if err != nil {
		log.Fatalw("invalid usage.timezone", "err", err)
	}

	// wire dependencies
	repos := repository.NewRepository(database)
	client := aiden.NewHTTPClient(aiden.Config{
		BaseURL:  viper.GetString("aiden.base_url"),
		Email:    viper.GetString("aiden.email"),
		Password: viper.GetString("aiden.password"),
		Timeout:  viper.GetDuration("aiden.timeout"),
	}, retry.DefaultPolicy(), log)

	services := service.NewService(repos, client, service.Config{
		SigningKey:    viper.GetString("auth.signing_key"),
		TokenTTL:      viper.GetDuration("auth.token_ttl"),
		MinRefresh:    viper.GetDuration("poll.min_refresh"),
		RetentionDays: viper.GetInt("usage.retention_days"),
		Location:      loc,
	}, log)
	apiHandler := handlers.NewHandler(services, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// start the poll scheduler
	interval := pollInterval(log)
	go services.Brewer.Run(ctx, interval)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)
	log.Infow("brewsync started", "poll_interval", interval, "timezone", loc.String())

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "brewsync.db")
		dbPath = "brewsync.db"
	}
	return db.InitDB(dbPath)
}

// loadLocation resolves the zone used for rollup boundaries. Empty means
// the host's local zone.
func loadLocation() (*time.Location, error) {
	name := viper.GetString("usage.timezone")
	if name == "" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

// pollInterval reads poll.interval_seconds and clamps it to the allowed band.
func pollInterval(log *logger.Logger) time.Duration {
	secs := viper.GetInt("poll.interval_seconds")
	if secs == 0 {
		return defaultPollInterval
	}
	interval := time.Duration(secs) * time.Second
	switch {
	case interval < minPollInterval:
		log.Warnw("poll.interval_seconds below minimum, clamping",
			"requested", interval, "min", minPollInterval)
		return minPollInterval
	case interval > maxPollInterval:
		log.Warnw("poll.interval_seconds above maximum, clamping",
			"requested", interval, "max", maxPollInterval)
		return maxPollInterval
	}
	return interval
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
