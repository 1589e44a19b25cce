package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"omvsetup/constants"
	"omvsetup/executor"
	"omvsetup/flow"
	"omvsetup/handlers"
	"omvsetup/i18n"
	"omvsetup/logger"
	"omvsetup/state"
	"omvsetup/utils"
)

// config holds the settings read from the environment at startup.
type config struct {
	Port       string
	LogLevel   string
	StorePath  string
	SecretKey  string
	OMVTimeout time.Duration
	Workers    int
}

func loadConfig() config {
	return config{
		Port:       utils.GetEnv("PORT", constants.DefaultPort),
		LogLevel:   utils.GetEnv("LOG_LEVEL", constants.DefaultLogLevel),
		StorePath:  utils.GetEnv("OMVSETUP_STORE", constants.DefaultStorePath),
		SecretKey:  os.Getenv("OMVSETUP_SECRET_KEY"),
		OMVTimeout: utils.GetEnvDuration("OMV_TIMEOUT", constants.DefaultConnectTimeout*time.Second),
		Workers:    utils.GetEnvInt("OMVSETUP_WORKERS", constants.DefaultWorkers),
	}
}

func main() {
	envErr := godotenv.Load(".env")

	cfg := loadConfig()
	logger.Init(cfg.LogLevel)
	log := logger.Get()
	log.Info().Str("version", constants.AppVersion).Msg("Starting omvsetup")
	if envErr != nil {
		log.Warn().Msg("No .env file found, using environment variables")
	}

	i18n.InitI18n()

	store, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open entry store")
	}

	pool := executor.New(cfg.Workers)
	defer pool.Close()

	manager := flow.NewDefaultManager(store, flow.NewOMVConnectorFactory(cfg.OMVTimeout), pool)
	handler := handlers.InitHandlers(manager, store, handlers.InitSessions())

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.OMVTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Int("workers", pool.Workers()).Msg("Server starting...")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	} else {
		log.Info().Msg("Server shutdown complete")
	}
}

// openStore opens the entry file, encrypting passwords when a key is set.
func openStore(cfg config) (*state.FileStore, error) {
	var box *state.SecretBox
	if cfg.SecretKey != "" {
		b, err := state.NewSecretBox(cfg.SecretKey)
		if err != nil {
			return nil, fmt.Errorf("invalid OMVSETUP_SECRET_KEY: %w", err)
		}
		box = b
	} else if utils.IsProduction() {
		logger.Get().Warn().Msg("OMVSETUP_SECRET_KEY not set, passwords are stored in clear text")
	}

	store, err := state.OpenFileStore(cfg.StorePath, box)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", cfg.StorePath, err)
	}
	logger.Get().Info().
		Str("path", cfg.StorePath).
		Bool("encrypted", box != nil).
		Msg("Entry store loaded")
	return store, nil
}
