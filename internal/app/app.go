// Package app wires configuration, clients, storage, and services for
// iris-server.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/iris/internal/clients/gateway"
	"github.com/bobmcallan/iris/internal/clients/gemini"
	"github.com/bobmcallan/iris/internal/common"
	"github.com/bobmcallan/iris/internal/interfaces"
	"github.com/bobmcallan/iris/internal/services/chat"
	"github.com/bobmcallan/iris/internal/services/onboarding"
	"github.com/bobmcallan/iris/internal/services/portfolio"
	"github.com/bobmcallan/iris/internal/storage/sessiondb"
)

// App holds all initialized services, clients, and storage. It is the shared
// core used by cmd/iris-server and by the handler tests.
type App struct {
	Config            *common.Config
	Logger            *common.Logger
	Sessions          interfaces.SessionStore
	Gateway           interfaces.GatewayClient
	PortfolioService  interfaces.PortfolioService
	ChatService       interfaces.ChatService
	OnboardingService interfaces.OnboardingService
	StartupTime       time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, logger, clients, storage, and services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	binDir := getBinaryDir()

	// Config path resolution: explicit arg, IRIS_CONFIG, binary dir, dev fallback
	if configPath == "" {
		configPath = os.Getenv("IRIS_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "iris.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/iris.toml"
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative session path to binary directory
	if config.Sessions.Path != "" && !filepath.IsAbs(config.Sessions.Path) {
		config.Sessions.Path = filepath.Join(binDir, config.Sessions.Path)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	sessions, err := sessiondb.NewStore(logger, config.Sessions.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}

	gatewayClient := gateway.NewClient(
		gateway.WithBaseURL(config.Gateway.BaseURL),
		gateway.WithLogger(logger),
		gateway.WithRateLimit(config.Gateway.RateLimit),
		gateway.WithTimeout(config.Gateway.GetTimeout()),
	)

	// Chat backend: direct Gemini when a key is configured, gateway otherwise.
	var responder interfaces.ChatResponder = gatewayClient
	if config.Gemini.APIKey != "" {
		geminiClient, err := gemini.NewClient(context.Background(), config.Gemini.APIKey,
			gemini.WithLogger(logger),
			gemini.WithModel(config.Gemini.Model),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Gemini client, chat falls back to gateway")
		} else {
			responder = geminiClient
			logger.Info().Str("model", config.Gemini.Model).Msg("Chat backed by Gemini")
		}
	}

	portfolioService := portfolio.NewService(gatewayClient, logger,
		portfolio.WithRefreshInterval(config.Portfolio.GetRefreshInterval()),
		portfolio.WithDedupeWindow(config.Portfolio.GetDedupeWindow()),
	)
	chatService := chat.NewService(responder, logger)
	onboardingService := onboarding.NewService(gatewayClient, sessions, logger)

	return &App{
		Config:            config,
		Logger:            logger,
		Sessions:          sessions,
		Gateway:           gatewayClient,
		PortfolioService:  portfolioService,
		ChatService:       chatService,
		OnboardingService: onboardingService,
		StartupTime:       time.Now(),
	}, nil
}

// Close releases app resources.
func (a *App) Close() {
	if a.ChatService != nil {
		a.ChatService.Close()
	}
	if a.Sessions != nil {
		if err := a.Sessions.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("Failed to close session store")
		}
	}
}
