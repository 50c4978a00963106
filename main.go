package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	consulapi "github.com/hashicorp/consul/api"

	"storefront-gateway/handlers"
	"storefront-gateway/internal/backend"
	"storefront-gateway/internal/localstore"
	"storefront-gateway/internal/session"
	"storefront-gateway/pkg/logkey"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, relying on environment")
	}

	// Money fields serialize as JSON numbers, matching what the API emits.
	decimal.MarshalJSONWithoutQuotes = true

	sessionKey := os.Getenv("SESSION_KEY")
	if sessionKey == "" {
		panic("SESSION_KEY is not set")
	}
	baseURL := os.Getenv("BACKEND_BASE_URL")
	if baseURL == "" {
		panic("BACKEND_BASE_URL is not set")
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}
	slots, err := localstore.NewStore(dataDir)
	if err != nil {
		slog.Error("opening local store", slog.String(logkey.ERROR, err.Error()))
		os.Exit(1)
	}
	// The staged buy-now item is session-scoped; a restart is a new session.
	if err := slots.Delete(localstore.SlotBuyNow); err != nil {
		slog.Error("clearing stale buy-now slot", slog.String(logkey.ERROR, err.Error()))
	}

	sessionTTL := 24 * time.Hour
	if raw := os.Getenv("SESSION_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			sessionTTL = d
		}
	}
	sessions, err := session.NewManager([]byte(sessionKey), sessionTTL)
	if err != nil {
		slog.Error("configuring sessions", slog.String(logkey.ERROR, err.Error()))
		os.Exit(1)
	}

	var opts []backend.Option
	if raw := os.Getenv("BACKEND_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			opts = append(opts, backend.WithTimeout(d))
		}
	}
	if os.Getenv("CONSUL_HTTP_ADDR") != "" {
		cc, err := consulapi.NewClient(consulapi.DefaultConfig())
		if err != nil {
			slog.Error("connecting to consul", slog.String(logkey.ERROR, err.Error()))
			os.Exit(1)
		}
		service := os.Getenv("BACKEND_SERVICE_NAME")
		if service == "" {
			service = "commerce-api"
		}
		opts = append(opts, backend.WithConsul(cc, service))
	}
	api, err := backend.NewClient(baseURL, opts...)
	if err != nil {
		slog.Error("configuring api client", slog.String(logkey.ERROR, err.Error()))
		os.Exit(1)
	}

	r := handlers.API(api, slots, sessions)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	slog.Info("storefront gateway listening", slog.String("PORT", port))
	if err := r.Run(":" + port); err != nil {
		slog.Error("server stopped", slog.String(logkey.ERROR, err.Error()))
		os.Exit(1)
	}
}
