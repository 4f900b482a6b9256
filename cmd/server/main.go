// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/wayfarer/internal/api"
	"github.com/tomtom215/wayfarer/internal/auth"
	"github.com/tomtom215/wayfarer/internal/authz"
	"github.com/tomtom215/wayfarer/internal/booking"
	"github.com/tomtom215/wayfarer/internal/chat"
	"github.com/tomtom215/wayfarer/internal/config"
	"github.com/tomtom215/wayfarer/internal/database"
	"github.com/tomtom215/wayfarer/internal/eligibility"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/notification"
	"github.com/tomtom215/wayfarer/internal/preferences"
	"github.com/tomtom215/wayfarer/internal/presence"
	"github.com/tomtom215/wayfarer/internal/realtime"
	"github.com/tomtom215/wayfarer/internal/rooms"
	"github.com/tomtom215/wayfarer/internal/supervisor"
	"github.com/tomtom215/wayfarer/internal/supervisor/services"
	ws "github.com/tomtom215/wayfarer/internal/websocket"
)

const (
	checkpointInterval = 10 * time.Minute
	presenceGCInterval = 15 * time.Minute
)

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	instanceID := cfg.Server.InstanceID
	if instanceID == "" {
		instanceID = uuid.New().String()[:8]
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Instance:  instanceID,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("presence_store", cfg.Presence.Store).
		Bool("nats", cfg.NATS.Enabled).
		Msg("Starting Wayfarer with supervisor tree")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	presenceStore, err := openPresenceStore(&cfg.Presence)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to open presence store")
		return
	}
	defer func() {
		if err := presenceStore.close(); err != nil {
			logging.Error().Err(err).Msg("Error closing presence store")
		}
	}()

	var jwtManager *auth.JWTManager
	if cfg.Security.JWTSecret != "" {
		jwtManager, err = auth.NewJWTManager(&cfg.Security)
		if err != nil {
			logging.Error().Err(err).Msg("Failed to initialize JWT manager")
			return
		}
		logging.Info().Bool("require_token", cfg.Security.RequireToken).Msg("Session token verification enabled")
	} else {
		logging.Warn().Msg("JWT_SECRET is not set: websocket clients authenticate by assertion and /api/v1 is unavailable")
	}

	enforcer, err := authz.NewEnforcer(&authz.EnforcerConfig{
		ModelPath:      cfg.Security.Casbin.ModelPath,
		PolicyPath:     cfg.Security.Casbin.PolicyPath,
		AutoReload:     cfg.Security.Casbin.AutoReload,
		ReloadInterval: cfg.Security.Casbin.ReloadInterval,
	})
	if err != nil {
		logging.Error().Err(err).Msg("Failed to initialize authorization policy")
		return
	}
	defer enforcer.Close()

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	loc, err := cfg.Notifications.Location()
	if err != nil {
		logging.Error().Err(err).Str("timezone", cfg.Notifications.Timezone).Msg("Invalid notification timezone")
		return
	}

	// Realtime fan-out. The hub delivers frames, the router owns room
	// membership, and the handler is set once both exist.
	hub := ws.NewHub(&cfg.WebSocket)
	router := rooms.NewRouter(rooms.NewMemoryRegistry(), hub)

	prefs := preferences.NewService(db)
	engine := eligibility.NewEngine(db,
		eligibility.WithLocation(loc),
		eligibility.WithTimeout(cfg.Notifications.LookupTimeout),
	)
	dispatcher := notification.NewDispatcher(db, db, engine, router)
	pipeline := chat.NewPipeline(db, router)
	tracker := presence.NewTracker(presenceStore.store, router, db)
	bookings := booking.NewService(db, router, dispatcher, enforcer)

	var simulator *booking.Simulator
	if cfg.Simulation.Enabled {
		simulator = booking.NewSimulator(router, booking.DefaultSteps(cfg.Simulation))
		bookings.EnableSimulation(simulator)
		logging.Info().Msg("Booking flow simulation enabled")
	}

	handler := realtime.NewHandler(&cfg.WebSocket, realtime.Deps{
		Users:    db,
		Rooms:    router,
		Presence: tracker,
		Chat:     pipeline,
		Bookings: bookings,
		Notifier: dispatcher,
		Authz:    enforcer,
	})
	hub.SetHandler(handler)

	peerRelay := initRelay(&cfg.NATS, instanceID, router)
	if peerRelay != nil {
		defer func() {
			if err := peerRelay.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing NATS relay")
			}
		}()
	}

	apiRouter := api.NewRouter(
		api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(&cfg.Security)),
		cfg.Security.RequireToken,
		api.Deps{
			WebSocket:     hub,
			Auth:          auth.NewMiddleware(jwtManager),
			Authz:         enforcer,
			Notifications: dispatcher,
			Preferences:   prefs,
			Chat:          pipeline,
			Presence:      tracker,
			Checks: []api.ReadinessCheck{
				{Name: "database", Check: db.Ping},
			},
		},
	)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           apiRouter.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridges zerolog to slog for sutureslog.
	slogLogger := logging.NewSlogLogger()

	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout + 5*time.Second
	tree, err := supervisor.NewSupervisorTree(slogLogger, treeCfg)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to create supervisor tree")
		return
	}

	// === ADD SERVICES TO SUPERVISOR TREE ===

	// Data layer
	tree.AddDataService(services.NewMaintenanceService("duckdb-checkpoint", checkpointInterval, db.Checkpoint))
	if presenceStore.gc != nil {
		tree.AddDataService(services.NewMaintenanceService("presence-gc", presenceGCInterval, presenceStore.gc))
	}

	// Messaging layer
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	if simulator != nil {
		tree.AddMessagingService(services.NewSimulatorService(simulator))
	}
	if peerRelay != nil {
		tree.AddMessagingService(services.NewRelayService(peerRelay))
	}

	// API layer
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	counts := tree.ServiceCounts()
	logging.Info().
		Str("addr", server.Addr).
		Int("data", counts[supervisor.LayerData.String()]).
		Int("messaging", counts[supervisor.LayerMessaging.String()]).
		Int("api", counts[supervisor.LayerAPI.String()]).
		Msg("Supervisor tree assembled")

	// === START SUPERVISOR TREE ===

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
