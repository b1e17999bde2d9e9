// Command callswarm is the main entry point for the callswarm scheduling
// server: it places outbound calls to providers, negotiates open slots with
// a conversational voice agent, and books the best one against the user's
// calendar.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrWong99/callswarm/internal/calendar"
	"github.com/MrWong99/callswarm/internal/call"
	"github.com/MrWong99/callswarm/internal/config"
	"github.com/MrWong99/callswarm/internal/dispatcher"
	"github.com/MrWong99/callswarm/internal/dispatcher/tools"
	"github.com/MrWong99/callswarm/internal/directory"
	"github.com/MrWong99/callswarm/internal/distance"
	"github.com/MrWong99/callswarm/internal/health"
	"github.com/MrWong99/callswarm/internal/mediabridge"
	"github.com/MrWong99/callswarm/internal/observe"
	"github.com/MrWong99/callswarm/internal/store"
	"github.com/MrWong99/callswarm/internal/swarm"
	"github.com/MrWong99/callswarm/internal/swarm/booking"
	"github.com/MrWong99/callswarm/internal/telephony"
	"github.com/MrWong99/callswarm/internal/voiceagent"
	"github.com/MrWong99/callswarm/pkg/types"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "callswarm: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "callswarm: %v\n", err)
		}
		return 1
	}

	logLevel := new(slog.LevelVar)
	logLevel.Set(parseLogLevel(cfg.Server.LogLevel))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	slog.Info("callswarm starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"call_mode", cfg.Server.DefaultCallMode,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "callswarm"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer shutdownTelemetry(context.Background())

	deps, err := wire(ctx, cfg)
	if err != nil {
		slog.Error("failed to wire application", "err", err)
		return 1
	}

	watcher, err := config.NewWatcher(*configPath, func(old, updated *config.Config) {
		diff := config.Diff(old, updated)
		if diff.LogLevelChanged {
			logLevel.Set(parseLogLevel(diff.NewLogLevel))
			slog.Info("config watcher: log level updated", "level", diff.NewLogLevel)
		}
		if diff.SwarmChanged {
			deps.manager.SetTunables(diff.NewSwarm)
			slog.Info("config watcher: swarm tunables updated")
		}
	})
	if err != nil {
		slog.Error("failed to start config watcher", "err", err)
		return 1
	}
	defer watcher.Stop()

	mux := http.NewServeMux()
	mux.Handle("GET /healthz", http.HandlerFunc(health.New().Healthz))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("POST /twilio/voice", deps.bridge.VoiceHandler(streamURL(cfg.Server.PublicBaseURL)))
	mux.Handle("POST /twilio/voice/status", deps.bridge.StatusHandler())
	mux.Handle("GET /twilio/media-stream", deps.bridge.Handler())
	(&campaignHandlers{manager: deps.manager}).register(mux)

	srv := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: observe.Middleware(observe.DefaultMetrics())(mux),
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.Server.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received, stopping…")
	case err := <-serveErr:
		if err != nil {
			slog.Error("server error", "err", err)
			return 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// application bundles the collaborators wired from config, handed to the
// HTTP layer above.
type application struct {
	manager *swarm.Manager
	bridge  *mediabridge.Bridge
}

// wire builds every collaborator from cfg, following the same call mode,
// calendar mode, distance mode, and directory mode the campaign manager
// resolves per request. Remote calendar/distance/directory backends are
// left unconfigured here — the factories already fall back to their
// dependency-free mock/demo implementations whenever no client is wired,
// so a bare config still runs a usable demo.
func wire(ctx context.Context, cfg *config.Config) (*application, error) {
	persister, err := newPersister(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("build persister: %w", err)
	}
	st := store.New(persister)
	if err := st.Reload(ctx); err != nil {
		return nil, fmt.Errorf("reload campaign store: %w", err)
	}

	tokens, err := store.NewMemTokenStore(cfg.Store.JSONDir + "/oauth_tokens.json")
	if err != nil {
		return nil, fmt.Errorf("build token store: %w", err)
	}

	var remoteCalendar calendar.Engine
	calResolver := calendar.NewResolver(calendar.Mode(cfg.Calendar.Mode), remoteCalendar, tokens, nil)

	var distClient distance.Client
	distEstimator := distance.New(distance.Mode(cfg.Distance.Mode), distClient)

	var placesClient directory.PlacesClient
	dir := directory.New(directory.Mode(cfg.Directory.Mode), placesClient)

	toolDeps := tools.Deps{
		Calendar:        calResolver,
		Tokens:          tokens,
		Distance:        distEstimator,
		Directory:       dir,
		Store:           st,
		DefaultTimezone: cfg.Server.DefaultTimezone,
	}
	disp := dispatcher.New(tools.Register(toolDeps))

	var agentProvider voiceagent.Provider = voiceagent.NewElevenLabsProvider(cfg.VoiceAgent.AgentID, cfg.VoiceAgent.APIKey)

	var dialer telephony.Dialer
	if cfg.Telephony.AccountSID != "" {
		dialer = telephony.NewTwilioDialer(cfg.Telephony.AccountSID, cfg.Telephony.AuthToken, cfg.Telephony.CallerID, cfg.Server.PublicBaseURL)
	}

	simulated := &call.SimulatedDriver{Calendar: calResolver, DefaultTimezone: cfg.Server.DefaultTimezone}
	real := &call.RealDriver{Dialer: dialer, Store: st}

	manager := &swarm.Manager{
		Store:           st,
		Directory:       dir,
		Distance:        distEstimator,
		Calendar:        calResolver,
		Tokens:          tokens,
		Simulated:       simulated,
		Real:            real,
		DefaultCallMode: types.CallMode(cfg.Server.DefaultCallMode),
		Booker:          booking.SimulatedDriver{},
	}

	manager.SetTunables(cfg.Swarm)

	bridge := mediabridge.New(agentProvider, disp, st)

	return &application{manager: manager, bridge: bridge}, nil
}

func newPersister(ctx context.Context, cfg config.StoreConfig) (store.Persister, error) {
	switch cfg.Backend {
	case "json":
		return store.NewJSONFilePersister(cfg.JSONDir)
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		persister := store.NewPostgresPersister(pool)
		if err := persister.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate postgres schema: %w", err)
		}
		return persister, nil
	default:
		return nil, nil
	}
}

func streamURL(publicBaseURL string) string {
	wsURL := strings.Replace(publicBaseURL, "https://", "wss://", 1)
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	return wsURL + "/twilio/media-stream"
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
