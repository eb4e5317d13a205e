// Command securedocs runs the document-management API server and its
// operational subcommands.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pranaynookala001/securedocs/internal/audit"
	"github.com/pranaynookala001/securedocs/internal/auth"
	"github.com/pranaynookala001/securedocs/internal/config"
	"github.com/pranaynookala001/securedocs/internal/db"
	"github.com/pranaynookala001/securedocs/internal/documents"
	"github.com/pranaynookala001/securedocs/internal/httpapi"
	"github.com/pranaynookala001/securedocs/internal/metrics"
	"github.com/pranaynookala001/securedocs/internal/otel"
	"github.com/pranaynookala001/securedocs/internal/password"
	"github.com/pranaynookala001/securedocs/internal/store"
	"github.com/pranaynookala001/securedocs/internal/threat"
	"github.com/pranaynookala001/securedocs/internal/token"
	"github.com/pranaynookala001/securedocs/internal/version"
)

func main() {
	root := &cobra.Command{
		Use:           version.Name,
		Short:         "secure document management API",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), migrateCmd(), seedCmd())

	if err := root.Execute(); err != nil {
		log := zerolog.New(os.Stderr).With().Timestamp().Logger()
		log.Fatal().Err(err).Msg("command failed")
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(out).Level(lvl).With().Timestamp().Str("service", version.Name).Logger()
}

func loadConfig(ctx context.Context) (*config.Config, error) {
	// A missing .env file is fine; the environment wins either way.
	_ = godotenv.Load()
	return config.Load(ctx)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			log := newLogger(cfg.LogLevel)

			shutdownTracing, err := otel.Setup(ctx, cfg.OTLPEndpoint)
			if err != nil {
				return err
			}
			defer func() {
				if err := shutdownTracing(context.Background()); err != nil {
					log.Warn().Err(err).Msg("tracer shutdown")
				}
			}()

			gdb, err := db.Connect(cfg.DatabaseDSN, log)
			if err != nil {
				return err
			}
			if err := db.Migrate(gdb); err != nil {
				return err
			}

			redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
			defer redisClient.Close()
			if err := redisClient.Ping(ctx).Err(); err != nil {
				// The threat gate fails closed without Redis; start
				// anyway and keep serving.
				log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable at startup")
			}

			var dispatcher *audit.Dispatcher
			if cfg.NATSURL != "" {
				conn, err := nats.Connect(cfg.NATSURL,
					nats.Name(version.Name),
					nats.MaxReconnects(-1),
				)
				if err != nil {
					return err
				}
				defer conn.Drain()
				dispatcher = audit.NewDispatcher(
					audit.DispatcherConfig{DropIfFull: true},
					audit.NewNATSSink(conn, audit.DefaultSubject, log),
				)
				defer dispatcher.Close()
			}

			hasher, err := password.New(password.DefaultParams())
			if err != nil {
				return err
			}
			tokens, err := token.NewManager(token.Config{
				SigningKey: []byte(cfg.JWTSigningKey),
				Issuer:     cfg.JWTIssuer,
				Audience:   cfg.JWTAudience,
				AccessTTL:  cfg.AccessTTL,
			})
			if err != nil {
				return err
			}

			recorder := audit.NewRecorder(store.NewAuditLogs(gdb), dispatcher, log)
			gate := threat.NewRedisGate(redisClient, cfg.ThreatWindow, log)
			authMetrics := metrics.NewAuth(prometheus.DefaultRegisterer)

			authSvc := auth.NewService(
				store.NewUsers(gdb),
				store.NewSessions(gdb),
				recorder,
				gate,
				hasher,
				tokens,
				authMetrics,
				log,
				auth.Config{
					LockoutThreshold: cfg.LockoutThreshold,
					LockoutDuration:  cfg.LockoutDuration,
					RefreshTTL:       cfg.RefreshTTL,
				},
			)
			docsSvc := documents.NewService(gdb, recorder, log)

			handler := httpapi.NewRouter(
				httpapi.NewAuthHandler(authSvc, log),
				httpapi.NewDocumentsHandler(docsSvc, authSvc, log),
				tokens,
				httpapi.RouterConfig{
					AllowedOrigins: cfg.CORSAllowedOrigins,
					RequestTimeout: cfg.RequestTimeout,
					Ready:          func() error { return db.Ping(gdb) },
				},
			)

			srv := &http.Server{
				Addr:              cfg.Addr,
				Handler:           otelhttp.NewHandler(handler, "http"),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", cfg.Addr).Msg("server listening")
				errCh <- srv.ListenAndServe()
			}()

			sigCtx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stopSignals()

			select {
			case err := <-errCh:
				return err
			case <-sigCtx.Done():
			}

			log.Info().Msg("shutting down")
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancelShutdown()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "apply database schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			log := newLogger(cfg.LogLevel)

			gdb, err := db.Connect(cfg.DatabaseDSN, log)
			if err != nil {
				return err
			}
			if err := db.Migrate(gdb); err != nil {
				return err
			}
			log.Info().Msg("migrations applied")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var adminPassword string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "create the initial admin account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			log := newLogger(cfg.LogLevel)

			if adminPassword == "" {
				adminPassword = os.Getenv("SECUREDOCS_ADMIN_PASSWORD")
			}

			gdb, err := db.Connect(cfg.DatabaseDSN, log)
			if err != nil {
				return err
			}
			if err := db.Migrate(gdb); err != nil {
				return err
			}
			return db.Seed(gdb, adminPassword, log)
		},
	}
	cmd.Flags().StringVar(&adminPassword, "admin-password", "", "initial admin password (or SECUREDOCS_ADMIN_PASSWORD)")
	return cmd
}
