// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/canonical/workspace-service/internal/config"
	"github.com/canonical/workspace-service/internal/db"
	"github.com/canonical/workspace-service/internal/entities"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/monitoring/prometheus"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/validation"
	"github.com/canonical/workspace-service/pkg/authentication"
	"github.com/canonical/workspace-service/pkg/entity"
	"github.com/canonical/workspace-service/pkg/events"
	"github.com/canonical/workspace-service/pkg/guard"
	"github.com/canonical/workspace-service/pkg/invitation"
	"github.com/canonical/workspace-service/pkg/mail"
	"github.com/canonical/workspace-service/pkg/membership"
	"github.com/canonical/workspace-service/pkg/permissions"
	"github.com/canonical/workspace-service/pkg/resolver"
	"github.com/canonical/workspace-service/pkg/status"
	"github.com/canonical/workspace-service/pkg/web"
	"github.com/canonical/workspace-service/pkg/webhooks"
)

const (
	streamBufferSize  = 16
	redisRetryBackoff = 5 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve starts the web server",
	Long:  `Launch the web application, list of environment variables is available in the readme`,
	Run: func(cmd *cobra.Command, args []string) {
		main()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func loadSpecs() *config.EnvSpec {
	specs := new(config.EnvSpec)
	if err := envconfig.Process("", specs); err != nil {
		panic(fmt.Errorf("issues with environment sourcing: %s", err))
	}

	return specs
}

func newDBClient(specs *config.EnvSpec, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) (*db.DBClient, error) {
	dbConfig := db.Config{
		DSN:             specs.DSN,
		MaxConns:        specs.DBMaxConns,
		MinConns:        specs.DBMinConns,
		MaxConnLifetime: specs.DBMaxConnLifetime,
		MaxConnIdleTime: specs.DBMaxConnIdleTime,
		TracingEnabled:  specs.TracingEnabled,
	}

	dbClient, err := db.NewDBClient(dbConfig, tracer, monitor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create database client: %v", err)
	}

	return dbClient, nil
}

func newMailer(specs *config.EnvSpec, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) mail.SenderInterface {
	if specs.SMTPHost == "" {
		logger.Info("No SMTP host configured, emails are only logged")
		return mail.NewLogSender(logger)
	}

	return mail.NewSMTPSender(
		mail.Config{
			Host:     specs.SMTPHost,
			Port:     specs.SMTPPort,
			Username: specs.SMTPUsername,
			Password: specs.SMTPPassword,
			From:     specs.SMTPFrom,
		},
		tracer,
		monitor,
		logger,
	)
}

// listen keeps the redis subscription alive until ctx is done
func listen(ctx context.Context, bus *events.RedisBus, logger logging.LoggerInterface) {
	for {
		err := bus.Listen(ctx)
		if ctx.Err() != nil {
			return
		}

		logger.Errorf("event subscription lost, retrying in %s: %v", redisRetryBackoff, err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(redisRetryBackoff):
		}
	}
}

func serve() error {
	specs := loadSpecs()

	logger := logging.NewLogger(specs.LogLevel)
	logger.Debugf("env vars: %v", specs)
	defer logger.Sync()

	monitor := prometheus.NewMonitor("workspace-service", nil, logger)
	tracer := tracing.NewTracer(tracing.NewConfig(specs.TracingEnabled, specs.OtelGRPCEndpoint, specs.OtelHTTPEndpoint, specs.TracingRatio, logger))
	defer func() {
		if err := tracer.Shutdown(context.Background()); err != nil {
			logger.Errorf("failed to flush traces: %v", err)
		}
	}()

	dbClient, err := newDBClient(specs, tracer, monitor, logger)
	if err != nil {
		return err
	}
	defer dbClient.Close()

	registry := entities.DefaultRegistry()
	s := storage.NewStorage(dbClient, registry, tracer, monitor, logger)
	r := resolver.NewResolver(s, registry, tracer, monitor, logger)
	engine := permissions.NewEngine(permissions.DefaultPolicy(), registry, tracer, monitor, logger)
	builder := guard.NewContextBuilder(r, registry, tracer, monitor, logger)
	g := guard.NewGuard(r, builder, s, engine, registry, tracer, monitor, logger)
	validator := validation.NewValidator()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pingers := map[string]status.PingerInterface{"database": dbClient}

	streams := events.NewNotifier(streamBufferSize, tracer, monitor, logger)
	var notifier events.NotifierInterface = streams

	if specs.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: specs.RedisAddr, Password: specs.RedisPassword})
		defer redisClient.Close()

		bus := events.NewRedisBus(redisClient, specs.RedisChannel, streams, tracer, monitor, logger)
		notifier = bus
		pingers["redis"] = bus

		go listen(ctx, bus, logger)
		logger.Infof("Fanning out events through redis channel %s", specs.RedisChannel)
	}

	invitationService := invitation.NewService(
		invitation.Config{
			VerificationLifetime: specs.VerificationTokenLifetime,
			InvitationLifetime:   specs.InvitationLifetime,
			PublicURL:            specs.PublicURL,
		},
		s,
		dbClient,
		r,
		newMailer(specs, tracer, monitor, logger),
		notifier,
		tracer,
		monitor,
		logger,
	)

	janitor, err := invitation.NewJanitor(specs.TokenCleanupSchedule, invitationService, tracer, monitor, logger)
	if err != nil {
		return err
	}
	janitor.Start()
	defer janitor.Stop()

	sessions := authentication.NewSessionValidator(
		authentication.SessionConfig{
			CookieName: specs.SessionCookieName,
			Lifetime:   specs.SessionLifetime,
			CacheSize:  specs.SessionCacheSize,
			CacheTTL:   specs.SessionCacheTTL,
			Secure:     specs.SecureCookies,
		},
		s,
		tracer,
		monitor,
		logger,
	)

	verifier, err := authentication.NewJWTAuthenticator(ctx, specs.OIDCIssuer, specs.OIDCJWKSURL, specs.OIDCScope, tracer, monitor, logger)
	if err != nil {
		return err
	}

	authService := authentication.NewService(s, sessions, invitationService, r, registry, tracer, monitor, logger)
	entityService := entity.NewService(s, dbClient, r, engine, registry, notifier, tracer, monitor, logger)
	membershipService := membership.NewService(s, dbClient, invitationService, engine, registry, notifier, tracer, monitor, logger)

	apis := web.APIs{
		Authentication: authentication.NewAPI(authService, sessions, validator, tracer, monitor, logger),
		Tokens:         invitation.NewAPI(invitationService, validator, tracer, monitor, logger),
		Protected: []web.APIInterface{
			entity.NewAPI(entityService, g, registry, validator, tracer, monitor, logger),
			membership.NewAPI(membershipService, g, registry, validator, tracer, monitor, logger),
			events.NewAPI(streams, specs.SSEPingInterval, tracer, monitor, logger),
		},
	}

	if specs.WebhookAPIKey != "" {
		registrations := webhooks.NewService(s, entityService, dbClient, tracer, monitor, logger)
		apis.Webhooks = webhooks.NewAPI(registrations, specs.WebhookAPIKey, validator, tracer, monitor, logger)
	}

	router := web.NewRouter(
		web.Config{
			AllowedOrigins: specs.CORSAllowedOrigins,
			AuthRateLimit:  specs.AuthRateLimit,
			AuthRateBurst:  specs.AuthRateBurst,
		},
		apis,
		authentication.NewMiddleware(sessions, verifier, s, tracer, monitor, logger),
		dbClient,
		pingers,
		nil,
		tracer,
		monitor,
		logger,
	)
	logger.Infof("Starting HTTP server on port %v", specs.Port)

	// no write timeout, event streams stay open for the whole session
	srv := &http.Server{
		Addr:        fmt.Sprintf("0.0.0.0:%v", specs.Port),
		ReadTimeout: time.Second * 15,
		IdleTimeout: time.Second * 60,
		Handler:     router,
	}

	var serverError error
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Security().SystemStartup()
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError = fmt.Errorf("server error: %w", err)
			c <- os.Interrupt
		}
	}()

	<-c

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	logger.Security().SystemShutdown()

	cancel()
	streams.Close()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		serverError = fmt.Errorf("server shutdown error: %w", err)
	}

	return serverError
}

func main() {
	if err := serve(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}
