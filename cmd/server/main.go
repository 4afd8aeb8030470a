package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	apiecho "github.com/ashmortar/htmx-kit/api/echo"
	"github.com/ashmortar/htmx-kit/config"
	"github.com/ashmortar/htmx-kit/internal/auth"
	"github.com/ashmortar/htmx-kit/internal/federation"
	"github.com/ashmortar/htmx-kit/internal/i18n"
	"github.com/ashmortar/htmx-kit/internal/render"
	"github.com/ashmortar/htmx-kit/middleware"
	"github.com/ashmortar/htmx-kit/postgres"
	"github.com/ashmortar/htmx-kit/services"
	"github.com/ashmortar/htmx-kit/web"
)

const (
	oauthStateTTL    = 10 * time.Minute
	sessionPurgeTick = time.Hour
	shutdownTimeout  = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stdout).With().Timestamp().Logger()
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	initLogger(cfg)
	log.Info().
		Str("port", cfg.Port).
		Str("app_env", cfg.AppEnv).
		Str("log_level", cfg.LogLevel).
		Msg("starting server")

	ctx := context.Background()

	if err := postgres.RunMigrations(ctx, cfg.DBURL); err != nil {
		log.Fatal().Err(err).Msg("running migrations failed")
	}
	pool, err := postgres.Connect(ctx, cfg.DBURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connecting to database failed")
	}
	defer pool.Close()

	identityRepo := postgres.NewIdentityRepository(pool)
	sessionRepo := postgres.NewSessionRepository(pool)
	attemptRepo := postgres.NewLoginAttemptRepository(pool)
	tokenRepo := postgres.NewVerificationTokenRepository(pool)
	roleRepo := postgres.NewRoleRepository(pool)

	hasher := auth.NewBcryptPasswordHasher(cfg.BcryptCost)
	recon := services.NewReconciliationService(identityRepo, attemptRepo, tokenRepo, roleRepo, hasher)
	sessions := services.NewSessionService(sessionRepo, identityRepo, []byte(cfg.JWTSecret), services.DefaultSessionTTL)

	provider, err := federation.NewGoogleProvider(federation.GoogleConfig{
		ClientID:     cfg.GoogleOAuthClientID,
		ClientSecret: cfg.GoogleOAuthClientSecret,
		CallbackURL:  cfg.GoogleOAuthCallbackURL,
		Scopes:       cfg.GoogleScopes(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("configuring google provider failed")
	}
	states := federation.NewStateStore(oauthStateTTL)
	defer states.Stop()

	shell, err := render.NewShell(cfg.AppTitle, cfg.DebugHTMX)
	if err != nil {
		log.Fatal().Err(err).Msg("parsing templates failed")
	}
	bundle, err := i18n.NewBundle(web.Locales)
	if err != nil {
		log.Fatal().Err(err).Msg("loading locales failed")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(requestLogger())
	e.Use(middleware.SessionAuth(sessions))

	api := apiecho.NewAPI(cfg, shell, bundle, recon, sessions, provider, states, pool)
	api.RegisterRoutes(e)

	purgeCtx, stopPurge := context.WithCancel(ctx)
	defer stopPurge()
	go purgeSessions(purgeCtx, sessions)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()
	log.Info().Str("addr", ":"+cfg.Port).Msg("listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func initLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
		log.Warn().Str("configured_log_level", cfg.LogLevel).Msg("invalid LOG_LEVEL, defaulting to info")
	}
	zerolog.SetGlobalLevel(level)
	if cfg.LogPretty && !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
}

// requestLogger emits one structured line per request.
func requestLogger() echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				evt = log.Error().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}

// purgeSessions sweeps expired sessions on a fixed cadence so the table
// does not grow without bound.
func purgeSessions(ctx context.Context, sessions *services.SessionService) {
	ticker := time.NewTicker(sessionPurgeTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := sessions.PurgeExpired(ctx)
			if err != nil {
				log.Error().Err(err).Msg("purging expired sessions failed")
				continue
			}
			if purged > 0 {
				log.Debug().Int64("purged", purged).Msg("expired sessions removed")
			}
		}
	}
}
