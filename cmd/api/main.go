package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"tradedesk.app/internal/audit"
	"tradedesk.app/internal/auth"
	"tradedesk.app/internal/config"
	"tradedesk.app/internal/dispatch"
	"tradedesk.app/internal/google"
	"tradedesk.app/internal/httpapi"
	"tradedesk.app/internal/oauthflow"
	"tradedesk.app/internal/obs"
	"tradedesk.app/internal/registry"
	"tradedesk.app/internal/store/pg"
	"tradedesk.app/internal/vault"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := obs.NewLogger(cfg.LogLevel)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	obs.Init()
	obs.InitBuildInfo(version, commit)

	db, err := pg.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database unavailable", zap.Error(err))
	}

	cipher, err := vault.NewCipher(cfg.EncryptionKey)
	if err != nil {
		logger.Fatal("init credential cipher", zap.Error(err))
	}
	sessions, err := auth.NewSessions(cfg.JWTSecret, auth.WithTTL(cfg.SessionTTL))
	if err != nil {
		logger.Fatal("init sessions", zap.Error(err))
	}

	googleCfg := google.Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURI,
	}
	clients := registry.NewPGStore(db)
	auditLog := audit.NewPGStore(db)

	api := httpapi.New(httpapi.Deps{
		Accounts: auth.NewService(auth.NewPGAdvisorStore(db), sessions, auth.DefaultHasher),
		Links:    oauthflow.NewCoordinator(google.NewProvider(googleCfg), clients, cipher, logger.Named("oauthflow")),
		Trades:   dispatch.NewPipeline(clients, cipher, google.NewMailer(googleCfg), auditLog, logger.Named("dispatch")),
		AuditLog: auditLog,
		Ready:    httpapi.ReadyProbe{DB: db},
		Logger:   logger.Named("http"),
		Version:  version,

		AllowedOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("starting tradedesk-api", zap.String("version", version), zap.String("addr", srv.Addr))

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
	_ = db.Close()
	logger.Info("stopped")
}
