// Command acsd is the SIP2 Automated Circulation System server: it
// accepts self-service terminal connections on a plain TCP listener
// and serves an HTTP admin surface alongside it.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/netutil"

	"github.com/yourusername/sip2-acs-server/internal/adminapi"
	"github.com/yourusername/sip2-acs-server/internal/audit"
	"github.com/yourusername/sip2-acs-server/internal/config"
	"github.com/yourusername/sip2-acs-server/internal/ils"
	"github.com/yourusername/sip2-acs-server/internal/ops"
	"github.com/yourusername/sip2-acs-server/internal/sip2"
	"github.com/yourusername/sip2-acs-server/internal/telemetry"
)

func initLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

func main() {
	logger := initLogger()

	shutdownTracer, err := telemetry.InitTracer(context.Background(), "sip2-acs-server")
	if err != nil {
		logger.Warn("failed to init tracer", "error", err)
	} else {
		defer shutdownTracer(context.Background())
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	auditStore, err := newAuditStore(cfg)
	if err != nil {
		logger.Error("failed to initialize audit store", "error", err)
		os.Exit(1)
	}
	defer auditStore.Close()

	backend := ils.NewMemoryBackend(getenvDefault("SIP2_INSTITUTION", "MAIN"))
	registry := sip2.NewRegistry()
	notifier := newNotifier()

	listener, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		logger.Error("failed to bind SIP2 listener", "addr", cfg.ListenAddr, "error", err)
		os.Exit(1)
	}
	limited := netutil.LimitListener(listener, cfg.MaxConnections)
	logger.Info("SIP2 listener started", "addr", cfg.ListenAddr, "max_connections", cfg.MaxConnections)

	connCfg := sip2.ConnConfig{
		ILS:         backend,
		Policy:      cfg.Policy(),
		IdleTimeout: time.Duration(cfg.IdleTimeoutSecs) * time.Second,
		Logger:      logger,
		Notifier:    notifier,
		Registry:    registry,
		Audit:       auditStore,
	}

	go acceptLoop(limited, connCfg, logger)

	router := adminapi.NewRouter(adminapi.Deps{Registry: registry, Audit: auditStore})
	httpSrv := &http.Server{Addr: cfg.AdminListenAddr, Handler: router}
	go func() {
		logger.Info("admin API listening", "addr", cfg.AdminListenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin API server stopped unexpectedly", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	httpSrv.Shutdown(shutdownCtx)
	limited.Close()
}

func acceptLoop(listener net.Listener, connCfg sip2.ConnConfig, logger *slog.Logger) {
	var connSeq int64
	for {
		conn, err := listener.Accept()
		if err != nil {
			logger.Info("SIP2 listener stopped accepting", "error", err)
			return
		}
		connSeq++
		connID := fmt.Sprintf("conn-%d", connSeq)
		go sip2.ServeConn(conn, connID, connCfg)
	}
}

func newAuditStore(cfg *config.Config) (audit.Store, error) {
	switch cfg.AuditBackend {
	case "sqlite":
		return audit.NewSQLiteStore(cfg.AuditDSN)
	case "postgres":
		return audit.NewPostgresStore(cfg.AuditDSN)
	default:
		return audit.NewMemoryStore(1000), nil
	}
}

func newNotifier() ops.Notifier {
	if os.Getenv("SMTP_HOST") != "" {
		return ops.NewEmailNotifier()
	}
	return ops.NewLogNotifier()
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

