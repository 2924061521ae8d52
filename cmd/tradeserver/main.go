package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/simpletrade/internal/config"
	"github.com/udisondev/simpletrade/internal/gateway"
	"github.com/udisondev/simpletrade/internal/i18n"
	"github.com/udisondev/simpletrade/internal/journal"
	"github.com/udisondev/simpletrade/internal/ledger"
	"github.com/udisondev/simpletrade/internal/trade"
)

const ServerConfigPath = "config/server.yaml"

func main() {
	configPath := flag.String("config", ServerConfigPath, "path to server config (env SIMPLETRADE_CONFIG)")
	hashSecret := flag.String("hash-secret", "", "print a bcrypt hash for gateway.accounts and exit")
	flag.Parse()

	if *hashSecret != "" {
		hash, err := gateway.HashSecret(*hashSecret)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	path := *configPath
	if p := os.Getenv("SIMPLETRADE_CONFIG"); p != "" {
		path = p
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, path); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, path string) error {
	cfg, err := config.LoadServer(path)
	if err != nil {
		return fmt.Errorf("loading server config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))

	slog.Info("simpletrade server starting",
		"log_level", cfg.LogLevel,
		"economy", cfg.Economy.Backend,
		"trade_config", cfg.TradeConfig)

	// Currency ledger
	led, closeLedger, err := openLedger(ctx, cfg.Economy)
	if err != nil {
		return err
	}
	defer closeLedger()

	hub := gateway.NewHub()

	load := func() (*trade.Options, error) {
		tcfg, err := config.LoadTrade(cfg.TradeConfig)
		if err != nil {
			return nil, err
		}
		msgs, err := i18n.Load(tcfg.Localization.Locale, cfg.MessagesDir)
		if err != nil {
			return nil, fmt.Errorf("loading messages: %w", err)
		}
		return trade.NewOptions(tcfg, led, msgs, hub)
	}

	opts, err := load()
	if err != nil {
		return fmt.Errorf("building trade options: %w", err)
	}

	var recorder trade.Recorder
	if cfg.Journal.Enabled {
		j := journal.Open(cfg.Journal.Dir)
		defer func() {
			if err := j.Close(); err != nil {
				slog.Error("closing journal", "err", err)
			}
		}()
		recorder = j
		slog.Info("trade journal enabled", "dir", cfg.Journal.Dir)
	}

	registry := trade.NewRegistry(opts, recorder)
	svc := trade.NewService(registry, hub, load)

	gw, err := gateway.NewServer(cfg.Gateway, hub, svc)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	addr := net.JoinHostPort(cfg.BindAddress, strconv.Itoa(cfg.Port))
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           gw.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return trade.NewProximityMonitor(registry, hub).Run(gctx)
	})

	g.Go(func() error {
		slog.Info("gateway listening", "addr", addr, "path", cfg.Gateway.Path)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("gateway: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		// Сначала откатываем активные сделки, потом рвём соединения
		registry.StopAll(trade.CauseServerShutdown)
		gw.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("gateway shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("simpletrade server stopped")
	return nil
}

// openLedger builds the configured currency backend. A nil ledger disables currency trading.
func openLedger(ctx context.Context, cfg config.EconomyConfig) (trade.Ledger, func(), error) {
	cur := ledger.Currency{Single: cfg.CurrencySingle, Plural: cfg.CurrencyPlural}
	if cur.Single == "" && cur.Plural == "" {
		cur = ledger.DefaultCurrency
	}
	nop := func() {}

	switch cfg.Backend {
	case config.EconomyNone:
		slog.Info("currency trading disabled")
		return nil, nop, nil

	case config.EconomyMemory:
		return ledger.NewMemory(cur, cfg.StartBalance), nop, nil

	case config.EconomyPostgres:
		dsn := cfg.Database.DSN()
		if err := ledger.RunMigrations(ctx, dsn); err != nil {
			return nil, nop, fmt.Errorf("running ledger migrations: %w", err)
		}
		pg, err := ledger.OpenPostgres(ctx, dsn, cur, cfg.StartBalance)
		if err != nil {
			return nil, nop, fmt.Errorf("connecting to ledger database: %w", err)
		}
		slog.Info("ledger database connected", "host", cfg.Database.Host, "dbname", cfg.Database.DBName)
		return pg, pg.Close, nil

	case config.EconomySQLite:
		sq, err := ledger.OpenSQLite(ctx, cfg.SQLitePath, cur, cfg.StartBalance)
		if err != nil {
			return nil, nop, fmt.Errorf("opening ledger file: %w", err)
		}
		slog.Info("ledger file opened", "path", cfg.SQLitePath)
		return sq, func() {
			if err := sq.Close(); err != nil {
				slog.Error("closing ledger", "err", err)
			}
		}, nil
	}
	return nil, nop, fmt.Errorf("unknown economy backend %q", cfg.Backend)
}

// parseLogLevel converts string log level to slog.Level.
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
