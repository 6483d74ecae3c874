package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/bc1plainview/opnet-audit-kit/abi"
	"github.com/bc1plainview/opnet-audit-kit/config"
	"github.com/bc1plainview/opnet-audit-kit/core/events"
	"github.com/bc1plainview/opnet-audit-kit/core/state"
	"github.com/bc1plainview/opnet-audit-kit/native/market"
	"github.com/bc1plainview/opnet-audit-kit/native/market/collection"
	"github.com/bc1plainview/opnet-audit-kit/observability/logging"
	"github.com/bc1plainview/opnet-audit-kit/rpc"
	"github.com/bc1plainview/opnet-audit-kit/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("MARKET_ENV"))
	logger := logging.Setup("marketd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	emitter := &events.MemoryEmitter{}

	engine := market.NewEngine()
	engine.SetState(state.NewManager(db))
	engine.SetCollectionClient(collection.NewClient(collection.NewRemoteCaller(cfg.HostEndpoint)))
	engine.SetAdmin(cfg.AdminAddress())
	engine.SetOperator(cfg.OperatorAddress())
	engine.SetEmitter(emitter)

	if err := engine.Bootstrap(cfg.FeeBps, cfg.FeeRecipientAddress()); err != nil {
		logger.Error("Failed to seed platform parameters", slog.Any("error", err))
		os.Exit(1)
	}

	server := rpc.NewServer(abi.NewDispatcher(engine), emitter, logger)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("marketd listening",
		slog.String("addr", cfg.ListenAddress),
		slog.String("host", cfg.HostEndpoint),
		slog.String("operator", cfg.OperatorAddress().Hex()))
	if err := httpServer.ListenAndServe(); err != nil {
		logger.Error("HTTP server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
