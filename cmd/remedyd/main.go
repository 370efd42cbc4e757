// Remedyd is a case-retrieval and validation daemon for support
// tickets over commission liquidations.
//
// It retrieves similar solved cases from an embedded vector store,
// concretizes their statement templates with values from the query,
// and validates the result against the liquidation rules before a
// human sees it.
//
// Usage:
//
//	# Start with defaults
//	remedyd
//
//	# Start with a config file
//	remedyd --config /etc/remedyd/config.yaml
//
//	# Configure via environment
//	REMEDYD_SERVER_ADDR=:9090 remedyd
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/remedyd/internal/casestore"
	"github.com/fyrsmithlabs/remedyd/internal/concepts"
	"github.com/fyrsmithlabs/remedyd/internal/config"
	"github.com/fyrsmithlabs/remedyd/internal/embeddings"
	"github.com/fyrsmithlabs/remedyd/internal/extraction"
	remedyhttp "github.com/fyrsmithlabs/remedyd/internal/http"
	"github.com/fyrsmithlabs/remedyd/internal/logging"
	"github.com/fyrsmithlabs/remedyd/internal/ranker"
	"github.com/fyrsmithlabs/remedyd/internal/resolver"
	"github.com/fyrsmithlabs/remedyd/internal/rules"
	"github.com/fyrsmithlabs/remedyd/internal/safety"
	"github.com/fyrsmithlabs/remedyd/internal/validator"
	"github.com/fyrsmithlabs/remedyd/internal/vectorstore"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("remedyd %s (commit %s, built %s)\n", version, gitCommit, buildDate)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server shutdown complete")
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting remedyd",
		zap.String("version", version),
		zap.String("addr", cfg.Server.Addr))

	embedder, err := embeddings.NewService(embeddings.Config{
		BaseURL: cfg.Embeddings.BaseURL,
		Model:   cfg.Embeddings.Model,
		Timeout: cfg.Embeddings.Timeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("creating embedding service: %w", err)
	}
	defer func() { _ = embedder.Close() }()

	vectors, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{
		Path:       cfg.VectorStore.Path,
		Compress:   cfg.VectorStore.Compress,
		Collection: cfg.VectorStore.Collection,
		VectorSize: embedder.Dimension(),
	}, embedder, logger)
	if err != nil {
		return fmt.Errorf("opening vector store: %w", err)
	}
	defer func() { _ = vectors.Close() }()

	cases, err := casestore.New(expandHome(cfg.CaseStore.Path), vectors, logger)
	if err != nil {
		return fmt.Errorf("opening case store: %w", err)
	}

	ruleset := rules.DefaultRuleset()
	if cfg.Rules.Path != "" {
		ruleset, err = rules.LoadRuleset(cfg.Rules.Path)
		if err != nil {
			return fmt.Errorf("loading ruleset: %w", err)
		}
		logger.Info("loaded ruleset override", zap.String("path", cfg.Rules.Path))
	}
	engine, err := rules.NewEngine(ruleset, logger)
	if err != nil {
		return fmt.Errorf("creating rules engine: %w", err)
	}

	val, err := validator.NewValidator(engine, safety.NewChecker(logger), logger)
	if err != nil {
		return fmt.Errorf("creating validator: %w", err)
	}

	tags := concepts.NewExtractor(nil)
	rk, err := ranker.New(cases, vectors, tags, logger)
	if err != nil {
		return fmt.Errorf("creating ranker: %w", err)
	}

	svc, err := resolver.NewService(cases, rk, extraction.NewExtractor(), tags, val, logger)
	if err != nil {
		return fmt.Errorf("creating resolver: %w", err)
	}

	server, err := remedyhttp.NewServer(svc, logger, &remedyhttp.Config{Addr: cfg.Server.Addr})
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// expandHome resolves a leading ~ against the user's home directory.
func expandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return home + path[1:]
}
