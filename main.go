package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/communitykit/smartqa/api"
	"github.com/communitykit/smartqa/config"
	"github.com/communitykit/smartqa/database"
	"github.com/communitykit/smartqa/docfile"
	"github.com/communitykit/smartqa/llm"
	"github.com/communitykit/smartqa/qa"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()

	switch os.Args[1] {
	case "serve":
		serveCmd(cfg, logger, os.Args[2:])
	case "ask":
		askCmd(cfg, logger, os.Args[2:])
	case "init-db":
		initDBCmd(cfg, logger, os.Args[2:])
	default:
		logger.Error("unknown command", zap.String("command", os.Args[1]))
		printUsage()
		os.Exit(1)
	}
}

func serveCmd(cfg config.Config, logger *zap.Logger, args []string) {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := flags.String("addr", cfg.ListenAddr, "HTTP listen address")
	if err := flags.Parse(args); err != nil {
		logger.Fatal("parse serve flags", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc, cleanup, err := buildService(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("build qa service", zap.Error(err))
	}
	defer cleanup()

	server := &http.Server{
		Addr:    *addr,
		Handler: api.New(svc, logger).Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", zap.Error(err))
		}
	}()

	logger.Info("serving smart-qa API", zap.String("addr", *addr), zap.String("model", cfg.LLM.Model))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("http server", zap.Error(err))
	}
}

func askCmd(cfg config.Config, logger *zap.Logger, args []string) {
	flags := flag.NewFlagSet("ask", flag.ExitOnError)
	question := flags.String("question", "", "question to ask")
	ownerID := flags.Int64("owner", 0, "owner id providing the caller context (0 = anonymous)")
	if err := flags.Parse(args); err != nil {
		logger.Fatal("parse ask flags", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc, cleanup, err := buildService(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("build qa service", zap.Error(err))
	}
	defer cleanup()

	for chunk := range svc.StreamAnswer(ctx, qa.Request{Question: *question, OwnerID: *ownerID}) {
		fmt.Print(chunk)
	}
	fmt.Println()
}

func initDBCmd(cfg config.Config, logger *zap.Logger, args []string) {
	flags := flag.NewFlagSet("init-db", flag.ExitOnError)
	if err := flags.Parse(args); err != nil {
		logger.Fatal("parse init-db flags", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("postgres connection", zap.Error(err))
	}
	defer pool.Close()

	if err := database.EnsureCommunitySchema(ctx, pool); err != nil {
		logger.Fatal("ensure community schema", zap.Error(err))
	}

	logger.Info("community schema ready")
}

// buildService wires the composition root: pool, stores, file fetcher with
// the pdf decoder registered over its placeholder, and the model client.
func buildService(ctx context.Context, cfg config.Config, logger *zap.Logger) (*qa.Service, func(), error) {
	pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres connection: %w", err)
	}

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("llm setup: %w", err)
	}

	registry := docfile.NewRegistry()
	registry.Register(docfile.TypePDF, docfile.PDFDecoder{})
	fetcher := docfile.NewFetcher(cfg.TempDir, registry, logger)

	stores := qa.NewPostgresStores(pool)
	svc := qa.NewService(qa.Stores{
		Owners:     stores,
		Residences: stores,
		Vehicles:   stores,
		Meters:     stores,
		Knowledge:  stores,
	}, fetcher, llmClient, logger)

	return svc, pool.Close, nil
}

func printUsage() {
	fmt.Println("Usage: smartqa <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  serve    Serve the streaming QA HTTP API")
	fmt.Println("  ask      Ask one question from the command line (use --question and --owner)")
	fmt.Println("  init-db  Create the community tables if they do not exist")
}
