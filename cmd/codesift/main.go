// Package main is the codesift entry point: one-shot search, block
// extraction, an MCP stdio server, and an HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/codesift/codesift/internal/config"
	"github.com/codesift/codesift/internal/mcp"
	"github.com/codesift/codesift/internal/output"
	"github.com/codesift/codesift/internal/rank"
	"github.com/codesift/codesift/internal/search"
	"github.com/codesift/codesift/internal/server"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "search":
		runSearch(os.Args[2:])
	case "extract":
		runExtract(os.Args[2:])
	case "mcp":
		runMCP(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("codesift version %s (built %s)\n", version, buildTime)
	case "help", "--help", "-h":
		printUsage()
	default:
		// Bare invocation treats the first argument as the query.
		runSearch(os.Args[1:])
	}
}

// loadConfig reads the config file when given, otherwise defaults plus env.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.FromEnv(), nil
	}
	return config.Load(path)
}

// newLogger builds a stderr logger; stdout carries results (or the MCP
// protocol).
func newLogger(debug bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if debug {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	return zcfg.Build()
}

// buildEngine assembles the engine from config, attaching the neural
// reranker when a model path is configured. Encoder failure is non-fatal:
// searches fall back to lexical ranking.
func buildEngine(cfg *config.Config, logger *zap.Logger) *search.Engine {
	var encoder rank.CrossEncoder
	if cfg.Neural.ModelPath != "" {
		enc, err := rank.NewONNXCrossEncoder(cfg.Neural.ModelPath, cfg.Neural.MaxLength)
		if err != nil {
			logger.Warn("neural reranker unavailable", zap.String("model", cfg.Neural.ModelPath), zap.Error(err))
		} else {
			encoder = enc
		}
	}
	return search.NewEngine(search.Config{
		Workers:         cfg.Search.Workers,
		SessionCapacity: cfg.Search.SessionCapacity,
		SessionTTL:      cfg.Search.SessionTTL,
		Encoder:         encoder,
		Logger:          logger,
	})
}

func runSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	exact := fs.Bool("exact", false, "literal case-sensitive matching, no tokenization")
	strict := fs.Bool("strict", false, "unknown filter keys are errors")
	allowTests := fs.Bool("allow-tests", false, "include test files and test declarations")
	noGitignore := fs.Bool("no-gitignore", false, "do not honor .gitignore files")
	ignore := fs.String("ignore", "", "comma-separated ignore patterns")
	filesOnly := fs.Bool("files-only", false, "report matching files without content")
	noMerge := fs.Bool("no-merge", false, "disable adjacent-chunk merging")
	mergeThreshold := fs.Int("merge-threshold", -1, "max line gap for merging chunks (-1 = config default)")
	algorithm := fs.String("rank", "", "ranking algorithm: tfidf, bm25, hybrid, hybrid2")
	question := fs.String("question", "", "natural-language question for neural reranking")
	maxResults := fs.Int("max-results", 0, "maximum results to return (0 = unlimited)")
	maxBytes := fs.Int("max-bytes", 0, "byte budget over returned content (0 = unlimited)")
	maxTokens := fs.Int("max-tokens", 0, "token budget over returned content (0 = unlimited)")
	sessionFlag := fs.String("session", "", `session id for pagination ("new" mints one)`)
	timeout := fs.Duration("timeout", 0, "search timeout (0 = default)")
	format := fs.String("format", "terminal", "output format: terminal, plain, markdown, json, xml, files-only")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		printSearchUsage(fs)
		os.Exit(1)
	}
	queryStr := fs.Arg(0)
	root := "."
	if fs.NArg() > 1 {
		root = fs.Arg(1)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid path: %v\n", err)
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := newLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	outFormat, err := output.ParseFormat(*format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if *filesOnly {
		outFormat = output.FormatFilesOnly
	}

	sessionID := *sessionFlag
	if sessionID == "new" {
		sessionID = uuid.NewString()
		fmt.Fprintf(os.Stderr, "session: %s\n", sessionID)
	}

	var ignorePatterns []string
	if *ignore != "" {
		ignorePatterns = strings.Split(*ignore, ",")
	}

	opts := search.Options{
		Query:          queryStr,
		Root:           absRoot,
		Exact:          *exact,
		Strict:         *strict,
		AllowTests:     *allowTests,
		NoGitignore:    *noGitignore,
		IgnorePatterns: ignorePatterns,
		FilesOnly:      *filesOnly,
		NoMerge:        *noMerge,
		MergeThreshold: orDefaultThreshold(*mergeThreshold, *cfg.Search.MergeThreshold),
		Algorithm:      orDefault(*algorithm, cfg.Search.Algorithm),
		Question:       *question,
		MaxResults:     orDefaultInt(*maxResults, cfg.Search.MaxResults),
		MaxBytes:       orDefaultInt(*maxBytes, cfg.Search.MaxBytes),
		MaxTokens:      orDefaultInt(*maxTokens, cfg.Search.MaxTokens),
		SessionID:      sessionID,
		Timeout:        orDefaultDuration(*timeout, cfg.Search.Timeout),
	}
	if len(opts.IgnorePatterns) == 0 {
		opts.IgnorePatterns = cfg.Search.IgnorePatterns
	}

	engine := buildEngine(cfg, logger)
	resp, err := engine.Search(context.Background(), opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := output.Write(os.Stdout, resp, outFormat); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runExtract(args []string) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	root := fs.String("root", ".", "tree root targets are relative to")
	format := fs.String("format", "terminal", "output format: terminal, plain, markdown, json, xml")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: codesift extract [flags] <file[:line|:start-end|#Symbol]>...")
		os.Exit(1)
	}
	absRoot, err := filepath.Abs(*root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid root: %v\n", err)
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := newLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	outFormat, err := output.ParseFormat(*format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	engine := buildEngine(cfg, logger)
	resp, err := engine.Extract(context.Background(), search.ExtractOptions{
		Root:    absRoot,
		Targets: fs.Args(),
		Timeout: cfg.Search.Timeout,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Extract failed: %v\n", err)
		os.Exit(1)
	}
	if err := output.Write(os.Stdout, resp, outFormat); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runMCP(args []string) {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	_ = fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := newLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	engine := buildEngine(cfg, logger)
	srv := mcp.NewServer(engine, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Info("MCP server ready, listening on stdio")
		errChan <- srv.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		cancel()
	case err := <-errChan:
		if err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	_ = fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := newLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	engine := buildEngine(cfg, logger)
	srv := server.NewServer(engine, &cfg.Server, logger)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func orDefaultInt(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}

// orDefaultThreshold keeps an explicit flag value, zero included; a negative
// flag defers to the config.
func orDefaultThreshold(v, def int) int {
	if v >= 0 {
		return v
	}
	return def
}

func orDefaultDuration(v, def time.Duration) time.Duration {
	if v != 0 {
		return v
	}
	return def
}

func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: codesift search [flags] <query> [path]\n\n")
	fmt.Fprintf(fs.Output(), "Queries support implicit AND, explicit AND/OR, \"quoted phrases\", and\next:/file:/dir:/type:/lang: filters.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  codesift search "auth login" ./src
  codesift search 'handler AND ext:rs' .
  codesift search --exact 'Login' .
  codesift search --rank hybrid --max-tokens 4000 "connection pool" .
  codesift search --session new "error handling" .   # then repeat with the printed id
`)
}

func printUsage() {
	fmt.Println(`codesift - syntax-aware code search

Usage:
  codesift search [flags] <query> [path]   Search a code tree
  codesift extract [flags] <target>...     Extract blocks by file/line/symbol
  codesift mcp [flags]                     Serve MCP tools over stdio
  codesift serve [flags]                   Serve the HTTP API
  codesift version                         Show version
  codesift help                            Show this help

A bare query also works: codesift "auth login" ./src`)
}
