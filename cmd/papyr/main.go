// Package main is the papyr CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	iofs "io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/inkstack/papyr/internal/answer"
	"github.com/inkstack/papyr/internal/config"
	"github.com/inkstack/papyr/internal/embedding"
	"github.com/inkstack/papyr/internal/extract"
	"github.com/inkstack/papyr/internal/ingest"
	"github.com/inkstack/papyr/internal/keyword"
	"github.com/inkstack/papyr/internal/llm"
	"github.com/inkstack/papyr/internal/models"
	"github.com/inkstack/papyr/internal/server"
	"github.com/inkstack/papyr/internal/storage"
	"github.com/inkstack/papyr/internal/vector"
	"github.com/inkstack/papyr/internal/watcher"
	"github.com/inkstack/papyr/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/papyr/config.yaml"

// loadConfig loads config from path. When path is the default, a config.yaml
// in the current directory takes precedence so running from the project dir
// picks up the project's config.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ingest":
		runIngest()
	case "ask":
		runAsk()
	case "list":
		runList()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("papyr version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	var watchSvc *watcher.Watcher
	if len(cfg.Watch.Directories) > 0 {
		ingestor := components.Ingestor
		watchSvc = watcher.New(
			cfg.Watch.Directories,
			cfg.Watch.RecursiveOrDefault(),
			func(path string) {
				report, err := ingestor.IngestFile(context.Background(), path)
				if err != nil {
					logger.Warn("watch ingest failed", zap.String("path", path), zap.Error(err))
					return
				}
				logger.Info("watch ingest",
					zap.String("path", path),
					zap.String("status", report.Status),
					zap.Int("chunks", report.Chunks),
				)
			},
			logger,
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		watchSvc.SyncExisting()
	}

	srv := server.NewServer(
		components.Ingestor,
		components.Assembler,
		components.Files,
		components.Store,
		components.Keywords,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if watchSvc != nil {
		watchSvc.Stop()
	}
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: papyr ingest [flags] <pdf-or-directory>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Failed to stat path: %v\n", err)
		os.Exit(1)
	}
	if !info.IsDir() {
		report, err := components.Ingestor.IngestFile(ctx, path)
		if err != nil {
			fmt.Printf("Ingest failed: %v\n", err)
			os.Exit(1)
		}
		printReport(report)
		return
	}

	var pdfs []string
	filepath.WalkDir(path, func(p string, d iofs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if strings.EqualFold(filepath.Ext(p), ".pdf") {
			pdfs = append(pdfs, p)
		}
		return nil
	})
	if len(pdfs) == 0 {
		fmt.Printf("No PDF files found in %s\n", path)
		return
	}

	bar := progressbar.Default(int64(len(pdfs)), "ingesting")
	reports := make([]*models.FileReport, 0, len(pdfs))
	for _, p := range pdfs {
		report, err := components.Ingestor.IngestFile(ctx, p)
		if err != nil {
			report = &models.FileReport{Filename: filepath.Base(p), Status: "failed", Error: err.Error()}
		}
		reports = append(reports, report)
		_ = bar.Add(1)
	}
	fmt.Println()
	for _, r := range reports {
		printReport(r)
	}
}

func printReport(r *models.FileReport) {
	switch r.Status {
	case models.StatusIndexed:
		fmt.Printf("%s: %s (%d chunks)\n", r.Filename, r.Status, r.Chunks)
	default:
		if r.Error != "" {
			fmt.Printf("%s: %s (%s)\n", r.Filename, r.Status, r.Error)
		} else {
			fmt.Printf("%s: %s\n", r.Filename, r.Status)
		}
	}
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	document := fs.String("document", "", "restrict page context to this document (requires --page)")
	page := fs.Int("page", 0, "1-based page number for page context")
	showContext := fs.Bool("show-context", false, "print the retrieved context before the answer")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: papyr ask [flags] <question>")
		os.Exit(1)
	}
	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		fmt.Println("Usage: papyr ask [flags] <question>")
		os.Exit(1)
	}

	req := models.QueryRequest{
		Question:   question,
		DocumentID: *document,
		PageNumber: *page,
	}
	body, _ := json.Marshal(req)
	resp, err := http.Post(*serverURL+"/api/v1/query", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Query failed (%d): %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var out models.QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		fmt.Fprintf(os.Stderr, "Decode response failed: %v\n", err)
		os.Exit(1)
	}
	if *showContext && out.Context != "" {
		fmt.Println("--- context ---")
		fmt.Println(out.Context)
		fmt.Printf("--- estimated tokens: %d ---\n\n", out.EstimatedTokens)
	}
	fmt.Println(out.Answer)
}

func runList() {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/api/v1/documents")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "List failed (%d): %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var out struct {
		Documents []string `json:"documents"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		fmt.Fprintf(os.Stderr, "Decode response failed: %v\n", err)
		os.Exit(1)
	}
	for _, d := range out.Documents {
		fmt.Println(d)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/api/v1/status")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Status failed (%d): %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var status map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		fmt.Fprintf(os.Stderr, "Decode response failed: %v\n", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(status)
}

// Components holds initialized services.
type Components struct {
	Embedder  embedding.Embedder
	Store     vector.Store
	Keywords  *keyword.Index
	Files     *storage.DiskStore
	Ingestor  *ingest.Ingestor
	Assembler *answer.Assembler
}

func (c *Components) Close() error {
	var err error
	if c.Embedder != nil {
		err = multierr.Append(err, c.Embedder.Close())
	}
	if c.Store != nil {
		err = multierr.Append(err, c.Store.Close())
	}
	if c.Keywords != nil {
		err = multierr.Append(err, c.Keywords.Close())
	}
	return err
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}

	files, err := storage.NewDiskStore(cfg.Storage.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file store: %w", err)
	}

	embedder, err := embedding.New(&cfg.Embedding, env.EmbeddingAPIKey)
	if err != nil {
		// The ONNX provider needs CGO and a model file; fall back to the mock
		// so the pipeline stays usable in development.
		logger.Warn("embedder unavailable, falling back to mock",
			zap.String("provider", cfg.Embedding.Provider),
			zap.Error(err))
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	}

	var store vector.Store
	if cfg.Storage.DatabasePath != "" {
		store, err = vector.NewSQLiteStore(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize chunk store: %w", err)
		}
	} else {
		store = vector.NewMemoryStore(cfg.Embedding.Dimensions)
	}

	var keywords *keyword.Index
	if cfg.Storage.KeywordIndexPath != "" {
		keywords, err = keyword.NewIndex(cfg.Storage.KeywordIndexPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
		}
	}

	chunker, err := ingest.NewChunker(cfg.Chunking.ChunkSize, cfg.Chunking.Overlap)
	if err != nil {
		return nil, fmt.Errorf("invalid chunking config: %w", err)
	}
	extractor := extract.NewExtractor()

	ingestOpts := []ingest.Option{}
	if debug {
		ingestOpts = append(ingestOpts, ingest.WithLogger(logger))
	}
	if keywords != nil {
		ingestOpts = append(ingestOpts, ingest.WithKeywordIndex(keywords))
	}
	ingestor := ingest.NewIngestor(chunker, embedder, store, extractor, files, ingestOpts...)

	generator := llm.NewClient(&cfg.LLM, env.LLMAPIKey)
	assemblerOpts := []answer.AssemblerOption{}
	if debug {
		assemblerOpts = append(assemblerOpts, answer.WithLogger(logger))
	}
	assembler := answer.NewAssembler(
		embedder, store, generator, extractor, files, chunker,
		cfg.Retrieval.TopK,
		assemblerOpts...,
	)

	return &Components{
		Embedder:  embedder,
		Store:     store,
		Keywords:  keywords,
		Files:     files,
		Ingestor:  ingestor,
		Assembler: assembler,
	}, nil
}

func printUsage() {
	fmt.Println(`papyr - PDF question answering over a local document corpus

Usage:
  papyr server [flags]              Start the HTTP server
  papyr ingest [flags] <path>       Ingest a PDF file or a directory of PDFs
  papyr ask [flags] <question>      Ask a question against the indexed corpus
  papyr list [flags]                List indexed documents
  papyr status [flags]              Show corpus and configuration status
  papyr version                     Show version
  papyr help                        Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/papyr/config.yaml)
  --debug            Enable debug logging

Ingest Flags:
  --config string    Config file path

Ask Flags:
  --server string    Server URL (default: http://localhost:8080)
  --document string  Restrict page context to this document
  --page int         1-based page number for page context
  --show-context     Print the retrieved context before the answer

List/Status Flags:
  --server string    Server URL (default: http://localhost:8080)

Examples:
  papyr server
  papyr ingest paper.pdf
  papyr ingest ./papers/
  papyr ask "What does the method section describe?"
  papyr ask --document paper.pdf --page 3 "Summarize this page"
  papyr status`)
}
