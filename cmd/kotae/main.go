// Package main is the Kotae CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kotaehq/kotae/internal/answer"
	"github.com/kotaehq/kotae/internal/config"
	"github.com/kotaehq/kotae/internal/embedding"
	"github.com/kotaehq/kotae/internal/ingest"
	"github.com/kotaehq/kotae/internal/llm"
	"github.com/kotaehq/kotae/internal/matheval"
	"github.com/kotaehq/kotae/internal/prompt"
	"github.com/kotaehq/kotae/internal/rag"
	"github.com/kotaehq/kotae/internal/retrieval"
	"github.com/kotaehq/kotae/internal/server"
	"github.com/kotaehq/kotae/internal/storage"
	"github.com/kotaehq/kotae/internal/vectorstore"
	"github.com/kotaehq/kotae/internal/watcher"
	"github.com/kotaehq/kotae/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kotae/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used instead.
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
	// API keys may live in a local .env during development.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ask":
		runAsk()
	case "ingest":
		runIngest()
	case "math":
		runMath()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("kotae version %s\n", version)
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

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	// Index whatever is already on disk before accepting queries.
	startCtx, startCancel := context.WithTimeout(context.Background(), 5*time.Minute)
	if _, err := components.Builder.Rebuild(startCtx); err != nil {
		logger.Warn("initial index build failed", zap.Error(err))
	}
	startCancel()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Documents.Watch {
		watchOpts := []watcher.Option{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc := watcher.NewWatcher(cfg.Documents.Dir, func(ctx context.Context) {
			if _, err := components.Builder.Rebuild(ctx); err != nil {
				logger.Warn("watch rebuild failed", zap.Error(err))
			}
		}, watchOpts...)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	srv := server.NewServer(
		components.Handle,
		components.Builder,
		components.Registry,
		components.Processor,
		components.Evaluator,
		&cfg.Server,
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
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// Components holds everything the server needs, so Close can release all of
// it in one place.
type Components struct {
	Registry  storage.Registry
	Embedder  embedding.Embedder
	Store     vectorstore.Store
	Keyword   *retrieval.KeywordRetriever
	Processor *ingest.Processor
	Handle    *rag.Handle
	Builder   *rag.Builder
	Evaluator *matheval.Evaluator
}

func (c *Components) Close() {
	if c.Registry != nil {
		_ = c.Registry.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Keyword != nil {
		_ = c.Keyword.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	if err := os.MkdirAll(cfg.Documents.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create documents directory: %w", err)
	}
	registry, err := storage.NewSQLiteRegistry(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize registry: %w", err)
	}

	processor, err := ingest.NewProcessor(
		cfg.Documents.Dir,
		cfg.Ingest.ChunkSize,
		cfg.Ingest.ChunkOverlap,
		ingest.WithLogger(logger),
		ingest.WithWorkers(cfg.Ingest.Workers),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize processor: %w", err)
	}

	components := &Components{
		Registry:  registry,
		Processor: processor,
		Handle:    rag.NewHandle(),
		Evaluator: matheval.NewEvaluator(matheval.WithLogger(logger)),
	}

	var retriever retrieval.Retriever
	var index retrieval.Index
	switch cfg.Retrieval.Backend {
	case "keyword":
		kw, err := retrieval.NewKeywordRetriever(cfg.Storage.BleveIndexPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
		}
		components.Keyword = kw
		retriever, index = kw, kw
	default:
		var embedder embedding.Embedder
		openAI, err := embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			Model:   cfg.Embedding.Model,
			BaseURL: cfg.Embedding.BaseURL,
		})
		if err != nil {
			logger.Warn("embedding provider unavailable, using deterministic mock", zap.Error(err))
			embedder = embedding.NewMockEmbedder(384)
		} else {
			embedder = embedding.NewCachedEmbedder(openAI, cfg.Embedding.CacheSize)
		}
		components.Embedder = embedder

		var store vectorstore.Store
		if cfg.Retrieval.Store == "qdrant" {
			store, err = vectorstore.NewQdrantStore(context.Background(), vectorstore.QdrantConfig{
				URL:        cfg.Retrieval.QdrantURL,
				APIKey:     os.Getenv("QDRANT_API_KEY"),
				Collection: cfg.Retrieval.Collection,
				Dimensions: embedder.Dimensions(),
			})
		} else {
			store, err = vectorstore.NewMemoryStore(embedder.Dimensions())
		}
		if err != nil {
			return nil, fmt.Errorf("failed to initialize vector store: %w", err)
		}
		components.Store = store

		vr := retrieval.NewVectorRetriever(embedder, store)
		retriever, index = vr, vr
	}

	backend, err := newLLMBackend(cfg)
	if err != nil {
		return nil, err
	}
	generator := answer.NewGenerator(backend, prompt.NewRegistry(), answer.WithLogger(logger))

	components.Builder = rag.NewBuilder(
		processor,
		retriever,
		index,
		generator,
		components.Handle,
		rag.Options{
			TopK:      cfg.Retrieval.TopK,
			FetchK:    cfg.Retrieval.FetchK,
			MMR:       cfg.Retrieval.MMR,
			MMRLambda: cfg.Retrieval.MMRLambda,
		},
		logger,
	)
	return components, nil
}

func newLLMBackend(cfg *config.Config) (llm.Backend, error) {
	switch cfg.LLM.Provider {
	case "gemini":
		return llm.NewGeminiBackend(context.Background(), llm.GeminiConfig{
			APIKey:      os.Getenv("GEMINI_API_KEY"),
			Model:       cfg.LLM.Model,
			Temperature: float32(cfg.LLM.Temperature),
		})
	default:
		return llm.NewOpenAIBackend(llm.OpenAIConfig{
			APIKey:      os.Getenv("OPENAI_API_KEY"),
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		})
	}
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8000", "kotae server URL")
	_ = fs.Parse(os.Args[2:])

	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		fmt.Println("Usage: kotae ask [flags] <question>")
		os.Exit(1)
	}

	body, _ := json.Marshal(map[string]string{"query": query})
	resp, err := http.Post(*serverURL+"/api/v1/query", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	var result struct {
		Answer  string   `json:"answer"`
		Sources []string `json:"sources"`
		Error   string   `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		fmt.Printf("Bad response: %v\n", err)
		os.Exit(1)
	}
	if result.Error != "" {
		fmt.Println(result.Error)
		os.Exit(1)
	}
	fmt.Println(result.Answer)
	if len(result.Sources) > 0 {
		fmt.Printf("\nSources: %s\n", strings.Join(result.Sources, ", "))
	}
}

// runIngest builds the index once from the documents directory and reports
// what was indexed, without starting the server.
func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || *debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	built, err := components.Builder.Rebuild(ctx)
	if err != nil {
		logger.Fatal("Ingest failed", zap.Error(err))
	}
	if !built {
		fmt.Println("No documents found to index.")
		return
	}
	passages, err := components.Handle.Stats(ctx)
	if err != nil {
		logger.Fatal("Failed to read index stats", zap.Error(err))
	}
	fmt.Printf("Indexed %d passages from %s\n", passages, cfg.Documents.Dir)
}

func runMath() {
	fs := flag.NewFlagSet("math", flag.ExitOnError)
	_ = fs.Parse(os.Args[2:])

	expression := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if expression == "" {
		fmt.Println("Usage: kotae math <expression>")
		os.Exit(1)
	}
	// Evaluation is local; no server needed.
	fmt.Println(matheval.NewEvaluator().Evaluate(expression))
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8000", "kotae server URL")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/api/v1/status")
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	var status struct {
		Documents int  `json:"documents"`
		Passages  int  `json:"passages"`
		Ready     bool `json:"ready"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		fmt.Printf("Bad response: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("documents: %d\npassages:  %d\nready:     %v\n", status.Documents, status.Passages, status.Ready)
}

func printUsage() {
	fmt.Println(`kotae - Document question answering server

Usage:
  kotae server [flags]          Start the HTTP server
  kotae ask [flags] <question>  Ask a question against a running server
  kotae ingest [flags]          Build the index from the documents directory
  kotae math <expression>       Evaluate a math expression locally
  kotae status [flags]          Show server status
  kotae version                 Show version
  kotae help                    Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/kotae/config.yaml)
  --debug            Enable debug logging

Ask/Status Flags:
  --server string    Server URL (default: http://localhost:8000)`)
}
