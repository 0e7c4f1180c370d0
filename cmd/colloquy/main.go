// colloquy runs a rotating multi-agent conversation from a YAML config.
//
// Usage:
//
//	colloquy run --config colloquy.yaml --topic "the future of cities"
//	colloquy version
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/colloquy/agent"
	"github.com/BaSui01/colloquy/config"
	"github.com/BaSui01/colloquy/control"
	"github.com/BaSui01/colloquy/filter"
	"github.com/BaSui01/colloquy/history"
	"github.com/BaSui01/colloquy/internal/metrics"
	"github.com/BaSui01/colloquy/internal/telemetry"
	"github.com/BaSui01/colloquy/llm/embedding"
	"github.com/BaSui01/colloquy/llm/speech"
	"github.com/BaSui01/colloquy/llm/tokenizer"
	"github.com/BaSui01/colloquy/memory"
	"github.com/BaSui01/colloquy/providers/openaicompat"
	"github.com/BaSui01/colloquy/session"
	"github.com/BaSui01/colloquy/types"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runSession(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runSession(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "colloquy.yaml", "Path to config file")
	topic := fs.String("topic", "", "Conversation topic")
	rateMult := fs.Float64("rate", 1.0, "Initial pacing multiplier")
	fs.Parse(args)

	cfg, err := config.NewLoader().WithConfigPath(*configPath).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *topic == "" {
		fmt.Fprintln(os.Stderr, "A topic is required: --topic \"...\"")
		os.Exit(1)
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("Starting colloquy",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	tel, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector("colloquy", prometheus.DefaultRegisterer, logger)
	}

	provider := openaicompat.New(openaicompat.Config{
		Name:    cfg.LLM.Provider,
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	}, logger)

	store := buildMemoryStore(cfg, logger)
	tts := buildSynthesizer(cfg, logger)
	var tok tokenizer.Tokenizer
	if tk, err := tokenizer.NewTiktoken(cfg.LLM.Model, logger); err == nil {
		tok = tk
	} else {
		logger.Warn("tiktoken unavailable, using estimator", zap.Error(err))
		tok = tokenizer.NewEstimator()
	}
	tools := agent.NewToolRegistry()
	registerBuiltinTools(tools, logger)

	tracker := control.NewTracker(control.Config{
		OnTransition: func(name string, from, to control.State, reason string) {
			if collector != nil {
				collector.RecordStateTransition(name, string(from), string(to))
			}
		},
	}, logger)

	runtimes := make([]*agent.Runtime, 0, len(cfg.Personas))
	for _, p := range cfg.Personas {
		if p.Model == "" {
			p.Model = cfg.LLM.Model
		}
		runtimes = append(runtimes, agent.NewRuntime(p, provider, store, tts, tools, tok, logger))
	}

	var transcripts session.TranscriptStore
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		transcripts = session.NewRedisTranscriptStore(client, session.RedisTranscriptStoreOptions{
			TTL: cfg.Redis.TranscriptTTL,
		}, logger)
	}

	compressor := history.NewCompressor(
		history.NewLLMSummarizer(provider, cfg.LLM.Model),
		history.CompressorConfig{MaxMessages: cfg.Session.HistoryMaxMessages},
		logger,
	)

	controller := session.New(session.Options{
		Config: session.Config{
			Mode:          session.Mode(cfg.Session.Mode),
			LastMessages:  cfg.Session.LastMessages,
			BaseTurnDelay: cfg.Session.BaseTurnDelay,
			MinRate:       cfg.Session.MinRate,
			MaxRate:       cfg.Session.MaxRate,
			DelayFloor:    cfg.Session.DelayFloor,
		},
		Agents:      runtimes,
		Tracker:     tracker,
		Filter:      filter.New(cfg.FilterConfigValue()),
		Compressor:  compressor,
		Transcripts: transcripts,
		Metrics:     collector,
		Logger:      logger,
	})
	controller.SetMessageRate(*rateMult)

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsServer = startMetricsServer(cfg.Metrics.Addr, controller, logger)
	}

	ok, err := controller.Start(*topic)
	if err != nil {
		logger.Fatal("Failed to start session", zap.Error(err))
	}
	if !ok {
		logger.Fatal("Session already running")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("Shutting down", zap.String("signal", sig.String()))

	controller.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if metricsServer != nil {
		metricsServer.Shutdown(shutdownCtx)
	}
	if err := tel.Shutdown(shutdownCtx); err != nil {
		logger.Warn("telemetry shutdown failed", zap.Error(err))
	}
	logger.Info("colloquy stopped")
}

// buildMemoryStore returns nil when embeddings are disabled, which turns off
// long-term memory without affecting the rest of the pipeline.
func buildMemoryStore(cfg *config.Config, logger *zap.Logger) memory.Store {
	if !cfg.Embedding.Enabled {
		logger.Info("long-term memory disabled")
		return nil
	}
	embedder := embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
		BaseURL: cfg.Embedding.BaseURL,
		APIKey:  cfg.Embedding.APIKey,
		Model:   cfg.Embedding.Model,
		Timeout: cfg.Embedding.Timeout,
	})
	return memory.NewVectorStore(embedder, memory.VectorStoreConfig{}, logger)
}

func buildSynthesizer(cfg *config.Config, logger *zap.Logger) speech.Synthesizer {
	if !cfg.TTS.Enabled {
		return nil
	}
	return speech.NewOpenAITTS(speech.OpenAITTSConfig{
		BaseURL: cfg.TTS.BaseURL,
		APIKey:  cfg.TTS.APIKey,
		Model:   cfg.TTS.Model,
		Timeout: cfg.TTS.Timeout,
	})
}

// registerBuiltinTools adds the stock tools personas can opt into through
// their allow-lists.
func registerBuiltinTools(tools *agent.ToolRegistry, logger *zap.Logger) {
	err := tools.Register(types.ToolSchema{
		Name:        "current_time",
		Description: "Returns the current date and time in UTC",
	}, func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
		return json.Marshal(map[string]string{
			"now": time.Now().UTC().Format(time.RFC3339),
		})
	})
	if err != nil {
		logger.Warn("failed to register builtin tool", zap.Error(err))
	}
}

// startMetricsServer serves /metrics, /healthz and a read-only /status.
func startMetricsServer(addr string, controller *session.Controller, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(controller.Status())
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Info("metrics server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	return srv
}

func printVersion() {
	fmt.Printf("colloquy %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`colloquy - rotating multi-agent conversation runner

Usage:
  colloquy <command> [options]

Commands:
  run       Start a conversation session
  version   Show version information
  help      Show this help message

Options for 'run':
  --config <path>   Path to configuration file (default colloquy.yaml)
  --topic <text>    Conversation topic (required)
  --rate <mult>     Initial pacing multiplier (default 1.0)

Examples:
  colloquy run --topic "the future of cities"
  colloquy run --config /etc/colloquy/config.yaml --topic "jazz" --rate 2.0`)
}

func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	encoding := "json"
	if cfg.Format == "console" {
		encoding = "console"
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      encoding == "console",
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapConfig.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
