// Oracle - macro research agent.
// Aggregates market data feeds, classifies regimes and positioning,
// and generates futures trading research.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/quantbrief/oracle/internal/alphavantage"
	"github.com/quantbrief/oracle/internal/api"
	"github.com/quantbrief/oracle/internal/config"
	"github.com/quantbrief/oracle/internal/cot"
	"github.com/quantbrief/oracle/internal/delivery"
	"github.com/quantbrief/oracle/internal/fred"
	"github.com/quantbrief/oracle/internal/futures"
	"github.com/quantbrief/oracle/internal/pipeline"
	"github.com/quantbrief/oracle/internal/scheduler"
	"github.com/quantbrief/oracle/internal/storage"
	"github.com/quantbrief/oracle/internal/synthesis"
	"github.com/quantbrief/oracle/internal/tavily"
)

func main() {
	var (
		runDaily = flag.Bool("daily", false, "generate a daily brief and exit")
		research = flag.String("research", "", "run an ad-hoc research query and exit")
		noStore  = flag.Bool("no-store", false, "skip MongoDB, archive reports to disk only")
	)
	flag.Parse()

	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	log.Info().Msg("Oracle - Starting macro research agent")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := context.Background()

	// Initialize storage
	var store *storage.Store
	if !*noStore {
		store, err = storage.NewStore(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
		}
		defer store.Close(ctx)
	}

	// Initialize LLM generator
	generator, err := synthesis.NewGenerator(synthesis.ClientConfig{
		Provider: cfg.LLMProvider,
		APIKey:   cfg.LLMAPIKey,
		Endpoint: cfg.LLMEndpoint,
		Model:    cfg.LLMModel,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize LLM client")
	}
	gateway := synthesis.NewGateway(generator, cfg.MaxTokens, float32(cfg.Temperature))
	log.Info().Str("provider", cfg.LLMProvider).Str("model", cfg.LLMModel).Msg("LLM client initialized")

	// Initialize data source clients
	fredClient := fred.NewClient(cfg.FredAPIKey)
	tavilyClient := tavily.NewClient(cfg.TavilyAPIKey)
	avClient := alphavantage.NewClient(cfg.AlphaVantageAPIKey)
	futuresClient := futures.NewClient()

	var cotStore cot.CacheStore
	if store != nil {
		cotStore = store
	}
	cotClient := cot.NewClient(cotStore, cfg.CotCacheMaxAge)
	log.Info().Msg("Data source clients initialized")

	// Initialize pipeline
	var sink pipeline.ReportSink
	if store != nil {
		sink = store
	}
	oracle := pipeline.NewOracle(
		fredClient,
		tavilyClient,
		cotClient,
		avClient,
		futuresClient,
		gateway,
		sink,
		cfg.ReportsDir,
	)

	// One-shot modes
	if *runDaily {
		runCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
		defer cancel()
		state, err := oracle.RunDailyBrief(runCtx)
		if err != nil {
			log.Fatal().Err(err).Msg("Daily brief failed")
		}
		fmt.Println(state.MarkdownReport)
		return
	}
	if *research != "" {
		runCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
		defer cancel()
		state, err := oracle.RunResearch(runCtx, *research)
		if err != nil {
			log.Fatal().Err(err).Msg("Research run failed")
		}
		fmt.Println(state.MarkdownReport)
		return
	}

	// Initialize email delivery
	var notifier scheduler.Notifier
	if cfg.ResendAPIKey != "" {
		notifier = delivery.NewEmailSender(cfg.ResendAPIKey, cfg.EmailFrom, cfg.EmailTo)
		log.Info().Msg("Email delivery initialized")
	}

	// Initialize scheduler
	sched := scheduler.NewScheduler(oracle, notifier, scheduler.Config{
		PremarketHour:    cfg.PremarketHour,
		PremarketMinute:  cfg.PremarketMinute,
		PostmarketHour:   cfg.PostmarketHour,
		PostmarketMinute: cfg.PostmarketMinute,
	})
	log.Info().Msg("Scheduler initialized")

	// Initialize API server
	apiServer := api.NewServer(store, oracle, sched, cfg.HTTPAddr)

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start all services
	go func() {
		if err := apiServer.Start(); err != nil {
			log.Error().Err(err).Msg("API server error")
		}
	}()

	sched.Start()

	log.Info().Str("api", cfg.HTTPAddr).Msg("Oracle running")

	// Wait for shutdown signal
	<-sigChan
	log.Info().Msg("Shutdown signal received")

	// Graceful shutdown
	shutdownCtx := context.Background()
	sched.Stop()
	apiServer.Shutdown(shutdownCtx)

	log.Info().Msg("Oracle stopped")
}
