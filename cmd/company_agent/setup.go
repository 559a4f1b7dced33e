package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jonathan/company-lookup/internal/config"
	"github.com/jonathan/company-lookup/internal/db"
	"github.com/jonathan/company-lookup/internal/describe"
	"github.com/jonathan/company-lookup/internal/fetch"
	"github.com/jonathan/company-lookup/internal/llm"
	"github.com/jonathan/company-lookup/internal/search"
	"github.com/spf13/cobra"
)

// sharedFlags are the settings both describe and serve accept.
type sharedFlags struct {
	configPath  string
	tier        string
	model       string
	temperature float64
	exportPath  string
	databaseURL string
	fetchPages  int
	useBrowser  bool
	dedupe      bool
	verbose     bool
}

func (f *sharedFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	cmd.Flags().StringVar(&f.tier, "tier", "", "Model tier: lite, standard or advanced (default "+config.DefaultModelTier+")")
	cmd.Flags().StringVar(&f.model, "model", "", "Gemini model name, overrides the model of the selected tier")
	cmd.Flags().Float64Var(&f.temperature, "temperature", 0, "Sampling temperature between 0 and 2 (default: provider default)")
	cmd.Flags().StringVar(&f.exportPath, "export-path", "", "Where exported descriptions are written (default "+config.DefaultExportPath+")")
	cmd.Flags().StringVar(&f.databaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	cmd.Flags().IntVar(&f.fetchPages, "fetch-pages", 0, "Fetch the top N result pages and add excerpts to the prompt")
	cmd.Flags().BoolVar(&f.useBrowser, "use-browser", false, "Use headless browser for pages with little static text (requires Chrome)")
	cmd.Flags().BoolVar(&f.dedupe, "dedupe", false, "Drop duplicate company names, keeping the first occurrence")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Print detailed debug information")
}

// resolveConfig merges, in priority order, explicitly set flags, the config
// file, the environment and the built-in defaults, then validates the result.
func resolveConfig(cmd *cobra.Command, f *sharedFlags) (*config.Config, error) {
	var cfg config.Config
	if f.configPath != "" {
		loaded, err := config.LoadConfig(f.configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	cfg = cfg.MergeWithDefaults(config.FromEnv())

	flags := cmd.Flags()
	if flags.Changed("tier") {
		cfg.ModelTier = f.tier
	}
	if flags.Changed("model") {
		cfg.Model = f.model
	}
	if flags.Changed("temperature") {
		temperature := f.temperature
		cfg.Temperature = &temperature
	}
	if flags.Changed("export-path") {
		cfg.ExportPath = f.exportPath
	}
	if flags.Changed("db-url") {
		cfg.DatabaseURL = f.databaseURL
	}
	if flags.Changed("fetch-pages") {
		cfg.FetchPages = f.fetchPages
	}
	if flags.Changed("use-browser") {
		cfg.UseBrowser = f.useBrowser
	}
	if flags.Changed("dedupe") {
		cfg.DedupeNames = f.dedupe
	}
	if flags.Changed("verbose") {
		cfg.Verbose = f.verbose
	}

	cfg = cfg.MergeWithDefaults(config.Defaults())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if f.configPath != "" && cfg.Verbose {
		log.Printf("[CONFIG] Loaded config from: %s", f.configPath)
	}
	return &cfg, nil
}

// chatConfig selects the model tier, an optional model override and the temperature.
func chatConfig(cfg *config.Config) *llm.Config {
	llmConfig := llm.DefaultConfig()
	if cfg.ModelTier != "" {
		llmConfig.Tier = llm.ModelTier(cfg.ModelTier)
	}
	if cfg.Model != "" {
		llmConfig = llmConfig.WithModel(llmConfig.Tier, cfg.Model)
	}
	if cfg.Temperature != nil {
		temperature := float32(*cfg.Temperature)
		llmConfig.Temperature = &temperature
	}
	return llmConfig
}

// services holds the clients built from a resolved config.
type services struct {
	describer *describe.Describer
	database  *db.DB
	chat      llm.ChatClient
}

// Close releases the model client and, when owned, the database pool.
func (r *services) Close() {
	if r.chat != nil {
		if err := r.chat.Close(); err != nil {
			log.Printf("Warning: failed to close model client: %v", err)
		}
	}
	if r.database != nil {
		r.database.Close()
	}
}

// buildServices wires search, model, optional page enrichment and optional persistence.
func buildServices(ctx context.Context, cfg *config.Config) (*services, error) {
	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second

	searcher := search.NewClient(cfg.SerpAPIKey, search.Options{
		Endpoint: cfg.SearchEndpoint,
		Engine:   cfg.SearchEngine,
		Timeout:  timeout,
		Verbose:  cfg.Verbose,
	})

	chat, err := llm.NewClient(ctx, chatConfig(cfg), cfg.GoogleAPIKey, cfg.Verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}

	rt := &services{
		chat: chat,
		describer: &describe.Describer{
			Search:  searcher,
			Chat:    chat,
			Verbose: cfg.Verbose,
		},
	}

	if cfg.FetchPages > 0 {
		rt.describer.Enricher = fetch.NewEnricher(cfg.FetchPages, timeout, cfg.UseBrowser, cfg.Verbose)
	}

	if cfg.DatabaseURL != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		database, err := db.Connect(connectCtx, cfg.DatabaseURL)
		if err != nil {
			rt.Close()
			return nil, err
		}
		if err := database.EnsureSchema(connectCtx); err != nil {
			database.Close()
			rt.Close()
			return nil, err
		}
		rt.database = database
		rt.describer.Recorder = database
		if cfg.Verbose {
			log.Printf("[DB] Persisting transcripts to PostgreSQL")
		}
	}

	return rt, nil
}
