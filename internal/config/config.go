// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/company-lookup/internal/schemas"
)

// Default values applied by MergeWithDefaults.
const (
	DefaultModelTier      = "standard"
	DefaultSearchEndpoint = "https://serpapi.com/search"
	DefaultSearchEngine   = "google"
	DefaultExportPath     = "comp_text.txt"
	DefaultPort           = 8080
)

// Config represents the application configuration that can be loaded from a JSON file.
// All fields are optional in the file; secrets normally come from the environment.
type Config struct {
	// Secrets
	GoogleAPIKey string `json:"google_api_key,omitempty"`  // Gemini API key
	SerpAPIKey   string `json:"serpapi_api_key,omitempty"` // SerpAPI key

	// Services
	ModelTier      string   `json:"model_tier,omitempty"`      // lite, standard or advanced
	Model          string   `json:"model,omitempty"`           // Overrides the model of the selected tier
	Temperature    *float64 `json:"temperature,omitempty"`     // Sampling temperature, provider default when unset
	SearchEndpoint string   `json:"search_endpoint,omitempty"` // SerpAPI search URL
	SearchEngine   string   `json:"search_engine,omitempty"`   // SerpAPI engine parameter
	DatabaseURL    string   `json:"database_url,omitempty"`    // PostgreSQL connection URL (optional)

	// Output
	ExportPath string `json:"export_path,omitempty"` // Fixed path for exported descriptions

	// Behavior
	FetchPages            int  `json:"fetch_pages,omitempty"`             // Top search results to fetch for excerpts
	UseBrowser            bool `json:"use_browser,omitempty"`             // Render short pages in a headless browser
	DedupeNames           bool `json:"dedupe_names,omitempty"`            // Drop duplicate company names
	Verbose               bool `json:"verbose,omitempty"`                 // Print detailed debug information
	Port                  int  `json:"port,omitempty"`                    // HTTP port for serve
	RequestTimeoutSeconds int  `json:"request_timeout_seconds,omitempty"` // HTTP timeout for search/fetch, 0 = none

	// Server sessions
	SessionTTLMinutes int `json:"session_ttl_minutes,omitempty"` // Idle time before a session is evicted from memory
	MaxSessions       int `json:"max_sessions,omitempty"`        // Sessions held in memory at once
}

// runtimeRules are the constraints checked after merging file, env, flags and defaults.
type runtimeRules struct {
	GoogleAPIKey          string   `validate:"required"`
	SerpAPIKey            string   `validate:"required"`
	ModelTier             string   `validate:"required,oneof=lite standard advanced"`
	Temperature           *float64 `validate:"omitempty,gte=0,lte=2"`
	SearchEndpoint        string   `validate:"required,url"`
	SearchEngine          string   `validate:"required"`
	ExportPath            string   `validate:"required"`
	FetchPages            int      `validate:"gte=0,lte=10"`
	Port                  int      `validate:"gte=0,lte=65535"`
	RequestTimeoutSeconds int      `validate:"gte=0"`
	SessionTTLMinutes     int      `validate:"gte=0"`
	MaxSessions           int      `validate:"gte=0"`
}

var envKeys = map[string]string{
	"GoogleAPIKey": "GOOGLE_API_KEY or GEMINI_API_KEY",
	"SerpAPIKey":   "SERPAPI_API_KEY",
	"DatabaseURL":  "DATABASE_URL",
}

// LoadConfig loads configuration from a JSON file.
// The file is checked against the embedded JSON Schema before decoding.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("failed to parse config JSON: %s is not valid JSON", path)
	}

	if err := schemas.ValidateConfig(data); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv reads secrets and the database URL from the process environment.
// GOOGLE_API_KEY wins over GEMINI_API_KEY when both are set.
func FromEnv() Config {
	apiKey := os.Getenv("GOOGLE_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	return Config{
		GoogleAPIKey:  apiKey,
		SerpAPIKey:    os.Getenv("SERPAPI_API_KEY"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
	}
}

// Defaults returns the built-in defaults.
func Defaults() Config {
	return Config{
		ModelTier:      DefaultModelTier,
		SearchEndpoint: DefaultSearchEndpoint,
		SearchEngine:   DefaultSearchEngine,
		ExportPath:     DefaultExportPath,
		Port:           DefaultPort,
	}
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.GoogleAPIKey == "" {
		result.GoogleAPIKey = defaults.GoogleAPIKey
	}
	if result.SerpAPIKey == "" {
		result.SerpAPIKey = defaults.SerpAPIKey
	}
	if result.ModelTier == "" {
		result.ModelTier = defaults.ModelTier
	}
	if result.Model == "" {
		result.Model = defaults.Model
	}
	if result.Temperature == nil {
		result.Temperature = defaults.Temperature
	}
	if result.SearchEndpoint == "" {
		result.SearchEndpoint = defaults.SearchEndpoint
	}
	if result.SearchEngine == "" {
		result.SearchEngine = defaults.SearchEngine
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.ExportPath == "" {
		result.ExportPath = defaults.ExportPath
	}

	if result.FetchPages == 0 {
		result.FetchPages = defaults.FetchPages
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.RequestTimeoutSeconds == 0 {
		result.RequestTimeoutSeconds = defaults.RequestTimeoutSeconds
	}
	if result.SessionTTLMinutes == 0 {
		result.SessionTTLMinutes = defaults.SessionTTLMinutes
	}
	if result.MaxSessions == 0 {
		result.MaxSessions = defaults.MaxSessions
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// Validate checks that a fully merged configuration is usable.
func (c *Config) Validate() error {
	rules := runtimeRules{
		GoogleAPIKey:          c.GoogleAPIKey,
		SerpAPIKey:            c.SerpAPIKey,
		ModelTier:             c.ModelTier,
		Temperature:           c.Temperature,
		SearchEndpoint:        c.SearchEndpoint,
		SearchEngine:          c.SearchEngine,
		ExportPath:            c.ExportPath,
		FetchPages:            c.FetchPages,
		Port:                  c.Port,
		RequestTimeoutSeconds: c.RequestTimeoutSeconds,
		SessionTTLMinutes:     c.SessionTTLMinutes,
		MaxSessions:           c.MaxSessions,
	}

	err := validator.New().Struct(rules)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("config error: %w", err)
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		messages = append(messages, describeFieldError(fe))
	}
	return fmt.Errorf("config error: %s", strings.Join(messages, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	if fe.Tag() == "required" {
		if env, ok := envKeys[fe.Field()]; ok {
			return fmt.Sprintf("%s is required (set %s)", fe.Field(), env)
		}
		return fmt.Sprintf("%s is required", fe.Field())
	}
	if fe.Param() != "" {
		return fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}
