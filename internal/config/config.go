// Package config provides application configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (APICHAT_*)
//  2. Config file (~/.apichat/config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: provider selection, chat model, embedder model, temperature
//   - Storage: vector collection path, enrichment corpus cache, history database
//   - Ingestion: documentation site catalog, PDF user guide, API spec file
//   - Retrieval: per-source result counts for context assembly
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidChunkSize indicates the chunk size is out of range.
	ErrInvalidChunkSize = errors.New("invalid chunk size")

	// ErrInvalidTopK indicates a retrieval result count is out of range.
	ErrInvalidTopK = errors.New("invalid top-k")

	// ErrInvalidDocsBaseURL indicates the documentation base URL is unusable.
	ErrInvalidDocsBaseURL = errors.New("invalid docs base URL")

	// ErrNoDocsSections indicates the documentation section catalog is empty.
	ErrNoDocsSections = errors.New("no docs sections configured")

	// ErrInvalidOllamaHost indicates the Ollama host is missing for the ollama provider.
	ErrInvalidOllamaHost = errors.New("invalid ollama host")
)

// DefaultDocsSections is the catalog of documentation site sections scraped
// by the API-docs ingester. Each entry is appended to DocsBaseURL.
var DefaultDocsSections = []string{
	"overview",
	"getting-started",
	"api-quick-start",
	"asynchronous-apis",
	"authentication-and-authorization",
	"command-runner",
	"credentials",
	"device-onboarding",
	"device-provisioning",
	"devices",
	"discovery",
	"events",
	"global-ip-pool",
	"health-monitoring",
	"path-trace",
	"rma-device-replacement",
	"reports",
	"software-defined-access-sda",
	"sites",
	"swim",
	"topology",
}

// Config holds all application configuration.
type Config struct {
	// AI provider: "gemini", "openai" or "ollama".
	Provider string `mapstructure:"provider"`

	// ModelName is the provider-qualified chat model
	// (e.g. "googleai/gemini-2.5-flash", "openai/gpt-4o-mini").
	ModelName string `mapstructure:"model_name"`

	// EmbedderModel is the embedding model registered by the provider plugin.
	EmbedderModel string `mapstructure:"embedder_model"`

	// OllamaHost is the Ollama server address (ollama provider only).
	OllamaHost string `mapstructure:"ollama_host"`

	// Temperature for chat completions, 0.0-2.0.
	Temperature float64 `mapstructure:"temperature"`

	// DataDir is the base directory for all local state.
	DataDir string `mapstructure:"data_dir"`

	// VectorDBPath is the persistent vector collection directory.
	VectorDBPath string `mapstructure:"vector_db_path"`

	// Collection is the vector collection name.
	Collection string `mapstructure:"collection"`

	// CorpusCache is the enrichment corpus JSON file.
	CorpusCache string `mapstructure:"corpus_cache"`

	// HistoryDB is the SQLite chat history database.
	HistoryDB string `mapstructure:"history_db"`

	// ChunkSize is the chunk window in characters for all chunked sources.
	ChunkSize int `mapstructure:"chunk_size"`

	// DocsBaseURL is the documentation site root; section names are appended.
	DocsBaseURL string `mapstructure:"docs_base_url"`

	// DocsSections is the fixed catalog of documentation pages to scrape.
	DocsSections []string `mapstructure:"docs_sections"`

	// UserGuidePDF is the PDF user guide to ingest.
	UserGuidePDF string `mapstructure:"userguide_pdf"`

	// APISpecFile is the annotated API specification JSON.
	APISpecFile string `mapstructure:"apispec_file"`

	// Per-source result counts for answer-time context assembly.
	TopKAPIDocs   int `mapstructure:"topk_apidocs"`
	TopKAPISpecs  int `mapstructure:"topk_apispecs"`
	TopKUserGuide int `mapstructure:"topk_userguide"`

	// ContextTopK is the unfiltered result count for enrichment context.
	ContextTopK int `mapstructure:"context_topk"`

	// ScrapeTimeoutMs bounds each documentation page fetch.
	ScrapeTimeoutMs int `mapstructure:"scrape_timeout_ms"`

	// ScrapeDelayMs is the delay between documentation page fetches.
	ScrapeDelayMs int `mapstructure:"scrape_delay_ms"`

	// LLMRequestsPerSecond throttles completion calls (enrichment and answers).
	LLMRequestsPerSecond float64 `mapstructure:"llm_requests_per_second"`
	LLMBurst             int     `mapstructure:"llm_burst"`

	// Logging.
	LogLevel string `mapstructure:"log_level"`
	LogJSON  bool   `mapstructure:"log_json"`
}

// Load reads configuration from defaults, the config file and environment.
// A missing config file is not an error; defaults apply.
func Load() (*Config, error) {
	v := viper.New()

	dataDir, err := defaultDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolving data directory: %w", err)
	}

	setDefaults(v, dataDir)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dataDir)
	v.SetEnvPrefix("APICHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers every default value on the given viper instance.
func setDefaults(v *viper.Viper, dataDir string) {
	v.SetDefault("provider", "gemini")
	v.SetDefault("model_name", "googleai/gemini-2.5-flash")
	v.SetDefault("embedder_model", "text-embedding-004")
	v.SetDefault("ollama_host", "http://localhost:11434")
	v.SetDefault("temperature", 0.8)

	v.SetDefault("data_dir", dataDir)
	v.SetDefault("vector_db_path", filepath.Join(dataDir, "vectors"))
	v.SetDefault("collection", "catcenter_vectors")
	v.SetDefault("corpus_cache", filepath.Join(dataDir, "extended_apispecs_documentation.json"))
	v.SetDefault("history_db", filepath.Join(dataDir, "history.db"))

	v.SetDefault("chunk_size", 512)
	v.SetDefault("docs_base_url", "https://developer.cisco.com/docs/dna-center/")
	v.SetDefault("docs_sections", DefaultDocsSections)
	v.SetDefault("userguide_pdf", filepath.Join(dataDir, "data", "user_guide.pdf"))
	v.SetDefault("apispec_file", filepath.Join(dataDir, "data", "apispec.json"))

	v.SetDefault("topk_apidocs", 10)
	v.SetDefault("topk_apispecs", 10)
	v.SetDefault("topk_userguide", 10)
	v.SetDefault("context_topk", 10)

	v.SetDefault("scrape_timeout_ms", 30000)
	v.SetDefault("scrape_delay_ms", 500)

	v.SetDefault("llm_requests_per_second", 2.0)
	v.SetDefault("llm_burst", 4)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

// defaultDataDir returns ~/.apichat, creating it if necessary.
func defaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".apichat")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", err
	}
	return dir, nil
}
