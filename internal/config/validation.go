package config

import (
	"fmt"
	"net/url"
	"strings"
)

// validProviders are the supported AI provider identifiers.
var validProviders = map[string]bool{
	"gemini": true,
	"openai": true,
	"ollama": true,
}

// Validate checks all configuration values and returns the first violation.
// Errors wrap the package sentinel errors for errors.Is checks.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if !validProviders[c.Provider] {
		return fmt.Errorf("%w: %q, must be one of: gemini, openai, ollama", ErrInvalidProvider, c.Provider)
	}

	if c.Provider == "ollama" && strings.TrimSpace(c.OllamaHost) == "" {
		return fmt.Errorf("%w: ollama provider requires ollama_host", ErrInvalidOllamaHost)
	}

	// Temperature range: 0.0 (deterministic) to 2.0 (maximum creativity)
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: must be between 0.0 and 2.0, got %.2f", ErrInvalidTemperature, c.Temperature)
	}

	if c.ChunkSize < 1 || c.ChunkSize > 1<<16 {
		return fmt.Errorf("%w: must be between 1 and 65536, got %d", ErrInvalidChunkSize, c.ChunkSize)
	}

	for name, k := range map[string]int{
		"topk_apidocs":   c.TopKAPIDocs,
		"topk_apispecs":  c.TopKAPISpecs,
		"topk_userguide": c.TopKUserGuide,
		"context_topk":   c.ContextTopK,
	} {
		if k < 1 || k > 100 {
			return fmt.Errorf("%w: %s must be between 1 and 100, got %d", ErrInvalidTopK, name, k)
		}
	}

	u, err := url.Parse(c.DocsBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidDocsBaseURL, c.DocsBaseURL)
	}

	if len(c.DocsSections) == 0 {
		return ErrNoDocsSections
	}

	return nil
}
