// Package app wires configuration, the AI provider, storage and the
// pipeline components into one application object.
package app

import (
	"database/sql"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/apichat0/apichat/internal/assistant"
	"github.com/apichat0/apichat/internal/config"
	"github.com/apichat0/apichat/internal/enrich"
	"github.com/apichat0/apichat/internal/ingest"
	"github.com/apichat0/apichat/internal/knowledge"
	"github.com/apichat0/apichat/internal/session"
)

// App holds the wired application.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Genkit   *genkit.Genkit
	Embedder ai.Embedder

	Knowledge *knowledge.Store
	Sessions  *session.Store
	Ingester  *ingest.Ingester
	Enricher  *enrich.Engine
	Assistant *assistant.Assistant

	db *sql.DB
}

// Close releases all resources.
func (a *App) Close() error {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.Logger.Warn("closing history database", "error", err)
			return err
		}
	}
	return nil
}
