package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apichat0/apichat/internal/apispec"
)

var (
	importFull    bool
	importPDF     string
	importSpec    string
	importSkipWeb bool
	importSkipPDF bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Ingest documentation into the vector collection",
	Long: `import loads the documentation sources into the vector collection:

  1. the documentation site sections (scraped and chunked),
  2. the PDF user guide (one entry per page),
  3. the API specification (from the cached enriched corpus, or
     regenerated via the LLM with --full; regeneration can take hours).

Re-importing a source overwrites its prior entries.`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importFull, "full", false,
		"regenerate the enriched API specification with the LLM instead of replaying the cached corpus")
	importCmd.Flags().StringVar(&importPDF, "pdf", "", "user guide PDF path (overrides config)")
	importCmd.Flags().StringVar(&importSpec, "spec", "", "API specification JSON path (overrides config)")
	importCmd.Flags().BoolVar(&importSkipWeb, "skip-web", false, "skip the documentation site scrape")
	importCmd.Flags().BoolVar(&importSkipPDF, "skip-pdf", false, "skip the PDF user guide")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// Web docs and the user guide go in first so a --full enrichment run
	// can retrieve them as probe context.
	if !importSkipWeb {
		result, err := a.Ingester.ImportWebDocs(ctx)
		if err != nil {
			return fmt.Errorf("importing documentation site: %w", err)
		}
		fmt.Printf("Documentation site: %d sections indexed (%d chunks, %d failed)\n",
			result.Sections, result.Chunks, result.Failed)
	}

	if !importSkipPDF {
		pdfPath := importPDF
		if pdfPath == "" {
			pdfPath = a.Config.UserGuidePDF
		}
		result, err := a.Ingester.ImportPDF(ctx, pdfPath)
		if err != nil {
			return fmt.Errorf("importing user guide: %w", err)
		}
		fmt.Printf("User guide: %d pages indexed (%d blank pages dropped)\n",
			result.Pages, result.Dropped)
	}

	if importFull {
		specPath := importSpec
		if specPath == "" {
			specPath = a.Config.APISpecFile
		}
		doc, err := apispec.Load(specPath)
		if err != nil {
			return err
		}
		fmt.Printf("Enriching %d operations across %d paths, this can take a while...\n",
			doc.OperationCount(), len(doc.Paths))

		report, err := a.Enricher.Run(ctx, doc)
		if err != nil {
			return fmt.Errorf("enriching specification: %w", err)
		}
		fmt.Printf("API specification: %d operations enriched (%d chunks, %d skipped)\n",
			report.Operations, report.Chunks, report.Skipped)
	} else {
		result, err := a.Ingester.ImportCached(ctx, a.Config.CorpusCache)
		if err != nil {
			return fmt.Errorf("importing cached corpus: %w", err)
		}
		fmt.Printf("API specification: %d cached entries indexed (%d chunks)\n",
			result.Entries, result.Chunks)
	}

	fmt.Printf("Collection now holds %d chunks.\n", a.Knowledge.Count())
	return nil
}
