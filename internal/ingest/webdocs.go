package ingest

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/gocolly/colly/v2"

	"github.com/apichat0/apichat/internal/chunk"
	"github.com/apichat0/apichat/internal/knowledge"
)

// WebDocsResult summarizes one documentation-site import.
type WebDocsResult struct {
	Sections int // sections indexed
	Failed   int // sections that errored and were skipped
	Chunks   int // chunks added
}

// ImportWebDocs scrapes the configured documentation sections, strips
// them to plain text, chunks at the configured size and indexes the
// chunks as {section}_{index} entries.
//
// Failure is isolated per section: a fetch, parse or store error is
// logged and the walk continues with the next section. Only context
// cancellation stops the run early.
func (i *Ingester) ImportWebDocs(ctx context.Context) (*WebDocsResult, error) {
	result := &WebDocsResult{}

	collector := colly.NewCollector(colly.AllowURLRevisit())
	collector.SetRequestTimeout(i.scrapeTimeout)
	if err := collector.Limit(&colly.LimitRule{DomainGlob: "*", Delay: i.scrapeDelay}); err != nil {
		return nil, fmt.Errorf("configuring scrape rate limit: %w", err)
	}

	var body []byte
	collector.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	for _, section := range i.docsSections {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		pageURL := i.docsBaseURL + section
		body = nil
		// Visit is synchronous, so body holds this section's response
		// once it returns.
		if err := collector.Visit(pageURL); err != nil {
			i.logger.Error("fetching section failed", "url", pageURL, "error", err)
			result.Failed++
			continue
		}

		text, err := extractText(body, pageURL)
		if err != nil {
			i.logger.Error("parsing section failed", "url", pageURL, "error", err)
			result.Failed++
			continue
		}

		chunks := chunk.Split(text, i.chunkSize)
		ids := chunk.IDs(section, len(chunks))
		docs := make([]knowledge.Document, len(chunks))
		for j := range chunks {
			docs[j] = knowledge.Document{
				ID:       ids[j],
				Content:  chunks[j],
				Metadata: map[string]string{knowledge.MetaDocType: knowledge.DocTypeAPIDocs},
			}
		}

		if len(docs) == 0 {
			i.logger.Warn("section produced no text", "url", pageURL)
			result.Failed++
			continue
		}

		if err := i.store.Add(ctx, docs); err != nil {
			i.logger.Error("indexing section failed", "section", section, "error", err)
			result.Failed++
			continue
		}

		result.Sections++
		result.Chunks += len(docs)
		i.logger.Info("section indexed", "section", section, "chunks", len(docs))
	}

	i.logger.Info("documentation site import done",
		"sections", result.Sections,
		"failed", result.Failed,
		"chunks", result.Chunks)

	return result, nil
}

// extractText strips an HTML page to plain text. Readability extraction
// runs first since it discards navigation and boilerplate; when it finds
// no article content the whole document text is used instead.
func extractText(body []byte, pageURL string) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parsing url %q: %w", pageURL, err)
	}

	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return article.TextContent, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parsing html: %w", err)
	}
	return doc.Text(), nil
}
