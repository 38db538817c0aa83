// Package kb orchestrates the ingestion and query paths: pipeline to
// chunks to vector store on the way in, vector search to grounded
// completion on the way out.
package kb

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"planbase/internal/chunker"
	"planbase/internal/models"
	"planbase/internal/providers"
	"planbase/internal/token"
	"planbase/internal/usage"
	"planbase/internal/util"
)

// NoInformationAnswer is returned verbatim when retrieval finds nothing;
// the completion model is not called in that case.
const NoInformationAnswer = "I could not find any relevant information about that in the available plan documents. " +
	"Try rephrasing the question or asking about a specific plan."

const systemPrompt = "You are a helpful insurance plan assistant. " +
	"Provide accurate, specific answers based on the provided document context."

// VectorStore is the slice of the store the knowledge base needs.
type VectorStore interface {
	Upsert(ctx context.Context, chunks []models.Chunk) (int, error)
	Search(ctx context.Context, query, planID string, limit int) ([]models.SearchResult, error)
	Info(ctx context.Context) (models.CollectionInfo, error)
}

// DocumentProcessor turns one document path into a PlanRecord.
type DocumentProcessor interface {
	Process(path, planID string) models.PlanRecord
}

type KnowledgeBase struct {
	pipeline    DocumentProcessor
	chunker     *chunker.Chunker
	store       VectorStore
	llm         providers.LLMProvider
	codec       token.Codec
	monitor     *usage.Monitor
	docsDir     string
	searchLimit int
}

func New(pipeline DocumentProcessor, ch *chunker.Chunker, store VectorStore, llm providers.LLMProvider, codec token.Codec, monitor *usage.Monitor, docsDir string, searchLimit int) *KnowledgeBase {
	return &KnowledgeBase{
		pipeline:    pipeline,
		chunker:     ch,
		store:       store,
		llm:         llm,
		codec:       codec,
		monitor:     monitor,
		docsDir:     docsDir,
		searchLimit: searchLimit,
	}
}

// IngestPlan processes one document and stores its chunks. A document-level
// failure (unreadable or near-empty PDF) comes back as an error-flagged
// result with zero chunks and a nil error so callers can log and continue;
// store or embedding failures return an error.
func (k *KnowledgeBase) IngestPlan(ctx context.Context, path, planID string) (models.IngestResult, error) {
	result := models.IngestResult{PlanID: planID}

	rec := k.pipeline.Process(path, planID)
	result.PlanDetails = rec
	if rec.Failed() {
		return result, nil
	}

	structured := k.chunker.StructuredChunks(rec)
	raw := k.chunker.SmartChunks(rec.RawText, planID)
	if len(raw) == 0 {
		raw = k.chunker.SentenceChunks(rec.RawText, planID)
	}
	for i := range raw {
		raw[i].Metadata.Source = "raw_pdf_text"
	}

	all := append(append([]models.Chunk{}, structured...), raw...)
	stored, err := k.store.Upsert(ctx, all)
	if err != nil {
		return result, fmt.Errorf("store chunks for %s: %w", planID, err)
	}

	result.ChunksStored = stored
	result.StructuredChunks = len(structured)
	result.RawTextChunks = len(raw)

	embeddingTokens := 0
	for _, c := range all {
		embeddingTokens += c.Metadata.TokenCount
	}
	k.monitor.LogDocument(usage.DocumentStats{
		PlanID:            planID,
		EmbeddingTokens:   embeddingTokens,
		ChunksCreated:     stored,
		FeaturesExtracted: rec.ExtractionSummary.FeaturesExtracted,
	})
	return result, nil
}

// IngestAll rebuilds the knowledge base from the documents directory,
// blocking until every document is attempted. Per-document failures are
// logged and skipped; the loop never aborts.
func (k *KnowledgeBase) IngestAll(ctx context.Context) []models.IngestResult {
	plans, err := k.ListPlans()
	if err != nil {
		log.Printf("kb: cannot list plan documents: %v", err)
		return nil
	}
	results := make([]models.IngestResult, 0, len(plans))
	for _, plan := range plans {
		path := util.SafeJoin(k.docsDir, plan.Filename)
		r, err := k.IngestPlan(ctx, path, plan.PlanID)
		if err != nil {
			log.Printf("kb: error ingesting %s: %v", plan.Filename, err)
			continue
		}
		if r.PlanDetails.Failed() {
			log.Printf("kb: skipped %s: %s", plan.Filename, r.PlanDetails.Err)
			continue
		}
		log.Printf("kb: ingested %s: %d chunks stored (%d structured, %d raw)",
			plan.PlanID, r.ChunksStored, r.StructuredChunks, r.RawTextChunks)
		results = append(results, r)
	}
	return results
}

// Query retrieves relevant chunks and asks the completion model to answer
// from them alone. No retrieval hits short-circuits to the fixed
// no-information answer without a completion call. A completion failure
// degrades to a retry hint when the failure class is retryable, an
// apologetic answer otherwise; the sources are returned either way.
func (k *KnowledgeBase) Query(ctx context.Context, query, planID string) (models.QueryResult, error) {
	if strings.TrimSpace(query) == "" {
		return models.QueryResult{}, util.ErrEmptyQuery
	}

	results, err := k.store.Search(ctx, query, planID, k.searchLimit)
	if err != nil {
		return models.QueryResult{}, fmt.Errorf("search: %w", err)
	}
	if len(results) == 0 {
		return models.QueryResult{
			Answer:          NoInformationAnswer,
			SourceDocuments: []models.SourceDocument{},
			NoMatches:       true,
		}, nil
	}

	var contextBlock strings.Builder
	sources := make([]models.SourceDocument, 0, len(results))
	for _, r := range results {
		contextBlock.WriteString("Document: ")
		contextBlock.WriteString(r.Text)
		contextBlock.WriteString("\n\n")
		sources = append(sources, models.SourceDocument{
			Content:  r.Text,
			Metadata: r.Metadata,
			PlanID:   r.Metadata.PlanID,
		})
	}

	prompt := fmt.Sprintf(`You are an insurance plan assistant. Based on the following document excerpts, answer the user's question about insurance plans. Be specific, accurate, and helpful. Answer only from the supplied context.

Document Context:
%s
User Question: %s

Answer:`, contextBlock.String(), query)

	k.monitor.LogQuery(k.codec.Count(prompt))

	resp, _, err := k.llm.Generate(ctx, providers.GenerateRequest{System: systemPrompt, Prompt: prompt})
	if err != nil {
		class := providers.ClassifyError(err)
		log.Printf("kb: completion failed: %v (class=%s)", err, class)
		answer := fmt.Sprintf("I apologize, but I encountered an error while processing your question: %v", err)
		if class.Retryable() {
			answer = "The answer service is temporarily overloaded. Please ask your question again in a moment."
		}
		return models.QueryResult{
			Answer:          answer,
			SourceDocuments: sources,
		}, nil
	}

	return models.QueryResult{Answer: resp.Text, SourceDocuments: sources}, nil
}

// ListPlans scans the documents directory for PDFs. The base filename is
// the plan identifier; two files with the same base name collapse to one
// plan, last writer wins.
func (k *KnowledgeBase) ListPlans() ([]models.PlanInfo, error) {
	entries, err := os.ReadDir(k.docsDir)
	if err != nil {
		return nil, fmt.Errorf("read documents dir: %w", err)
	}
	plans := make([]models.PlanInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.EqualFold(filepath.Ext(name), ".pdf") {
			continue
		}
		plans = append(plans, models.PlanInfo{
			PlanID:   strings.TrimSuffix(name, filepath.Ext(name)),
			Filename: name,
		})
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].PlanID < plans[j].PlanID })
	return plans, nil
}

// CollectionInfo exposes the store's liveness signal.
func (k *KnowledgeBase) CollectionInfo(ctx context.Context) (models.CollectionInfo, error) {
	return k.store.Info(ctx)
}

// UsageReport exposes the accumulated token-usage report.
func (k *KnowledgeBase) UsageReport() usage.Report {
	return k.monitor.Report()
}
