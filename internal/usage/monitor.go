// Package usage accumulates token-usage counters across runs and persists
// them to a JSON file.
package usage

import (
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"

	"planbase/internal/util"
)

// DocumentStats records the token spend of one ingested document.
type DocumentStats struct {
	PlanID            string `json:"plan_id"`
	Timestamp         string `json:"timestamp"`
	ExtractionTokens  int    `json:"extraction_tokens"`
	ChunkingTokens    int    `json:"chunking_tokens"`
	EmbeddingTokens   int    `json:"embedding_tokens"`
	ChunksCreated     int    `json:"chunks_created"`
	FeaturesExtracted int    `json:"features_extracted"`
}

type Stats struct {
	SessionStart          string          `json:"session_start"`
	TotalDocuments        int             `json:"total_documents_processed"`
	TotalExtractionTokens int             `json:"total_extraction_tokens"`
	TotalChunkingTokens   int             `json:"total_chunking_tokens"`
	TotalEmbeddingTokens  int             `json:"total_embedding_tokens"`
	TotalQueryTokens      int             `json:"total_query_tokens"`
	DocumentStats         []DocumentStats `json:"document_stats"`
	HistoricalDocuments   int             `json:"historical_total_documents,omitempty"`
	HistoricalTokens      int             `json:"historical_total_tokens,omitempty"`
}

// Report is the diagnostics-API view of accumulated usage.
type Report struct {
	SessionStart        string  `json:"session_start"`
	DocumentsProcessed  int     `json:"documents_processed"`
	TotalTokensUsed     int     `json:"total_tokens_used"`
	AvgTokensPerDoc     float64 `json:"average_tokens_per_document"`
	ExtractionTokens    int     `json:"extraction_tokens"`
	ChunkingTokens      int     `json:"chunking_tokens"`
	EmbeddingTokens     int     `json:"embedding_tokens"`
	QueryTokens         int     `json:"query_tokens"`
	EmbeddingCostUSD    float64 `json:"embedding_cost_usd"`
	ProcessingCostUSD   float64 `json:"processing_cost_usd"`
	EstimatedCostUSD    float64 `json:"estimated_cost_usd"`
	HistoricalDocuments int     `json:"historical_documents"`
	HistoricalTokens    int     `json:"historical_tokens"`
}

// Rough OpenAI pricing used for the cost estimate, USD per 1K tokens.
const (
	embeddingCostPer1K  = 0.0001
	processingCostPer1K = 0.0015
)

// Monitor is an explicitly constructed accumulator owned by the
// composition root; every log call flushes to disk under the mutex, so
// concurrent request handlers serialize on the write.
type Monitor struct {
	mu    sync.Mutex
	path  string
	stats Stats
}

// NewMonitor loads any existing usage file and folds its totals into the
// historical counters of a fresh session.
func NewMonitor(path string) *Monitor {
	m := &Monitor{
		path: path,
		stats: Stats{
			SessionStart:  time.Now().Format(time.RFC3339),
			DocumentStats: []DocumentStats{},
		},
	}
	m.loadExisting()
	return m
}

func (m *Monitor) loadExisting() {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return
	}
	var prior Stats
	if err := json.Unmarshal(data, &prior); err != nil {
		log.Printf("usage: could not load existing stats from %s: %v", m.path, err)
		return
	}
	m.stats.HistoricalDocuments = prior.HistoricalDocuments + prior.TotalDocuments
	m.stats.HistoricalTokens = prior.HistoricalTokens +
		prior.TotalExtractionTokens + prior.TotalChunkingTokens +
		prior.TotalEmbeddingTokens + prior.TotalQueryTokens
}

// LogDocument records the spend of one ingested document and flushes.
func (m *Monitor) LogDocument(doc DocumentStats) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if doc.Timestamp == "" {
		doc.Timestamp = time.Now().Format(time.RFC3339)
	}
	m.stats.TotalDocuments++
	m.stats.TotalExtractionTokens += doc.ExtractionTokens
	m.stats.TotalChunkingTokens += doc.ChunkingTokens
	m.stats.TotalEmbeddingTokens += doc.EmbeddingTokens
	m.stats.DocumentStats = append(m.stats.DocumentStats, doc)
	m.flushLocked()
}

// LogQuery records the estimated token spend of one query and flushes.
func (m *Monitor) LogQuery(tokens int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.TotalQueryTokens += tokens
	m.flushLocked()
}

// Flush writes the current counters to disk.
func (m *Monitor) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return util.WriteJSONAtomic(m.path, m.stats)
}

func (m *Monitor) flushLocked() {
	if err := util.WriteJSONAtomic(m.path, m.stats); err != nil {
		log.Printf("usage: could not save stats to %s: %v", m.path, err)
	}
}

func (m *Monitor) Report() Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := m.stats.TotalExtractionTokens + m.stats.TotalChunkingTokens +
		m.stats.TotalEmbeddingTokens + m.stats.TotalQueryTokens

	avg := 0.0
	if m.stats.TotalDocuments > 0 {
		avg = float64(total) / float64(m.stats.TotalDocuments)
	}

	embeddingCost := float64(m.stats.TotalEmbeddingTokens) / 1000 * embeddingCostPer1K
	processingCost := float64(total-m.stats.TotalEmbeddingTokens) / 1000 * processingCostPer1K

	return Report{
		SessionStart:        m.stats.SessionStart,
		DocumentsProcessed:  m.stats.TotalDocuments,
		TotalTokensUsed:     total,
		AvgTokensPerDoc:     avg,
		ExtractionTokens:    m.stats.TotalExtractionTokens,
		ChunkingTokens:      m.stats.TotalChunkingTokens,
		EmbeddingTokens:     m.stats.TotalEmbeddingTokens,
		QueryTokens:         m.stats.TotalQueryTokens,
		EmbeddingCostUSD:    embeddingCost,
		ProcessingCostUSD:   processingCost,
		EstimatedCostUSD:    embeddingCost + processingCost,
		HistoricalDocuments: m.stats.HistoricalDocuments,
		HistoricalTokens:    m.stats.HistoricalTokens,
	}
}
