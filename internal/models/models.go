package models

// CostStructure holds the dollar figures and the coinsurance percentage
// pulled out of a plan document. Numeric values are parsed with commas
// stripped; when parsing fails the raw matched string is kept instead,
// so the fields are `any`.
type CostStructure struct {
	Deductible         any `json:"deductible,omitempty"`
	Copay              any `json:"copay,omitempty"`
	Premium            any `json:"premium,omitempty"`
	OutOfPocketMax     any `json:"out_of_pocket_max,omitempty"`
	CoinsurancePercent any `json:"coinsurance_percent,omitempty"`
}

// Empty reports whether no cost field matched.
func (c CostStructure) Empty() bool {
	return c.Deductible == nil && c.Copay == nil && c.Premium == nil &&
		c.OutOfPocketMax == nil && c.CoinsurancePercent == nil
}

// NetworkInfo carries in-network and out-of-network sentence mentions.
type NetworkInfo struct {
	InNetworkCoverage  []string `json:"in_network_coverage,omitempty"`
	OutNetworkCoverage []string `json:"out_network_coverage,omitempty"`
}

// Empty reports whether no network mentions were found.
func (n NetworkInfo) Empty() bool {
	return len(n.InNetworkCoverage) == 0 && len(n.OutNetworkCoverage) == 0
}

// KeyFinancialData is the deduplicated inventory of dollar amounts and
// percentages found anywhere in the document.
type KeyFinancialData struct {
	DollarAmounts []string `json:"dollar_amounts"`
	Percentages   []string `json:"percentages"`
}

// ExtractionSummary describes what the rule-based extractor found.
type ExtractionSummary struct {
	FeaturesExtracted int      `json:"features_extracted"`
	FeatureList       []string `json:"feature_list"`
}

// ProcessingStats is attached by the pipeline after a successful run.
type ProcessingStats struct {
	DocumentLength  int    `json:"document_length"`
	TablesFound     int    `json:"tables_found"`
	TotalTextLength int    `json:"total_text_length"`
	PipelineVersion string `json:"pipeline_version"`
}

// PlanRecord is the structured result of processing one plan document.
// It is created once by the pipeline and never mutated afterwards.
// Err is set instead of the extracted fields when processing failed.
type PlanRecord struct {
	PlanID             string              `json:"plan_id"`
	PlanName           string              `json:"plan_name,omitempty"`
	Carrier            string              `json:"carrier,omitempty"`
	NetworkType        string              `json:"network_type,omitempty"`
	CostStructure      CostStructure       `json:"cost_structure,omitempty"`
	CoverageByCategory map[string][]string `json:"coverage_by_category,omitempty"`
	NetworkInfo        NetworkInfo         `json:"network_information,omitempty"`
	KeyFinancialData   KeyFinancialData    `json:"key_financial_data,omitempty"`
	ExtractionSummary  ExtractionSummary   `json:"extraction_summary,omitempty"`
	ExtractionMethod   string              `json:"extraction_method,omitempty"`
	RawText            string              `json:"-"`
	TablesText         string              `json:"-"`
	FullText           string              `json:"-"`
	ProcessingStats    ProcessingStats     `json:"processing_stats,omitempty"`
	Err                string              `json:"error,omitempty"`
}

// Failed reports whether the pipeline produced an error record.
func (r PlanRecord) Failed() bool { return r.Err != "" }

// ChunkMetadata is carried with every chunk into the vector store and
// returned with every search hit. ChunkID is globally unique; PlanID always
// matches the record the chunk was derived from.
type ChunkMetadata struct {
	ChunkID    string   `json:"chunk_id"`
	PlanID     string   `json:"plan_id"`
	TokenCount int      `json:"token_count"`
	ChunkType  string   `json:"chunk_type"`
	Section    string   `json:"section,omitempty"`
	Subsection string   `json:"subsection,omitempty"`
	Priority   int      `json:"priority,omitempty"`
	ChunkIndex int      `json:"chunk_index,omitempty"`
	KeyPhrases []string `json:"key_phrases,omitempty"`
	Source     string   `json:"source,omitempty"`
}

// Chunk is the unit of storage and retrieval: a bounded text span plus
// metadata. Chunks are write-once.
type Chunk struct {
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
}

// SearchResult is one nearest-neighbor hit from the vector store.
type SearchResult struct {
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
	Distance float64       `json:"distance"`
}

// CollectionInfo is the store liveness signal used by the query path.
type CollectionInfo struct {
	CollectionName string `json:"collection_name"`
	DocumentCount  int64  `json:"document_count"`
	HasDocuments   bool   `json:"has_documents"`
}

// PlanInfo identifies one ingestable document in the plans directory.
type PlanInfo struct {
	PlanID   string `json:"plan_id"`
	Filename string `json:"filename"`
}

// IngestResult summarizes one ingestion run for a single plan.
type IngestResult struct {
	PlanID           string     `json:"plan_id"`
	ChunksStored     int        `json:"chunks_stored"`
	StructuredChunks int        `json:"structured_chunks"`
	RawTextChunks    int        `json:"raw_text_chunks"`
	PlanDetails      PlanRecord `json:"plan_details"`
}

// SourceDocument is the API-facing shape of a retrieved chunk.
type SourceDocument struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
	PlanID   string        `json:"plan_id"`
}

// QueryResult is the knowledge base answer. NoMatches distinguishes
// "nothing retrieved" from a degraded answer caused by a service failure.
type QueryResult struct {
	Answer          string           `json:"answer"`
	SourceDocuments []SourceDocument `json:"source_documents"`
	NoMatches       bool             `json:"no_matches,omitempty"`
}
