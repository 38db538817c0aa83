package chunker

import (
	"strings"
	"testing"

	"planbase/internal/models"
)

func TestStructuredChunksSectionsAndPriorities(t *testing.T) {
	record := models.PlanRecord{
		PlanID: "gold-hmo",
		CostStructure: models.CostStructure{
			Deductible:         500.0,
			Copay:              map[string]any{"in_network": 20.0, "out_of_network": 40.0},
			CoinsurancePercent: 20,
		},
		CoverageByCategory: map[string][]string{
			"prescription_drugs": {"Generic drugs have a $10 copay after deductible."},
		},
		NetworkType: "HMO",
		NetworkInfo: models.NetworkInfo{
			InNetworkCoverage: []string{"In-network services are covered at 80% after deductible."},
		},
	}

	c := New(newWordCodec(), 600, 50)
	chunks := c.StructuredChunks(record)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 section chunks, got %d", len(chunks))
	}

	wantTypes := []string{"structured_costs", "structured_coverage", "structured_network"}
	for i, ch := range chunks {
		if ch.Metadata.ChunkType != wantTypes[i] {
			t.Fatalf("chunk %d type %s, want %s", i, ch.Metadata.ChunkType, wantTypes[i])
		}
		if ch.Metadata.Priority != i+1 {
			t.Fatalf("chunk %d priority %d, want %d", i, ch.Metadata.Priority, i+1)
		}
		if ch.Metadata.PlanID != "gold-hmo" {
			t.Fatalf("chunk %d plan_id %q", i, ch.Metadata.PlanID)
		}
		if ch.Metadata.Source != "structured_extraction" {
			t.Fatalf("chunk %d source %q", i, ch.Metadata.Source)
		}
	}

	costs := chunks[0].Text
	if !strings.Contains(costs, "Deductible: $500") {
		t.Fatalf("costs section missing deductible, got %q", costs)
	}
	if !strings.Contains(costs, "$20 in-network, $40 out-of-network") {
		t.Fatalf("costs section missing flattened copay, got %q", costs)
	}
	if !strings.Contains(costs, "Coinsurance: 20%") {
		t.Fatalf("costs section missing coinsurance, got %q", costs)
	}
	if !strings.Contains(chunks[1].Text, "Prescription Drugs") {
		t.Fatalf("coverage section missing category label, got %q", chunks[1].Text)
	}
	if !strings.Contains(chunks[2].Text, "Network Type: HMO") {
		t.Fatalf("network section missing network type, got %q", chunks[2].Text)
	}
}

func TestStructuredChunksEmptyRecord(t *testing.T) {
	c := New(newWordCodec(), 600, 50)
	chunks := c.StructuredChunks(models.PlanRecord{PlanID: "empty-plan"})
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks for empty record, got %d", len(chunks))
	}
}

func TestExtractKeyPhrasesCapAndContent(t *testing.T) {
	text := "The deductible is $500. Copay is $20 and coinsurance is 20%. " +
		"Premium runs $350 monthly. Emergency visits cost $250. " +
		"Specialist copay is $40. Coverage includes preventive care at 100%."
	phrases := ExtractKeyPhrases(text)
	if len(phrases) == 0 {
		t.Fatal("expected phrases")
	}
	if len(phrases) > 10 {
		t.Fatalf("phrase list not capped, got %d", len(phrases))
	}
	if phrases[0] != "$500" {
		t.Fatalf("expected dollar amounts first, got %q", phrases[0])
	}
}
