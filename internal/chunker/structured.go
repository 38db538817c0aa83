package chunker

import (
	"fmt"
	"sort"
	"strings"

	"planbase/internal/models"
)

// minSectionChars filters out sections whose rendered text is too short to
// be a useful retrieval unit.
const minSectionChars = 20

// StructuredChunks renders the extracted sections of a plan record into one
// human-readable chunk per section. One chunk per section, not per
// sub-field, so retrieval is not flooded with redundant small chunks.
// Sections carry a retrieval priority: costs first, then coverage, then
// network.
func (c *Chunker) StructuredChunks(record models.PlanRecord) []models.Chunk {
	planID := record.PlanID
	if planID == "" {
		planID = "unknown"
	}

	type section struct {
		name     string
		priority int
		text     string
	}
	sections := []section{
		{"costs", 1, renderCosts(planID, record)},
		{"coverage", 2, renderCoverage(planID, record.CoverageByCategory)},
		{"network", 3, renderNetwork(planID, record)},
	}

	var chunks []models.Chunk
	for _, s := range sections {
		if len(strings.TrimSpace(s.text)) <= minSectionChars {
			continue
		}
		chunks = append(chunks, models.Chunk{
			Text: s.text,
			Metadata: models.ChunkMetadata{
				ChunkID:    newChunkID(planID, "struct-"+s.name, len(chunks)),
				PlanID:     planID,
				TokenCount: c.codec.Count(s.text),
				ChunkType:  "structured_" + s.name,
				Section:    s.name,
				Priority:   s.priority,
				Source:     "structured_extraction",
			},
		})
	}
	return chunks
}

func renderCosts(planID string, record models.PlanRecord) string {
	var parts []string
	appendCost := func(label string, v any) {
		if v != nil {
			parts = append(parts, label+": "+formatValue(v))
		}
	}
	appendCost("Premium", record.CostStructure.Premium)
	appendCost("Deductible", record.CostStructure.Deductible)
	appendCost("Copay", record.CostStructure.Copay)
	appendCost("Out Of Pocket Maximum", record.CostStructure.OutOfPocketMax)
	if v := record.CostStructure.CoinsurancePercent; v != nil {
		parts = append(parts, fmt.Sprintf("Coinsurance: %v%%", v))
	}
	if len(parts) == 0 {
		return ""
	}
	return sectionHeader(planID, "Costs") + strings.Join(parts, ". ") + "."
}

func renderCoverage(planID string, coverage map[string][]string) string {
	if len(coverage) == 0 {
		return ""
	}
	categories := make([]string, 0, len(coverage))
	for category := range coverage {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	var parts []string
	for _, category := range categories {
		label := titleCase(category)
		parts = append(parts, label+": "+strings.Join(coverage[category], " "))
	}
	return sectionHeader(planID, "Coverage") + strings.Join(parts, "\n")
}

func renderNetwork(planID string, record models.PlanRecord) string {
	var parts []string
	if record.NetworkType != "" {
		parts = append(parts, "Network Type: "+record.NetworkType)
	}
	if len(record.NetworkInfo.InNetworkCoverage) > 0 {
		parts = append(parts, "In-Network: "+strings.Join(record.NetworkInfo.InNetworkCoverage, " "))
	}
	if len(record.NetworkInfo.OutNetworkCoverage) > 0 {
		parts = append(parts, "Out-Of-Network: "+strings.Join(record.NetworkInfo.OutNetworkCoverage, " "))
	}
	if len(parts) == 0 {
		return ""
	}
	return sectionHeader(planID, "Network Information") + strings.Join(parts, ". ") + "."
}

// formatValue renders a sub-field value, flattening the nested
// in-network / out-of-network shape into one phrase.
func formatValue(v any) string {
	if m, ok := v.(map[string]any); ok {
		in, hasIn := m["in_network"]
		out, hasOut := m["out_of_network"]
		if hasIn && hasOut {
			return fmt.Sprintf("$%v in-network, $%v out-of-network", in, out)
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %v", strings.ReplaceAll(k, "_", " "), m[k]))
		}
		return strings.Join(parts, ", ")
	}
	if f, ok := v.(float64); ok {
		return "$" + trimFloat(f)
	}
	return fmt.Sprintf("%v", v)
}

func sectionHeader(planID, section string) string {
	planName := titleCase(planID)
	return planName + " " + section + ":\n"
}

// titleCase turns a plan_id-style token into readable words.
func titleCase(s string) string {
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%.2f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
