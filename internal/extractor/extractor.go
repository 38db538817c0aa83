// Package extractor pulls structured plan facts out of raw document text
// with regex pattern matching only. No external calls.
package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"planbase/internal/models"
)

// minTextLen is the smallest input worth extracting from; anything shorter
// produces an error record immediately.
const minTextLen = 100

const maxSentencesPerCategory = 3
const maxNetworkMentions = 2
const maxKeyNumbers = 10

// Ordered pattern lists per field. The first match across the list wins.
var (
	deductiblePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)deductible[:\s]*\$?([\d,]+(?:\.\d{2})?)`),
		regexp.MustCompile(`(?i)\$([\d,]+(?:\.\d{2})?)\s+deductible`),
		regexp.MustCompile(`(?i)individual[^\n]*deductible[:\s]*\$?([\d,]+(?:\.\d{2})?)`),
	}
	copayPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)copay[:\s]*\$?([\d,]+(?:\.\d{2})?)`),
		regexp.MustCompile(`(?i)co-pay[:\s]*\$?([\d,]+(?:\.\d{2})?)`),
	}
	premiumPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)premium[:\s]*\$?([\d,]+(?:\.\d{2})?)`),
		regexp.MustCompile(`(?i)monthly\s+cost[:\s]*\$?([\d,]+(?:\.\d{2})?)`),
	}
	outOfPocketPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)out.of.pocket[:\s]*maximum[:\s]*\$?([\d,]+(?:\.\d{2})?)`),
		regexp.MustCompile(`(?i)maximum[^\n]*out.of.pocket[:\s]*\$?([\d,]+(?:\.\d{2})?)`),
	}
	coinsurancePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)coinsurance[:\s]*(\d+)%?`),
		regexp.MustCompile(`(?i)(\d+)%\s+coinsurance`),
	}

	planNamePattern    = regexp.MustCompile(`(?i)(?:plan\s+name|product\s+name)[:\s]*([^\n\r]{10,100})`)
	carrierPattern     = regexp.MustCompile(`(?i)(?:carrier|insurance\s+company|insurer)[:\s]*([^\n\r]{5,50})`)
	networkTypePattern = regexp.MustCompile(`(?i)(?:network\s+type|plan\s+type)[:\s]*([^\n\r]{3,30})`)

	moneyPattern   = regexp.MustCompile(`\$[\d,]+(?:\.\d{2})?`)
	percentPattern = regexp.MustCompile(`\d+(?:\.\d+)?%`)

	inNetworkPattern  = regexp.MustCompile(`(?i)in.network[^.!?]*[.!?]`)
	outNetworkPattern = regexp.MustCompile(`(?i)out.of.network[^.!?]*[.!?]`)
)

// categoryKeywords maps a coverage category to the keywords whose sentences
// describe it. Order matters for deterministic output.
var categoryOrder = []string{"medical", "prescription", "preventive", "emergency", "specialist", "mental_health", "maternity"}

var categoryKeywords = map[string][]string{
	"medical":       {"medical", "physician", "hospital", "surgery", "diagnostic"},
	"prescription":  {"prescription", "drug", "pharmacy", "medication", "formulary"},
	"preventive":    {"preventive", "wellness", "screening", "vaccination", "physical"},
	"emergency":     {"emergency", "urgent", "ambulance", "er"},
	"specialist":    {"specialist", "referral", "consultation"},
	"mental_health": {"mental health", "behavioral", "therapy", "counseling"},
	"maternity":     {"maternity", "pregnancy", "delivery", "prenatal"},
}

// sentencePatterns are precompiled per keyword so repeated extraction does
// not recompile.
var sentencePatterns = buildSentencePatterns()

func buildSentencePatterns() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp)
	for _, keywords := range categoryKeywords {
		for _, kw := range keywords {
			if _, ok := out[kw]; ok {
				continue
			}
			out[kw] = regexp.MustCompile(`(?i)[^.!?]*` + regexp.QuoteMeta(kw) + `[^.!?]*[.!?]`)
		}
	}
	return out
}

type Extractor struct{}

func New() *Extractor { return &Extractor{} }

// Extract runs every rule pass over the document text and assembles one
// PlanRecord. Deterministic: the same text always yields identical field
// values in identical order.
func (e *Extractor) Extract(text, planID string) models.PlanRecord {
	if len(strings.TrimSpace(text)) < minTextLen {
		return models.PlanRecord{
			PlanID: planID,
			Err:    "insufficient text for extraction",
		}
	}

	rec := models.PlanRecord{
		PlanID:           planID,
		ExtractionMethod: "zero_token_regex",
	}

	rec.PlanName, rec.Carrier, rec.NetworkType = extractBasics(text)
	rec.CostStructure = extractCosts(text)
	rec.CoverageByCategory = extractCoverage(text)
	rec.NetworkInfo = extractNetworkInfo(text)
	rec.KeyFinancialData = extractKeyNumbers(text)
	rec.ExtractionSummary = summarize(rec)
	return rec
}

func firstMatch(patterns []*regexp.Regexp, text string) (string, bool) {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// parseAmount strips commas and parses a dollar figure; the raw string is
// kept when parsing fails.
func parseAmount(raw string) any {
	cleaned := strings.ReplaceAll(raw, ",", "")
	if v, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return v
	}
	return raw
}

func extractCosts(text string) models.CostStructure {
	var costs models.CostStructure
	if raw, ok := firstMatch(deductiblePatterns, text); ok {
		costs.Deductible = parseAmount(raw)
	}
	if raw, ok := firstMatch(copayPatterns, text); ok {
		costs.Copay = parseAmount(raw)
	}
	if raw, ok := firstMatch(premiumPatterns, text); ok {
		costs.Premium = parseAmount(raw)
	}
	if raw, ok := firstMatch(outOfPocketPatterns, text); ok {
		costs.OutOfPocketMax = parseAmount(raw)
	}
	if raw, ok := firstMatch(coinsurancePatterns, text); ok {
		if v, err := strconv.Atoi(raw); err == nil {
			costs.CoinsurancePercent = v
		} else {
			costs.CoinsurancePercent = raw
		}
	}
	return costs
}

func extractBasics(text string) (planName, carrier, networkType string) {
	if m := planNamePattern.FindStringSubmatch(text); m != nil {
		planName = strings.TrimSpace(m[1])
	}
	if m := carrierPattern.FindStringSubmatch(text); m != nil {
		carrier = strings.TrimSpace(m[1])
	}
	if m := networkTypePattern.FindStringSubmatch(text); m != nil {
		networkType = strings.TrimSpace(m[1])
	}
	return planName, carrier, networkType
}

func extractCoverage(text string) map[string][]string {
	coverage := make(map[string][]string)
	for _, category := range categoryOrder {
		var sentences []string
		for _, kw := range categoryKeywords[category] {
			for _, match := range sentencePatterns[kw].FindAllString(text, -1) {
				sentence := strings.TrimSpace(match)
				if len(sentence) > 20 {
					sentences = append(sentences, sentence)
				}
			}
		}
		if len(sentences) > maxSentencesPerCategory {
			sentences = sentences[:maxSentencesPerCategory]
		}
		if len(sentences) > 0 {
			coverage[category] = sentences
		}
	}
	if len(coverage) == 0 {
		return nil
	}
	return coverage
}

func extractNetworkInfo(text string) models.NetworkInfo {
	var info models.NetworkInfo
	if mentions := inNetworkPattern.FindAllString(text, maxNetworkMentions); len(mentions) > 0 {
		info.InNetworkCoverage = trimAll(mentions)
	}
	if mentions := outNetworkPattern.FindAllString(text, maxNetworkMentions); len(mentions) > 0 {
		info.OutNetworkCoverage = trimAll(mentions)
	}
	return info
}

func extractKeyNumbers(text string) models.KeyFinancialData {
	return models.KeyFinancialData{
		DollarAmounts: dedupeCap(moneyPattern.FindAllString(text, -1), maxKeyNumbers),
		Percentages:   dedupeCap(percentPattern.FindAllString(text, -1), maxKeyNumbers),
	}
}

func summarize(rec models.PlanRecord) models.ExtractionSummary {
	features := make([]string, 0, 16)
	if rec.PlanName != "" {
		features = append(features, "plan_name")
	}
	if rec.Carrier != "" {
		features = append(features, "carrier")
	}
	if rec.NetworkType != "" {
		features = append(features, "network_type")
	}
	if rec.CostStructure.Deductible != nil {
		features = append(features, "deductible")
	}
	if rec.CostStructure.Copay != nil {
		features = append(features, "copay")
	}
	if rec.CostStructure.Premium != nil {
		features = append(features, "premium")
	}
	if rec.CostStructure.OutOfPocketMax != nil {
		features = append(features, "out_of_pocket_max")
	}
	if rec.CostStructure.CoinsurancePercent != nil {
		features = append(features, "coinsurance_percent")
	}
	if n := len(rec.CoverageByCategory); n > 0 {
		features = append(features, "coverage_categories: "+strconv.Itoa(n))
	}
	return models.ExtractionSummary{
		FeaturesExtracted: len(features),
		FeatureList:       features,
	}
}

// dedupeCap removes duplicates keeping first-seen order, capped at n.
func dedupeCap(values []string, n int) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if len(out) == n {
			break
		}
	}
	return out
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}
