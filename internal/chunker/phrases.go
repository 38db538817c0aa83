package chunker

import "regexp"

const maxKeyPhrases = 10

var (
	phraseMoneyPattern   = regexp.MustCompile(`\$[\d,]+(?:\.\d{2})?`)
	phrasePercentPattern = regexp.MustCompile(`\d+%`)
)

// Insurance terms whose surrounding sentences are worth surfacing as key
// phrases alongside the raw figures.
var phraseKeywords = []string{
	"deductible", "copay", "coinsurance", "premium",
	"coverage", "benefit", "covered",
	"in-network", "out-of-network", "provider",
	"prescription", "drug", "pharmacy", "formulary",
	"emergency", "urgent care", "specialist", "primary care",
	"mental health", "maternity", "preventive", "wellness",
}

var phrasePatterns = buildPhrasePatterns()

func buildPhrasePatterns() []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(phraseKeywords))
	for _, kw := range phraseKeywords {
		out = append(out, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(kw)+`[^.!?]*[.!?]`))
	}
	return out
}

// ExtractKeyPhrases collects dollar amounts, percentages, and
// insurance-keyword sentences from the text, capped at maxKeyPhrases.
func ExtractKeyPhrases(text string) []string {
	phrases := make([]string, 0, maxKeyPhrases)

	phrases = append(phrases, phraseMoneyPattern.FindAllString(text, -1)...)
	phrases = append(phrases, phrasePercentPattern.FindAllString(text, -1)...)
	for _, p := range phrasePatterns {
		if len(phrases) >= maxKeyPhrases {
			break
		}
		phrases = append(phrases, p.FindAllString(text, -1)...)
	}

	if len(phrases) > maxKeyPhrases {
		phrases = phrases[:maxKeyPhrases]
	}
	return phrases
}
