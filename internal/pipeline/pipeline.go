// Package pipeline turns one plan PDF into a structured PlanRecord:
// text extraction, table extraction, then rule-based field extraction.
package pipeline

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/tsawler/tabula"

	"planbase/internal/extractor"
	"planbase/internal/models"
	"planbase/internal/util"
)

// minTextLen mirrors the extractor's floor: a document with less usable
// text than this becomes an error record without further processing.
const minTextLen = 100

const pipelineVersion = "zero_token_v1"

type Pipeline struct {
	extractor *extractor.Extractor
}

func New() *Pipeline {
	return &Pipeline{extractor: extractor.New()}
}

// Process produces a PlanRecord for the document at path. It never
// propagates a failure past its own boundary: parse errors, short
// documents, and panics all come back as error records with the plan id
// preserved. Table extraction failures alone are non-fatal.
func (p *Pipeline) Process(path, planID string) (rec models.PlanRecord) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("pipeline: panic processing %s: %v", path, r)
			rec = models.PlanRecord{PlanID: planID, Err: fmt.Sprintf("processing failed: %v", r)}
		}
	}()

	text, err := ExtractText(path)
	if err != nil {
		log.Printf("pipeline: text extraction failed for %s: %v", path, err)
		return models.PlanRecord{PlanID: planID, Err: err.Error()}
	}
	if len(strings.TrimSpace(text)) < minTextLen {
		log.Printf("pipeline: minimal text extracted from %s", path)
		return models.PlanRecord{PlanID: planID, Err: util.ErrInsufficientText.Error()}
	}

	tablesText, tableCount, err := extractTables(path)
	if err != nil {
		log.Printf("pipeline: table extraction failed for %s (continuing without tables): %v", path, err)
		tablesText, tableCount = "", 0
	}

	fullText := text
	if tablesText != "" {
		fullText = text + "\n\n" + tablesText
	}

	rec = p.extractor.Extract(fullText, planID)
	if rec.Failed() {
		return rec
	}

	rec.RawText = text
	rec.TablesText = tablesText
	rec.FullText = fullText
	rec.ProcessingStats = models.ProcessingStats{
		DocumentLength:  len(text),
		TablesFound:     tableCount,
		TotalTextLength: len(fullText),
		PipelineVersion: pipelineVersion,
	}
	return rec
}

// ExtractText reads the plain text of a PDF and sanitizes it for storage.
func ExtractText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, reader); err != nil {
		return "", fmt.Errorf("read extracted text: %w", err)
	}
	text := util.SanitizeText(buf.String())
	if text == "" {
		return "", util.ErrNoExtractableText
	}
	return text, nil
}

// extractTables renders every detected table as CSV, joined by blank
// lines. Documents without tables return empty text and no error.
func extractTables(path string) (string, int, error) {
	doc, _, err := tabula.Open(path).Document()
	if err != nil {
		return "", 0, fmt.Errorf("extract pdf tables: %w", err)
	}
	tables := doc.ExtractTables()
	if len(tables) == 0 {
		return "", 0, nil
	}
	parts := make([]string, 0, len(tables))
	for _, t := range tables {
		if csv := strings.TrimSpace(t.ToCSV()); csv != "" {
			parts = append(parts, csv)
		}
	}
	return util.SanitizeText(strings.Join(parts, "\n\n")), len(tables), nil
}
