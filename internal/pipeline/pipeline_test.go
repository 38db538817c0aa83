package pipeline

import (
	"os"
	"path/filepath"
	"testing"
)

func TestProcessMissingFileReturnsErrorRecord(t *testing.T) {
	rec := New().Process(filepath.Join(t.TempDir(), "absent.pdf"), "gold-hmo")

	if !rec.Failed() {
		t.Fatal("expected error record for missing file")
	}
	if rec.PlanID != "gold-hmo" {
		t.Fatalf("plan id %q not preserved", rec.PlanID)
	}
	if rec.RawText != "" {
		t.Fatal("error record must carry no extracted text")
	}
}

func TestProcessCorruptFileReturnsErrorRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-pdf.pdf")
	if err := os.WriteFile(path, []byte("this is not a pdf document at all"), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := New().Process(path, "bad-plan")
	if !rec.Failed() {
		t.Fatal("expected error record for corrupt file")
	}
	if rec.PlanID != "bad-plan" {
		t.Fatalf("plan id %q not preserved", rec.PlanID)
	}
}

func TestExtractTextMissingFile(t *testing.T) {
	_, err := ExtractText(filepath.Join(t.TempDir(), "absent.pdf"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
