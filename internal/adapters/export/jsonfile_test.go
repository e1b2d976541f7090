package export_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"place_extractor/internal/adapters/export"
	"place_extractor/internal/domain"
)

func TestFileWriter_NameAndShape(t *testing.T) {
	dir := t.TempDir()
	w := export.NewFileWriter(filepath.Join(dir, "out"))

	name := "Café Ümlaut & Co"
	env := domain.Envelope{
		ExtractionDate: time.Date(2024, 6, 1, 9, 5, 7, 0, time.UTC),
		SourceURL:      "https://www.google.com/maps/place/x",
		Results:        domain.Succeeded(domain.PlaceRecord{Name: &name}),
	}
	path, err := w.Write(env)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if filepath.Base(path) != "google_maps_extract_20240601_090507.json" {
		t.Fatalf("unexpected file name %s", path)
	}
	b, _ := os.ReadFile(path)
	body := string(b)
	for _, want := range []string{`"extraction_date": "2024-06-01T09:05:07Z"`, `"source_url"`, `"results"`, name, `"negative_reviews": []`} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %s in\n%s", want, body)
		}
	}

	back, err := export.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if back.Results.Failed() || *back.Results.Place.Name != name {
		t.Fatalf("round trip: %+v", back)
	}
}

func TestFileWriter_ErrorRecord(t *testing.T) {
	w := export.NewFileWriter(t.TempDir())
	path, err := w.Write(domain.Envelope{
		ExtractionDate: time.Date(2024, 6, 1, 9, 5, 8, 0, time.UTC),
		Results:        domain.Failed("Extraction failed: timeout"),
	})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(path)
	if !strings.Contains(string(b), `"results": {`+"\n"+`    "error": "Extraction failed: timeout"`) {
		t.Fatalf("unexpected body:\n%s", b)
	}
}
