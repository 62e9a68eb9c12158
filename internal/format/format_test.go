package format

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"wizdraft/internal/models"
)

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (JSONFormatter{}).Write(&buf, map[string]int{"removed": 2}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.String() != "{\"removed\":2}\n" {
		t.Fatalf("unexpected json %q", buf.String())
	}
}

func TestYAMLFormatterUsesFieldTags(t *testing.T) {
	info := models.BlobInfo{
		ID:       "1700000000000-abcd1234",
		Metadata: models.BlobMetadata{OriginalName: "id.pdf", Size: 42, MimeType: "application/pdf"},
		StoredAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	var buf bytes.Buffer
	if err := (YAMLFormatter{}).Write(&buf, []models.BlobInfo{info}); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"- id: 1700000000000-abcd1234",
		"  metadata:",
		"    original_name: id.pdf",
		"    mime_type: application/pdf",
		"  stored_at: 2026-01-02T03:04:05Z",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
}

func TestByName(t *testing.T) {
	for name, want := range map[string]Formatter{"": JSONFormatter{}, "JSON": JSONFormatter{}, "yaml": YAMLFormatter{}, "yml": YAMLFormatter{}} {
		got, err := ByName(name)
		if err != nil || got != want {
			t.Fatalf("%q: expected %T, got %T (err: %v)", name, want, got, err)
		}
	}
	if _, err := ByName("xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
