package render

import (
	"strings"
	"testing"
)

func TestRenderReportEmail(t *testing.T) {
	engine, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	hash := strings.Repeat("0123456789abcdef", 4)
	out, err := engine.Render("report_email.tmpl", map[string]string{
		"ChecklistType": "full",
		"ChecklistHash": hash,
		"DownloadURL":   "https://blobs.test/full/x.zip",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "Reference: "+hash[:12]) {
		t.Fatalf("reference line missing:\n%s", out)
	}
	if strings.Contains(out, hash) {
		t.Fatalf("reference not abbreviated:\n%s", out)
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	engine, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := engine.Render("missing.tmpl", nil); err == nil {
		t.Fatal("expected error for unknown template")
	}
}
