package checklist

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadInspectors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inspectors.yaml")
	content := []byte(`
"M. Wisniewski":
  color: "#1a6b2f"
  emails:
    - fleet@example.com
    - dispatch@example.com
"A. Nowak":
  color: "#8b1a1a"
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	dirMap, err := LoadInspectors(path)
	if err != nil {
		t.Fatalf("LoadInspectors: %v", err)
	}

	if got := dirMap.Color("M. Wisniewski"); got != "#1a6b2f" {
		t.Fatalf("Color = %q", got)
	}
	if got := dirMap.Color("Unknown"); got != "#000000" {
		t.Fatalf("default Color = %q", got)
	}
	if got := dirMap.Recipients("M. Wisniewski"); len(got) != 2 {
		t.Fatalf("Recipients = %v", got)
	}
	if got := dirMap.Recipients("A. Nowak"); len(got) != 0 {
		t.Fatalf("Recipients without emails = %v", got)
	}
}

func TestLoadInspectorsMissingFile(t *testing.T) {
	dirMap, err := LoadInspectors("/nonexistent/inspectors.yaml")
	if err != nil {
		t.Fatalf("LoadInspectors: %v", err)
	}
	if len(dirMap) != 0 {
		t.Fatalf("expected empty directory, got %v", dirMap)
	}
}

func TestLoadInspectorsEmptyPath(t *testing.T) {
	dirMap, err := LoadInspectors("")
	if err != nil {
		t.Fatalf("LoadInspectors: %v", err)
	}
	if len(dirMap) != 0 {
		t.Fatalf("expected empty directory, got %v", dirMap)
	}
}
