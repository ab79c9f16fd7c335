package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/treelist/internal/datasource"
	"github.com/vanderheijden86/treelist/pkg/config"
	"github.com/vanderheijden86/treelist/pkg/tree"
)

const groceriesYAML = `text: Groceries
expanded: true
children:
  - text: Milk
    checkable: true
  - text: Bread
`

func writeOutline(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestResolveBookmark_NameAndFavorite(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AddBookmark("notes", "/tmp/notes.yaml")
	cfg.AddBookmark("db", "/tmp/outline.db")
	cfg.SetFavorite(2, "db")

	if b := resolveBookmark(cfg, "NOTES"); b == nil || b.Path != "/tmp/notes.yaml" {
		t.Errorf("resolveBookmark(NOTES) = %+v", b)
	}
	if b := resolveBookmark(cfg, "2"); b == nil || b.Name != "db" {
		t.Errorf("resolveBookmark(2) = %+v", b)
	}
	if b := resolveBookmark(cfg, "3"); b != nil {
		t.Errorf("resolveBookmark(3) = %+v, want nil", b)
	}
	if b := resolveBookmark(cfg, "missing"); b != nil {
		t.Errorf("resolveBookmark(missing) = %+v, want nil", b)
	}
}

func TestSaveBookmark_WritesConfig(t *testing.T) {
	dir := t.TempDir()
	outline := writeOutline(t, dir, "groceries.yaml", groceriesYAML)
	cfgPath := filepath.Join(dir, "config.yaml")

	if err := saveBookmark(config.DefaultConfig(), cfgPath, "shop", []string{outline}); err != nil {
		t.Fatalf("saveBookmark: %v", err)
	}
	cfg, err := config.LoadFrom(cfgPath)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	b := cfg.FindBookmark("shop")
	if b == nil || b.Path != outline {
		t.Fatalf("bookmark = %+v, want path %s", b, outline)
	}
}

func TestSaveBookmark_Rejects(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	txt := writeOutline(t, dir, "notes.txt", "plain text")

	tests := []struct {
		name  string
		paths []string
	}{
		{"no path", nil},
		{"two paths", []string{dir, dir}},
		{"unknown source", []string{txt}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := saveBookmark(config.DefaultConfig(), cfgPath, "x", tt.paths); err == nil {
				t.Error("expected an error")
			}
		})
	}
	if _, err := os.Stat(cfgPath); !os.IsNotExist(err) {
		t.Errorf("config written for rejected bookmarks: %v", err)
	}
}

func TestLoadConfig_ExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := writeOutline(t, dir, "config.yaml", "show_root: true\nui:\n  theme: light\n")
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if !cfg.ShowRoot || cfg.UI.Theme != "light" {
		t.Errorf("config not read from %s: %+v", path, cfg)
	}
}

func TestSaveDocuments_OnlyDirty(t *testing.T) {
	dir := t.TempDir()
	edited := writeOutline(t, dir, "edited.yaml", groceriesYAML)
	untouched := writeOutline(t, dir, "untouched.yaml", groceriesYAML)

	_, results, err := datasource.LoadAll(context.Background(), "tl", []string{edited, untouched}, datasource.Options{})
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if anyDirty(results) {
		t.Fatal("freshly loaded documents are dirty")
	}

	milk := results[0].Loaded.Root.Children().All()[0]
	if err := milk.SetChecked(tree.Checked); err != nil {
		t.Fatalf("SetChecked: %v", err)
	}
	if !anyDirty(results) {
		t.Fatal("checking a node did not mark the document dirty")
	}
	before, _ := os.Stat(untouched)

	if err := saveDocuments(results); err != nil {
		t.Fatalf("saveDocuments: %v", err)
	}
	if anyDirty(results) {
		t.Error("documents still dirty after saving")
	}
	data, err := os.ReadFile(edited)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "checked: true") {
		t.Errorf("saved outline lost the check:\n%s", data)
	}
	after, _ := os.Stat(untouched)
	if !after.ModTime().Equal(before.ModTime()) {
		t.Error("clean document was rewritten")
	}
}

func TestAnyDirty_SkipsFailedLoads(t *testing.T) {
	results := []datasource.LoadResult{{Path: "missing.yaml", Error: os.ErrNotExist}}
	if anyDirty(results) {
		t.Error("failed load reported dirty")
	}
	if err := saveDocuments(results); err != nil {
		t.Errorf("saveDocuments: %v", err)
	}
}
