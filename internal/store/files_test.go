package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreSaveLoad(t *testing.T) {
	fs := NewFileStore(t.TempDir())

	type doc struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	if fs.Exists("sample.json") {
		t.Fatal("document should not exist yet")
	}

	if err := fs.SaveJSON("sample.json", doc{Name: "x", Count: 3}); err != nil {
		t.Fatal(err)
	}
	if !fs.Exists("sample.json") {
		t.Fatal("document should exist after save")
	}

	var got doc
	if err := fs.LoadJSON("sample.json", &got); err != nil {
		t.Fatal(err)
	}
	if got.Name != "x" || got.Count != 3 {
		t.Errorf("unexpected document: %+v", got)
	}

	if _, err := fs.ModTime("sample.json"); err != nil {
		t.Errorf("ModTime failed: %v", err)
	}
}

func TestFileStoreLoadMissing(t *testing.T) {
	fs := NewFileStore(t.TempDir())

	var v map[string]interface{}
	err := fs.LoadJSON("missing.json", &v)
	if err == nil {
		t.Fatal("expected error for missing document")
	}
	if !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestFileStoreLoadCorrupted(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileStore(dir)

	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	var v map[string]interface{}
	err := fs.LoadJSON("bad.json", &v)
	if err == nil {
		t.Fatal("expected error for corrupted document")
	}
	if os.IsNotExist(err) {
		t.Error("corrupted file should not report as missing")
	}
}

func TestFileStoreBackup(t *testing.T) {
	fs := NewFileStore(t.TempDir())

	if err := fs.SaveJSON("doc.json", map[string]int{"a": 1}); err != nil {
		t.Fatal(err)
	}
	backup, err := fs.CopyBackup("doc.json")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(backup); err != nil {
		t.Errorf("backup file missing: %v", err)
	}
}
