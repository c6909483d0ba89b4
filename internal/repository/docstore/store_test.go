package docstore

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docrag/internal/domain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func writeDOCX(t *testing.T, dir, name string, paragraphs ...string) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("create docx: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		b.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	b.WriteString(`</w:body></w:document>`)

	if _, err := w.Write([]byte(b.String())); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
}

func newTestStore(t *testing.T, dir string) *Store {
	t.Helper()
	return New(Config{Dir: dir, Logger: zap.NewNop()})
}

func TestEnsureDir_CreatesAndIsIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "documents")
	s := newTestStore(t, dir)

	for range 2 {
		if err := s.EnsureDir(); err != nil {
			t.Fatalf("EnsureDir: %v", err)
		}
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("expected directory to exist, err=%v", err)
	}
}

func TestEnsureDir_Unavailable(t *testing.T) {
	base := t.TempDir()
	blocker := writeFile(t, base, "blocker", "x")
	s := newTestStore(t, filepath.Join(blocker, "documents"))

	if err := s.EnsureDir(); !errors.Is(err, domain.ErrDirectoryUnavailable) {
		t.Fatalf("expected ErrDirectoryUnavailable, got %v", err)
	}
}

func TestFiles_FiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.md", "# B")
	writeFile(t, dir, "a.txt", "A")
	writeFile(t, dir, ".hidden.txt", "secret")
	writeFile(t, dir, "image.png", "png")
	writeFile(t, dir, "legacy.doc", "old")
	writeFile(t, dir, "UPPER.TXT", "upper")
	if err := os.Mkdir(filepath.Join(dir, "sub.txt"), 0o750); err != nil {
		t.Fatal(err)
	}

	s := newTestStore(t, dir)
	files, err := s.Files(context.Background())
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	want := []string{"UPPER.TXT", "a.txt", "b.md"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, names)
	}
	if files[1].Size != 1 || files[1].Path != filepath.Join(dir, "a.txt") {
		t.Errorf("unexpected file info %+v", files[1])
	}
}

func TestFiles_SkipsOversized(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "big.txt", strings.Repeat("x", 64))
	writeFile(t, dir, "small.txt", "ok")

	s := New(Config{Dir: dir, MaxFileBytes: 16, Logger: zap.NewNop()})
	files, err := s.Files(context.Background())
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(files) != 1 || files[0].Name != "small.txt" {
		t.Errorf("expected only small.txt, got %+v", files)
	}
}

func TestList_EmptyCorpus(t *testing.T) {
	s := newTestStore(t, t.TempDir())

	_, err := s.List(context.Background())
	if !errors.Is(err, domain.ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus, got %v", err)
	}
}

func TestList_OnlyUnreadableFilesIsEmptyCorpus(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "blank.txt", "   \n\t")
	writeFile(t, dir, "broken.pdf", "not a pdf")

	_, err := newTestStore(t, dir).List(context.Background())
	if !errors.Is(err, domain.ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus, got %v", err)
	}
}

func TestList_LoadsTextAndDOCX(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "1699999999-ab12cd34-report.txt", "Revenue grew. Costs fell.")
	writeDOCX(t, dir, "notes.docx", "First paragraph.", "Second paragraph.")
	writeFile(t, dir, "broken.pdf", "not a pdf")

	docs, err := newTestStore(t, dir).List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents (broken pdf skipped), got %d", len(docs))
	}

	if docs[0].DisplayName() != "report.txt" {
		t.Errorf("expected cleaned name report.txt, got %q", docs[0].DisplayName())
	}
	if docs[0].Text() != "Revenue grew. Costs fell." {
		t.Errorf("unexpected text %q", docs[0].Text())
	}
	if docs[0].Page() != "" {
		t.Errorf("plain text must have no page label, got %q", docs[0].Page())
	}

	if docs[1].Text() != "First paragraph.\nSecond paragraph." {
		t.Errorf("unexpected docx text %q", docs[1].Text())
	}
}

func TestList_ReplacesInvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "latin1.txt", "caf\xe9 au lait")

	docs, err := newTestStore(t, dir).List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !strings.Contains(docs[0].Text(), "caf") || !strings.Contains(docs[0].Text(), "au lait") {
		t.Errorf("unexpected text %q", docs[0].Text())
	}
}

func TestReload_SeesNewFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "Alpha.")
	s := newTestStore(t, dir)

	docs, err := s.List(context.Background())
	if err != nil || len(docs) != 1 {
		t.Fatalf("List: %d docs, err=%v", len(docs), err)
	}

	writeFile(t, dir, "b.txt", "Beta.")
	docs, err = s.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("expected 2 documents after reload, got %d", len(docs))
	}
}

func TestParseDocumentXML_Invalid(t *testing.T) {
	if _, err := parseDocumentXML([]byte("<w:document><unclosed>")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadPDF_Corrupt(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.pdf", "%PDF-1.4\ngarbage")
	if _, err := loadPDF(path); err == nil {
		t.Fatal("expected error for corrupt pdf")
	}
}
