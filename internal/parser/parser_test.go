package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"document-qa/internal/config"
	"document-qa/internal/models"

	"github.com/tmc/langchaingo/schema"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadDocument_Text(t *testing.T) {
	path := writeFile(t, "notes.txt", "The Xbox Series X has 16GB of memory.")
	docs, err := LoadDocument(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d docs, want 1", len(docs))
	}
	if docs[0].Metadata[models.MetaSource] != path {
		t.Errorf("source = %v, want %s", docs[0].Metadata[models.MetaSource], path)
	}
	if !strings.Contains(docs[0].PageContent, "16GB") {
		t.Errorf("content = %q", docs[0].PageContent)
	}
}

func TestLoadDocument_EmptyTextDropped(t *testing.T) {
	path := writeFile(t, "empty.txt", "   \n\t")
	docs, err := LoadDocument(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("got %d docs, want 0", len(docs))
	}
}

func TestLoadDocument_Markdown(t *testing.T) {
	path := writeFile(t, "guide.md", "# Setup\n\nPlug the **console** in.\nThen power it on.\n\n```\ncode line\n```\n")
	docs, err := LoadDocument(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d docs, want 1", len(docs))
	}
	got := docs[0].PageContent
	for _, want := range []string{"Setup", "Plug the console in.", "Then power it on.", "code line"} {
		if !strings.Contains(got, want) {
			t.Errorf("markdown text %q missing %q", got, want)
		}
	}
	if strings.Contains(got, "**") || strings.Contains(got, "#") {
		t.Errorf("markup leaked into %q", got)
	}
}

func TestLoadDocument_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "specs.xlsx")
	f := excelize.NewFile()
	_ = f.SetCellValue("Sheet1", "A1", "cpu")
	_ = f.SetCellValue("Sheet1", "B1", "8 cores")
	if _, err := f.NewSheet("Empty"); err != nil {
		t.Fatalf("NewSheet: %v", err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	_ = f.Close()

	docs, err := LoadDocument(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d docs, want 2 (one per sheet)", len(docs))
	}
	if !strings.Contains(docs[0].PageContent, "cpu\t8 cores") {
		t.Errorf("sheet content = %q", docs[0].PageContent)
	}
	if docs[0].Metadata[models.MetaPage] != 1 {
		t.Errorf("page = %v, want 1", docs[0].Metadata[models.MetaPage])
	}
}

func TestLoadDocument_Errors(t *testing.T) {
	_, err := LoadDocument(context.Background(), "image.png")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("png: err = %v, want ErrUnsupportedFormat", err)
	}

	_, err = LoadDocument(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	if err == nil {
		t.Error("missing pdf: expected error")
	}

	bogus := writeFile(t, "bogus.pdf", "this is not a pdf")
	if _, err := LoadDocument(context.Background(), bogus); err == nil {
		t.Error("bogus pdf: expected error")
	}
}

func TestExtractTextFromXML(t *testing.T) {
	xml := `<w:document><w:body>` +
		`<w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:tab/><w:t xml:space="preserve"> world &amp; more</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t/></w:r></w:p>` +
		`<w:p><w:tbl><w:tr><w:tc><w:p><w:r><w:t>Cell</w:t></w:r></w:p></w:tc></w:tr></w:tbl></w:p>` +
		`</w:body></w:document>`
	got := extractTextFromXML(xml, "w:t", "</w:p>")
	want := "Hello world & more\nCell"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSplitDocuments(t *testing.T) {
	long := strings.Repeat("The console ships with a controller. ", 200)
	docs := []schema.Document{
		{PageContent: long, Metadata: map[string]any{models.MetaSource: "xbox.pdf", models.MetaPage: 3}},
		{PageContent: "Short transcript text", Metadata: map[string]any{models.MetaSource: "abc123"}},
		{PageContent: "   ", Metadata: map[string]any{models.MetaSource: "blank"}},
	}
	cfg := config.Default().RAG

	chunks, err := SplitDocuments(NewSplitter(&cfg), docs)
	if err != nil {
		t.Fatalf("SplitDocuments: %v", err)
	}
	if len(chunks) < 3 {
		t.Fatalf("got %d chunks, want the long page split plus the short one", len(chunks))
	}

	last := chunks[len(chunks)-1]
	if last.Source != "abc123" || last.Content != "Short transcript text" || last.ChunkID != 1 || last.PageNumber != 0 {
		t.Errorf("unexpected transcript chunk: %+v", last)
	}

	for i, c := range chunks[:len(chunks)-1] {
		if c.Source != "xbox.pdf" || c.PageNumber != 3 {
			t.Errorf("chunk %d lost metadata: %+v", i, c)
		}
		if c.ChunkID != i+1 {
			t.Errorf("chunk %d has ChunkID %d", i, c.ChunkID)
		}
		if n := utf8.RuneCountInString(c.Content); n > cfg.ChunkSize {
			t.Errorf("chunk %d is %d runes, limit %d", i, n, cfg.ChunkSize)
		}
	}
}

func TestNewSplitter_NilConfig(t *testing.T) {
	parts, err := NewSplitter(nil).SplitText("hello world")
	if err != nil {
		t.Fatalf("SplitText: %v", err)
	}
	if len(parts) != 1 || parts[0] != "hello world" {
		t.Errorf("parts = %q", parts)
	}
}

// buildPDF renders one page per entry with a WinAnsi Helvetica font. An empty
// entry produces a page with no text.
func buildPDF(pages ...string) []byte {
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	for i, text := range pages {
		content := "BT ET"
		if text != "" {
			content = fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		}
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func TestLoadDocument_PDF(t *testing.T) {
	path := writeFile(t, "xbox.pdf", string(buildPDF("The Xbox Series X has 12 teraflops.", "", "Quick Resume keeps games suspended.")))

	docs, err := LoadDocument(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2 (blank page dropped): %+v", len(docs), docs)
	}

	wants := []struct {
		page int
		text string
	}{
		{1, "12 teraflops"},
		{3, "Quick Resume"},
	}
	for i, want := range wants {
		if got := docs[i].Metadata[models.MetaPage]; got != want.page {
			t.Errorf("doc %d page = %v, want %d", i, got, want.page)
		}
		if got := docs[i].Metadata[models.MetaSource]; got != path {
			t.Errorf("doc %d source = %v, want %s", i, got, path)
		}
		if !strings.Contains(docs[i].PageContent, want.text) {
			t.Errorf("doc %d content = %q, want it to contain %q", i, docs[i].PageContent, want.text)
		}
	}
}

func TestLoadDocument_TruncatedPDF(t *testing.T) {
	full := buildPDF("page one", "page two")
	path := writeFile(t, "truncated.pdf", string(full[:len(full)/2]))

	if _, err := LoadDocument(context.Background(), path); err == nil {
		t.Fatal("expected an error for a truncated pdf")
	}
}

func writeDOCX(t *testing.T, name, documentXML string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"word/document.xml":            documentXML,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
	}
	for fname, body := range files {
		w, err := zw.Create(fname)
		if err != nil {
			t.Fatalf("zip create %s: %v", fname, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write %s: %v", fname, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return writeFile(t, name, buf.String())
}

func TestLoadDocument_DOCX(t *testing.T) {
	path := writeDOCX(t, "review.docx", `<?xml version="1.0" encoding="UTF-8"?>`+
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`+
		`<w:p><w:r><w:t>The controller</w:t></w:r><w:r><w:t xml:space="preserve"> feels solid.</w:t></w:r></w:p>`+
		`<w:p><w:r><w:t>Storage &amp; speed</w:t></w:r></w:p>`+
		`</w:body></w:document>`)

	docs, err := LoadDocument(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d documents, want 1", len(docs))
	}
	if want := "The controller feels solid.\nStorage & speed"; docs[0].PageContent != want {
		t.Errorf("content = %q, want %q", docs[0].PageContent, want)
	}
	if docs[0].Metadata[models.MetaSource] != path || docs[0].Metadata[models.MetaPage] != 1 {
		t.Errorf("metadata = %v", docs[0].Metadata)
	}

	broken := writeFile(t, "broken.docx", "PK not really a zip")
	if _, err := LoadDocument(context.Background(), broken); err == nil {
		t.Error("broken docx: expected error")
	}
}
