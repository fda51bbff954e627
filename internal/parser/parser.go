package parser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"document-qa/internal/models"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var ErrUnsupportedFormat = errors.New("unsupported file format")

// LoadDocument reads a local file into one schema.Document per page (pdf),
// sheet (xlsx) or whole file (docx, md, txt). Every document carries the
// file path as its source; empty pages are dropped.
func LoadDocument(ctx context.Context, filePath string) ([]schema.Document, error) {
	var (
		docs []schema.Document
		err  error
	)

	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".pdf":
		docs, err = parsePDF(filePath)
	case ".docx":
		docs, err = parseDOCX(filePath)
	case ".xlsx":
		docs, err = parseXLSX(filePath)
	case ".md", ".markdown":
		docs, err = parseMarkdown(filePath)
	case ".txt":
		docs, err = parseText(ctx, filePath)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", filePath, err)
	}

	out := docs[:0]
	for _, d := range docs {
		if strings.TrimSpace(d.PageContent) == "" {
			continue
		}
		if d.Metadata == nil {
			d.Metadata = map[string]any{}
		}
		d.Metadata[models.MetaSource] = filePath
		out = append(out, d)
	}
	log.Debug().Str("file", filePath).Int("documents", len(out)).Msg("Loaded document")
	return out, nil
}

func parsePDF(filePath string) ([]schema.Document, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, err
	}

	var docs []schema.Document
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		docs = append(docs, schema.Document{
			PageContent: pageText,
			Metadata:    map[string]any{models.MetaPage: i},
		})
	}
	return docs, nil
}

func parseDOCX(filePath string) ([]schema.Document, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	content := extractTextFromXML(r.Editable().GetContent(), "w:t", "</w:p>")
	return []schema.Document{{PageContent: content, Metadata: map[string]any{models.MetaPage: 1}}}, nil
}

func parseXLSX(filePath string) ([]schema.Document, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var docs []schema.Document
	for sheetNum, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			log.Warn().Err(err).Str("sheet", sheetName).Msg("Skipping unreadable sheet")
			continue
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Sheet: %s\n", sheetName)
		for _, row := range rows {
			b.WriteString(strings.Join(row, "\t"))
			b.WriteString("\n")
		}
		docs = append(docs, schema.Document{
			PageContent: b.String(),
			Metadata:    map[string]any{models.MetaPage: sheetNum + 1},
		})
	}
	return docs, nil
}

func parseMarkdown(filePath string) ([]schema.Document, error) {
	src, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return []schema.Document{{PageContent: markdownToText(src), Metadata: map[string]any{}}}, nil
}

func parseText(ctx context.Context, filePath string) ([]schema.Document, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return documentloaders.NewText(f).Load(ctx)
}

// markdownToText renders the text content of a markdown file, one line per block.
func markdownToText(src []byte) string {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				b.Write(node.Segment.Value(src))
				if node.SoftLineBreak() || node.HardLineBreak() {
					b.WriteByte(' ')
				}
			}
			return ast.WalkContinue, nil
		case *ast.String:
			if entering {
				b.Write(node.Value)
			}
			return ast.WalkContinue, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					b.Write(seg.Value(src))
				}
			}
		}
		if !entering && n.Type() == ast.TypeBlock {
			b.WriteByte('\n')
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// extractTextFromXML pulls the character data of every <tag> element, writing
// a newline wherever breakAfter occurs.
func extractTextFromXML(xmlContent, tag, breakAfter string) string {
	var b strings.Builder
	for _, block := range strings.SplitAfter(xmlContent, breakAfter) {
		var line strings.Builder
		rest := block
		for {
			start := strings.Index(rest, "<"+tag)
			if start < 0 {
				break
			}
			rest = rest[start+len(tag)+1:]
			// skip <w:tab/>-style siblings that only share the prefix
			if rest == "" || (rest[0] != '>' && rest[0] != ' ') {
				continue
			}
			open := strings.IndexByte(rest, '>')
			if open < 0 || (open > 0 && rest[open-1] == '/') {
				continue
			}
			rest = rest[open+1:]
			end := strings.Index(rest, "</"+tag+">")
			if end < 0 {
				break
			}
			line.WriteString(rest[:end])
			rest = rest[end:]
		}
		if s := strings.TrimSpace(line.String()); s != "" {
			b.WriteString(s)
			b.WriteString("\n")
		}
	}
	return strings.TrimSpace(unescapeXML(b.String()))
}

var xmlEntities = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'", "&amp;", "&")

func unescapeXML(s string) string { return xmlEntities.Replace(s) }
