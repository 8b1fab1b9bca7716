package extract

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dslipak/pdf"
	"github.com/xxxsen/common/logutil"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"go.uber.org/zap"
)

// MaxFileSize caps what we are willing to run through an extractor.
const MaxFileSize = 50 * 1024 * 1024

var ErrUnsupportedType = fmt.Errorf("unsupported file type")

var plainExtensions = map[string]struct{}{
	".txt": {}, ".log": {}, ".csv": {}, ".json": {}, ".yaml": {}, ".yml": {},
	".toml": {}, ".ini": {}, ".xml": {}, ".html": {},
	".go": {}, ".py": {}, ".js": {}, ".ts": {}, ".tsx": {}, ".jsx": {},
	".java": {}, ".c": {}, ".h": {}, ".cpp": {}, ".hpp": {}, ".rs": {},
	".rb": {}, ".php": {}, ".sh": {}, ".sql": {}, ".proto": {},
}

// Extract turns a stored document into plain text ready for chunking.
// Markdown keeps headings and fenced code so the chunker can key off them;
// PDFs go through a pure-Go text extractor; code and plain text pass
// through verbatim.
func Extract(ctx context.Context, filename string, data []byte) (string, error) {
	if len(data) > MaxFileSize {
		return "", fmt.Errorf("file %s exceeds size limit", filename)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case ext == ".pdf":
		return extractPDF(ctx, filename, data)
	case ext == ".md" || ext == ".markdown":
		return extractMarkdown(data), nil
	default:
		if _, ok := plainExtensions[ext]; ok {
			return string(data), nil
		}
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
}

func extractPDF(ctx context.Context, filename string, data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", err
	}
	logutil.GetLogger(ctx).Debug("extracted pdf text",
		zap.String("filename", filename), zap.Int("bytes", buf.Len()))
	return buf.String(), nil
}

// extractMarkdown walks the goldmark AST and rebuilds a plain-text view
// with paragraph boundaries the chunker understands.
func extractMarkdown(data []byte) string {
	md := goldmark.New()
	reader := text.NewReader(data)
	doc := md.Parser().Parse(reader)

	var sb strings.Builder
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Heading:
			sb.WriteString(strings.Repeat("#", n.Level))
			sb.WriteString(" ")
			sb.WriteString(string(n.Text(data)))
			sb.WriteString("\n\n")
		case *ast.FencedCodeBlock:
			lang := string(n.Language(data))
			sb.WriteString("```" + lang + "\n")
			for i := 0; i < n.Lines().Len(); i++ {
				line := n.Lines().At(i)
				sb.Write(line.Value(data))
			}
			sb.WriteString("```\n\n")
		default:
			txt := nodeText(node, data)
			if txt == "" {
				continue
			}
			sb.WriteString(txt)
			sb.WriteString("\n\n")
		}
	}
	return strings.TrimSpace(sb.String())
}

func nodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Type() == ast.TypeBlock || node.Type() == ast.TypeInline {
			if node.Kind() == ast.KindText {
				sb.Write(node.(*ast.Text).Segment.Value(source))
				if node.(*ast.Text).HardLineBreak() || node.(*ast.Text).SoftLineBreak() {
					sb.WriteString(" ")
				}
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
