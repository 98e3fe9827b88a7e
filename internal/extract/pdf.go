package extract

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gen2brain/go-fitz"

	"github.com/ladi-press/manuscript-eval/constants"
)

// PDFExtractor extracts the text layer of a PDF page by page. Pages that
// fail to render are logged and skipped; only a document that cannot be
// opened at all fails the extraction.
type PDFExtractor struct {
	logger *slog.Logger
}

func NewPDFExtractor(logger *slog.Logger) *PDFExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFExtractor{logger: logger}
}

func (e *PDFExtractor) Extract(ctx context.Context, src io.Reader) (Result, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return Result{}, NewExtractionError(constants.FormatPDF, "context done", err)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return Result{}, NewExtractionError(constants.FormatPDF, "read source", err)
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return Result{}, NewExtractionError(constants.FormatPDF, "open document", err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	var sb strings.Builder
	failed := 0
	for n := 0; n < pages; n++ {
		pageText, err := doc.Text(n)
		if err != nil {
			failed++
			e.logger.Warn("extract.pdf.page_failed", "page", n+1, "error", err)
			continue
		}
		if strings.TrimSpace(pageText) != "" {
			sb.WriteString(pageText)
			sb.WriteString("\n")
		}
	}

	text := strings.TrimSpace(sb.String())
	meta := Metadata{
		FileSize:  int64(len(data)),
		WordCount: len(strings.Fields(text)),
		CharCount: len(text),
		Pages:     pages,
	}
	if md := doc.Metadata(); md != nil {
		meta.Title = strings.TrimSpace(md["title"])
		meta.Author = strings.TrimSpace(md["author"])
	}

	e.logger.Info("extract.pdf.ok",
		"pages", pages,
		"pages_failed", failed,
		"words", meta.WordCount,
		"chars", meta.CharCount,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Result{Text: text, Metadata: meta}, nil
}
