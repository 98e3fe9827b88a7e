package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/ladi-press/manuscript-eval/constants"
)

// DOCXExtractor pulls the raw paragraph text out of the word/document.xml
// part of the docx container. Page count is estimated at 250 words per
// page, minimum 1.
type DOCXExtractor struct {
	logger *slog.Logger
}

func NewDOCXExtractor(logger *slog.Logger) *DOCXExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &DOCXExtractor{logger: logger}
}

const wordsPerPage = 250

func (e *DOCXExtractor) Extract(ctx context.Context, src io.Reader) (Result, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return Result{}, NewExtractionError(constants.FormatDOCX, "context done", err)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return Result{}, NewExtractionError(constants.FormatDOCX, "read source", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, NewExtractionError(constants.FormatDOCX, "open container", err)
	}

	docPart, err := openPart(zr, "word/document.xml")
	if err != nil {
		return Result{}, NewExtractionError(constants.FormatDOCX, "missing word/document.xml", err)
	}
	defer docPart.Close()

	text, err := documentText(docPart)
	if err != nil {
		return Result{}, NewExtractionError(constants.FormatDOCX, "parse document.xml", err)
	}

	words := len(strings.Fields(text))
	pages := words / wordsPerPage
	if pages < 1 {
		pages = 1
	}

	meta := Metadata{
		FileSize:  int64(len(data)),
		WordCount: words,
		CharCount: len(text),
		Pages:     pages,
	}

	e.logger.Info("extract.docx.ok",
		"words", words,
		"chars", meta.CharCount,
		"estimated_pages", pages,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Result{Text: text, Metadata: meta}, nil
}

func openPart(zr *zip.Reader, name string) (io.ReadCloser, error) {
	for _, f := range zr.File {
		if f.Name == name {
			return f.Open()
		}
	}
	return nil, errors.New("part not found")
}

// documentText walks the WordprocessingML token stream collecting run text.
// Paragraph ends and explicit breaks become newlines, tabs become tabs.
func documentText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var sb strings.Builder
	inRunText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inRunText = true
			case "tab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inRunText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inRunText {
				sb.Write(t)
			}
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
