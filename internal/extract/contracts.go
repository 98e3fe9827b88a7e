package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ladi-press/manuscript-eval/constants"
)

// MinManuscriptChars is the minimum number of meaningful (trimmed)
// characters an extraction must yield before evaluation may proceed.
const MinManuscriptChars = 50

// Extractor converts a document byte source of one known format into
// plain text plus descriptive metadata. Implementations read the source
// fully and never write files.
type Extractor interface {
	Extract(ctx context.Context, src io.Reader) (Result, error)
}

// Result is the extractor output: the manuscript text and what we know
// about the document it came from.
type Result struct {
	Text     string   `json:"text_content"`
	Metadata Metadata `json:"metadata"`
}

// Metadata describes the source document. Pages is the page count for PDF
// and an estimate (words/250, minimum 1) for DOCX; Sheets and TotalCells
// are populated only by the spreadsheet variant.
type Metadata struct {
	FileSize   int64       `json:"file_size"`
	WordCount  int         `json:"word_count"`
	CharCount  int         `json:"char_count"`
	Pages      int         `json:"pages,omitempty"`
	Sheets     []SheetInfo `json:"sheets,omitempty"`
	TotalCells int         `json:"total_cells,omitempty"`
	Title      string      `json:"title,omitempty"`
	Author     string      `json:"author,omitempty"`
}

// SheetInfo is the per-sheet shape of a spreadsheet source. Cells counts
// the used range (rows x columns), not the non-empty cells.
type SheetInfo struct {
	Name    string `json:"name"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
	Cells   int    `json:"cells"`
}

// ExtractionError means the document could not be opened or parsed, or
// yielded insufficient text. Fatal for the job; raised before any model
// call is made.
type ExtractionError struct {
	Format constants.FileFormat
	Reason string
	Cause  error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction failed (%s): %s: %v", e.Format, e.Reason, e.Cause)
	}
	return fmt.Sprintf("extraction failed (%s): %s", e.Format, e.Reason)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// NewExtractionError builds an ExtractionError.
func NewExtractionError(format constants.FileFormat, reason string, cause error) *ExtractionError {
	return &ExtractionError{Format: format, Reason: reason, Cause: cause}
}

// CheckSufficientText gates evaluation on extraction quality: fewer than
// MinManuscriptChars trimmed characters is an extraction failure, not an
// evaluation failure.
func CheckSufficientText(format constants.FileFormat, text string) error {
	if len(strings.TrimSpace(text)) < MinManuscriptChars {
		return NewExtractionError(format, "could not extract sufficient text from the file", nil)
	}
	return nil
}

// ForFormat returns the extractor variant for the given format tag.
func ForFormat(format constants.FileFormat, logger *slog.Logger) (Extractor, error) {
	switch format {
	case constants.FormatPDF:
		return NewPDFExtractor(logger), nil
	case constants.FormatDOCX:
		return NewDOCXExtractor(logger), nil
	case constants.FormatSpreadsheet:
		return NewSpreadsheetExtractor(logger), nil
	default:
		return nil, fmt.Errorf("no extractor for format %q", format)
	}
}

// SheetMarkerPrefix starts every sheet boundary line in spreadsheet
// extractions. The template prompt resolver splits on it.
const SheetMarkerPrefix = "=== SHEET:"

// SheetMarker formats the boundary line for one sheet.
func SheetMarker(name string) string {
	return fmt.Sprintf("%s %s ===", SheetMarkerPrefix, name)
}
