// Package export implements ExportRenderer and ExportReaper
// (SPEC_FULL.md §4.7, §4.8): deterministic PDF/DOCX rendering of a
// SummaryBlob, and periodic cleanup of stale export files.
//
// Grounded on original_source/apps/api/pdf_generator.py and docx_generator.py
// (title page / per-question section / forced-page-break layout) and
// apps/api/views.py's export_meeting (validate-then-render flow, filename
// convention). The PDF/DOCX libraries themselves (go-pdf/fpdf,
// fumiama/go-docx) are not present anywhere in the retrieved pack; see
// DESIGN.md for why real ecosystem libraries were picked over a hand-rolled
// byte layout.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/meetingspace/api/internal/errors"
	"github.com/meetingspace/api/internal/llm"
	"github.com/meetingspace/api/internal/models"
)

// Format is one of the two renderer targets SPEC_FULL.md §4.7 names.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// Renderer renders a validated SummaryBlob to the configured export root.
type Renderer struct {
	exportRoot string
	urlPrefix  string // e.g. "/download" — download URL is urlPrefix/filename
}

// New constructs a Renderer. exportRoot must already exist and be writable.
func New(exportRoot, urlPrefix string) *Renderer {
	return &Renderer{exportRoot: exportRoot, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}
}

// Filename implements SPEC_FULL.md §6's export file naming convention.
func Filename(meetingID string, format Format) string {
	return fmt.Sprintf("meeting_%s.%s", meetingID, format)
}

// Render validates the blob per SummaryOrchestrator's rules and dispatches
// to the matching format renderer (SPEC_FULL.md §4.7 common contract).
// Returns (false, "") on any validation failure, never an error — matching
// the original boolean-success contract ExportRenderer exposes to callers.
func (r *Renderer) Render(blob models.SummaryBlob, meetingID string, format Format) (bool, string) {
	if err := llm.Validate(blob); err != nil {
		return false, ""
	}

	filename := Filename(meetingID, format)
	path := filepath.Join(r.exportRoot, filename)

	var err error
	switch format {
	case FormatPDF:
		err = renderPDF(blob, path)
	case FormatDOCX:
		err = renderDOCX(blob, path)
	default:
		return false, ""
	}
	if err != nil {
		return false, ""
	}
	return true, r.urlPrefix + "/" + filename
}

// ExportRoot exposes the configured directory, used by the download handler
// to resolve a filename safely.
func (r *Renderer) ExportRoot() string { return r.exportRoot }

// ResolveDownloadPath joins filename onto the export root, rejecting any
// path-traversal attempt a crafted filename might carry.
func ResolveDownloadPath(exportRoot, filename string) (string, error) {
	clean := filepath.Base(filename)
	if clean != filename || clean == "." || clean == ".." {
		return "", apperrors.BadRequest("invalid filename")
	}
	path := filepath.Join(exportRoot, clean)
	if _, err := os.Stat(path); err != nil {
		return "", apperrors.NotFound("export file")
	}
	return path, nil
}
