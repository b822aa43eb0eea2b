package store

import (
	"context"
	"io"
	"regexp"
	"strings"
)

const (
	PortfolioFileName = "Portfolio_Report.pdf"
	defaultReportName = "startup"
	reportContentType = "application/pdf"
)

var whitespace = regexp.MustCompile(`\s+`)

// FillFunc writes the content of a document into w.
type FillFunc func(w io.Writer) (int64, error)

// Sink stores downloaded report documents.
type Sink interface {
	// Write stores the document produced by fill under name and returns where it was stored.
	// Nothing is left behind when fill fails.
	Write(ctx context.Context, name string, fill FillFunc) (string, error)
	Type() string
}

// ReportFileName returns the file name of the report of the named candidate.
func ReportFileName(candidateName string) string {
	name := strings.TrimSpace(candidateName)
	if name == "" {
		name = defaultReportName
	} else {
		name = whitespace.ReplaceAllString(candidateName, "_")
	}
	name = strings.NewReplacer("/", "_", "\\", "_").Replace(name)
	return name + "_Report.pdf"
}
