// Package export renders a finished net worth snapshot as JSON, PDF or
// Markdown, and names and writes the resulting report files.
package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"networth/internal/core"
)

// Kind selects an output format.
type Kind string

const (
	KindJSON     Kind = "json"
	KindPDF      Kind = "pdf"
	KindMarkdown Kind = "md"
)

// Snapshot is the read-only input every generator consumes.
type Snapshot struct {
	Assets       core.Assets
	Liabilities  core.Liabilities
	Monthly      core.MonthlyFinancials
	Calculations core.Calculations
	Currency     core.Currency
}

// NewSnapshot builds a snapshot with freshly computed totals.
func NewSnapshot(a core.Assets, l core.Liabilities, m core.MonthlyFinancials, c core.Currency) Snapshot {
	return Snapshot{
		Assets:       a,
		Liabilities:  l,
		Monthly:      m,
		Calculations: core.Calculate(a, l, m),
		Currency:     c,
	}
}

// ParseKind accepts json, pdf, md and markdown.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "json":
		return KindJSON, nil
	case "pdf":
		return KindPDF, nil
	case "md", "markdown":
		return KindMarkdown, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// FileName returns net-worth-report-<YYYY-MM-DD>.<ext> using the UTC date.
func FileName(kind Kind, now time.Time) string {
	return fmt.Sprintf("net-worth-report-%s.%s", now.UTC().Format(time.DateOnly), kind)
}

// Write renders snap in the given format to w.
func Write(w io.Writer, kind Kind, snap Snapshot, now time.Time) error {
	switch kind {
	case KindJSON:
		return WriteJSON(w, snap, now)
	case KindPDF:
		return WritePDF(w, snap, now)
	case KindMarkdown:
		_, err := io.WriteString(w, Markdown(snap, now))
		return err
	default:
		return fmt.Errorf("unknown export format %q", kind)
	}
}

// WriteFile writes the report into dir and returns its path. A partial
// file is removed on failure.
func WriteFile(dir string, kind Kind, snap Snapshot, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, FileName(kind, now))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}

	bw := bufio.NewWriter(f)
	if err := Write(bw, kind, snap, now); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write %s report: %w", kind, err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("flush %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}
