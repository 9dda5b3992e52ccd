package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"networth/internal/core"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Markdown renders the report sections as a Markdown document.
func Markdown(snap Snapshot, now time.Time) string {
	c := snap.Calculations
	cur := snap.Currency
	var b strings.Builder

	b.WriteString("# Net Worth Report\n\n")
	fmt.Fprintf(&b, "Generated on %s\n\n", now.Format("January 2, 2006"))

	b.WriteString("## Summary\n\n")
	b.WriteString("| | |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Total Assets | %s |\n", cur.Format(c.TotalAssets))
	fmt.Fprintf(&b, "| Total Liabilities | %s |\n", cur.Format(c.TotalLiabilities))
	fmt.Fprintf(&b, "| **Net Worth** | **%s** |\n", cur.Format(c.NetWorth))
	fmt.Fprintf(&b, "| Debt-to-Asset Ratio | %d%% |\n\n",
		core.DebtToAssetRatio(c.TotalAssets, c.TotalLiabilities))

	b.WriteString("## Assets Breakdown\n\n")
	writeCategories(&b, cur, core.NonZero(core.AssetBreakdown(snap.Assets)), "No assets reported.")

	b.WriteString("## Liabilities Breakdown\n\n")
	writeCategories(&b, cur, core.NonZero(core.LiabilityBreakdown(snap.Liabilities)), "No liabilities reported.")

	if c.MonthlyIncome != 0 || c.MonthlyExpenses != 0 {
		b.WriteString("## Monthly Cash Flow\n\n")
		b.WriteString("| | |\n|---|---:|\n")
		fmt.Fprintf(&b, "| Monthly Income | %s |\n", cur.Format(c.MonthlyIncome))
		fmt.Fprintf(&b, "| Monthly Expenses | %s |\n", cur.Format(c.MonthlyExpenses))
		fmt.Fprintf(&b, "| **Cash Flow** | **%s** |\n\n", cur.Format(c.MonthlyCashFlow))
		writeCategories(&b, cur, core.NonZero(core.MonthlyBreakdown(snap.Monthly)), "")
	}

	return b.String()
}

func writeCategories(b *strings.Builder, cur core.Currency, cats []core.CategoryTotal, empty string) {
	if len(cats) == 0 {
		if empty != "" {
			b.WriteString(empty + "\n\n")
		}
		return
	}
	for _, cat := range cats {
		fmt.Fprintf(b, "### %s: %s\n\n", cat.Name, cur.Format(cat.Total))
		for _, it := range cat.Items {
			fmt.Fprintf(b, "- %s: %s\n", it.Label, cur.Format(it.Value))
		}
		b.WriteString("\n")
	}
}

// HTML renders the Markdown report as a standalone HTML page.
func HTML(snap Snapshot, now time.Time) ([]byte, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(Markdown(snap, now)), &body); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", html.EscapeString("Net Worth Report "+now.Format(time.DateOnly)))
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

// RenderTerminal styles Markdown for a terminal. An empty style picks one
// from the terminal background.
func RenderTerminal(md, style string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}
