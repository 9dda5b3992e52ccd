package export

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"networth/internal/core"
)

const (
	pdfMargin    = 20.0
	pdfPageBreak = 220.0
	pdfFont      = "Helvetica"
)

type pdfReport struct {
	doc *fpdf.Fpdf
	tr  func(string) string
	cur core.Currency
	y   float64
}

// WritePDF renders the printable report: header, summary, asset and
// liability breakdowns and, when there is any, the monthly cash flow.
func WritePDF(w io.Writer, snap Snapshot, now time.Time) error {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle("Net Worth Report", true)
	doc.SetCreator("networth", true)
	doc.AddPage()

	r := &pdfReport{
		doc: doc,
		tr:  doc.UnicodeTranslatorFromDescriptor(""),
		cur: snap.Currency,
	}
	c := snap.Calculations

	r.text(pdfMargin, 20, "B", 20, "Net Worth Report")
	r.text(pdfMargin, 30, "", 12, "Generated on "+now.Format("1/2/2006"))
	r.y = 45

	r.heading("Summary")
	r.line(pdfMargin, "", 12, "Total Assets: "+r.money(c.TotalAssets), 8)
	r.line(pdfMargin, "", 12, "Total Liabilities: "+r.money(c.TotalLiabilities), 8)
	r.line(pdfMargin, "B", 12, "Net Worth: "+r.money(c.NetWorth), 8)
	r.line(pdfMargin, "", 12, fmt.Sprintf("Debt-to-Asset Ratio: %d%%",
		core.DebtToAssetRatio(c.TotalAssets, c.TotalLiabilities)), 15)

	r.heading("Assets Breakdown")
	r.categories(core.NonZero(core.AssetBreakdown(snap.Assets)), "No assets reported.")
	r.y += 10

	r.heading("Liabilities Breakdown")
	if c.TotalLiabilities == 0 {
		r.line(pdfMargin, "", 12, "No liabilities reported.", 10)
	} else {
		r.categories(core.NonZero(core.LiabilityBreakdown(snap.Liabilities)), "")
	}

	if c.MonthlyIncome != 0 || c.MonthlyExpenses != 0 {
		r.y += 10
		r.heading("Monthly Cash Flow")
		r.line(pdfMargin, "", 12, "Monthly Income: "+r.money(c.MonthlyIncome), 8)
		r.line(pdfMargin, "", 12, "Monthly Expenses: "+r.money(c.MonthlyExpenses), 8)
		r.line(pdfMargin, "B", 12, "Cash Flow: "+r.money(c.MonthlyCashFlow), 12)
		r.categories(core.NonZero(core.MonthlyBreakdown(snap.Monthly)), "")
	}

	if err := doc.Error(); err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}
	if err := doc.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func (r *pdfReport) categories(cats []core.CategoryTotal, empty string) {
	if len(cats) == 0 {
		if empty != "" {
			r.line(pdfMargin, "", 12, empty, 10)
		}
		return
	}
	for _, cat := range cats {
		r.breakIfNeeded()
		r.line(pdfMargin, "B", 12, cat.Name+": "+r.money(cat.Total), 7)
		for _, it := range cat.Items {
			r.breakIfNeeded()
			r.line(pdfMargin+10, "", 10, it.Label+": "+r.money(it.Value), 6)
		}
		r.y += 3
	}
}

func (r *pdfReport) heading(s string) {
	r.breakIfNeeded()
	r.line(pdfMargin, "B", 16, s, 10)
}

func (r *pdfReport) line(x float64, style string, size float64, s string, advance float64) {
	r.text(x, r.y, style, size, s)
	r.y += advance
}

func (r *pdfReport) text(x, y float64, style string, size float64, s string) {
	r.doc.SetFont(pdfFont, style, size)
	r.doc.Text(x, y, r.tr(s))
}

func (r *pdfReport) breakIfNeeded() {
	if r.y > pdfPageBreak {
		r.doc.AddPage()
		r.y = pdfMargin
	}
}

// money formats an amount for the core fonts, which cover cp1252 only.
func (r *pdfReport) money(v float64) string {
	if r.cur == core.INR {
		return "INR " + core.FormatNumber(v)
	}
	return r.cur.Format(v)
}
