package export

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// WritePDF renders a landscape A4 report: title block, period list,
// financing summary and the monthly table, repeating the header on every
// page.
func WritePDF(w io.Writer, r Report) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetAutoPageBreak(true, 12)

	headerColor := [3]int{40, 40, 40}
	headerTextColor := [3]int{255, 255, 255}
	bodyTextColor := [3]int{50, 50, 50}
	lineColor := [3]int{200, 200, 200}
	negativeColor := [3]int{192, 0, 0}

	const pageWidth = 277.0
	widths := []float64{25, 31, 31, 31, 31, 32, 32, 32, 32}

	pdf.AddPage()

	title := r.Title
	if title == "" {
		title = "Long-term projection"
	}
	pdf.SetFillColor(headerColor[0], headerColor[1], headerColor[2])
	pdf.SetTextColor(headerTextColor[0], headerTextColor[1], headerTextColor[2])
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 12, tr("  "+title), "", 1, "L", true, 0, "")

	generated := r.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	pdf.SetFont("Arial", "", 9)
	pdf.SetFillColor(240, 240, 240)
	pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
	subtitle := "Generated on: " + generated.Format("2006-01-02 15:04")
	if r.Description != "" {
		subtitle = r.Description + " | " + subtitle
	}
	pdf.CellFormat(0, 8, tr("  "+subtitle), "", 1, "L", true, 0, "")
	pdf.Ln(4)

	section := func(name string) {
		pdf.SetFont("Arial", "B", 11)
		pdf.SetTextColor(0, 0, 0)
		pdf.Cell(0, 7, name)
		pdf.Ln(6)
		pdf.SetDrawColor(lineColor[0], lineColor[1], lineColor[2])
		pdf.Line(pdf.GetX(), pdf.GetY(), pdf.GetX()+pageWidth, pdf.GetY())
		pdf.Ln(2)
		pdf.SetFont("Arial", "", 9)
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
	}

	if len(r.Periods) > 0 {
		section("Periods")
		for _, label := range r.Periods {
			pdf.MultiCell(pageWidth, 5, tr(label), "", "L", false)
		}
		pdf.Ln(3)
	}

	if r.Projection != nil && r.Projection.Financing != nil {
		f := r.Projection.Financing
		section("Vehicle financing")
		derived := ""
		if f.InstallmentDerived {
			derived = " (derived from interest rate)"
		}
		lines := []string{
			fmt.Sprintf("Term: %s to %s (%d months)", f.StartMonth, f.EndMonth, f.TermMonths),
			fmt.Sprintf("Principal: %s   Installment: %s%s", money(f.Principal), money(f.Installment), derived),
			fmt.Sprintf("Running cost per month: %s   Total outlay: %s", money(f.RunningCost), money(f.TotalOutlay)),
		}
		for _, line := range lines {
			pdf.MultiCell(pageWidth, 5, tr(line), "", "L", false)
		}
		pdf.Ln(3)
	}

	header := func() {
		pdf.SetFont("Arial", "B", 8)
		pdf.SetFillColor(headerColor[0], headerColor[1], headerColor[2])
		pdf.SetTextColor(headerTextColor[0], headerTextColor[1], headerTextColor[2])
		for i, name := range columns {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 7, tr(name), "1", 0, align, true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
	}

	section("Monthly projection")
	rows := r.rows()
	if len(rows) == 0 {
		pdf.Cell(0, 6, "No months to project.")
	} else {
		header()
		_, pageHeight := pdf.GetPageSize()
		_, _, _, bottom := pdf.GetMargins()
		for n, row := range rows {
			if pdf.GetY()+6 > pageHeight-bottom-12 {
				pdf.AddPage()
				header()
			}
			fill := n%2 == 1
			pdf.SetFillColor(248, 248, 248)
			for i, cell := range cells(row) {
				align := "R"
				if i == 0 {
					align = "L"
				}
				if i == 4 && row.Net.IsNegative() {
					pdf.SetTextColor(negativeColor[0], negativeColor[1], negativeColor[2])
				}
				pdf.CellFormat(widths[i], 6, cell, "1", 0, align, fill, 0, "")
				pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
			}
			pdf.Ln(-1)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("error writing PDF: %w", err)
	}
	return nil
}
