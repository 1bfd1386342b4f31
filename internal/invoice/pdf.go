package invoice

import (
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// The core PDF fonts are cp1252 and have no rupee glyph.
const pdfCurrency = "INR "

func writePDF(path string, v view) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	money := func(d decimal.Decimal) string { return pdfCurrency + d.StringFixed(2) }

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "INVOICE", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	line := func(s string) {
		pdf.CellFormat(0, 6, tr(s), "", 1, "L", false, 0, "")
	}
	line("Date: " + v.Date)
	pdf.Ln(4)
	line(fmt.Sprintf("To: %s (ID: %d)", v.Company.Name, v.Company.ID))
	line("Phone: " + v.Company.Phone)
	line("Email: " + v.Company.Email)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(80, 7, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(20, 7, "Qty", "B", 0, "R", false, 0, "")
	pdf.CellFormat(40, 7, "Unit price", "B", 0, "R", false, 0, "")
	pdf.CellFormat(40, 7, "Amount", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	for _, it := range v.Items {
		pdf.CellFormat(80, 6, tr(it.Name), "", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprint(it.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, money(it.Price), "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, money(it.LineTotal()), "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	totals := []struct {
		label  string
		amount decimal.Decimal
	}{
		{"Subtotal", v.Subtotal},
		{"CGST", v.CGST},
		{"SGST", v.SGST},
		{"Total", v.Total},
	}
	for i, t := range totals {
		if i == len(totals)-1 {
			pdf.SetFont("Helvetica", "B", 11)
		}
		pdf.CellFormat(140, 6, t.label, "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, money(t.amount), "", 1, "R", false, 0, "")
	}

	return pdf.OutputFileAndClose(path)
}
