package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/model"

	"github.com/go-pdf/fpdf"
)

// GenerateOrderPDF writes an A4 order confirmation for a placed B2B order to
// dir/order_<number>.pdf and returns the file path. company may be nil when
// the order was loaded without it.
func GenerateOrderPDF(order *model.B2BOrder, company *model.Company, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	path := filepath.Join(dir, "order_"+safeFileName(order.OrderNumber)+".pdf")

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, "Garden Center Exotic", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, "Wholesale order confirmation", "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(contentW/2, 6, "Order "+order.OrderNumber, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW/2, 6, order.CreatedAt.Format("02.01.2006 15:04"), "", 1, "R", false, 0, "")

	if company != nil {
		pdf.CellFormat(contentW, 5, tr(company.Name), "", 1, "L", false, 0, "")
		pdf.CellFormat(contentW, 5, tr("ID "+company.IdentificationNumber), "", 1, "L", false, 0, "")
		if company.Address != "" {
			pdf.CellFormat(contentW, 5, tr(company.Address), "", 1, "L", false, 0, "")
		}
		pdf.CellFormat(contentW, 5, fmt.Sprintf("Payment terms: %d days", company.PaymentTermsDays), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	colName := contentW * 0.46
	colQty := contentW * 0.14
	colUnit := contentW * 0.20
	colTotal := contentW * 0.20

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 240, 230)
	pdf.CellFormat(colName, 7, "Product", "B", 0, "L", true, 0, "")
	pdf.CellFormat(colQty, 7, "Qty", "B", 0, "C", true, 0, "")
	pdf.CellFormat(colUnit, 7, "Unit price", "B", 0, "R", true, 0, "")
	pdf.CellFormat(colTotal, 7, "Total", "B", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, it := range order.Items {
		name := it.ProductName
		if len(name) > 48 {
			name = name[:47] + "..."
		}
		pdf.CellFormat(colName, 6, tr(name), "", 0, "L", false, 0, "")
		pdf.CellFormat(colQty, 6, fmt.Sprintf("%d %s", it.Quantity, it.PriceUnit), "", 0, "C", false, 0, "")
		pdf.CellFormat(colUnit, 6, it.UnitPrice.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(colTotal, 6, it.TotalPrice.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(2)

	labelW := colName + colQty + colUnit
	pdf.CellFormat(labelW, 6, "Subtotal", "", 0, "R", false, 0, "")
	pdf.CellFormat(colTotal, 6, order.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")
	if !order.DiscountAmount.IsZero() {
		pdf.CellFormat(labelW, 6, "Discount ("+order.DiscountPercent.String()+"%)", "", 0, "R", false, 0, "")
		pdf.CellFormat(colTotal, 6, "-"+order.DiscountAmount.StringFixed(2), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(labelW, 8, "Total", "", 0, "R", false, 0, "")
	pdf.CellFormat(colTotal, 8, order.TotalAmount.StringFixed(2), "", 1, "R", false, 0, "")

	if order.Notes != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(contentW, 5, tr("Notes: "+order.Notes), "", "L", false)
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return path, nil
}

func safeFileName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}
