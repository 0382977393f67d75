package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/noah-isme/retail-pos/internal/bill"
)

// PDF column widths in millimetres. Two identical halves side by side on
// an A4 portrait page.
const (
	pdfSerialWidth = 12.0
	pdfNameWidth   = 53.0
	pdfQtyWidth    = 25.0
	pdfRowHeight   = 8.0
	pdfColumnGap   = 10.0
)

// PDFRenderer writes one PDF page per bill page.
type PDFRenderer struct {
	// FontPath points to a Unicode TTF covering Devanagari. When empty the
	// renderer falls back to a core font and localized names degrade.
	FontPath string
	FontName string
}

func (r PDFRenderer) Render(w io.Writer, header Header, pages []bill.Page) error {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetAutoPageBreak(false, 10)

	font := "Helvetica"
	if r.FontPath != "" {
		font = r.fontName()
		doc.AddUTF8Font(font, "", r.FontPath)
	}

	for i, page := range pages {
		doc.AddPage()
		r.drawHeader(doc, font, header, i+1, len(pages))
		r.drawTable(doc, font, page)
	}
	return doc.Output(w)
}

func (r PDFRenderer) fontName() string {
	if r.FontName != "" {
		return r.FontName
	}
	return "billfont"
}

func (r PDFRenderer) drawHeader(doc *fpdf.Fpdf, font string, header Header, pageNo, pageCount int) {
	doc.SetFont(font, "", 12)
	doc.SetXY(10, 10)
	doc.CellFormat(130, 6, header.DisplayName(), "", 0, "L", false, 0, "")
	doc.CellFormat(60, 6, fmt.Sprintf("Page %d/%d", pageNo, pageCount), "", 1, "R", false, 0, "")

	doc.SetFont(font, "", 10)
	doc.SetX(10)
	secondLine := header.Mobile
	if header.DeliveryDate != "" {
		if secondLine != "" {
			secondLine += "  "
		}
		secondLine += header.DeliveryDate
		if header.DeliveryTime != "" {
			secondLine += " " + header.DeliveryTime
		}
	}
	doc.CellFormat(190, 5, secondLine, "", 1, "L", false, 0, "")
	doc.Ln(3)
}

func (r PDFRenderer) drawTable(doc *fpdf.Fpdf, font string, page bill.Page) {
	doc.SetFont(font, "", 10)
	top := doc.GetY()
	leftX := 10.0
	rightX := leftX + pdfSerialWidth + pdfNameWidth + pdfQtyWidth + pdfColumnGap

	r.drawColumn(doc, leftX, top, page.Left)
	r.drawColumn(doc, rightX, top, page.Right)
}

func (r PDFRenderer) drawColumn(doc *fpdf.Fpdf, x, y float64, cells []bill.Cell) {
	for i, cell := range cells {
		rowY := y + float64(i)*pdfRowHeight
		doc.SetXY(x, rowY)
		doc.CellFormat(pdfSerialWidth, pdfRowHeight, cell.Serial, "1", 0, "C", false, 0, "")
		doc.CellFormat(pdfNameWidth, pdfRowHeight, r.fit(doc, cell.Name, pdfNameWidth-2), "1", 0, "L", false, 0, "")
		doc.CellFormat(pdfQtyWidth, pdfRowHeight, cell.Quantity, "1", 0, "C", false, 0, "")
	}
}

// fit ellipsizes text that would overflow the name column.
func (r PDFRenderer) fit(doc *fpdf.Fpdf, text string, width float64) string {
	if doc.GetStringWidth(text) <= width {
		return text
	}
	runes := []rune(text)
	for len(runes) > 1 {
		runes = runes[:len(runes)-1]
		candidate := strings.TrimRight(string(runes), " ") + "…"
		if doc.GetStringWidth(candidate) <= width {
			return candidate
		}
	}
	return "…"
}
