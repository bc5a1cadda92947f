package shoppinglist

import (
	_ "embed"
	"io"

	"github.com/go-pdf/fpdf"
)

const pdfFont = "DejaVu"

var (
	//go:embed fonts/DejaVuSansCondensed.ttf
	dejaVuRegular []byte
	//go:embed fonts/DejaVuSansCondensed-Bold.ttf
	dejaVuBold []byte
)

// PDFFormatter renders the same lines as TextFormatter on A4 pages.
type PDFFormatter struct{}

func (PDFFormatter) ContentType() string { return "application/pdf" }

func (PDFFormatter) Extension() string { return "pdf" }

func (PDFFormatter) Write(w io.Writer, l *List) error {
	return renderPDF(l).Output(w)
}

// renderPDF lays out the document with an embedded UTF-8 font, so ingredient
// names outside Latin-1 keep their glyphs.
func renderPDF(l *List) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Shopping list", true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddUTF8FontFromBytes(pdfFont, "", dejaVuRegular)
	pdf.AddUTF8FontFromBytes(pdfFont, "B", dejaVuBold)

	pdf.AddPage()
	pdf.SetFont(pdfFont, "B", 16)
	pdf.CellFormat(0, 12, "Shopping list", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont(pdfFont, "", 12)
	for _, line := range l.Lines() {
		pdf.CellFormat(0, 8, line, "", 1, "L", false, 0, "")
	}
	return pdf
}
