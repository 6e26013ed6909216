package report

import (
	"codeberg.org/go-pdf/fpdf"
)

// fontFamily is the core font used for every style; core fonts need no
// embedded font files.
const fontFamily = "Arial"

// PDFSurface implements Surface on top of go-pdf/fpdf, producing an A4
// portrait document.
type PDFSurface struct {
	pdf *fpdf.Fpdf
}

// NewPDFSurface creates an empty A4 portrait document surface.
func NewPDFSurface() *PDFSurface {
	return &PDFSurface{pdf: fpdf.New("P", "mm", "A4", "")}
}

func (s *PDFSurface) SetAuthor(author string) {
	s.pdf.SetAuthor(author, false)
}

func (s *PDFSurface) SetHeaderFunc(fn func()) {
	s.pdf.SetHeaderFunc(fn)
}

func (s *PDFSurface) SetFooterFunc(fn func()) {
	s.pdf.SetFooterFunc(fn)
}

func (s *PDFSurface) AddPage() {
	s.pdf.AddPage()
}

func (s *PDFSurface) SetFont(style FontStyle, size float64) {
	s.pdf.SetFont(fontFamily, string(style), size)
}

func (s *PDFSurface) SetFillColor(r, g, b int) {
	s.pdf.SetFillColor(r, g, b)
}

func (s *PDFSurface) Cell(w, h float64, text string, border, newline bool, align Align, fill bool) {
	borderStr := ""
	if border {
		borderStr = "1"
	}
	ln := 0
	if newline {
		ln = 1
	}
	s.pdf.CellFormat(w, h, text, borderStr, ln, string(align), fill, 0, "")
}

func (s *PDFSurface) MultiCell(lineHeight float64, text string) {
	s.pdf.MultiCell(0, lineHeight, text, "", "", false)
}

func (s *PDFSurface) Ln(h float64) {
	if h <= 0 {
		// Advance by the height of the last printed cell.
		s.pdf.Ln(-1)
		return
	}
	s.pdf.Ln(h)
}

func (s *PDFSurface) SetY(y float64) {
	s.pdf.SetY(y)
}

func (s *PDFSurface) PageNo() int {
	return s.pdf.PageNo()
}

func (s *PDFSurface) ContentWidth() float64 {
	pageWidth, _ := s.pdf.GetPageSize()
	left, _, right, _ := s.pdf.GetMargins()
	return pageWidth - left - right
}

func (s *PDFSurface) OutputFile(path string) error {
	return s.pdf.OutputFileAndClose(path)
}
