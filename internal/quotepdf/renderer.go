// Package quotepdf lays out hotel quotations as Letter-size PDF documents.
package quotepdf

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/wolfman30/hotel-quote-bot/internal/pricing"
)

const (
	dateLayout      = "02.01.2006"
	stayDateLayout  = "2006-01-02"
	defaultValidity = 48 * time.Hour
	contentWidth    = 181.9
	rowHeight       = 7.0
)

// Hotel is the issuer identity printed on every quotation.
type Hotel struct {
	Name        string
	Address     string
	Phone       string
	Email       string
	TaxID       string
	Bank        string
	BankAccount string
}

// Quotation is everything a rendered document shows.
type Quotation struct {
	Number   string
	IssuedAt time.Time
	CheckIn  time.Time
	CheckOut time.Time
	Guests   int
	Totals   pricing.Totals
}

// Renderer builds quotation PDFs for one hotel.
type Renderer struct {
	hotel    Hotel
	validity time.Duration
}

// NewRenderer returns a Renderer whose quotations are valid for 48 hours.
func NewRenderer(hotel Hotel) *Renderer {
	return &Renderer{hotel: hotel, validity: defaultValidity}
}

// Render returns the PDF bytes for q.
func (r *Renderer) Render(q Quotation) ([]byte, error) {
	pdf := r.build(q)
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("quotepdf: layout: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("quotepdf: output: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeBase64 prepares a rendered document for the relay's media upload.
func EncodeBase64(doc []byte) string {
	return base64.StdEncoding.EncodeToString(doc)
}

func (r *Renderer) build(q Quotation) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "Letter", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Cotización "+q.Number, true)
	pdf.SetAuthor(r.hotel.Name, true)
	pdf.SetCreationDate(q.IssuedAt)
	pdf.SetMargins(17, 14, 17)
	pdf.SetAutoPageBreak(true, 18)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-14)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 6, tr(fmt.Sprintf("Página %d/{nb}", pdf.PageNo())), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	r.header(pdf, tr, q)
	stay(pdf, tr, q)
	lineItems(pdf, tr, q.Totals)
	totals(pdf, tr, q.Totals)
	r.terms(pdf, tr)
	return pdf
}

func (r *Renderer) header(pdf *fpdf.Fpdf, tr func(string) string, q Quotation) {
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(contentWidth*0.6, 10, tr(r.hotel.Name), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(contentWidth*0.4, 10, tr("COTIZACIÓN"), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, line := range []string{r.hotel.Address, r.hotel.Phone, r.hotel.Email} {
		if line != "" {
			pdf.CellFormat(contentWidth*0.6, 5, tr(line), "", 1, "L", false, 0, "")
		}
	}
	pdf.Ln(4)

	issued := q.IssuedAt
	control := [][2]string{
		{"N° COTIZACIÓN", q.Number},
		{"FECHA EMISIÓN", issued.Format(dateLayout)},
		{"FECHA VALIDEZ", issued.Add(r.validity).Format(dateLayout)},
	}
	pdf.SetFillColor(211, 211, 211)
	for _, row := range control {
		pdf.SetX(17 + contentWidth - 70)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(38, rowHeight, tr(row[0]), "1", 0, "L", true, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(32, rowHeight, tr(row[1]), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(6)
}

func stay(pdf *fpdf.Fpdf, tr func(string) string, q Quotation) {
	rows := [][4]string{
		{"CHECK IN", q.CheckIn.Format(stayDateLayout), "NOCHES", strconv.Itoa(q.Totals.Nights)},
		{"CHECK OUT", q.CheckOut.Format(stayDateLayout), "HUÉSPEDES", strconv.Itoa(q.Guests)},
	}
	w := contentWidth / 4
	pdf.SetFillColor(245, 245, 245)
	for _, row := range rows {
		for i, cell := range row {
			label := i%2 == 0
			if label {
				pdf.SetFont("Helvetica", "B", 9)
			} else {
				pdf.SetFont("Helvetica", "", 9)
			}
			ln := 0
			if i == len(row)-1 {
				ln = 1
			}
			pdf.CellFormat(w, rowHeight, tr(cell), "1", ln, "L", label, 0, "")
		}
	}
	pdf.Ln(6)
}

var itemColumns = []struct {
	title string
	width float64
}{
	{"DESCRIPCIÓN", 89},
	{"CANT", 22},
	{"UNITARIO", 33},
	{"TOTAL", 37.9},
}

func itemHeader(pdf *fpdf.Fpdf, tr func(string) string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(0, 0, 0)
	pdf.SetTextColor(255, 255, 255)
	for i, col := range itemColumns {
		ln := 0
		if i == len(itemColumns)-1 {
			ln = 1
		}
		pdf.CellFormat(col.width, rowHeight, tr(col.title), "1", ln, "C", true, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)
}

func lineItems(pdf *fpdf.Fpdf, tr func(string) string, t pricing.Totals) {
	itemHeader(pdf, tr)
	pdf.SetFont("Helvetica", "", 9)
	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, item := range t.LineItems {
		if pdf.GetY()+rowHeight > pageHeight-bottom {
			pdf.AddPage()
			itemHeader(pdf, tr)
			pdf.SetFont("Helvetica", "", 9)
		}
		cells := []string{
			item.RoomType.Label(),
			strconv.Itoa(item.Quantity),
			pricing.FormatCLP(item.NightlyRate),
			pricing.FormatCLP(item.LineTotal),
		}
		for i, cell := range cells {
			align, ln := "C", 0
			if i == 0 {
				align = "L"
			}
			if i == len(cells)-1 {
				ln = 1
			}
			pdf.CellFormat(itemColumns[i].width, rowHeight, tr(cell), "1", ln, align, false, 0, "")
		}
	}
}

func totals(pdf *fpdf.Fpdf, tr func(string) string, t pricing.Totals) {
	rows := []struct {
		label  string
		amount int64
		fill   bool
	}{
		{"NETO", t.Net, false},
		{"IVA (19%)", t.Tax, false},
		{"TOTAL FINAL", t.Gross, true},
	}
	pdf.SetFillColor(211, 211, 211)
	for _, row := range rows {
		pdf.SetX(17 + contentWidth - 70.9)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(33, rowHeight, tr(row.label), "1", 0, "R", row.fill, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(37.9, rowHeight, pricing.FormatCLP(row.amount), "1", 1, "R", row.fill, 0, "")
	}
	pdf.Ln(10)
}

func (r *Renderer) terms(pdf *fpdf.Fpdf, tr func(string) string) {
	y := pdf.GetY()
	pdf.SetLineWidth(0.4)
	pdf.Line(17, y, 17+contentWidth, y)
	pdf.Ln(3)

	payment := fmt.Sprintf("DATOS DE PAGO: %s | RUT: %s", r.hotel.Name, r.hotel.TaxID)
	if r.hotel.Bank != "" {
		payment += " | " + r.hotel.Bank
	}
	if r.hotel.BankAccount != "" {
		payment += " | Cta: " + r.hotel.BankAccount
	}
	pdf.SetFont("Helvetica", "", 9)
	pdf.MultiCell(contentWidth, 5, tr(payment), "", "L", false)
	pdf.MultiCell(contentWidth, 5, tr("TÉRMINOS: Cotización válida por 48 horas. Reserva requiere 100% de pago anticipado."), "", "L", false)
}
