package quoting

import (
	"fmt"
	"strings"

	"github.com/wolfman30/hotel-quote-bot/internal/pricing"
)

const (
	needMoreInfoText = "Necesito mas informacion para la cotizacion. Por favor indica: Fecha de entrada, fecha de salida, cantidad de personas, cantidad de habitaciones y tipo de habitaciones."
	invalidDatesText = "La fecha de salida debe ser posterior a la fecha de entrada. Por favor indica nuevamente las fechas de tu estadia."
	quoteFailedText  = "Error generando la cotizacion. Intente nuevamente."

	documentFileName = "cotizacion.pdf"
	summaryDateFmt   = "2006-01-02"
)

func summaryText(q summaryInput) string {
	var b strings.Builder
	b.WriteString("Cotizacion generada:\n")
	fmt.Fprintf(&b, "Check-in: %s\n", q.checkIn)
	fmt.Fprintf(&b, "Check-out: %s\n", q.checkOut)
	fmt.Fprintf(&b, "Noches: %d\n", q.totals.Nights)
	fmt.Fprintf(&b, "Habitaciones: %s\n", roomsLine(q.totals.LineItems))
	fmt.Fprintf(&b, "Total: %s CLP\n", pricing.FormatCLP(q.totals.Gross))
	b.WriteString("Enviando PDF...")
	return b.String()
}

type summaryInput struct {
	checkIn  string
	checkOut string
	totals   pricing.Totals
}

func roomsLine(items []pricing.LineItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%d %s", item.Quantity, item.RoomType.ShortLabel()))
	}
	return strings.Join(parts, ", ")
}
