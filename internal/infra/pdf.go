package infra

// pdf.go: sale receipt generation using go-pdf/fpdf.
// Receipts are rendered on demand into the response writer; nothing is stored.

import (
	"fmt"
	"io"

	"github.com/gonza-rom/jmr-stock-sub000/internal/model"

	"github.com/go-pdf/fpdf"
)

const (
	ticketWidth   = 74.0 // mm, thermal receipt paper
	ticketMargin  = 4.0
	ticketBaseH   = 70.0
	ticketRowH    = 5.0
	maxNombreRune = 22
)

// WriteTicketPDF renders the receipt of venta into w. Items must be loaded
// with their Producto; Movimientos, when loaded, mark cancelled lines.
func WriteTicketPDF(w io.Writer, negocio string, venta *model.Venta) error {
	height := ticketBaseH + ticketRowH*float64(len(venta.Items))
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: ticketWidth, Ht: height},
	})
	pdf.SetMargins(ticketMargin, ticketMargin, ticketMargin)
	pdf.SetAutoPageBreak(false, ticketMargin)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	contentW := ticketWidth - 2*ticketMargin
	separator := func() {
		pdf.Ln(2)
		pdf.Line(ticketMargin, pdf.GetY(), ticketWidth-ticketMargin, pdf.GetY())
		pdf.Ln(2)
	}

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 7, tr(negocio), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, tr("Comprobante no fiscal"), "", 1, "C", false, 0, "")
	pdf.Ln(1)

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, tr(fmt.Sprintf("Venta N° %d", venta.Numero)), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, venta.CreatedAt.Format("02/01/2006  15:04"), "", 1, "L", false, 0, "")
	if venta.ClienteNombre != nil && *venta.ClienteNombre != "" {
		pdf.CellFormat(contentW, 4, tr("Cliente: "+*venta.ClienteNombre), "", 1, "L", false, 0, "")
	}
	separator()

	// ── Items ────────────────────────────────────────────────────────────────
	col1 := contentW * 0.52
	col2 := contentW * 0.16
	col3 := contentW * 0.32

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Producto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Cant", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "Subtotal", "B", 1, "R", false, 0, "")

	cancelados := make(map[string]bool, len(venta.Movimientos))
	for _, m := range venta.Movimientos {
		if m.Cancelado && m.VentaItemID != nil {
			cancelados[m.VentaItemID.String()] = true
		}
	}

	pdf.SetFont("Helvetica", "", 7)
	for _, item := range venta.Items {
		nombre := ""
		if item.Producto != nil {
			nombre = truncate(item.Producto.Nombre, maxNombreRune)
		}
		subtotal := "$" + item.Subtotal.StringFixed(2)
		if cancelados[item.ID.String()] {
			subtotal = "anulado"
		}
		pdf.CellFormat(col1, ticketRowH, tr(nombre), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, ticketRowH, fmt.Sprintf("x%d", item.Cantidad), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, ticketRowH, subtotal, "", 1, "R", false, 0, "")
	}
	separator()

	// ── Totals ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1+col2, 6, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, "$"+venta.Total.StringFixed(2), "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, tr("Pago: "+venta.MetodoPago), "", 1, "L", false, 0, "")
	if venta.Estado() != model.EstadoCompletada {
		pdf.CellFormat(contentW, 4, tr("Estado: "+venta.Estado()), "", 1, "L", false, 0, "")
	}

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, tr("¡Gracias por su compra!"), "", 1, "C", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: write ticket: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
