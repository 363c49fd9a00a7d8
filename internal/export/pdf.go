package export

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	domain "github.com/fullservice-mx/api/internal/domain"
)

// ErrRenderFailed indicates the PDF document could not be produced.
var ErrRenderFailed = errors.New("export: pdf render failed")

// PDFFileName returns the canonical attachment name for an order document.
func PDFFileName(folio string) string {
	return fmt.Sprintf("orden-servicio-%s.pdf", folio)
}

var checklistLabels = map[domain.ChecklistCategory]string{
	domain.ChecklistTires:   "Llantas",
	domain.ChecklistLights:  "Luces",
	domain.ChecklistBrakes:  "Frenos",
	domain.ChecklistFluids:  "Líquidos",
	domain.ChecklistBattery: "Batería",
}

var checklistStateLabels = map[domain.ChecklistState]string{
	domain.ChecklistStateOK:            "OK",
	domain.ChecklistStateAttention:     "Requiere atención",
	domain.ChecklistStateNotApplicable: "N/A",
}

// PDFRenderer produces the printable A4 projection of a service order.
type PDFRenderer struct {
	logger *zap.Logger
}

// PDFRendererOption customises the renderer.
type PDFRendererOption func(*PDFRenderer)

// WithPDFLogger injects the logger used for non-fatal render problems.
func WithPDFLogger(logger *zap.Logger) PDFRendererOption {
	return func(r *PDFRenderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewPDFRenderer constructs a renderer with the shop's default layout.
func NewPDFRenderer(opts ...PDFRendererOption) *PDFRenderer {
	r := &PDFRenderer{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Render builds the paginated PDF document for a saved order.
func (r *PDFRenderer) Render(order domain.ServiceOrder) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr("Full Service · Liqui Moly México"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, tr(fmt.Sprintf("Orden de Servicio %s", order.Folio)), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 7, tr(order.OrderDate), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	r.section(pdf, tr, "Cliente")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s · Tel. %s", order.Customer.Name, order.Customer.Phone)), "", 1, "L", false, 0, "")
	if order.Customer.Email != "" {
		pdf.CellFormat(0, 6, tr(order.Customer.Email), "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)

	r.section(pdf, tr, "Vehículo")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s %s %d · VIN %s", order.Vehicle.Make, order.Vehicle.Model, order.Vehicle.Year, order.Vehicle.VIN)), "", 1, "L", false, 0, "")
	if order.Vehicle.KnownIssues != "" {
		pdf.MultiCell(0, 6, tr("Fallas reportadas: "+order.Vehicle.KnownIssues), "", "L", false)
	}
	pdf.Ln(2)

	r.section(pdf, tr, "Checklist de recepción")
	pdf.SetFont("Helvetica", "", 10)
	for _, category := range domain.ChecklistCategories {
		state := order.Checklist.State(category)
		pdf.CellFormat(60, 6, tr(checklistLabels[category]), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, tr(checklistStateLabels[state]), "", 1, "L", false, 0, "")
	}
	if order.Checklist.Notes != "" {
		pdf.MultiCell(0, 6, tr("Observaciones: "+order.Checklist.Notes), "", "L", false)
	}
	pdf.Ln(2)

	r.section(pdf, tr, "Servicios")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(90, 7, tr("Servicio"), "B", 0, "L", false, 0, "")
	pdf.CellFormat(20, 7, tr("Cant."), "B", 0, "R", false, 0, "")
	pdf.CellFormat(40, 7, tr("Precio unitario"), "B", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, item := range order.LineItems {
		pdf.CellFormat(90, 6, tr(item.Name), "", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", item.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, tr(FormatMoney(item.UnitPrice)), "", 1, "R", false, 0, "")
	}
	pdf.Ln(2)

	r.totalsRow(pdf, tr, "Subtotal sin IVA", order.Totals.Subtotal, false)
	r.totalsRow(pdf, tr, fmt.Sprintf("Descuento (%.0f%%)", order.DiscountPercent), -order.Totals.DiscountAmount, false)
	r.totalsRow(pdf, tr, "IVA 16%", order.Totals.TaxAmount, false)
	r.totalsRow(pdf, tr, "Total", order.Totals.Total, true)
	pdf.Ln(6)

	if strings.TrimSpace(order.Signature) != "" {
		if img, format, err := decodeSignature(order.Signature); err != nil {
			// The document still renders; the advisor keeps a paper signature.
			r.logger.Warn("signature image skipped",
				zap.String("folio", order.Folio),
				zap.Error(err),
			)
		} else {
			name := "signature"
			pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: format}, bytes.NewReader(img))
			pdf.ImageOptions(name, pdf.GetX(), pdf.GetY(), 60, 0, true, fpdf.ImageOptions{ImageType: format}, 0, "")
		}
	}
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, tr("Firma del cliente"), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	pdf.MultiCell(0, 5, tr("Autorizo la realización de los trabajos aquí descritos y acepto el presupuesto indicado."), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	return buf.Bytes(), nil
}

func (r *PDFRenderer) section(pdf *fpdf.Fpdf, tr func(string) string, title string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, tr(title), "", 1, "L", false, 0, "")
}

func (r *PDFRenderer) totalsRow(pdf *fpdf.Fpdf, tr func(string) string, label string, amount float64, emphasis bool) {
	style := ""
	if emphasis {
		style = "B"
	}
	pdf.SetFont("Helvetica", style, 10)
	pdf.CellFormat(110, 6, tr(label), "", 0, "R", false, 0, "")
	pdf.CellFormat(40, 6, tr(FormatMoney(amount)), "", 1, "R", false, 0, "")
}

// decodeSignature accepts a data URL image payload and returns the raw bytes
// plus the fpdf image type.
func decodeSignature(signature string) ([]byte, string, error) {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return nil, "", errors.New("export: empty signature")
	}

	format := "PNG"
	payload := signature
	if strings.HasPrefix(signature, "data:") {
		comma := strings.Index(signature, ",")
		if comma < 0 {
			return nil, "", errors.New("export: malformed signature data url")
		}
		header := signature[:comma]
		payload = signature[comma+1:]
		if strings.Contains(header, "image/jpeg") || strings.Contains(header, "image/jpg") {
			format = "JPG"
		}
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("export: decode signature: %w", err)
	}
	return raw, format, nil
}
