package export

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	domain "github.com/fullservice-mx/api/internal/domain"
)

var moneyPrinter = message.NewPrinter(language.MustParse("es-MX"))

// FormatMoney renders a currency amount for es-MX display, rounding only here
// at the presentation boundary.
func FormatMoney(amount float64) string {
	return moneyPrinter.Sprintf("$%v MXN", number.Decimal(amount,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
}

// BuildShareMessage renders the plain-text WhatsApp summary of a saved order.
func BuildShareMessage(order domain.ServiceOrder) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Orden de Servicio %s\n", order.Folio)
	fmt.Fprintf(&b, "Fecha: %s\n", order.OrderDate)
	fmt.Fprintf(&b, "Cliente: %s\n", order.Customer.Name)
	fmt.Fprintf(&b, "Vehículo: %s %s %d\n", order.Vehicle.Make, order.Vehicle.Model, order.Vehicle.Year)
	b.WriteString("\nServicios:\n")
	for _, item := range order.LineItems {
		fmt.Fprintf(&b, "- %s x%d: %s\n", item.Name, item.Quantity, FormatMoney(item.UnitPrice*float64(item.Quantity)))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Subtotal sin IVA: %s\n", FormatMoney(order.Totals.Subtotal))
	fmt.Fprintf(&b, "Descuento: %s\n", FormatMoney(order.Totals.DiscountAmount))
	fmt.Fprintf(&b, "IVA 16%%: %s\n", FormatMoney(order.Totals.TaxAmount))
	fmt.Fprintf(&b, "Total: %s\n", FormatMoney(order.Totals.Total))
	b.WriteString("\nGracias por su preferencia. Full Service · Liqui Moly México")

	return b.String()
}

// ShareLink builds the wa.me deep link carrying the message to the customer's
// phone number. Non-digit characters in the phone are stripped.
func ShareLink(phone, text string) string {
	digits := make([]rune, 0, len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	return fmt.Sprintf("https://wa.me/%s?text=%s", string(digits), url.QueryEscape(text))
}
