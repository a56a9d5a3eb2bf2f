package afip

import (
	"github.com/shopspring/decimal"

	pkgafip "github.com/tu-usuario/facturador-afip/pkg/afip"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)

	// Tasas por Id de alícuota WSFE.
	rate21  = decimal.NewFromFloat(21)
	rate105 = decimal.NewFromFloat(10.5)
	rate27  = decimal.NewFromFloat(27)
)

// CalcNet desagrega el neto gravado de un total IVA incluido.
// Para comprobantes que no discriminan IVA (clase C) el neto es el total.
// Para A/B: net = round(total / (1 + tasa/100), 2).
func CalcNet(total decimal.Decimal, invoiceType int, rate decimal.Decimal) decimal.Decimal {
	if !DiscriminatesVAT(invoiceType) {
		return total
	}
	divisor := one.Add(rate.Div(hundred))
	return total.Div(divisor).Round(2)
}

// CalcVat calcula el IVA como complemento del neto: total − net.
// Así net + iva reconstruye el total exacto al centavo, cosa que
// round(net × tasa) no garantiza. Clase C: siempre cero.
func CalcVat(total, net decimal.Decimal, invoiceType int) decimal.Decimal {
	if !DiscriminatesVAT(invoiceType) {
		return decimal.Zero
	}
	return total.Sub(net)
}

// VatBracket es una línea del array AlicIva de FECAESolicitar.
type VatBracket struct {
	ID      int             // 4=10.5%, 5=21%, 6=27%
	BaseImp decimal.Decimal // neto gravado de la alícuota
	Amount  decimal.Decimal // round(neto × tasa, 2)
}

// VatBrackets arma las líneas de alícuota desde los netos por tasa.
// El importe de cada línea se recalcula desde el neto persistido, nunca
// desde un campo almacenado, para que ambos no puedan divergir.
// Solo se emiten líneas con neto positivo.
func VatBrackets(net21, net105, net27 decimal.Decimal) []VatBracket {
	var brackets []VatBracket
	if net105.IsPositive() {
		brackets = append(brackets, VatBracket{
			ID:      pkgafip.AlicIVA105,
			BaseImp: net105,
			Amount:  net105.Mul(rate105).Div(hundred).Round(2),
		})
	}
	if net21.IsPositive() {
		brackets = append(brackets, VatBracket{
			ID:      pkgafip.AlicIVA21,
			BaseImp: net21,
			Amount:  net21.Mul(rate21).Div(hundred).Round(2),
		})
	}
	if net27.IsPositive() {
		brackets = append(brackets, VatBracket{
			ID:      pkgafip.AlicIVA27,
			BaseImp: net27,
			Amount:  net27.Mul(rate27).Div(hundred).Round(2),
		})
	}
	return brackets
}

// Rate21 devuelve la tasa general del 21% (la única que aplica el POS hoy;
// las ventas no desglosan alícuotas reducidas por ítem).
func Rate21() decimal.Decimal { return rate21 }
