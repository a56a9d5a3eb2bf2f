// Package afip implementa las reglas fiscales puras del comprobante:
// clase de factura según condiciones de IVA y cálculo de neto/IVA.
// No toca red ni base de datos; todo es determinístico y testeable.
package afip

import (
	"github.com/tu-usuario/facturador-afip/internal/domain/entity"
	pkgafip "github.com/tu-usuario/facturador-afip/pkg/afip"
)

// InvoiceClass determina el tipo de comprobante (1=A, 6=B, 11=C) a partir de
// las condiciones frente al IVA de emisor y receptor:
//
//   - Emisor monotributista: siempre Factura C, sin importar el receptor.
//   - Emisor RI + receptor RI: Factura A (discrimina IVA).
//   - Emisor RI + cualquier otro receptor: Factura B.
//   - Cualquier otro emisor: Factura C.
func InvoiceClass(emitter, receiver entity.IvaCondition) int {
	if emitter == entity.IvaMonotributo {
		return pkgafip.CbteFacturaC
	}
	if emitter == entity.IvaResponsableInscripto {
		if receiver == entity.IvaResponsableInscripto {
			return pkgafip.CbteFacturaA
		}
		return pkgafip.CbteFacturaB
	}
	return pkgafip.CbteFacturaC
}

// DiscriminatesVAT reporta si el tipo de comprobante desglosa IVA
// (solo las clases A y B; la C factura por el total).
func DiscriminatesVAT(invoiceType int) bool {
	return invoiceType == pkgafip.CbteFacturaA || invoiceType == pkgafip.CbteFacturaB
}

// ReceiverConditionCode traduce la condición IVA del receptor al código
// CondicionIVAReceptorId de WSFE (RG 5616). Sin condición declarada se asume
// consumidor final.
func ReceiverConditionCode(cond entity.IvaCondition) int {
	switch cond {
	case entity.IvaResponsableInscripto:
		return pkgafip.CondIVAReceptorRI
	case entity.IvaExento:
		return pkgafip.CondIVAReceptorExento
	case entity.IvaMonotributo:
		return pkgafip.CondIVAReceptorMonotributo
	default:
		return pkgafip.CondIVAReceptorConsumidorFinal
	}
}
