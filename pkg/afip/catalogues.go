// Package afip contiene catálogos y utilidades de fechas alineados a los
// web services de factura electrónica de AFIP (Argentina): WSAA y WSFEv1.
package afip

// =============================================================================
// Tipos de comprobante (WSFEv1 - FEParamGetTiposCbte)
// Solo se emiten facturas; las notas de crédito/débito quedan fuera de alcance.
// =============================================================================

const (
	CbteFacturaA = 1  // Factura A (RI a RI, discrimina IVA)
	CbteFacturaB = 6  // Factura B (RI a consumidor final / exento / monotributo)
	CbteFacturaC = 11 // Factura C (emisor monotributo, no discrimina IVA)
)

// =============================================================================
// Tipos de documento del receptor (WSFEv1 - FEParamGetTiposDoc)
// =============================================================================

const (
	DocCUIT           = 80 // CUIT - obligatorio para Factura A
	DocCUIL           = 86 // CUIL
	DocDNI            = 96 // DNI
	DocSinIdentificar = 99 // Consumidor final sin identificar
)

// =============================================================================
// Condición frente al IVA del receptor (RG 5616/2024 - CondicionIVAReceptorId)
// Obligatorio en FECAESolicitar desde abril 2025.
// =============================================================================

const (
	CondIVAReceptorRI              = 1 // IVA Responsable Inscripto
	CondIVAReceptorExento          = 4 // IVA Sujeto Exento
	CondIVAReceptorConsumidorFinal = 5 // Consumidor Final
	CondIVAReceptorMonotributo     = 6 // Responsable Monotributo
)

// =============================================================================
// Alícuotas de IVA (WSFEv1 - FEParamGetTiposIva)
// Id que viaja en el array AlicIva del detalle del comprobante.
// =============================================================================

const (
	AlicIVA105 = 4 // 10.5%
	AlicIVA21  = 5 // 21%
	AlicIVA27  = 6 // 27%
)

// =============================================================================
// Conceptos y moneda
// =============================================================================

const (
	ConceptoProductos = 1 // Productos (único concepto emitido por el POS)

	MonedaPES     = "PES" // Pesos argentinos (única moneda soportada)
	CotizacionPES = 1     // Cotización fija para PES
)

// TipoCodAutCAE identifica al CAE en el QR fiscal ("E" = CAE, "A" = CAEA).
const TipoCodAutCAE = "E"
