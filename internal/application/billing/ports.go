package billing

import (
	"context"

	"github.com/tu-usuario/facturador-afip/internal/domain/entity"
	infraafip "github.com/tu-usuario/facturador-afip/internal/infrastructure/afip"
)

// AfipGateway es el puerto hacia los web services de AFIP (WSAA + WSFE).
// La implementación real vive en infrastructure/afip; los tests inyectan
// una falsa que no toca red.
type AfipGateway interface {
	// Authorize ejecuta el ciclo real: ticket WSAA, último autorizado,
	// numeración y FECAESolicitar. Un rechazo NO es error: viene tipado
	// en el resultado.
	Authorize(ctx context.Context, env entity.Environment, cuit string, req infraafip.CAERequest) (*infraafip.CAEResult, error)
	// Simulate genera una autorización local (CAE sintético) cuando la
	// configuración fiscal no está completa.
	Simulate(req infraafip.CAERequest) *infraafip.CAEResult
	// TestConnection verifica autenticación y acceso a WSFE.
	TestConnection(ctx context.Context, env entity.Environment, cuit string, pointOfSale int) (bool, string)
	// InvalidateToken descarta el ticket WSAA del ambiente.
	InvalidateToken(env entity.Environment) error
	// PhantomCooldown expone el estado del cooldown por ticket fantasma.
	PhantomCooldown(env entity.Environment) infraafip.PhantomStatus
}

var _ AfipGateway = (*infraafip.Gateway)(nil)
