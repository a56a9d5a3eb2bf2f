package repository

import (
	"time"

	"github.com/tu-usuario/facturador-afip/internal/domain/entity"
)

// FiscalConfigRepository define el puerto de persistencia de la configuración
// fiscal del emisor (fila única; Get devuelve nil, nil si aún no se configuró).
type FiscalConfigRepository interface {
	Get() (*entity.FiscalConfig, error)
	Save(cfg *entity.FiscalConfig) error
	// SaveToken espeja el ticket WSAA vigente del ambiente dado.
	SaveToken(env entity.Environment, t *entity.AuthToken) error
	// ClearToken borra el ticket espejado del ambiente dado.
	ClearToken(env entity.Environment) error
	// SavePhantomAt registra (o limpia, con zero time) el timestamp del
	// cooldown por ticket fantasma del ambiente dado.
	SavePhantomAt(env entity.Environment, at time.Time) error
}
