package dashboardservice

import (
	"context"
	"time"

	"gotramite/internal/domain"
	"gotramite/internal/pkg/logger"
)

// EstadisticasRepository define las consultas agregadas que este Servicio
// espera de la capa de Persistencia.
type EstadisticasRepository interface {
	CountByEstado(ctx context.Context, estado domain.EstadoTramite) (int, error)
	CountCerradosDesde(ctx context.Context, estado domain.EstadoTramite, desde time.Time) (int, error)
	CountRecibidosDesde(ctx context.Context, desde time.Time) (int, error)
	RecentMovimientos(ctx context.Context, limit int) ([]domain.Movimiento, error)
}

// Resumen es el snapshot agregado que alimenta la pantalla principal.
type Resumen struct {
	EnProceso            int                 `json:"en_proceso"`
	Finalizados          int                 `json:"finalizados"`
	Archivados           int                 `json:"archivados"`
	FinalizadosHoy       int                 `json:"finalizados_hoy"`
	RecibidosSemana      int                 `json:"recibidos_semana"`
	MovimientosRecientes []domain.Movimiento `json:"movimientos_recientes"`
}

const movimientosRecientesLimit = 5

// Service arma el resumen estadístico del sistema.
type Service struct {
	repo   EstadisticasRepository
	logger logger.Logger
}

// NewService crea y retorna una nueva instancia del Servicio de Dashboard.
func NewService(repo EstadisticasRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// GetResumen compone los contadores del dashboard. "Hoy" y "esta semana" se
// calculan en la zona horaria del servidor.
func (s *Service) GetResumen(ctx context.Context) (Resumen, error) {
	var resumen Resumen
	var err error

	if resumen.EnProceso, err = s.repo.CountByEstado(ctx, domain.EstadoEnProceso); err != nil {
		return Resumen{}, err
	}
	if resumen.Finalizados, err = s.repo.CountByEstado(ctx, domain.EstadoFinalizado); err != nil {
		return Resumen{}, err
	}
	if resumen.Archivados, err = s.repo.CountByEstado(ctx, domain.EstadoArchivado); err != nil {
		return Resumen{}, err
	}

	ahora := time.Now()
	inicioDia := time.Date(ahora.Year(), ahora.Month(), ahora.Day(), 0, 0, 0, 0, ahora.Location())
	if resumen.FinalizadosHoy, err = s.repo.CountCerradosDesde(ctx, domain.EstadoFinalizado, inicioDia); err != nil {
		return Resumen{}, err
	}
	if resumen.RecibidosSemana, err = s.repo.CountRecibidosDesde(ctx, inicioDia.AddDate(0, 0, -6)); err != nil {
		return Resumen{}, err
	}

	if resumen.MovimientosRecientes, err = s.repo.RecentMovimientos(ctx, movimientosRecientesLimit); err != nil {
		return Resumen{}, err
	}

	return resumen, nil
}
