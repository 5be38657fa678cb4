package plazoservice

import (
	"context"
	"sync/atomic"
	"time"

	"gotramite/internal/domain"
	"gotramite/internal/pkg/logger"
)

// FeriadoLister define el contrato que este Servicio espera de la capa de
// Persistencia para obtener las fechas de feriados.
type FeriadoLister interface {
	ListFechas(ctx context.Context) ([]string, error)
}

// Umbrales de clasificación en días hábiles transcurridos.
const (
	umbralPorVencer = 5
	umbralVencido   = 7
)

// Service calcula días hábiles transcurridos y clasifica el estado de plazo
// de un trámite. Mantiene el calendario de feriados en un snapshot
// inmutable intercambiado atómicamente: las lecturas nunca bloquean y una
// recarga fallida conserva el snapshot anterior.
type Service struct {
	feriados FeriadoLister
	snapshot atomic.Value // map[string]struct{} con fechas ISO "2006-01-02"
	logger   logger.Logger
}

// NewService crea el Servicio de Plazos con un calendario vacío. Llamar a
// Recargar antes de servir tráfico para poblarlo.
func NewService(feriados FeriadoLister, logger logger.Logger) *Service {
	s := &Service{feriados: feriados, logger: logger}
	s.snapshot.Store(map[string]struct{}{})
	return s
}

// Recargar reemplaza el snapshot de feriados con el estado actual de la
// DB. Una falla de lectura NO degrada el servicio: se conserva el snapshot
// vigente y se registra la advertencia.
func (s *Service) Recargar(ctx context.Context) error {
	fechas, err := s.feriados.ListFechas(ctx)
	if err != nil {
		s.logger.Warn("Falla al recargar feriados; se conserva el calendario vigente.", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}

	nuevo := make(map[string]struct{}, len(fechas))
	for _, f := range fechas {
		nuevo[f] = struct{}{}
	}
	s.snapshot.Store(nuevo)

	s.logger.Info("Calendario de feriados recargado.", map[string]interface{}{"total": len(nuevo)})
	return nil
}

// esFeriado consulta el snapshot vigente.
func (s *Service) esFeriado(dia time.Time) bool {
	snapshot := s.snapshot.Load().(map[string]struct{})
	_, ok := snapshot[dia.Format("2006-01-02")]
	return ok
}

func esFinDeSemana(dia time.Time) bool {
	wd := dia.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// DiasHabiles cuenta los días hábiles transcurridos entre dos instantes:
// recorre el rango de fechas inclusivo, descuenta fines de semana y
// feriados, y resta uno (el día de inicio no cuenta como transcurrido).
// El resultado nunca es negativo; un rango invertido retorna cero.
func (s *Service) DiasHabiles(desde, hasta time.Time) int {
	inicio := truncarDia(desde)
	fin := truncarDia(hasta)
	if fin.Before(inicio) {
		return 0
	}

	habiles := 0
	for dia := inicio; !dia.After(fin); dia = dia.AddDate(0, 0, 1) {
		if esFinDeSemana(dia) || s.esFeriado(dia) {
			continue
		}
		habiles++
	}

	habiles--
	if habiles < 0 {
		habiles = 0
	}
	return habiles
}

// Clasificar traduce días hábiles transcurridos a un estado de plazo.
func Clasificar(diasHabiles int) domain.EstadoPlazo {
	switch {
	case diasHabiles >= umbralVencido:
		return domain.PlazoVencido
	case diasHabiles >= umbralPorVencer:
		return domain.PlazoPorVencer
	default:
		return domain.PlazoATiempo
	}
}

// InfoPlazo calcula la información de plazo de un trámite. Los trámites en
// estado terminal no tienen plazo: retornan NO_APLICA sin días. La fecha de
// referencia es el último movimiento del trámite, o su recepción si aún no
// se ha movido.
func (s *Service) InfoPlazo(estado domain.EstadoTramite, referencia time.Time, ahora time.Time) domain.PlazoInfo {
	if estado.EsTerminal() {
		return domain.PlazoInfo{Estado: domain.PlazoNoAplica}
	}

	dias := s.DiasHabiles(referencia, ahora)
	return domain.PlazoInfo{
		DiasTranscurridos: &dias,
		Estado:            Clasificar(dias),
	}
}

func truncarDia(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
