package feriadoservice

import (
	"context"

	"gotramite/internal/domain"
	apperror "gotramite/internal/errors"
	"gotramite/internal/pkg/logger"
)

// FeriadoRepository define el contrato que este Servicio espera de la capa
// de Persistencia de feriados.
type FeriadoRepository interface {
	CreateFeriado(ctx context.Context, feriado domain.Feriado) (domain.Feriado, error)
	GetFeriadoByID(ctx context.Context, id string) (domain.Feriado, error)
	GetAllFeriados(ctx context.Context) ([]domain.Feriado, error)
	UpdateFeriado(ctx context.Context, feriado domain.Feriado) (domain.Feriado, error)
	DeleteFeriado(ctx context.Context, id string) error
}

// CalendarioPlazos es el consumidor del calendario: se le notifica cada
// mutación para que refresque su snapshot.
type CalendarioPlazos interface {
	Recargar(ctx context.Context) error
}

// Service implementa el mantenimiento del calendario de feriados. Cada
// mutación dispara la recarga del snapshot de plazos; una recarga fallida
// no revierte la mutación (el snapshot se actualizará en el siguiente ciclo
// periódico).
type Service struct {
	repo   FeriadoRepository
	plazos CalendarioPlazos
	logger logger.Logger
}

// NewService crea y retorna una nueva instancia del Servicio de Feriados.
func NewService(repo FeriadoRepository, plazos CalendarioPlazos, logger logger.Logger) *Service {
	return &Service{repo: repo, plazos: plazos, logger: logger}
}

// CreateFeriado registra un feriado y refresca el calendario de plazos.
func (s *Service) CreateFeriado(ctx context.Context, feriado domain.Feriado) (domain.Feriado, error) {
	if feriado.Descripcion == "" {
		return domain.Feriado{}, apperror.NewValidationError("La descripción del feriado es obligatoria.")
	}
	if feriado.Fecha.IsZero() {
		return domain.Feriado{}, apperror.NewValidationError("La fecha del feriado es obligatoria.")
	}

	created, err := s.repo.CreateFeriado(ctx, feriado)
	if err != nil {
		return domain.Feriado{}, err
	}

	s.recargarCalendario(ctx)
	return created, nil
}

// GetFeriadoByID busca un feriado por su ID.
func (s *Service) GetFeriadoByID(ctx context.Context, id string) (domain.Feriado, error) {
	if id == "" {
		return domain.Feriado{}, apperror.NewValidationError("El ID del feriado es obligatorio.")
	}
	return s.repo.GetFeriadoByID(ctx, id)
}

// GetAllFeriados lista el calendario completo.
func (s *Service) GetAllFeriados(ctx context.Context) ([]domain.Feriado, error) {
	return s.repo.GetAllFeriados(ctx)
}

// UpdateFeriado actualiza un feriado y refresca el calendario de plazos.
func (s *Service) UpdateFeriado(ctx context.Context, feriado domain.Feriado) (domain.Feriado, error) {
	if feriado.ID == "" {
		return domain.Feriado{}, apperror.NewValidationError("El ID del feriado es obligatorio.")
	}
	if feriado.Descripcion == "" || feriado.Fecha.IsZero() {
		return domain.Feriado{}, apperror.NewValidationError("La descripción y la fecha del feriado son obligatorias.")
	}

	updated, err := s.repo.UpdateFeriado(ctx, feriado)
	if err != nil {
		return domain.Feriado{}, err
	}

	s.recargarCalendario(ctx)
	return updated, nil
}

// DeleteFeriado elimina un feriado del calendario. A diferencia de los
// trámites, los feriados son datos de calendario y admiten borrado físico.
func (s *Service) DeleteFeriado(ctx context.Context, id string) error {
	if id == "" {
		return apperror.NewValidationError("El ID del feriado es obligatorio.")
	}

	if err := s.repo.DeleteFeriado(ctx, id); err != nil {
		return err
	}

	s.recargarCalendario(ctx)
	return nil
}

func (s *Service) recargarCalendario(ctx context.Context) {
	if err := s.plazos.Recargar(ctx); err != nil {
		s.logger.Warn("La mutación del feriado se aplicó pero la recarga del calendario falló.", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
