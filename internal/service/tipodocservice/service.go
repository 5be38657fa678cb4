package tipodocservice

import (
	"context"

	"gotramite/internal/domain"
	apperror "gotramite/internal/errors"
	"gotramite/internal/pkg/logger"
)

// TipoDocumentoRepository define el contrato que este Servicio espera de la
// capa de Persistencia de tipos de documento.
type TipoDocumentoRepository interface {
	CreateTipoDocumento(ctx context.Context, tipoDoc domain.TipoDocumento) (domain.TipoDocumento, error)
	GetTipoDocumentoByID(ctx context.Context, id string) (domain.TipoDocumento, error)
	GetAllTiposDocumento(ctx context.Context) ([]domain.TipoDocumento, error)
	UpdateTipoDocumento(ctx context.Context, tipoDoc domain.TipoDocumento) (domain.TipoDocumento, error)
	DeactivateTipoDocumento(ctx context.Context, id string) error
}

// Service implementa el mantenimiento del catálogo de tipos de documento.
type Service struct {
	repo   TipoDocumentoRepository
	logger logger.Logger
}

// NewService crea y retorna una nueva instancia del Servicio de Tipos de Documento.
func NewService(repo TipoDocumentoRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateTipoDocumento registra un tipo de documento nuevo.
func (s *Service) CreateTipoDocumento(ctx context.Context, tipoDoc domain.TipoDocumento) (domain.TipoDocumento, error) {
	if tipoDoc.Nombre == "" {
		return domain.TipoDocumento{}, apperror.NewValidationError("El nombre del tipo de documento es obligatorio.")
	}
	return s.repo.CreateTipoDocumento(ctx, tipoDoc)
}

// GetTipoDocumentoByID busca un tipo de documento por su ID.
func (s *Service) GetTipoDocumentoByID(ctx context.Context, id string) (domain.TipoDocumento, error) {
	if id == "" {
		return domain.TipoDocumento{}, apperror.NewValidationError("El ID del tipo de documento es obligatorio.")
	}
	return s.repo.GetTipoDocumentoByID(ctx, id)
}

// GetAllTiposDocumento lista los tipos de documento activos.
func (s *Service) GetAllTiposDocumento(ctx context.Context) ([]domain.TipoDocumento, error) {
	return s.repo.GetAllTiposDocumento(ctx)
}

// UpdateTipoDocumento actualiza un tipo de documento existente.
func (s *Service) UpdateTipoDocumento(ctx context.Context, tipoDoc domain.TipoDocumento) (domain.TipoDocumento, error) {
	if tipoDoc.ID == "" {
		return domain.TipoDocumento{}, apperror.NewValidationError("El ID del tipo de documento es obligatorio.")
	}
	if tipoDoc.Nombre == "" {
		return domain.TipoDocumento{}, apperror.NewValidationError("El nombre del tipo de documento es obligatorio.")
	}
	return s.repo.UpdateTipoDocumento(ctx, tipoDoc)
}

// DeactivateTipoDocumento desactiva lógicamente un tipo de documento. Los
// trámites históricos conservan su referencia.
func (s *Service) DeactivateTipoDocumento(ctx context.Context, id string) error {
	if id == "" {
		return apperror.NewValidationError("El ID del tipo de documento es obligatorio.")
	}
	return s.repo.DeactivateTipoDocumento(ctx, id)
}
