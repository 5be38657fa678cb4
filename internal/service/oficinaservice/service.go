package oficinaservice

import (
	"context"

	"gotramite/internal/domain"
	apperror "gotramite/internal/errors"
	"gotramite/internal/pkg/logger"
)

// OficinaRepository define el contrato que este Servicio espera de la capa
// de Persistencia de oficinas.
type OficinaRepository interface {
	CreateOficina(ctx context.Context, oficina domain.Oficina) (domain.Oficina, error)
	GetOficinaByID(ctx context.Context, id string) (domain.Oficina, error)
	GetAllOficinas(ctx context.Context) ([]domain.Oficina, error)
	UpdateOficina(ctx context.Context, oficina domain.Oficina) (domain.Oficina, error)
	DeactivateOficina(ctx context.Context, id string) error
}

// Service implementa las reglas de negocio del catálogo de oficinas.
type Service struct {
	repo   OficinaRepository
	logger logger.Logger
}

// NewService crea y retorna una nueva instancia del Servicio de Oficinas.
func NewService(repo OficinaRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateOficina registra una oficina nueva. El padre, si se indica, debe
// existir; la detección de ciclos ocurre en la capa de persistencia.
func (s *Service) CreateOficina(ctx context.Context, oficina domain.Oficina) (domain.Oficina, error) {
	if oficina.Nombre == "" || oficina.Siglas == "" {
		return domain.Oficina{}, apperror.NewValidationError("El nombre y las siglas de la oficina son obligatorios.")
	}

	if oficina.ParentID != nil && *oficina.ParentID != "" {
		if _, err := s.repo.GetOficinaByID(ctx, *oficina.ParentID); err != nil {
			return domain.Oficina{}, err
		}
	}

	return s.repo.CreateOficina(ctx, oficina)
}

// GetOficinaByID busca una oficina por su ID.
func (s *Service) GetOficinaByID(ctx context.Context, id string) (domain.Oficina, error) {
	if id == "" {
		return domain.Oficina{}, apperror.NewValidationError("El ID de la oficina es obligatorio.")
	}
	return s.repo.GetOficinaByID(ctx, id)
}

// GetAllOficinas lista las oficinas activas.
func (s *Service) GetAllOficinas(ctx context.Context) ([]domain.Oficina, error) {
	return s.repo.GetAllOficinas(ctx)
}

// GetArbol construye la vista jerárquica del catálogo: las oficinas raíz
// con sus descendientes anidados. Las oficinas cuyo padre no está activo
// aparecen como raíces, para que ninguna quede invisible.
func (s *Service) GetArbol(ctx context.Context) ([]*domain.OficinaNode, error) {
	oficinas, err := s.repo.GetAllOficinas(ctx)
	if err != nil {
		return nil, err
	}

	existe := make(map[string]bool, len(oficinas))
	for _, o := range oficinas {
		existe[o.ID] = true
	}

	hijosDe := map[string][]domain.Oficina{}
	raicesPlanas := []domain.Oficina{}
	for _, o := range oficinas {
		if o.ParentID != nil && existe[*o.ParentID] {
			hijosDe[*o.ParentID] = append(hijosDe[*o.ParentID], o)
		} else {
			raicesPlanas = append(raicesPlanas, o)
		}
	}

	var armar func(o domain.Oficina) *domain.OficinaNode
	armar = func(o domain.Oficina) *domain.OficinaNode {
		nodo := &domain.OficinaNode{Oficina: o, Children: []*domain.OficinaNode{}}
		for _, h := range hijosDe[o.ID] {
			nodo.Children = append(nodo.Children, armar(h))
		}
		return nodo
	}

	raices := make([]*domain.OficinaNode, 0, len(raicesPlanas))
	for _, o := range raicesPlanas {
		raices = append(raices, armar(o))
	}

	return raices, nil
}

// UpdateOficina actualiza una oficina existente. El cambio de padre pasa
// por la verificación de ciclos del repositorio.
func (s *Service) UpdateOficina(ctx context.Context, oficina domain.Oficina) (domain.Oficina, error) {
	if oficina.ID == "" {
		return domain.Oficina{}, apperror.NewValidationError("El ID de la oficina es obligatorio.")
	}
	if oficina.Nombre == "" || oficina.Siglas == "" {
		return domain.Oficina{}, apperror.NewValidationError("El nombre y las siglas de la oficina son obligatorios.")
	}
	if oficina.ParentID != nil && *oficina.ParentID == oficina.ID {
		return domain.Oficina{}, apperror.NewConflictError("Una oficina no puede ser su propio padre.")
	}

	updated, err := s.repo.UpdateOficina(ctx, oficina)
	if err != nil {
		return domain.Oficina{}, err
	}

	s.logger.Info("Oficina actualizada.", map[string]interface{}{"id": updated.ID, "siglas": updated.Siglas})
	return updated, nil
}

// DeactivateOficina desactiva lógicamente una oficina. Los trámites
// históricos conservan su referencia.
func (s *Service) DeactivateOficina(ctx context.Context, id string) error {
	if id == "" {
		return apperror.NewValidationError("El ID de la oficina es obligatorio.")
	}
	return s.repo.DeactivateOficina(ctx, id)
}
