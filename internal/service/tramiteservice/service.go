package tramiteservice

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"gotramite/internal/domain"
	apperror "gotramite/internal/errors"
	"gotramite/internal/pkg/logger"
)

// TramiteRepository define el contrato que este Servicio espera de la capa
// de Persistencia de trámites.
type TramiteRepository interface {
	CreateTramite(ctx context.Context, tramite domain.Tramite) (domain.Tramite, error)
	CreateTramiteConMovimiento(ctx context.Context, tramite domain.Tramite, movimiento domain.Movimiento) (domain.Tramite, error)
	GetTramiteByID(ctx context.Context, id string) (domain.Tramite, error)
	FindAll(ctx context.Context, filter domain.TramiteFilter) ([]domain.TramiteResumen, int, error)
}

// OficinaLookup resuelve oficinas por ID.
type OficinaLookup interface {
	GetOficinaByID(ctx context.Context, id string) (domain.Oficina, error)
}

// TipoDocumentoLookup resuelve tipos de documento por ID.
type TipoDocumentoLookup interface {
	GetTipoDocumentoByID(ctx context.Context, id string) (domain.TipoDocumento, error)
}

// Numerador genera el número de documento completo de un documento emitido
// desde una oficina.
type Numerador interface {
	GenerarCodigo(ctx context.Context, tipoNombre, numero string, anio int, oficinaID string) (string, error)
}

// Plazos calcula la información de plazo de un trámite.
type Plazos interface {
	InfoPlazo(estado domain.EstadoTramite, referencia time.Time, ahora time.Time) domain.PlazoInfo
}

// Tipos de registro aceptados al abrir un trámite.
const (
	RegistroRecepcion = "RECEPCION"
	RegistroEnvio     = "ENVIO"
)

// Service implementa las reglas de negocio de apertura y lectura de trámites.
type Service struct {
	repo      TramiteRepository
	oficinas  OficinaLookup
	tiposDoc  TipoDocumentoLookup
	numerador Numerador
	plazos    Plazos
	logger    logger.Logger
}

// NewService crea y retorna una nueva instancia del Servicio de Trámites.
func NewService(repo TramiteRepository, oficinas OficinaLookup, tiposDoc TipoDocumentoLookup, numerador Numerador, plazos Plazos, logger logger.Logger) *Service {
	return &Service{
		repo:      repo,
		oficinas:  oficinas,
		tiposDoc:  tiposDoc,
		numerador: numerador,
		plazos:    plazos,
		logger:    logger,
	}
}

// CrearTramite abre un trámite según el tipo de registro del payload:
//
//   - RECEPCION: un documento externo llega a mesa de partes. Se crea el
//     trámite sin movimiento; el código usa la jerarquía de la oficina
//     remitente declarada.
//   - ENVIO: la oficina del usuario autenticado origina y despacha el
//     documento. El trámite y su primer movimiento se crean como unidad
//     atómica; el código usa la jerarquía de la oficina despachante.
func (s *Service) CrearTramite(ctx context.Context, actor domain.Actor, input domain.CrearTramiteInput) (domain.Tramite, error) {
	if err := validarEntradaComun(input); err != nil {
		return domain.Tramite{}, err
	}

	tipoDoc, err := s.tiposDoc.GetTipoDocumentoByID(ctx, input.TipoDocumentoID)
	if err != nil {
		return domain.Tramite{}, err
	}

	switch strings.ToUpper(input.TipoRegistro) {
	case RegistroRecepcion:
		return s.crearPorRecepcion(ctx, actor, input, tipoDoc)
	case RegistroEnvio:
		return s.crearPorEnvio(ctx, actor, input, tipoDoc)
	default:
		return domain.Tramite{}, apperror.NewValidationError("El tipo de registro debe ser RECEPCION o ENVIO.")
	}
}

func (s *Service) crearPorRecepcion(ctx context.Context, actor domain.Actor, input domain.CrearTramiteInput, tipoDoc domain.TipoDocumento) (domain.Tramite, error) {
	if input.OficinaRemitenteID == "" {
		return domain.Tramite{}, apperror.NewValidationError("El registro por recepción requiere la oficina remitente.")
	}
	if _, err := s.oficinas.GetOficinaByID(ctx, input.OficinaRemitenteID); err != nil {
		return domain.Tramite{}, err
	}

	tramite, err := s.armarTramite(ctx, actor, input, tipoDoc, input.OficinaRemitenteID)
	if err != nil {
		return domain.Tramite{}, err
	}

	created, err := s.repo.CreateTramite(ctx, tramite)
	if err != nil {
		return domain.Tramite{}, err
	}

	s.logger.Info("Trámite registrado por recepción.", map[string]interface{}{
		"id": created.ID, "numero": created.NumeroDocumentoCompleto, "usuario": actor.UserID,
	})
	return created, nil
}

func (s *Service) crearPorEnvio(ctx context.Context, actor domain.Actor, input domain.CrearTramiteInput, tipoDoc domain.TipoDocumento) (domain.Tramite, error) {
	if actor.OficinaID == "" {
		return domain.Tramite{}, apperror.NewForbiddenError("El usuario no tiene oficina asignada para despachar documentos.")
	}
	if input.OficinaDestinoID == "" {
		return domain.Tramite{}, apperror.NewValidationError("El registro por envío requiere la oficina de destino.")
	}
	if _, err := s.oficinas.GetOficinaByID(ctx, input.OficinaDestinoID); err != nil {
		return domain.Tramite{}, err
	}

	// La oficina despachante es la remitente del trámite.
	remitente := actor.OficinaID
	tramite, err := s.armarTramite(ctx, actor, input, tipoDoc, remitente)
	if err != nil {
		return domain.Tramite{}, err
	}
	tramite.ID = uuid.New().String()

	destino := input.OficinaDestinoID
	movimiento := domain.Movimiento{
		TramiteID:               tramite.ID,
		TipoAccion:              domain.AccionEnvio,
		UsuarioCreadorID:        actor.UserID,
		OficinaOrigenID:         remitente,
		OficinaDestinoID:        &destino,
		NumeroDocumento:         &tramite.NumeroDocumento,
		NumeroDocumentoCompleto: &tramite.NumeroDocumentoCompleto,
		TipoDocumentoID:         &tramite.TipoDocumentoID,
		Notas:                   input.Notas,
		FechaDocumento:          &tramite.FechaDocumento,
	}

	created, err := s.repo.CreateTramiteConMovimiento(ctx, tramite, movimiento)
	if err != nil {
		return domain.Tramite{}, err
	}

	s.logger.Info("Trámite registrado por envío.", map[string]interface{}{
		"id": created.ID, "numero": created.NumeroDocumentoCompleto, "destino": destino, "usuario": actor.UserID,
	})
	return created, nil
}

// armarTramite completa los campos comunes de ambos flujos, incluida la
// generación del número de documento completo con la jerarquía de la
// oficina indicada.
func (s *Service) armarTramite(ctx context.Context, actor domain.Actor, input domain.CrearTramiteInput, tipoDoc domain.TipoDocumento, oficinaNumeracionID string) (domain.Tramite, error) {
	// El código siempre lleva el año de registro, no el de la fecha del
	// documento.
	anio := time.Now().Year()
	codigo, err := s.numerador.GenerarCodigo(ctx, tipoDoc.Nombre, input.NumeroDocumento, anio, oficinaNumeracionID)
	if err != nil {
		return domain.Tramite{}, err
	}

	prioridad := input.Prioridad
	if prioridad == "" {
		prioridad = domain.PrioridadNormal
	}

	fechaRecepcion := time.Now()
	if input.FechaRecepcion != nil {
		fechaRecepcion = *input.FechaRecepcion
	}

	usuarioAsignado := actor.UserID
	return domain.Tramite{
		Asunto:                  input.Asunto,
		Estado:                  domain.EstadoEnProceso,
		Prioridad:               prioridad,
		NumeroDocumento:         input.NumeroDocumento,
		NumeroDocumentoCompleto: codigo,
		TipoDocumentoID:         input.TipoDocumentoID,
		OficinaRemitenteID:      oficinaNumeracionID,
		UsuarioAsignadoID:       &usuarioAsignado,
		Observaciones:           input.Observaciones,
		FechaDocumento:          input.FechaDocumento,
		FechaRecepcion:          fechaRecepcion,
	}, nil
}

// GetTramiteConPlazo busca un trámite con su cadena de movimientos y su
// información de plazo derivada. La referencia del plazo es el último
// movimiento, o la recepción si la cadena está vacía.
func (s *Service) GetTramiteConPlazo(ctx context.Context, id string) (domain.TramiteConPlazo, error) {
	if id == "" {
		return domain.TramiteConPlazo{}, apperror.NewValidationError("El ID del trámite es obligatorio.")
	}

	tramite, err := s.repo.GetTramiteByID(ctx, id)
	if err != nil {
		return domain.TramiteConPlazo{}, err
	}

	referencia := tramite.FechaRecepcion
	if n := len(tramite.Movimientos); n > 0 {
		referencia = tramite.Movimientos[n-1].CreatedAt
	}

	return domain.TramiteConPlazo{
		Tramite: tramite,
		Plazo:   s.plazos.InfoPlazo(tramite.Estado, referencia, time.Now()),
	}, nil
}

// FindAll lista trámites paginados, cada uno con su información de plazo.
func (s *Service) FindAll(ctx context.Context, filter domain.TramiteFilter) (domain.TramiteListado, error) {
	if err := validarFiltro(filter); err != nil {
		return domain.TramiteListado{}, err
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 10
	}

	filas, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return domain.TramiteListado{}, err
	}

	ahora := time.Now()
	data := make([]domain.TramiteConPlazo, 0, len(filas))
	for _, fila := range filas {
		referencia := fila.FechaRecepcion
		if fila.UltimoMovimiento != nil {
			referencia = *fila.UltimoMovimiento
		}
		data = append(data, domain.TramiteConPlazo{
			Tramite: fila.Tramite,
			Plazo:   s.plazos.InfoPlazo(fila.Estado, referencia, ahora),
		})
	}

	lastPage := (total + filter.Limit - 1) / filter.Limit
	if lastPage < 1 {
		lastPage = 1
	}

	return domain.TramiteListado{
		Data: data,
		Meta: domain.ListadoMeta{
			Total:    total,
			Page:     filter.Page,
			Limit:    filter.Limit,
			LastPage: lastPage,
		},
	}, nil
}

// EliminarTramite no existe como operación: la auditoría del flujo
// documental es inmutable. Falla siempre, de forma deliberada.
func (s *Service) EliminarTramite(ctx context.Context, id string) error {
	return apperror.NewInvariantError("Los trámites no se eliminan; use la acción de archivo o cierre.")
}

func validarEntradaComun(input domain.CrearTramiteInput) error {
	if input.Asunto == "" {
		return apperror.NewValidationError("El asunto es obligatorio.")
	}
	if input.NumeroDocumento == "" {
		return apperror.NewValidationError("El número de documento es obligatorio.")
	}
	if input.TipoDocumentoID == "" {
		return apperror.NewValidationError("El tipo de documento es obligatorio.")
	}
	if input.FechaDocumento.IsZero() {
		return apperror.NewValidationError("La fecha del documento es obligatoria.")
	}
	if input.Prioridad != "" && !input.Prioridad.EsValida() {
		return apperror.NewValidationError("La prioridad indicada no es válida.")
	}
	return nil
}

func validarFiltro(filter domain.TramiteFilter) error {
	for _, e := range filter.Estados {
		if !e.EsValido() {
			return apperror.NewValidationError("El filtro de estado contiene un valor no válido.")
		}
	}
	for _, p := range filter.Prioridades {
		if !p.EsValida() {
			return apperror.NewValidationError("El filtro de prioridad contiene un valor no válido.")
		}
	}
	return nil
}
