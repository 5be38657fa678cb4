package movimientoservice

import (
	"context"
	"time"

	"gotramite/internal/domain"
	apperror "gotramite/internal/errors"
	"gotramite/internal/pkg/logger"
)

// MovimientoRepository define el contrato que este Servicio espera de la
// capa de Persistencia. AppendMovimiento debe derivar la oficina de origen
// y aplicar la transición terminal dentro de una misma transacción.
type MovimientoRepository interface {
	AppendMovimiento(ctx context.Context, movimiento domain.Movimiento, nuevoEstado domain.EstadoTramite, numerar func(ctx context.Context, oficinaOrigenID string) (string, error)) (domain.Movimiento, error)
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

// Service implementa el registro de movimientos sobre trámites abiertos.
// Las acciones finales (ARCHIVO, CIERRE) están reservadas a usuarios de la
// oficina raíz.
type Service struct {
	repo       MovimientoRepository
	oficinas   OficinaLookup
	tiposDoc   TipoDocumentoLookup
	numerador  Numerador
	rootSiglas string
	logger     logger.Logger
}

// NewService crea y retorna una nueva instancia del Servicio de Movimientos.
// rootSiglas identifica la oficina raíz autorizada a cerrar y archivar.
func NewService(repo MovimientoRepository, oficinas OficinaLookup, tiposDoc TipoDocumentoLookup, numerador Numerador, rootSiglas string, logger logger.Logger) *Service {
	return &Service{
		repo:       repo,
		oficinas:   oficinas,
		tiposDoc:   tiposDoc,
		numerador:  numerador,
		rootSiglas: rootSiglas,
		logger:     logger,
	}
}

// Crear registra un movimiento sobre un trámite. La oficina de origen no se
// recibe del llamador: la deriva el repositorio de la cadena de custodia.
// Una acción final exige que el usuario pertenezca a la oficina raíz y
// cierra el trámite en la misma transacción.
func (s *Service) Crear(ctx context.Context, actor domain.Actor, input domain.CrearMovimientoInput) (domain.Movimiento, error) {
	if input.TramiteID == "" {
		return domain.Movimiento{}, apperror.NewValidationError("El ID del trámite es obligatorio.")
	}
	if !input.TipoAccion.EsValida() {
		return domain.Movimiento{}, apperror.NewValidationError("El tipo de acción indicado no es válido.")
	}

	esFinal := input.TipoAccion.EsFinal()

	if esFinal {
		if err := s.verificarOficinaRaiz(ctx, actor); err != nil {
			return domain.Movimiento{}, err
		}
	} else {
		if input.OficinaDestinoID == "" {
			return domain.Movimiento{}, apperror.NewValidationError("La oficina de destino es obligatoria para esta acción.")
		}
		if _, err := s.oficinas.GetOficinaByID(ctx, input.OficinaDestinoID); err != nil {
			return domain.Movimiento{}, err
		}
	}

	movimiento := domain.Movimiento{
		TramiteID:        input.TramiteID,
		TipoAccion:       input.TipoAccion,
		UsuarioCreadorID: actor.UserID,
		Notas:            input.Notas,
		Observaciones:    input.Observaciones,
		FechaDocumento:   input.FechaDocumento,
	}
	if !esFinal {
		destino := input.OficinaDestinoID
		movimiento.OficinaDestinoID = &destino
	}

	// Numeración opcional: solo cuando el movimiento emite un nuevo
	// documento. El código se genera dentro de la transacción, con la
	// jerarquía de la oficina de origen derivada.
	numerar, err := s.prepararNumeracion(ctx, &movimiento, input)
	if err != nil {
		return domain.Movimiento{}, err
	}

	created, err := s.repo.AppendMovimiento(ctx, movimiento, estadoTerminal(input.TipoAccion), numerar)
	if err != nil {
		return domain.Movimiento{}, err
	}

	s.logger.Info("Movimiento registrado.", map[string]interface{}{
		"id": created.ID, "tramite_id": created.TramiteID,
		"tipo_accion": string(created.TipoAccion), "usuario": actor.UserID,
	})
	return created, nil
}

// Finalizar cierra un trámite registrando una acción CIERRE.
func (s *Service) Finalizar(ctx context.Context, actor domain.Actor, tramiteID, observaciones string) (domain.Movimiento, error) {
	return s.Crear(ctx, actor, domain.CrearMovimientoInput{
		TramiteID:     tramiteID,
		TipoAccion:    domain.AccionCierre,
		Observaciones: observaciones,
	})
}

// Archivar archiva un trámite registrando una acción ARCHIVO.
func (s *Service) Archivar(ctx context.Context, actor domain.Actor, tramiteID, observaciones string) (domain.Movimiento, error) {
	return s.Crear(ctx, actor, domain.CrearMovimientoInput{
		TramiteID:     tramiteID,
		TipoAccion:    domain.AccionArchivo,
		Observaciones: observaciones,
	})
}

// Eliminar no existe como operación: la cadena de custodia es inmutable.
// Falla siempre, de forma deliberada.
func (s *Service) Eliminar(ctx context.Context, movimientoID string) error {
	return apperror.NewInvariantError("Los movimientos no se eliminan; la cadena de custodia es inmutable.")
}

// verificarOficinaRaiz comprueba que el actor pertenezca a la oficina raíz.
func (s *Service) verificarOficinaRaiz(ctx context.Context, actor domain.Actor) error {
	if actor.OficinaID == "" {
		return apperror.NewForbiddenError("Solo la oficina raíz puede archivar o cerrar trámites.")
	}

	oficina, err := s.oficinas.GetOficinaByID(ctx, actor.OficinaID)
	if err != nil {
		return err
	}
	if oficina.Siglas != s.rootSiglas {
		return apperror.NewForbiddenError("Solo la oficina raíz puede archivar o cerrar trámites.")
	}
	return nil
}

// prepararNumeracion valida los campos de numeración y retorna el closure
// que genera el código dentro de la transacción de append. Retorna nil si
// el movimiento no emite documento.
func (s *Service) prepararNumeracion(ctx context.Context, movimiento *domain.Movimiento, input domain.CrearMovimientoInput) (func(ctx context.Context, oficinaOrigenID string) (string, error), error) {
	if input.NumeroDocumento == "" && input.TipoDocumentoID == "" {
		return nil, nil
	}
	if input.NumeroDocumento == "" || input.TipoDocumentoID == "" {
		return nil, apperror.NewValidationError("La numeración requiere número de documento y tipo de documento juntos.")
	}
	tipoDoc, err := s.tiposDoc.GetTipoDocumentoByID(ctx, input.TipoDocumentoID)
	if err != nil {
		return nil, err
	}

	numero := input.NumeroDocumento
	tipoDocID := input.TipoDocumentoID
	movimiento.NumeroDocumento = &numero
	movimiento.TipoDocumentoID = &tipoDocID

	// El código siempre lleva el año de registro, no el de la fecha del
	// documento.
	anio := time.Now().Year()
	return func(ctx context.Context, oficinaOrigenID string) (string, error) {
		return s.numerador.GenerarCodigo(ctx, tipoDoc.Nombre, numero, anio, oficinaOrigenID)
	}, nil
}

// estadoTerminal mapea una acción final al estado que induce.
func estadoTerminal(accion domain.TipoAccion) domain.EstadoTramite {
	switch accion {
	case domain.AccionArchivo:
		return domain.EstadoArchivado
	case domain.AccionCierre:
		return domain.EstadoFinalizado
	default:
		return domain.EstadoEnProceso
	}
}
