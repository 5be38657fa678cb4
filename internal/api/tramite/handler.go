package tramite

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"gotramite/internal/domain"
	apperror "gotramite/internal/errors"
	"gotramite/internal/pkg/logger"
	"gotramite/internal/pkg/middleware"
)

// TramiteService define el contrato que el Handler espera de la capa de
// Servicio de trámites.
type TramiteService interface {
	CrearTramite(ctx context.Context, actor domain.Actor, input domain.CrearTramiteInput) (domain.Tramite, error)
	GetTramiteConPlazo(ctx context.Context, id string) (domain.TramiteConPlazo, error)
	FindAll(ctx context.Context, filter domain.TramiteFilter) (domain.TramiteListado, error)
	EliminarTramite(ctx context.Context, id string) error
}

// MovimientoService define el contrato de la capa de Servicio de movimientos.
type MovimientoService interface {
	Crear(ctx context.Context, actor domain.Actor, input domain.CrearMovimientoInput) (domain.Movimiento, error)
	Finalizar(ctx context.Context, actor domain.Actor, tramiteID, observaciones string) (domain.Movimiento, error)
	Archivar(ctx context.Context, actor domain.Actor, tramiteID, observaciones string) (domain.Movimiento, error)
	Eliminar(ctx context.Context, movimientoID string) error
}

// Handler agrupa los endpoints de trámites y sus movimientos.
type Handler struct {
	Service     TramiteService
	Movimientos MovimientoService
	Logger      logger.Logger
}

// NewHandler crea una nueva instancia del Handler, inyectando los Services y el Logger.
func NewHandler(svc TramiteService, movSvc MovimientoService, log logger.Logger) *Handler {
	return &Handler{
		Service:     svc,
		Movimientos: movSvc,
		Logger:      log,
	}
}

// handleServiceResponse procesa errores de servicio y envía respuestas estandarizadas.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				h.Logger.Error("Falla al codificar JSON de respuesta", jsonErr)
			}
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Error de Servidor: %s", category), err)
	} else {
		h.Logger.Debug(fmt.Sprintf("Request rechazada con status %d. Categoría: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
	})
}

// TramitesHandler atiende la colección /v1/tramites.
//
// @Summary Crea o lista trámites
// @Description POST abre un trámite (RECEPCION o ENVIO); GET lista con filtros y paginación.
// @Tags tramites
// @Accept json
// @Produce json
// @Param tramite body domain.CrearTramiteInput true "Datos del trámite"
// @Success 201 {object} domain.Tramite
// @Success 200 {object} domain.TramiteListado
// @Failure 400 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /v1/tramites [post]
func (h *Handler) TramitesHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.crearTramite(w, r)
	case http.MethodGet:
		h.listarTramites(w, r)
	default:
		http.Error(w, "Método no permitido", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) crearTramite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := middleware.GetActorFromContext(ctx)
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Autorización necesaria."), 0)
		return
	}

	var input domain.CrearTramiteInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique el formato JSON."), 0)
		return
	}

	tramite, err := h.Service.CrearTramite(ctx, actor, input)
	h.handleServiceResponse(w, r, tramite, err, http.StatusCreated)
}

func (h *Handler) listarTramites(w http.ResponseWriter, r *http.Request) {
	filter := parseFilter(r)

	listado, err := h.Service.FindAll(r.Context(), filter)
	h.handleServiceResponse(w, r, listado, err, http.StatusOK)
}

// TramiteByIDHandler atiende /v1/tramites/{id} y sus subrecursos:
//
//	GET    /v1/tramites/{id}             detalle con plazo
//	DELETE /v1/tramites/{id}             rechazado siempre (auditoría inmutable)
//	POST   /v1/tramites/{id}/movimientos registra un movimiento
//	POST   /v1/tramites/{id}/finalizar   cierra el trámite (oficina raíz)
//	POST   /v1/tramites/{id}/archivar    archiva el trámite (oficina raíz)
func (h *Handler) TramiteByIDHandler(w http.ResponseWriter, r *http.Request) {
	resto := strings.TrimPrefix(r.URL.Path, "/v1/tramites/")
	partes := strings.SplitN(strings.Trim(resto, "/"), "/", 2)

	id := partes[0]
	if id == "" {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("El ID del trámite es obligatorio en la ruta."), 0)
		return
	}

	if len(partes) == 1 {
		switch r.Method {
		case http.MethodGet:
			tramite, err := h.Service.GetTramiteConPlazo(r.Context(), id)
			h.handleServiceResponse(w, r, tramite, err, http.StatusOK)
		case http.MethodDelete:
			h.handleServiceResponse(w, r, nil, h.Service.EliminarTramite(r.Context(), id), http.StatusNoContent)
		default:
			http.Error(w, "Método no permitido", http.StatusMethodNotAllowed)
		}
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Método no permitido", http.StatusMethodNotAllowed)
		return
	}

	switch partes[1] {
	case "movimientos":
		h.crearMovimiento(w, r, id)
	case "finalizar":
		h.accionFinal(w, r, id, h.Movimientos.Finalizar)
	case "archivar":
		h.accionFinal(w, r, id, h.Movimientos.Archivar)
	default:
		http.NotFound(w, r)
	}
}

// crearMovimiento registra un movimiento sobre el trámite de la ruta.
//
// @Summary Registra un movimiento de trámite
// @Tags tramites
// @Accept json
// @Produce json
// @Param id path string true "ID del trámite"
// @Param movimiento body domain.CrearMovimientoInput true "Datos del movimiento"
// @Success 201 {object} domain.Movimiento
// @Failure 400 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /v1/tramites/{id}/movimientos [post]
func (h *Handler) crearMovimiento(w http.ResponseWriter, r *http.Request, tramiteID string) {
	ctx := r.Context()

	actor, ok := middleware.GetActorFromContext(ctx)
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Autorización necesaria."), 0)
		return
	}

	var input domain.CrearMovimientoInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique el formato JSON."), 0)
		return
	}
	input.TramiteID = tramiteID

	movimiento, err := h.Movimientos.Crear(ctx, actor, input)
	h.handleServiceResponse(w, r, movimiento, err, http.StatusCreated)
}

type accionFinalFunc func(ctx context.Context, actor domain.Actor, tramiteID, observaciones string) (domain.Movimiento, error)

func (h *Handler) accionFinal(w http.ResponseWriter, r *http.Request, tramiteID string, accion accionFinalFunc) {
	ctx := r.Context()

	actor, ok := middleware.GetActorFromContext(ctx)
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Autorización necesaria."), 0)
		return
	}

	// El cuerpo es opcional: solo lleva observaciones.
	var payload struct {
		Observaciones string `json:"observaciones"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&payload)
	}

	movimiento, err := accion(ctx, actor, tramiteID, payload.Observaciones)
	h.handleServiceResponse(w, r, movimiento, err, http.StatusCreated)
}

// parseFilter traduce los parámetros de query al filtro del listado.
func parseFilter(r *http.Request) domain.TramiteFilter {
	q := r.URL.Query()

	filter := domain.TramiteFilter{
		Q:                q.Get("q"),
		OficinaIDs:       splitParam(q.Get("oficinas")),
		TipoDocumentoIDs: splitParam(q.Get("tipos_documento")),
		SortBy:           q.Get("sort"),
	}

	for _, e := range splitParam(q.Get("estados")) {
		filter.Estados = append(filter.Estados, domain.EstadoTramite(strings.ToUpper(e)))
	}
	for _, p := range splitParam(q.Get("prioridades")) {
		filter.Prioridades = append(filter.Prioridades, domain.PrioridadTramite(strings.ToUpper(p)))
	}

	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter.Limit = limit
	}

	return filter
}

func splitParam(value string) []string {
	if value == "" {
		return nil
	}
	partes := strings.Split(value, ",")
	out := make([]string, 0, len(partes))
	for _, p := range partes {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
