package tipodoc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"gotramite/internal/domain"
	apperror "gotramite/internal/errors"
	"gotramite/internal/pkg/logger"
)

// TipoDocumentoService define el contrato que el Handler espera de la capa de Servicio.
type TipoDocumentoService interface {
	CreateTipoDocumento(ctx context.Context, tipoDoc domain.TipoDocumento) (domain.TipoDocumento, error)
	GetTipoDocumentoByID(ctx context.Context, id string) (domain.TipoDocumento, error)
	GetAllTiposDocumento(ctx context.Context) ([]domain.TipoDocumento, error)
	UpdateTipoDocumento(ctx context.Context, tipoDoc domain.TipoDocumento) (domain.TipoDocumento, error)
	DeactivateTipoDocumento(ctx context.Context, id string) error
}

// Handler agrupa los endpoints del catálogo de tipos de documento.
type Handler struct {
	Service TipoDocumentoService
	Logger  logger.Logger
}

// NewHandler crea una nueva instancia del Handler.
func NewHandler(svc TipoDocumentoService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			json.NewEncoder(w).Encode(data)
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)
	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Error de Servidor: %s", category), err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.ErrorResponse{Code: status, Category: category, Message: message})
}

// TiposDocumentoHandler atiende la colección /v1/tipos-documento.
//
// @Summary Crea o lista tipos de documento
// @Tags tipos-documento
// @Accept json
// @Produce json
// @Success 200 {array} domain.TipoDocumento
// @Success 201 {object} domain.TipoDocumento
// @Failure 400 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /v1/tipos-documento [get]
func (h *Handler) TiposDocumentoHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var tipoDoc domain.TipoDocumento
		if err := json.NewDecoder(r.Body).Decode(&tipoDoc); err != nil {
			h.respond(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique el formato JSON."), 0)
			return
		}
		created, err := h.Service.CreateTipoDocumento(r.Context(), tipoDoc)
		h.respond(w, r, created, err, http.StatusCreated)
	case http.MethodGet:
		tipos, err := h.Service.GetAllTiposDocumento(r.Context())
		h.respond(w, r, tipos, err, http.StatusOK)
	default:
		http.Error(w, "Método no permitido", http.StatusMethodNotAllowed)
	}
}

// TipoDocumentoByIDHandler atiende /v1/tipos-documento/{id}: GET, PUT y
// DELETE (desactivación lógica).
func (h *Handler) TipoDocumentoByIDHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/tipos-documento/"), "/")
	if id == "" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		tipoDoc, err := h.Service.GetTipoDocumentoByID(r.Context(), id)
		h.respond(w, r, tipoDoc, err, http.StatusOK)
	case http.MethodPut:
		var tipoDoc domain.TipoDocumento
		if err := json.NewDecoder(r.Body).Decode(&tipoDoc); err != nil {
			h.respond(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique el formato JSON."), 0)
			return
		}
		tipoDoc.ID = id
		updated, err := h.Service.UpdateTipoDocumento(r.Context(), tipoDoc)
		h.respond(w, r, updated, err, http.StatusOK)
	case http.MethodDelete:
		h.respond(w, r, nil, h.Service.DeactivateTipoDocumento(r.Context(), id), http.StatusNoContent)
	default:
		http.Error(w, "Método no permitido", http.StatusMethodNotAllowed)
	}
}
