package oficina

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

// OficinaService define el contrato que el Handler espera de la capa de Servicio.
type OficinaService interface {
	CreateOficina(ctx context.Context, oficina domain.Oficina) (domain.Oficina, error)
	GetOficinaByID(ctx context.Context, id string) (domain.Oficina, error)
	GetAllOficinas(ctx context.Context) ([]domain.Oficina, error)
	GetArbol(ctx context.Context) ([]*domain.OficinaNode, error)
	UpdateOficina(ctx context.Context, oficina domain.Oficina) (domain.Oficina, error)
	DeactivateOficina(ctx context.Context, id string) error
}

// Handler agrupa los endpoints del catálogo de oficinas.
type Handler struct {
	Service OficinaService
	Logger  logger.Logger
}

// NewHandler crea una nueva instancia del Handler.
func NewHandler(svc OficinaService, log logger.Logger) *Handler {
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

// OficinasHandler atiende la colección /v1/oficinas.
//
// @Summary Crea o lista oficinas
// @Tags oficinas
// @Accept json
// @Produce json
// @Success 200 {array} domain.Oficina
// @Success 201 {object} domain.Oficina
// @Failure 400 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /v1/oficinas [get]
func (h *Handler) OficinasHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var oficina domain.Oficina
		if err := json.NewDecoder(r.Body).Decode(&oficina); err != nil {
			h.respond(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique el formato JSON."), 0)
			return
		}
		created, err := h.Service.CreateOficina(r.Context(), oficina)
		h.respond(w, r, created, err, http.StatusCreated)
	case http.MethodGet:
		oficinas, err := h.Service.GetAllOficinas(r.Context())
		h.respond(w, r, oficinas, err, http.StatusOK)
	default:
		http.Error(w, "Método no permitido", http.StatusMethodNotAllowed)
	}
}

// ArbolHandler retorna la vista jerárquica del catálogo.
//
// @Summary Árbol de oficinas
// @Tags oficinas
// @Produce json
// @Success 200 {array} domain.OficinaNode
// @Security BearerAuth
// @Router /v1/oficinas/arbol [get]
func (h *Handler) ArbolHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método no permitido", http.StatusMethodNotAllowed)
		return
	}
	arbol, err := h.Service.GetArbol(r.Context())
	h.respond(w, r, arbol, err, http.StatusOK)
}

// OficinaByIDHandler atiende /v1/oficinas/{id}: GET, PUT y DELETE
// (desactivación lógica).
func (h *Handler) OficinaByIDHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/oficinas/"), "/")
	if id == "" || id == "arbol" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		oficina, err := h.Service.GetOficinaByID(r.Context(), id)
		h.respond(w, r, oficina, err, http.StatusOK)
	case http.MethodPut:
		var oficina domain.Oficina
		if err := json.NewDecoder(r.Body).Decode(&oficina); err != nil {
			h.respond(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique el formato JSON."), 0)
			return
		}
		oficina.ID = id
		updated, err := h.Service.UpdateOficina(r.Context(), oficina)
		h.respond(w, r, updated, err, http.StatusOK)
	case http.MethodDelete:
		h.respond(w, r, nil, h.Service.DeactivateOficina(r.Context(), id), http.StatusNoContent)
	default:
		http.Error(w, "Método no permitido", http.StatusMethodNotAllowed)
	}
}
