package feriado

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

// FeriadoService define el contrato que el Handler espera de la capa de Servicio.
type FeriadoService interface {
	CreateFeriado(ctx context.Context, feriado domain.Feriado) (domain.Feriado, error)
	GetFeriadoByID(ctx context.Context, id string) (domain.Feriado, error)
	GetAllFeriados(ctx context.Context) ([]domain.Feriado, error)
	UpdateFeriado(ctx context.Context, feriado domain.Feriado) (domain.Feriado, error)
	DeleteFeriado(ctx context.Context, id string) error
}

// Handler agrupa los endpoints del calendario de feriados.
type Handler struct {
	Service FeriadoService
	Logger  logger.Logger
}

// NewHandler crea una nueva instancia del Handler.
func NewHandler(svc FeriadoService, log logger.Logger) *Handler {
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

// FeriadosHandler atiende la colección /v1/feriados.
//
// @Summary Crea o lista feriados
// @Tags feriados
// @Accept json
// @Produce json
// @Success 200 {array} domain.Feriado
// @Success 201 {object} domain.Feriado
// @Failure 400 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /v1/feriados [get]
func (h *Handler) FeriadosHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var feriado domain.Feriado
		if err := json.NewDecoder(r.Body).Decode(&feriado); err != nil {
			h.respond(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique el formato JSON."), 0)
			return
		}
		created, err := h.Service.CreateFeriado(r.Context(), feriado)
		h.respond(w, r, created, err, http.StatusCreated)
	case http.MethodGet:
		feriados, err := h.Service.GetAllFeriados(r.Context())
		h.respond(w, r, feriados, err, http.StatusOK)
	default:
		http.Error(w, "Método no permitido", http.StatusMethodNotAllowed)
	}
}

// FeriadoByIDHandler atiende /v1/feriados/{id}: GET, PUT y DELETE.
func (h *Handler) FeriadoByIDHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/feriados/"), "/")
	if id == "" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		feriado, err := h.Service.GetFeriadoByID(r.Context(), id)
		h.respond(w, r, feriado, err, http.StatusOK)
	case http.MethodPut:
		var feriado domain.Feriado
		if err := json.NewDecoder(r.Body).Decode(&feriado); err != nil {
			h.respond(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique el formato JSON."), 0)
			return
		}
		feriado.ID = id
		updated, err := h.Service.UpdateFeriado(r.Context(), feriado)
		h.respond(w, r, updated, err, http.StatusOK)
	case http.MethodDelete:
		h.respond(w, r, nil, h.Service.DeleteFeriado(r.Context(), id), http.StatusNoContent)
	default:
		http.Error(w, "Método no permitido", http.StatusMethodNotAllowed)
	}
}
