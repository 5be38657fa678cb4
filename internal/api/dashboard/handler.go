package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"gotramite/internal/domain"
	apperror "gotramite/internal/errors"
	"gotramite/internal/pkg/logger"
	"gotramite/internal/service/dashboardservice"
)

// DashboardService define el contrato que el Handler espera de la capa de Servicio.
type DashboardService interface {
	GetResumen(ctx context.Context) (dashboardservice.Resumen, error)
}

// Handler expone el resumen estadístico del sistema.
type Handler struct {
	Service DashboardService
	Logger  logger.Logger
}

// NewHandler crea una nueva instancia del Handler.
func NewHandler(svc DashboardService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// ResumenHandler atiende GET /v1/dashboard.
//
// @Summary Resumen estadístico
// @Tags dashboard
// @Produce json
// @Success 200 {object} dashboardservice.Resumen
// @Security BearerAuth
// @Router /v1/dashboard [get]
func (h *Handler) ResumenHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método no permitido", http.StatusMethodNotAllowed)
		return
	}

	resumen, err := h.Service.GetResumen(r.Context())
	if err != nil {
		status, category, message := apperror.MapToHTTPStatus(err)
		if status >= 500 {
			h.Logger.Error(fmt.Sprintf("Error de Servidor: %s", category), err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(domain.ErrorResponse{Code: status, Category: category, Message: message})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resumen)
}
