package user

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"gotramite/internal/domain"
	apperror "gotramite/internal/errors"
	"gotramite/internal/pkg/logger"
)

// UserService define el contrato que el Handler espera de la capa de Servicio.
type UserService interface {
	Register(ctx context.Context, registration domain.UserRegistration) (domain.User, error)
	Login(ctx context.Context, email string, password string) (string, error)
}

// Handler agrupa los endpoints de autenticación.
type Handler struct {
	Service UserService
	Logger  logger.Logger
}

// NewHandler crea una nueva instancia del Handler.
func NewHandler(svc UserService, log logger.Logger) *Handler {
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

// RegisterHandler registra un nuevo usuario.
//
// @Summary Registra un nuevo usuario
// @Description Crea un usuario con rol funcionario y oficina de pertenencia opcional.
// @Tags auth
// @Accept json
// @Produce json
// @Param usuario body domain.UserRegistration true "Datos de registro"
// @Success 201 {object} domain.User
// @Failure 400 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Router /register [post]
func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método no permitido", http.StatusMethodNotAllowed)
		return
	}

	var registration domain.UserRegistration
	if err := json.NewDecoder(r.Body).Decode(&registration); err != nil {
		h.respond(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique el formato JSON."), 0)
		return
	}

	user, err := h.Service.Register(r.Context(), registration)
	h.respond(w, r, user, err, http.StatusCreated)
}

// LoginHandler autentica un usuario y retorna un JWT.
//
// @Summary Autentica un usuario y retorna un JWT
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 401 {object} domain.ErrorResponse
// @Router /login [post]
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método no permitido", http.StatusMethodNotAllowed)
		return
	}

	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		h.respond(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique el formato JSON."), 0)
		return
	}

	token, err := h.Service.Login(r.Context(), credentials.Email, credentials.Password)
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	h.respond(w, r, map[string]string{"token": token}, nil, http.StatusOK)
}
