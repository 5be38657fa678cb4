package errors

import (
	"fmt"
	"net/http"
)

// AppError es la interfaz central para todos los errores tipados de GoTramite.
// Permite que el código externo (Handler) acceda a la Categoría y al Mensaje del error.
type AppError interface {
	Error() string    // Implementa la interfaz error estándar de Go
	Category() string // Categoría del error (e.g., "VALIDATION_ERROR", "NOT_FOUND")
	HTTPStatus() int  // Código HTTP sugerido para el Handler
	Unwrap() error    // Permite encapsular errores subyacentes
}

// --- Tipos de Error de Dominio ---

// ValidationError representa fallas de validación de datos de entrada.
// Siempre es recuperable: el llamador corrige el payload y reintenta.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string    { return fmt.Sprintf("Error de Validación: %s", e.Msg) }
func (e *ValidationError) Category() string { return "VALIDATION_ERROR" }
func (e *ValidationError) HTTPStatus() int  { return http.StatusBadRequest } // 400
func (e *ValidationError) Unwrap() error    { return nil }

// NewValidationError crea un nuevo error de validación.
func NewValidationError(msg string) AppError {
	return &ValidationError{Msg: msg}
}

// NotFoundError representa la ausencia de un recurso solicitado.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string    { return fmt.Sprintf("Recurso no encontrado: %s", e.Msg) }
func (e *NotFoundError) Category() string { return "NOT_FOUND" }
func (e *NotFoundError) HTTPStatus() int  { return http.StatusNotFound } // 404
func (e *NotFoundError) Unwrap() error    { return nil }

// NewNotFoundError crea un nuevo error de recurso no encontrado.
func NewNotFoundError(msg string) AppError {
	return &NotFoundError{Msg: msg}
}

// UnauthorizedError representa credenciales ausentes o inválidas (AuthN).
type UnauthorizedError struct {
	Msg string
}

func (e *UnauthorizedError) Error() string    { return fmt.Sprintf("No autorizado: %s", e.Msg) }
func (e *UnauthorizedError) Category() string { return "UNAUTHORIZED" }
func (e *UnauthorizedError) HTTPStatus() int  { return http.StatusUnauthorized } // 401
func (e *UnauthorizedError) Unwrap() error    { return nil }

// NewUnauthorizedError crea un nuevo error de autenticación.
func NewUnauthorizedError(msg string) AppError {
	return &UnauthorizedError{Msg: msg}
}

// ForbiddenError representa una acción denegada por reglas de autorización
// (e.g., acción final de trámite solicitada desde una oficina no raíz).
// Se distingue de ValidationError para que el cliente muestre "prohibido"
// en lugar de "entrada inválida".
type ForbiddenError struct {
	Msg string
}

func (e *ForbiddenError) Error() string    { return fmt.Sprintf("Acción no permitida: %s", e.Msg) }
func (e *ForbiddenError) Category() string { return "FORBIDDEN" }
func (e *ForbiddenError) HTTPStatus() int  { return http.StatusForbidden } // 403
func (e *ForbiddenError) Unwrap() error    { return nil }

// NewForbiddenError crea un nuevo error de autorización.
func NewForbiddenError(msg string) AppError {
	return &ForbiddenError{Msg: msg}
}

// ConflictError representa un conflicto de estado en la regla de negocio
// (e.g., recurso duplicado, escritura concurrente perdida).
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string    { return fmt.Sprintf("Conflicto de estado: %s", e.Msg) }
func (e *ConflictError) Category() string { return "CONFLICT" }
func (e *ConflictError) HTTPStatus() int  { return http.StatusConflict } // 409
func (e *ConflictError) Unwrap() error    { return nil }

// NewConflictError crea un nuevo error de conflicto.
func NewConflictError(msg string) AppError {
	return &ConflictError{Msg: msg}
}

// InvariantError representa una operación no soportada por diseño
// (e.g., eliminar un trámite o un movimiento: la auditoría es inmutable).
// No es un error de entrada: la operación no existe en el sistema.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string    { return fmt.Sprintf("Operación no soportada: %s", e.Msg) }
func (e *InvariantError) Category() string { return "INVARIANT_VIOLATION" }
func (e *InvariantError) HTTPStatus() int  { return http.StatusMethodNotAllowed } // 405
func (e *InvariantError) Unwrap() error    { return nil }

// NewInvariantError crea un nuevo error de invariante.
func NewInvariantError(msg string) AppError {
	return &InvariantError{Msg: msg}
}

// --- Tipos de Error de Infraestructura (Encapsulamiento) ---

// InternalError representa fallas inesperadas en el servidor, servicio o repositorio.
// Incluye las fallas de escritura multi-registro ya revertidas (rollback):
// el llamador solo ve "operación fallida", nunca un estado parcial.
type InternalError struct {
	Msg string
	Err error // Error original subyacente (e.g., error del driver SQL)
}

func (e *InternalError) Error() string    { return fmt.Sprintf("Error Interno: %s", e.Msg) }
func (e *InternalError) Category() string { return "INTERNAL_ERROR" }
func (e *InternalError) HTTPStatus() int  { return http.StatusInternalServerError } // 500
func (e *InternalError) Unwrap() error    { return e.Err }

// NewInternalError crea un error de servidor.
func NewInternalError(msg string, err error) AppError {
	return &InternalError{Msg: msg, Err: err}
}

// NewDBError es un atajo para crear un InternalError específico de fallas en la DB.
func NewDBError(msg string, err error) AppError {
	return NewInternalError(fmt.Sprintf("%s (DB): %s", msg, err.Error()), err)
}

// --- Helper para el Handler (Traducción Final) ---

// MapToHTTPStatus recibe un error y lo traduce al código HTTP y cuerpo de respuesta.
func MapToHTTPStatus(err error) (int, string, string) {
	if appErr, ok := err.(AppError); ok {
		return appErr.HTTPStatus(), appErr.Category(), appErr.Error()
	}

	// Error no tipado: tratar como interno genérico.
	return http.StatusInternalServerError, "UNKNOWN_ERROR", "Ocurrió un error inesperado."
}
