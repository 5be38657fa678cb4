package domain

// ErrorResponse es la estructura estandarizada para respuestas de error en la API.
// @Description Estructura estandarizada para respuestas de error en la API.
type ErrorResponse struct {
	Code     int    `json:"code" example:"400"`
	Category string `json:"category" example:"VALIDATION_ERROR"`
	Message  string `json:"message" example:"oficina_destino_id es requerido para el tipo de registro ENVIO."`
}
