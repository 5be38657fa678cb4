package domain

import (
	"time"
)

// EstadoTramite es el estado de ciclo de vida de un trámite.
// El conjunto es cerrado: EN_PROCESO es el único estado no terminal.
type EstadoTramite string

const (
	EstadoEnProceso  EstadoTramite = "EN_PROCESO"
	EstadoFinalizado EstadoTramite = "FINALIZADO"
	EstadoArchivado  EstadoTramite = "ARCHIVADO"
)

// EsTerminal indica si el estado no admite más transiciones ni movimientos.
func (e EstadoTramite) EsTerminal() bool {
	return e == EstadoFinalizado || e == EstadoArchivado
}

// EsValido indica si el valor pertenece al conjunto cerrado de estados.
func (e EstadoTramite) EsValido() bool {
	switch e {
	case EstadoEnProceso, EstadoFinalizado, EstadoArchivado:
		return true
	}
	return false
}

// PrioridadTramite es la prioridad de atención, ordenada de menor a mayor.
type PrioridadTramite string

const (
	PrioridadBaja    PrioridadTramite = "BAJA"
	PrioridadNormal  PrioridadTramite = "NORMAL"
	PrioridadAlta    PrioridadTramite = "ALTA"
	PrioridadUrgente PrioridadTramite = "URGENTE"
)

// EsValida indica si el valor pertenece al conjunto cerrado de prioridades.
func (p PrioridadTramite) EsValida() bool {
	switch p {
	case PrioridadBaja, PrioridadNormal, PrioridadAlta, PrioridadUrgente:
		return true
	}
	return false
}

// Tramite representa un documento oficial en circulación entre oficinas,
// desde su apertura (recepción o envío) hasta su cierre o archivo.
// Un trámite nunca se elimina físicamente; solo transiciona a un estado
// terminal.
type Tramite struct {
	ID        string           `json:"id"`
	Asunto    string           `json:"asunto"`
	Estado    EstadoTramite    `json:"estado"`
	Prioridad PrioridadTramite `json:"prioridad"`

	// Numeración
	NumeroDocumento         string `json:"numero_documento"`          // Secuencia manual (e.g., "001")
	NumeroDocumentoCompleto string `json:"numero_documento_completo"` // Código generado (e.g., "OFICIO-N°-001-2025-A/B")

	// Relaciones
	TipoDocumentoID    string  `json:"tipo_documento_id"`
	OficinaRemitenteID string  `json:"oficina_remitente_id"`
	UsuarioAsignadoID  *string `json:"usuario_asignado_id,omitempty"`

	Observaciones string `json:"observaciones,omitempty"`

	// Reloj de negocio: la fecha de recepción puede diferir de created_at
	// (documentos recibidos en papel y registrados después).
	FechaDocumento time.Time  `json:"fecha_documento"`
	FechaRecepcion time.Time  `json:"fecha_recepcion"`
	FechaCierre    *time.Time `json:"fecha_cierre,omitempty"` // No nulo sii el estado es terminal

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Movimientos ordenados por fecha de creación (solo en lecturas de detalle).
	Movimientos []Movimiento `json:"movimientos,omitempty"`
}

// UbicacionActual deriva la oficina donde se encuentra físicamente el
// trámite: el destino del último movimiento, o la oficina remitente si aún
// no hay movimientos. Los movimientos deben venir ordenados por creación.
func (t *Tramite) UbicacionActual() string {
	for i := len(t.Movimientos) - 1; i >= 0; i-- {
		if t.Movimientos[i].OficinaDestinoID != nil {
			return *t.Movimientos[i].OficinaDestinoID
		}
	}
	return t.OficinaRemitenteID
}

// CrearTramiteInput es el payload de entrada para abrir un trámite.
// TipoRegistro decide el flujo: RECEPCION (documento externo que llega) o
// ENVIO (la oficina autenticada origina y despacha el documento).
type CrearTramiteInput struct {
	TipoRegistro       string            `json:"tipo_registro"` // "RECEPCION" | "ENVIO"
	Asunto             string            `json:"asunto"`
	Prioridad          PrioridadTramite  `json:"prioridad,omitempty"`
	NumeroDocumento    string            `json:"numero_documento"`
	TipoDocumentoID    string            `json:"tipo_documento_id"`
	OficinaRemitenteID string            `json:"oficina_remitente_id,omitempty"` // Requerido en RECEPCION
	OficinaDestinoID   string            `json:"oficina_destino_id,omitempty"`   // Requerido en ENVIO
	Observaciones      string            `json:"observaciones,omitempty"`
	Notas              string            `json:"notas,omitempty"`
	FechaDocumento     time.Time         `json:"fecha_documento"`
	FechaRecepcion     *time.Time        `json:"fecha_recepcion,omitempty"`
}

// TramiteFilter define los parámetros de búsqueda y paginación del listado.
type TramiteFilter struct {
	Q                string             // Texto libre sobre asunto / número completo
	Estados          []EstadoTramite
	Prioridades      []PrioridadTramite
	OficinaIDs       []string // Oficina remitente original
	TipoDocumentoIDs []string
	Page             int
	Limit            int
	SortBy           string // "campo:asc|desc" sobre una lista blanca de campos
}

// TramiteResumen es una fila de listado: el trámite más la marca de tiempo
// de su último movimiento (nula si aún no tiene), usada como referencia del
// cálculo de plazo sin cargar la cadena completa.
type TramiteResumen struct {
	Tramite
	UltimoMovimiento *time.Time `json:"-"`
}

// TramiteConPlazo es un trámite enriquecido con su información de plazo.
type TramiteConPlazo struct {
	Tramite
	Plazo PlazoInfo `json:"plazo"`
}

// TramiteListado es el resultado paginado del listado de trámites.
type TramiteListado struct {
	Data []TramiteConPlazo `json:"data"`
	Meta ListadoMeta       `json:"meta"`
}

// ListadoMeta describe la paginación de un listado.
type ListadoMeta struct {
	Total    int `json:"total"`
	Page     int `json:"page"`
	Limit    int `json:"limit"`
	LastPage int `json:"last_page"`
}
