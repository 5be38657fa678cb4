package domain

import (
	"time"
)

// TipoAccion es la acción registrada por un movimiento.
// El conjunto es cerrado; ARCHIVO y CIERRE son acciones finales.
type TipoAccion string

const (
	AccionRecepcion  TipoAccion = "RECEPCION"
	AccionEnvio      TipoAccion = "ENVIO"      // Despacho inicial de un trámite originado internamente
	AccionDerivacion TipoAccion = "DERIVACION" // Derivación interna entre oficinas
	AccionArchivo    TipoAccion = "ARCHIVO"
	AccionCierre     TipoAccion = "CIERRE"
)

// EsFinal indica si la acción cierra la vida activa del trámite.
func (a TipoAccion) EsFinal() bool {
	return a == AccionArchivo || a == AccionCierre
}

// EsValida indica si el valor pertenece al conjunto cerrado de acciones.
func (a TipoAccion) EsValida() bool {
	switch a {
	case AccionRecepcion, AccionEnvio, AccionDerivacion, AccionArchivo, AccionCierre:
		return true
	}
	return false
}

// Movimiento es una entrada inmutable de la cadena de custodia de un
// trámite. Los movimientos de un trámite están totalmente ordenados por
// CreatedAt; el destino del último movimiento define la ubicación actual.
type Movimiento struct {
	ID         string     `json:"id"`
	TramiteID  string     `json:"tramite_id"`
	TipoAccion TipoAccion `json:"tipo_accion"`

	UsuarioCreadorID string  `json:"usuario_creador_id"`
	OficinaOrigenID  string  `json:"oficina_origen_id"`
	OficinaDestinoID *string `json:"oficina_destino_id,omitempty"` // Nulo en acciones finales

	// Numeración opcional: solo cuando el movimiento produce un nuevo
	// documento numerado (tipo de documento + secuencia manual presentes).
	NumeroDocumento         *string `json:"numero_documento,omitempty"`
	NumeroDocumentoCompleto *string `json:"numero_documento_completo,omitempty"`
	TipoDocumentoID         *string `json:"tipo_documento_id,omitempty"`

	Notas          string     `json:"notas,omitempty"`
	Observaciones  string     `json:"observaciones,omitempty"`
	FechaDocumento *time.Time `json:"fecha_documento,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// CrearMovimientoInput es el payload de entrada para registrar un movimiento.
// La oficina de origen NO se recibe: se deriva de la cadena de custodia
// dentro de la transacción de escritura.
type CrearMovimientoInput struct {
	TramiteID        string     `json:"tramite_id"`
	TipoAccion       TipoAccion `json:"tipo_accion"`
	OficinaDestinoID string     `json:"oficina_destino_id,omitempty"` // Requerido salvo en acciones finales
	NumeroDocumento  string     `json:"numero_documento,omitempty"`
	TipoDocumentoID  string     `json:"tipo_documento_id,omitempty"`
	Notas            string     `json:"notas,omitempty"`
	Observaciones    string     `json:"observaciones,omitempty"`
	FechaDocumento   *time.Time `json:"fecha_documento,omitempty"`
}
