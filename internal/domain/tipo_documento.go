package domain

import "time"

// TipoDocumento cataloga las clases de documento oficial (OFICIO, MEMORANDO,
// INFORME, etc.). Su nombre participa en la numeración de los trámites.
type TipoDocumento struct {
	ID          string    `json:"id"`
	Nombre      string    `json:"nombre"`
	Descripcion string    `json:"descripcion,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
