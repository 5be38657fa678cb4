package domain

import (
	"time"
)

// Oficina representa una unidad organizacional del sistema de trámite
// documentario. Las oficinas forman un árbol mediante ParentID; la cadena de
// padres es finita y acíclica (el repositorio rechaza escrituras que
// introducirían un ciclo).
type Oficina struct {
	ID        string    `json:"id"`
	Nombre    string    `json:"nombre"`
	Siglas    string    `json:"siglas"` // Código corto usado en la numeración jerárquica
	Tipo      string    `json:"tipo"`
	ParentID  *string   `json:"parent_id,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OficinaNode es una oficina con sus hijas, usada para la vista en árbol.
type OficinaNode struct {
	Oficina
	Children []*OficinaNode `json:"children"`
}
