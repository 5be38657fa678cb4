package domain

import "time"

// Feriado es un día no laborable registrado. Su fecha (solo la parte de
// calendario) se excluye del conteo de días hábiles.
type Feriado struct {
	ID          string    `json:"id"`
	Fecha       time.Time `json:"fecha"`
	Descripcion string    `json:"descripcion,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FechaISO retorna la fecha en formato YYYY-MM-DD, la representación usada
// por el snapshot de feriados en memoria.
func (f Feriado) FechaISO() string {
	return f.Fecha.Format("2006-01-02")
}
