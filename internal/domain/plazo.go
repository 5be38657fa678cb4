package domain

// EstadoPlazo clasifica la presión de plazo de un trámite abierto.
// Los trámites en estado terminal no acumulan plazo (NO_APLICA).
type EstadoPlazo string

const (
	PlazoATiempo   EstadoPlazo = "A_TIEMPO"
	PlazoPorVencer EstadoPlazo = "POR_VENCER"
	PlazoVencido   EstadoPlazo = "VENCIDO"
	PlazoNoAplica  EstadoPlazo = "NO_APLICA"
)

// PlazoInfo es el snapshot de plazo de un trámite, derivado en lectura y
// nunca persistido. DiasTranscurridos es nulo cuando el estado es NO_APLICA.
type PlazoInfo struct {
	DiasTranscurridos *int        `json:"dias_transcurridos"`
	Estado            EstadoPlazo `json:"estado"`
}
