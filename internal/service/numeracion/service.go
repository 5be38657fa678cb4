package numeracion

import (
	"context"
	"fmt"
	"strings"

	"gotramite/internal/domain"
	apperror "gotramite/internal/errors"
)

// OficinaLookup define el contrato que este Servicio espera de la capa de
// Persistencia para resolver oficinas por ID.
type OficinaLookup interface {
	GetOficinaByID(ctx context.Context, id string) (domain.Oficina, error)
}

// Service resuelve la jerarquía de siglas de una oficina y genera el número
// de documento completo. No tiene estado: todas sus entradas vienen de la
// capa de persistencia o del llamador.
type Service struct {
	oficinas OficinaLookup
}

// NewService crea y retorna una nueva instancia del Servicio de Numeración.
func NewService(oficinas OficinaLookup) *Service {
	return &Service{oficinas: oficinas}
}

// maxProfundidad acota el ascenso por la cadena de padres. Los ciclos se
// rechazan al escribir la oficina, pero un dato corrupto preexistente no
// debe colgar la petición.
const maxProfundidad = 100

// RutaJerarquia asciende desde la oficina dada hasta la raíz y retorna las
// siglas en orden raíz→hoja. Una oficina inexistente produce una ruta
// vacía, no un error: la numeración degrada a un código sin jerarquía.
func (s *Service) RutaJerarquia(ctx context.Context, oficinaID string) ([]string, error) {
	ruta := []string{}
	actual := oficinaID

	for i := 0; actual != "" && i < maxProfundidad; i++ {
		oficina, err := s.oficinas.GetOficinaByID(ctx, actual)
		if err != nil {
			if _, ok := err.(*apperror.NotFoundError); ok {
				// Eslabón roto: se retorna lo acumulado hasta aquí.
				return ruta, nil
			}
			return nil, err
		}

		ruta = append([]string{oficina.Siglas}, ruta...)

		if oficina.ParentID == nil {
			return ruta, nil
		}
		actual = *oficina.ParentID
	}

	if actual != "" {
		return nil, apperror.NewInternalError(
			fmt.Sprintf("La jerarquía de la oficina %q excede la profundidad máxima.", oficinaID), nil)
	}
	return ruta, nil
}

// UnirJerarquia colapsa una ruta de siglas en su representación textual.
func UnirJerarquia(ruta []string) string {
	return strings.Join(ruta, "/")
}

// NumeroDocumentoCompleto formatea el código de un documento:
//
//	{tipo}-N°-{numero}-{año}-{jerarquía}
//
// e.g. "OFICIO-N°-001-2025-A/B". El nombre del tipo se interpola tal cual
// está en el catálogo. Con jerarquía vacía el código termina en el año,
// sin guion colgante.
func NumeroDocumentoCompleto(tipoNombre, numero string, anio int, jerarquia string) string {
	codigo := fmt.Sprintf("%s-N°-%s-%d", tipoNombre, numero, anio)
	if jerarquia == "" {
		return codigo
	}
	return codigo + "-" + jerarquia
}

// GenerarCodigo compone la resolución de jerarquía y el formato final en un
// solo paso, para los llamadores que parten de una oficina.
func (s *Service) GenerarCodigo(ctx context.Context, tipoNombre, numero string, anio int, oficinaID string) (string, error) {
	ruta, err := s.RutaJerarquia(ctx, oficinaID)
	if err != nil {
		return "", err
	}
	return NumeroDocumentoCompleto(tipoNombre, numero, anio, UnirJerarquia(ruta)), nil
}
