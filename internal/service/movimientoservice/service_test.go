package movimientoservice_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gotramite/internal/domain"
	apperror "gotramite/internal/errors"
	"gotramite/internal/pkg/logger"
	"gotramite/internal/service/movimientoservice"
)

// MockMovimientoRepository es una implementación mock de MovimientoRepository.
type MockMovimientoRepository struct {
	mock.Mock
}

func (m *MockMovimientoRepository) AppendMovimiento(ctx context.Context, movimiento domain.Movimiento, nuevoEstado domain.EstadoTramite, numerar func(ctx context.Context, oficinaOrigenID string) (string, error)) (domain.Movimiento, error) {
	args := m.Called(ctx, movimiento, nuevoEstado, numerar)
	return args.Get(0).(domain.Movimiento), args.Error(1)
}

// stubOficinas conoce dos oficinas: la raíz "MESA" y la dependencia "SUB".
type stubOficinas struct{}

func (s *stubOficinas) GetOficinaByID(ctx context.Context, id string) (domain.Oficina, error) {
	switch id {
	case "of-raiz":
		return domain.Oficina{ID: id, Siglas: "MESA"}, nil
	case "of-sub":
		return domain.Oficina{ID: id, Siglas: "SUB"}, nil
	}
	return domain.Oficina{}, apperror.NewNotFoundError("oficina no encontrada")
}

type stubTiposDoc struct{}

func (s *stubTiposDoc) GetTipoDocumentoByID(ctx context.Context, id string) (domain.TipoDocumento, error) {
	return domain.TipoDocumento{ID: id, Nombre: "INFORME"}, nil
}

// stubNumerador registra el año recibido para poder verificarlo.
type stubNumerador struct {
	anios []int
}

func (s *stubNumerador) GenerarCodigo(ctx context.Context, tipoNombre, numero string, anio int, oficinaID string) (string, error) {
	s.anios = append(s.anios, anio)
	return tipoNombre + "-N°-" + numero, nil
}

func nuevoServicio(repo *MockMovimientoRepository) *movimientoservice.Service {
	svc, _ := nuevoServicioConNumerador(repo)
	return svc
}

func nuevoServicioConNumerador(repo *MockMovimientoRepository) (*movimientoservice.Service, *stubNumerador) {
	numerador := &stubNumerador{}
	return movimientoservice.NewService(repo, &stubOficinas{}, &stubTiposDoc{}, numerador, "MESA", logger.NewLogger("error")), numerador
}

func TestCrear_DerivacionNoFijaElOrigen(t *testing.T) {
	repo := new(MockMovimientoRepository)
	svc := nuevoServicio(repo)

	repo.On("AppendMovimiento", mock.Anything, mock.MatchedBy(func(mov domain.Movimiento) bool {
		// El origen llega vacío al repositorio: lo deriva la transacción.
		return mov.OficinaOrigenID == "" &&
			mov.TipoAccion == domain.AccionDerivacion &&
			mov.OficinaDestinoID != nil && *mov.OficinaDestinoID == "of-sub"
	}), domain.EstadoEnProceso, mock.Anything).Return(domain.Movimiento{ID: "m1"}, nil)

	actor := domain.Actor{UserID: "u1", OficinaID: "of-sub"}
	mov, err := svc.Crear(context.Background(), actor, domain.CrearMovimientoInput{
		TramiteID:        "t1",
		TipoAccion:       domain.AccionDerivacion,
		OficinaDestinoID: "of-sub",
	})

	assert.NoError(t, err)
	assert.Equal(t, "m1", mov.ID)
	repo.AssertExpectations(t)
}

func TestCrear_DerivacionRequiereDestino(t *testing.T) {
	repo := new(MockMovimientoRepository)
	svc := nuevoServicio(repo)

	actor := domain.Actor{UserID: "u1", OficinaID: "of-sub"}
	_, err := svc.Crear(context.Background(), actor, domain.CrearMovimientoInput{
		TramiteID:  "t1",
		TipoAccion: domain.AccionDerivacion,
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	repo.AssertNotCalled(t, "AppendMovimiento", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCrear_TipoAccionInvalido(t *testing.T) {
	repo := new(MockMovimientoRepository)
	svc := nuevoServicio(repo)

	_, err := svc.Crear(context.Background(), domain.Actor{UserID: "u1"}, domain.CrearMovimientoInput{
		TramiteID:  "t1",
		TipoAccion: "TRASLADO",
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
}

func TestFinalizar_SoloOficinaRaiz(t *testing.T) {
	repo := new(MockMovimientoRepository)
	svc := nuevoServicio(repo)

	// Usuario de una dependencia: rechazado sin tocar el repositorio.
	actor := domain.Actor{UserID: "u1", OficinaID: "of-sub"}
	_, err := svc.Finalizar(context.Background(), actor, "t1", "")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ForbiddenError{}, err)
	repo.AssertNotCalled(t, "AppendMovimiento", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFinalizar_SinOficinaAsignada(t *testing.T) {
	repo := new(MockMovimientoRepository)
	svc := nuevoServicio(repo)

	_, err := svc.Finalizar(context.Background(), domain.Actor{UserID: "u1"}, "t1", "")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ForbiddenError{}, err)
}

func TestFinalizar_DesdeOficinaRaiz(t *testing.T) {
	repo := new(MockMovimientoRepository)
	svc := nuevoServicio(repo)

	repo.On("AppendMovimiento", mock.Anything, mock.MatchedBy(func(mov domain.Movimiento) bool {
		return mov.TipoAccion == domain.AccionCierre && mov.OficinaDestinoID == nil
	}), domain.EstadoFinalizado, mock.Anything).Return(domain.Movimiento{ID: "m9", TipoAccion: domain.AccionCierre}, nil)

	actor := domain.Actor{UserID: "u1", OficinaID: "of-raiz"}
	mov, err := svc.Finalizar(context.Background(), actor, "t1", "atendido")

	assert.NoError(t, err)
	assert.Equal(t, domain.AccionCierre, mov.TipoAccion)
	repo.AssertExpectations(t)
}

func TestArchivar_DesdeOficinaRaiz(t *testing.T) {
	repo := new(MockMovimientoRepository)
	svc := nuevoServicio(repo)

	repo.On("AppendMovimiento", mock.Anything, mock.MatchedBy(func(mov domain.Movimiento) bool {
		return mov.TipoAccion == domain.AccionArchivo
	}), domain.EstadoArchivado, mock.Anything).Return(domain.Movimiento{ID: "m9", TipoAccion: domain.AccionArchivo}, nil)

	actor := domain.Actor{UserID: "u1", OficinaID: "of-raiz"}
	_, err := svc.Archivar(context.Background(), actor, "t1", "")

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestCrear_NumeracionIncompleta(t *testing.T) {
	repo := new(MockMovimientoRepository)
	svc := nuevoServicio(repo)

	actor := domain.Actor{UserID: "u1", OficinaID: "of-sub"}
	_, err := svc.Crear(context.Background(), actor, domain.CrearMovimientoInput{
		TramiteID:        "t1",
		TipoAccion:       domain.AccionDerivacion,
		OficinaDestinoID: "of-sub",
		NumeroDocumento:  "007", // sin tipo de documento
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
}

func TestCrear_ConNumeracionPasaElClosure(t *testing.T) {
	repo := new(MockMovimientoRepository)
	svc := nuevoServicio(repo)

	fechaDoc := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	repo.On("AppendMovimiento", mock.Anything, mock.MatchedBy(func(mov domain.Movimiento) bool {
		return mov.NumeroDocumento != nil && *mov.NumeroDocumento == "007" &&
			mov.TipoDocumentoID != nil && *mov.TipoDocumentoID == "td-informe"
	}), domain.EstadoEnProceso, mock.MatchedBy(func(numerar func(ctx context.Context, oficinaOrigenID string) (string, error)) bool {
		return numerar != nil
	})).Return(domain.Movimiento{ID: "m1"}, nil)

	actor := domain.Actor{UserID: "u1", OficinaID: "of-sub"}
	_, err := svc.Crear(context.Background(), actor, domain.CrearMovimientoInput{
		TramiteID:        "t1",
		TipoAccion:       domain.AccionDerivacion,
		OficinaDestinoID: "of-sub",
		NumeroDocumento:  "007",
		TipoDocumentoID:  "td-informe",
		FechaDocumento:   &fechaDoc,
	})

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestCrear_NumeraConElAnioDeRegistroSinFechaDeDocumento(t *testing.T) {
	repo := new(MockMovimientoRepository)
	svc, numerador := nuevoServicioConNumerador(repo)

	// La numeración no exige fecha de documento: el año del código es
	// siempre el año de registro.
	repo.On("AppendMovimiento", mock.Anything, mock.Anything, domain.EstadoEnProceso, mock.Anything).
		Run(func(args mock.Arguments) {
			numerar := args.Get(3).(func(ctx context.Context, oficinaOrigenID string) (string, error))
			_, _ = numerar(context.Background(), "of-origen")
		}).
		Return(domain.Movimiento{ID: "m1"}, nil)

	actor := domain.Actor{UserID: "u1", OficinaID: "of-sub"}
	_, err := svc.Crear(context.Background(), actor, domain.CrearMovimientoInput{
		TramiteID:        "t1",
		TipoAccion:       domain.AccionDerivacion,
		OficinaDestinoID: "of-sub",
		NumeroDocumento:  "007",
		TipoDocumentoID:  "td-informe",
	})

	assert.NoError(t, err)
	if assert.Len(t, numerador.anios, 1) {
		assert.Equal(t, time.Now().Year(), numerador.anios[0])
	}
}

func TestEliminar_SiempreRechazado(t *testing.T) {
	repo := new(MockMovimientoRepository)
	svc := nuevoServicio(repo)

	err := svc.Eliminar(context.Background(), "m1")

	assert.Error(t, err)
	assert.IsType(t, &apperror.InvariantError{}, err)
}
