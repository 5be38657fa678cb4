package tramiteservice_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gotramite/internal/domain"
	apperror "gotramite/internal/errors"
	"gotramite/internal/pkg/logger"
	"gotramite/internal/service/tramiteservice"
)

// MockTramiteRepository es una implementación mock de la interfaz TramiteRepository.
type MockTramiteRepository struct {
	mock.Mock
}

func (m *MockTramiteRepository) CreateTramite(ctx context.Context, tramite domain.Tramite) (domain.Tramite, error) {
	args := m.Called(ctx, tramite)
	return args.Get(0).(domain.Tramite), args.Error(1)
}

func (m *MockTramiteRepository) CreateTramiteConMovimiento(ctx context.Context, tramite domain.Tramite, movimiento domain.Movimiento) (domain.Tramite, error) {
	args := m.Called(ctx, tramite, movimiento)
	return args.Get(0).(domain.Tramite), args.Error(1)
}

func (m *MockTramiteRepository) GetTramiteByID(ctx context.Context, id string) (domain.Tramite, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Tramite), args.Error(1)
}

func (m *MockTramiteRepository) FindAll(ctx context.Context, filter domain.TramiteFilter) ([]domain.TramiteResumen, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.TramiteResumen), args.Int(1), args.Error(2)
}

// stubOficinas acepta cualquier oficina conocida.
type stubOficinas struct {
	conocidas map[string]bool
}

func (s *stubOficinas) GetOficinaByID(ctx context.Context, id string) (domain.Oficina, error) {
	if !s.conocidas[id] {
		return domain.Oficina{}, apperror.NewNotFoundError("oficina no encontrada")
	}
	return domain.Oficina{ID: id, Siglas: "OF-" + id}, nil
}

type stubTiposDoc struct{}

func (s *stubTiposDoc) GetTipoDocumentoByID(ctx context.Context, id string) (domain.TipoDocumento, error) {
	if id != "td-oficio" {
		return domain.TipoDocumento{}, apperror.NewNotFoundError("tipo de documento no encontrado")
	}
	return domain.TipoDocumento{ID: id, Nombre: "OFICIO"}, nil
}

// stubNumerador registra el año recibido; el código retornado fija el año
// para que las aserciones no dependan del reloj.
type stubNumerador struct {
	anios []int
}

func (s *stubNumerador) GenerarCodigo(ctx context.Context, tipoNombre, numero string, anio int, oficinaID string) (string, error) {
	s.anios = append(s.anios, anio)
	return tipoNombre + "-N°-" + numero + "-2025-" + oficinaID, nil
}

// stubPlazos registra la referencia recibida para poder verificarla.
type stubPlazos struct {
	referencias []time.Time
}

func (s *stubPlazos) InfoPlazo(estado domain.EstadoTramite, referencia time.Time, ahora time.Time) domain.PlazoInfo {
	s.referencias = append(s.referencias, referencia)
	if estado.EsTerminal() {
		return domain.PlazoInfo{Estado: domain.PlazoNoAplica}
	}
	dias := 0
	return domain.PlazoInfo{DiasTranscurridos: &dias, Estado: domain.PlazoATiempo}
}

func nuevoServicio(repo *MockTramiteRepository) (*tramiteservice.Service, *stubPlazos) {
	oficinas := &stubOficinas{conocidas: map[string]bool{"of-a": true, "of-b": true, "of-c": true}}
	plazos := &stubPlazos{}
	return tramiteservice.NewService(repo, oficinas, &stubTiposDoc{}, &stubNumerador{}, plazos, logger.NewLogger("error")), plazos
}

func entradaBase(tipoRegistro string) domain.CrearTramiteInput {
	return domain.CrearTramiteInput{
		TipoRegistro:    tipoRegistro,
		Asunto:          "Solicitud de informe técnico",
		NumeroDocumento: "001",
		TipoDocumentoID: "td-oficio",
		FechaDocumento:  time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestCrearTramite_NumeraConElAnioDeRegistro(t *testing.T) {
	repo := new(MockTramiteRepository)
	oficinas := &stubOficinas{conocidas: map[string]bool{"of-b": true}}
	numerador := &stubNumerador{}
	svc := tramiteservice.NewService(repo, oficinas, &stubTiposDoc{}, numerador, &stubPlazos{}, logger.NewLogger("error"))

	repo.On("CreateTramite", mock.Anything, mock.Anything).Return(domain.Tramite{ID: "t1"}, nil)

	input := entradaBase("RECEPCION")
	input.OficinaRemitenteID = "of-b"
	// Documento fechado el año pasado: el código igual lleva el año actual.
	input.FechaDocumento = time.Date(time.Now().Year()-1, 12, 30, 0, 0, 0, 0, time.UTC)

	_, err := svc.CrearTramite(context.Background(), domain.Actor{UserID: "u1"}, input)

	assert.NoError(t, err)
	if assert.Len(t, numerador.anios, 1) {
		assert.Equal(t, time.Now().Year(), numerador.anios[0])
	}
}

func TestCrearTramite_RecepcionSinMovimiento(t *testing.T) {
	repo := new(MockTramiteRepository)
	svc, _ := nuevoServicio(repo)

	input := entradaBase("RECEPCION")
	input.OficinaRemitenteID = "of-b"

	repo.On("CreateTramite", mock.Anything, mock.MatchedBy(func(tr domain.Tramite) bool {
		return tr.OficinaRemitenteID == "of-b" &&
			tr.Estado == domain.EstadoEnProceso &&
			tr.NumeroDocumentoCompleto == "OFICIO-N°-001-2025-of-b"
	})).Return(domain.Tramite{ID: "t1"}, nil)

	actor := domain.Actor{UserID: "u1", OficinaID: "of-a"}
	tramite, err := svc.CrearTramite(context.Background(), actor, input)

	assert.NoError(t, err)
	assert.Equal(t, "t1", tramite.ID)
	repo.AssertExpectations(t)
	// El flujo de recepción nunca crea movimiento inicial.
	repo.AssertNotCalled(t, "CreateTramiteConMovimiento", mock.Anything, mock.Anything, mock.Anything)
}

func TestCrearTramite_RecepcionRequiereRemitente(t *testing.T) {
	repo := new(MockTramiteRepository)
	svc, _ := nuevoServicio(repo)

	input := entradaBase("RECEPCION")

	_, err := svc.CrearTramite(context.Background(), domain.Actor{UserID: "u1"}, input)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	repo.AssertNotCalled(t, "CreateTramite", mock.Anything, mock.Anything)
}

func TestCrearTramite_EnvioAtomicoConPrimerMovimiento(t *testing.T) {
	repo := new(MockTramiteRepository)
	svc, _ := nuevoServicio(repo)

	input := entradaBase("ENVIO")
	input.OficinaDestinoID = "of-c"

	repo.On("CreateTramiteConMovimiento", mock.Anything,
		mock.MatchedBy(func(tr domain.Tramite) bool {
			// El despachante (oficina del actor) es el remitente y numera.
			return tr.OficinaRemitenteID == "of-a" &&
				tr.NumeroDocumentoCompleto == "OFICIO-N°-001-2025-of-a"
		}),
		mock.MatchedBy(func(mov domain.Movimiento) bool {
			return mov.TipoAccion == domain.AccionEnvio &&
				mov.OficinaOrigenID == "of-a" &&
				mov.OficinaDestinoID != nil && *mov.OficinaDestinoID == "of-c" &&
				mov.UsuarioCreadorID == "u1"
		}),
	).Return(domain.Tramite{ID: "t2"}, nil)

	actor := domain.Actor{UserID: "u1", OficinaID: "of-a"}
	tramite, err := svc.CrearTramite(context.Background(), actor, input)

	assert.NoError(t, err)
	assert.Equal(t, "t2", tramite.ID)
	repo.AssertExpectations(t)
}

func TestCrearTramite_EnvioRequiereOficinaDelActor(t *testing.T) {
	repo := new(MockTramiteRepository)
	svc, _ := nuevoServicio(repo)

	input := entradaBase("ENVIO")
	input.OficinaDestinoID = "of-c"

	_, err := svc.CrearTramite(context.Background(), domain.Actor{UserID: "u1"}, input)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ForbiddenError{}, err)
}

func TestCrearTramite_EnvioRequiereDestino(t *testing.T) {
	repo := new(MockTramiteRepository)
	svc, _ := nuevoServicio(repo)

	input := entradaBase("ENVIO")

	actor := domain.Actor{UserID: "u1", OficinaID: "of-a"}
	_, err := svc.CrearTramite(context.Background(), actor, input)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
}

func TestCrearTramite_TipoRegistroDesconocido(t *testing.T) {
	repo := new(MockTramiteRepository)
	svc, _ := nuevoServicio(repo)

	_, err := svc.CrearTramite(context.Background(), domain.Actor{UserID: "u1"}, entradaBase("TRASLADO"))

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
}

func TestGetTramiteConPlazo_ReferenciaEsElUltimoMovimiento(t *testing.T) {
	repo := new(MockTramiteRepository)
	svc, plazos := nuevoServicio(repo)

	recepcion := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	ultimo := time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)

	repo.On("GetTramiteByID", mock.Anything, "t1").Return(domain.Tramite{
		ID:             "t1",
		Estado:         domain.EstadoEnProceso,
		FechaRecepcion: recepcion,
		Movimientos: []domain.Movimiento{
			{ID: "m1", CreatedAt: recepcion.AddDate(0, 0, 1)},
			{ID: "m2", CreatedAt: ultimo},
		},
	}, nil)

	_, err := svc.GetTramiteConPlazo(context.Background(), "t1")

	assert.NoError(t, err)
	if assert.Len(t, plazos.referencias, 1) {
		assert.Equal(t, ultimo, plazos.referencias[0])
	}
}

func TestGetTramiteConPlazo_SinMovimientosUsaLaRecepcion(t *testing.T) {
	repo := new(MockTramiteRepository)
	svc, plazos := nuevoServicio(repo)

	recepcion := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	repo.On("GetTramiteByID", mock.Anything, "t1").Return(domain.Tramite{
		ID:             "t1",
		Estado:         domain.EstadoEnProceso,
		FechaRecepcion: recepcion,
	}, nil)

	_, err := svc.GetTramiteConPlazo(context.Background(), "t1")

	assert.NoError(t, err)
	if assert.Len(t, plazos.referencias, 1) {
		assert.Equal(t, recepcion, plazos.referencias[0])
	}
}

func TestGetTramiteConPlazo_TerminalSinPlazo(t *testing.T) {
	repo := new(MockTramiteRepository)
	svc, _ := nuevoServicio(repo)

	repo.On("GetTramiteByID", mock.Anything, "t1").Return(domain.Tramite{
		ID:     "t1",
		Estado: domain.EstadoArchivado,
	}, nil)

	resultado, err := svc.GetTramiteConPlazo(context.Background(), "t1")

	assert.NoError(t, err)
	assert.Equal(t, domain.PlazoNoAplica, resultado.Plazo.Estado)
	assert.Nil(t, resultado.Plazo.DiasTranscurridos)
}

func TestFindAll_PaginacionYPlazos(t *testing.T) {
	repo := new(MockTramiteRepository)
	svc, _ := nuevoServicio(repo)

	repo.On("FindAll", mock.Anything, mock.MatchedBy(func(f domain.TramiteFilter) bool {
		return f.Page == 1 && f.Limit == 10 // defaults aplicados
	})).Return([]domain.TramiteResumen{
		{Tramite: domain.Tramite{ID: "t1", Estado: domain.EstadoEnProceso, FechaRecepcion: time.Now()}},
	}, 25, nil)

	listado, err := svc.FindAll(context.Background(), domain.TramiteFilter{})

	assert.NoError(t, err)
	assert.Len(t, listado.Data, 1)
	assert.Equal(t, 25, listado.Meta.Total)
	assert.Equal(t, 3, listado.Meta.LastPage)
}

func TestFindAll_FiltroInvalido(t *testing.T) {
	repo := new(MockTramiteRepository)
	svc, _ := nuevoServicio(repo)

	_, err := svc.FindAll(context.Background(), domain.TramiteFilter{
		Estados: []domain.EstadoTramite{"PENDIENTE"},
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	repo.AssertNotCalled(t, "FindAll", mock.Anything, mock.Anything)
}

func TestEliminarTramite_SiempreRechazado(t *testing.T) {
	repo := new(MockTramiteRepository)
	svc, _ := nuevoServicio(repo)

	err := svc.EliminarTramite(context.Background(), "t1")

	assert.Error(t, err)
	assert.IsType(t, &apperror.InvariantError{}, err)
}
