package oficinaservice_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gotramite/internal/domain"
	apperror "gotramite/internal/errors"
	"gotramite/internal/pkg/logger"
	"gotramite/internal/service/oficinaservice"
)

type MockOficinaRepository struct {
	mock.Mock
}

func (m *MockOficinaRepository) CreateOficina(ctx context.Context, oficina domain.Oficina) (domain.Oficina, error) {
	args := m.Called(ctx, oficina)
	return args.Get(0).(domain.Oficina), args.Error(1)
}

func (m *MockOficinaRepository) GetOficinaByID(ctx context.Context, id string) (domain.Oficina, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Oficina), args.Error(1)
}

func (m *MockOficinaRepository) GetAllOficinas(ctx context.Context) ([]domain.Oficina, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Oficina), args.Error(1)
}

func (m *MockOficinaRepository) UpdateOficina(ctx context.Context, oficina domain.Oficina) (domain.Oficina, error) {
	args := m.Called(ctx, oficina)
	return args.Get(0).(domain.Oficina), args.Error(1)
}

func (m *MockOficinaRepository) DeactivateOficina(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func nuevoServicio(repo *MockOficinaRepository) *oficinaservice.Service {
	return oficinaservice.NewService(repo, logger.NewLogger("error"))
}

func ptr(s string) *string { return &s }

func TestCreateOficina_RequiereNombreYSiglas(t *testing.T) {
	repo := new(MockOficinaRepository)
	svc := nuevoServicio(repo)

	_, err := svc.CreateOficina(context.Background(), domain.Oficina{Nombre: "Mesa de Partes"})

	var validation *apperror.ValidationError
	assert.ErrorAs(t, err, &validation)
	repo.AssertNotCalled(t, "CreateOficina")
}

func TestCreateOficina_VerificaQueElPadreExista(t *testing.T) {
	repo := new(MockOficinaRepository)
	svc := nuevoServicio(repo)

	repo.On("GetOficinaByID", mock.Anything, "no-existe").
		Return(domain.Oficina{}, apperror.NewNotFoundError("Oficina no encontrada."))

	_, err := svc.CreateOficina(context.Background(), domain.Oficina{
		Nombre:   "Unidad de Archivo",
		Siglas:   "UA",
		ParentID: ptr("no-existe"),
	})

	var notFound *apperror.NotFoundError
	assert.ErrorAs(t, err, &notFound)
	repo.AssertNotCalled(t, "CreateOficina")
}

func TestUpdateOficina_RechazaSerSuPropioPadre(t *testing.T) {
	repo := new(MockOficinaRepository)
	svc := nuevoServicio(repo)

	_, err := svc.UpdateOficina(context.Background(), domain.Oficina{
		ID:       "of-1",
		Nombre:   "Mesa de Partes",
		Siglas:   "MP",
		ParentID: ptr("of-1"),
	})

	var conflict *apperror.ConflictError
	assert.ErrorAs(t, err, &conflict)
	repo.AssertNotCalled(t, "UpdateOficina")
}

func TestGetArbol_AnidaLosHijosBajoSusPadres(t *testing.T) {
	repo := new(MockOficinaRepository)
	svc := nuevoServicio(repo)

	repo.On("GetAllOficinas", mock.Anything).Return([]domain.Oficina{
		{ID: "a", Nombre: "Mesa de Partes", Siglas: "MP"},
		{ID: "b", Nombre: "Gerencia", Siglas: "GER", ParentID: ptr("a")},
		{ID: "c", Nombre: "Unidad de Archivo", Siglas: "UA", ParentID: ptr("b")},
	}, nil)

	arbol, err := svc.GetArbol(context.Background())

	assert.NoError(t, err)
	if assert.Len(t, arbol, 1) {
		raiz := arbol[0]
		assert.Equal(t, "MP", raiz.Siglas)
		if assert.Len(t, raiz.Children, 1) {
			assert.Equal(t, "GER", raiz.Children[0].Siglas)
			if assert.Len(t, raiz.Children[0].Children, 1) {
				assert.Equal(t, "UA", raiz.Children[0].Children[0].Siglas)
			}
		}
	}
}

func TestGetArbol_HuerfanaSeVuelveRaiz(t *testing.T) {
	repo := new(MockOficinaRepository)
	svc := nuevoServicio(repo)

	// El padre "x" no está en el listado (desactivado): la hija no debe
	// desaparecer del árbol.
	repo.On("GetAllOficinas", mock.Anything).Return([]domain.Oficina{
		{ID: "a", Nombre: "Mesa de Partes", Siglas: "MP"},
		{ID: "b", Nombre: "Unidad Suelta", Siglas: "US", ParentID: ptr("x")},
	}, nil)

	arbol, err := svc.GetArbol(context.Background())

	assert.NoError(t, err)
	assert.Len(t, arbol, 2)
}

func TestDeactivateOficina_RequiereID(t *testing.T) {
	repo := new(MockOficinaRepository)
	svc := nuevoServicio(repo)

	err := svc.DeactivateOficina(context.Background(), "")

	var validation *apperror.ValidationError
	assert.ErrorAs(t, err, &validation)
	repo.AssertNotCalled(t, "DeactivateOficina")
}
