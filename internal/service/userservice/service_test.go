package userservice_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"gotramite/internal/domain"
	apperror "gotramite/internal/errors"
	"gotramite/internal/pkg/token"
	"gotramite/internal/service/userservice"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Save(ctx context.Context, user domain.User) (domain.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}

type stubTokens struct {
	emitido string
}

func (s *stubTokens) GenerateToken(userID, userRole, oficinaID string) (string, error) {
	s.emitido = "jwt:" + userID + ":" + userRole + ":" + oficinaID
	return s.emitido, nil
}

func (s *stubTokens) ValidateToken(tokenString string) (*token.CustomClaims, error) {
	return nil, errors.New("no implementado en pruebas")
}

type stubOficinas struct {
	conocidas map[string]domain.Oficina
}

func (s *stubOficinas) GetOficinaByID(ctx context.Context, id string) (domain.Oficina, error) {
	oficina, ok := s.conocidas[id]
	if !ok {
		return domain.Oficina{}, apperror.NewNotFoundError("Oficina no encontrada.")
	}
	return oficina, nil
}

func nuevoServicio(repo *MockUserRepository) (*userservice.UserService, *stubTokens) {
	tokens := &stubTokens{}
	oficinas := &stubOficinas{conocidas: map[string]domain.Oficina{
		"of-mesa": {ID: "of-mesa", Siglas: "MESA"},
	}}
	return userservice.NewService(repo, tokens, oficinas), tokens
}

func TestRegister_AsignaRolFuncionarioYHasheaLaContrasena(t *testing.T) {
	repo := new(MockUserRepository)
	svc, _ := nuevoServicio(repo)

	repo.On("Save", mock.Anything, mock.MatchedBy(func(u domain.User) bool {
		hashOK := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secreta123")) == nil
		return u.Role == domain.RoleFuncionario && u.IsActive && hashOK
	})).Return(domain.User{ID: "u1", Email: "ana@example.com"}, nil)

	user, err := svc.Register(context.Background(), domain.UserRegistration{
		Name:     "Ana",
		Email:    "ana@example.com",
		Password: "secreta123",
	})

	assert.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	repo.AssertExpectations(t)
}

func TestRegister_RechazaOficinaInexistente(t *testing.T) {
	repo := new(MockUserRepository)
	svc, _ := nuevoServicio(repo)

	_, err := svc.Register(context.Background(), domain.UserRegistration{
		Email:     "ana@example.com",
		Password:  "secreta123",
		OficinaID: "of-fantasma",
	})

	var notFound *apperror.NotFoundError
	assert.ErrorAs(t, err, &notFound)
	repo.AssertNotCalled(t, "Save")
}

func TestRegister_EmailDuplicadoEsConflicto(t *testing.T) {
	repo := new(MockUserRepository)
	svc, _ := nuevoServicio(repo)

	repo.On("Save", mock.Anything, mock.Anything).
		Return(domain.User{}, apperror.NewDBError("Falla al guardar usuario", errors.New("duplicate key")))

	_, err := svc.Register(context.Background(), domain.UserRegistration{
		Email:    "ana@example.com",
		Password: "secreta123",
	})

	var conflict *apperror.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestLogin_GeneraTokenConLaOficinaDelUsuario(t *testing.T) {
	repo := new(MockUserRepository)
	svc, tokens := nuevoServicio(repo)

	hash, _ := bcrypt.GenerateFromPassword([]byte("secreta123"), bcrypt.MinCost)
	oficina := "of-mesa"
	repo.On("FindByEmail", mock.Anything, "ana@example.com").Return(domain.User{
		ID:           "u1",
		Email:        "ana@example.com",
		PasswordHash: string(hash),
		Role:         domain.RoleFuncionario,
		OficinaID:    &oficina,
		IsActive:     true,
	}, nil)

	tokenString, err := svc.Login(context.Background(), "ana@example.com", "secreta123")

	assert.NoError(t, err)
	assert.Equal(t, "jwt:u1:funcionario:of-mesa", tokenString)
	assert.Equal(t, tokens.emitido, tokenString)
}

func TestLogin_ContrasenaIncorrecta(t *testing.T) {
	repo := new(MockUserRepository)
	svc, _ := nuevoServicio(repo)

	hash, _ := bcrypt.GenerateFromPassword([]byte("secreta123"), bcrypt.MinCost)
	repo.On("FindByEmail", mock.Anything, "ana@example.com").Return(domain.User{
		ID:           "u1",
		PasswordHash: string(hash),
		IsActive:     true,
	}, nil)

	_, err := svc.Login(context.Background(), "ana@example.com", "otra")

	var unauthorized *apperror.UnauthorizedError
	assert.ErrorAs(t, err, &unauthorized)
}

func TestLogin_EmailDesconocidoNoRevelaExistencia(t *testing.T) {
	repo := new(MockUserRepository)
	svc, _ := nuevoServicio(repo)

	repo.On("FindByEmail", mock.Anything, "nadie@example.com").
		Return(domain.User{}, apperror.NewNotFoundError("Usuario no encontrado."))

	_, err := svc.Login(context.Background(), "nadie@example.com", "secreta123")

	var unauthorized *apperror.UnauthorizedError
	assert.ErrorAs(t, err, &unauthorized)
	assert.Equal(t, "Credenciales inválidas.", unauthorized.Msg)
}

func TestLogin_UsuarioInactivo(t *testing.T) {
	repo := new(MockUserRepository)
	svc, _ := nuevoServicio(repo)

	hash, _ := bcrypt.GenerateFromPassword([]byte("secreta123"), bcrypt.MinCost)
	repo.On("FindByEmail", mock.Anything, "ana@example.com").Return(domain.User{
		ID:           "u1",
		PasswordHash: string(hash),
		IsActive:     false,
	}, nil)

	_, err := svc.Login(context.Background(), "ana@example.com", "secreta123")

	var unauthorized *apperror.UnauthorizedError
	assert.ErrorAs(t, err, &unauthorized)
}
