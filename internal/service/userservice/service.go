package userservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"gotramite/internal/domain"
	apperror "gotramite/internal/errors"
	"gotramite/internal/pkg/token"
)

// UserRepository define el contrato que este Servicio espera de la capa de
// Persistencia de usuarios.
type UserRepository interface {
	Save(ctx context.Context, user domain.User) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindByID(ctx context.Context, id string) (domain.User, error)
}

// TokenService es el contrato de la capa de tokens (internal/pkg/token).
type TokenService interface {
	GenerateToken(userID string, userRole string, oficinaID string) (string, error)
	ValidateToken(tokenString string) (*token.CustomClaims, error)
}

// OficinaLookup resuelve oficinas por ID, para validar la oficina de
// pertenencia al registrar usuarios.
type OficinaLookup interface {
	GetOficinaByID(ctx context.Context, id string) (domain.Oficina, error)
}

// UserService implementa el registro y la autenticación de usuarios.
type UserService struct {
	UserRepo UserRepository
	TokenSvc TokenService
	Oficinas OficinaLookup
}

// NewService crea una nueva instancia del UserService.
func NewService(repo UserRepository, tokenSvc TokenService, oficinas OficinaLookup) *UserService {
	return &UserService{
		UserRepo: repo,
		TokenSvc: tokenSvc,
		Oficinas: oficinas,
	}
}

// Register registra un nuevo usuario con rol funcionario. La oficina de
// pertenencia, si se indica, debe existir.
func (s *UserService) Register(ctx context.Context, registration domain.UserRegistration) (domain.User, error) {
	if registration.Email == "" || registration.Password == "" {
		return domain.User{}, apperror.NewValidationError("Email y contraseña son obligatorios.")
	}

	var oficinaID *string
	if registration.OficinaID != "" {
		if _, err := s.Oficinas.GetOficinaByID(ctx, registration.OficinaID); err != nil {
			return domain.User{}, err
		}
		oficinaID = &registration.OficinaID
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(registration.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, apperror.NewInternalError("Falla al generar el hash de la contraseña.", err)
	}

	newUser := domain.User{
		Name:         registration.Name,
		Email:        registration.Email,
		PasswordHash: string(hashedPassword),
		Role:         domain.RoleFuncionario,
		OficinaID:    oficinaID,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	user, err := s.UserRepo.Save(ctx, newUser)
	if err != nil {
		// Una violación de unicidad en la DB se traduce a conflicto de
		// negocio: el email ya está registrado.
		var dbErr *apperror.InternalError
		if errors.As(err, &dbErr) {
			return domain.User{}, apperror.NewConflictError(
				fmt.Sprintf("El email '%s' ya está en uso.", registration.Email),
			)
		}
		return domain.User{}, err
	}

	return user, nil
}

// Login autentica un usuario, verifica la contraseña y genera un JWT con su
// identidad, rol y oficina.
func (s *UserService) Login(ctx context.Context, email string, password string) (string, error) {
	if email == "" || password == "" {
		return "", apperror.NewUnauthorizedError("Email y contraseña son obligatorios.")
	}

	user, err := s.UserRepo.FindByEmail(ctx, email)
	if err != nil {
		// NotFound se trata como credenciales inválidas para no revelar
		// qué emails existen.
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return "", apperror.NewUnauthorizedError("Credenciales inválidas.")
		}
		return "", err
	}

	if !user.IsActive {
		return "", apperror.NewUnauthorizedError("Credenciales inválidas.")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", apperror.NewUnauthorizedError("Credenciales inválidas.")
	}

	oficinaID := ""
	if user.OficinaID != nil {
		oficinaID = *user.OficinaID
	}

	tokenString, err := s.TokenSvc.GenerateToken(user.ID, string(user.Role), oficinaID)
	if err != nil {
		return "", apperror.NewInternalError("Falla al generar el token de autenticación.", err)
	}

	return tokenString, nil
}
