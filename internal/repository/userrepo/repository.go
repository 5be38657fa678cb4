package userrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gotramite/internal/domain"
	"gotramite/internal/errors"
	"gotramite/internal/pkg/logger"
)

// UserRepository implementa el acceso a datos de la entidad User.
type UserRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewUserRepository crea y retorna una nueva instancia del Repositorio de Usuarios.
func NewUserRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *UserRepository {
	return &UserRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

const userColumns = `id, name, email, password_hash, role, oficina_id, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.OficinaID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Save persiste un nuevo usuario.
func (r *UserRepository) Save(ctx context.Context, user domain.User) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.IsActive = true

	query := `INSERT INTO users (` + userColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.DB.ExecContext(ctxTimeout, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Role,
		user.OficinaID, user.IsActive, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Falla al insertar usuario en la DB.", err)
		return domain.User{}, errors.NewDBError("Falla al crear usuario", err)
	}

	r.logger.Info("Usuario creado.", map[string]interface{}{"id": user.ID, "email": user.Email})
	return user, nil
}

// FindByEmail busca un usuario por su email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.DB.QueryRowContext(ctxTimeout, query, email))
	if err == sql.ErrNoRows {
		return domain.User{}, errors.NewNotFoundError(fmt.Sprintf("Usuario con email %q no encontrado.", email))
	}
	if err != nil {
		r.logger.Error("Falla al buscar usuario por email en la DB.", err)
		return domain.User{}, errors.NewDBError("Falla al buscar usuario", err)
	}

	return user, nil
}

// FindByID busca un usuario por su ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.DB.QueryRowContext(ctxTimeout, query, id))
	if err == sql.ErrNoRows {
		return domain.User{}, errors.NewNotFoundError(fmt.Sprintf("Usuario con ID %q no encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falla al buscar usuario por ID en la DB.", err)
		return domain.User{}, errors.NewDBError("Falla al buscar usuario", err)
	}

	return user, nil
}
