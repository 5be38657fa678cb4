package oficinarepo

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

// OficinaRepository implementa el acceso a datos de la entidad Oficina.
// El árbol de oficinas se garantiza acíclico en la frontera de escritura:
// ninguna actualización puede asignar un padre cuya cadena alcance a la
// propia oficina. Gracias a esto, los recorridos de jerarquía en lectura no
// necesitan detección de ciclos.
type OficinaRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewOficinaRepository crea y retorna una nueva instancia del Repositorio de Oficinas.
func NewOficinaRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *OficinaRepository {
	return &OficinaRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

const oficinaColumns = `id, nombre, siglas, tipo, parent_id, is_active, created_at, updated_at`

func scanOficina(row interface{ Scan(...interface{}) error }) (domain.Oficina, error) {
	var o domain.Oficina
	err := row.Scan(&o.ID, &o.Nombre, &o.Siglas, &o.Tipo, &o.ParentID, &o.IsActive, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// CreateOficina persiste una nueva oficina. Si se indica un padre, este debe
// existir y estar activo.
func (r *OficinaRepository) CreateOficina(ctx context.Context, oficina domain.Oficina) (domain.Oficina, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if oficina.ID == "" {
		oficina.ID = uuid.New().String()
	}
	now := time.Now()
	oficina.CreatedAt = now
	oficina.UpdatedAt = now
	oficina.IsActive = true

	if oficina.ParentID != nil {
		if _, err := r.GetOficinaByID(ctxTimeout, *oficina.ParentID); err != nil {
			return domain.Oficina{}, err
		}
	}

	query := `
        INSERT INTO oficinas (` + oficinaColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.DB.ExecContext(ctxTimeout, query,
		oficina.ID, oficina.Nombre, oficina.Siglas, oficina.Tipo,
		oficina.ParentID, oficina.IsActive, oficina.CreatedAt, oficina.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Falla al insertar oficina en la DB.", err)
		return domain.Oficina{}, errors.NewDBError("Falla al crear oficina", err)
	}

	r.logger.Info("Oficina creada.", map[string]interface{}{"id": oficina.ID, "siglas": oficina.Siglas})
	return oficina, nil
}

// GetOficinaByID busca una oficina por su ID.
func (r *OficinaRepository) GetOficinaByID(ctx context.Context, id string) (domain.Oficina, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + oficinaColumns + ` FROM oficinas WHERE id = $1`

	oficina, err := scanOficina(r.DB.QueryRowContext(ctxTimeout, query, id))
	if err == sql.ErrNoRows {
		return domain.Oficina{}, errors.NewNotFoundError(fmt.Sprintf("Oficina con ID %q no encontrada.", id))
	}
	if err != nil {
		r.logger.Error("Falla al buscar oficina en la DB.", err)
		return domain.Oficina{}, errors.NewDBError("Falla al buscar oficina", err)
	}

	return oficina, nil
}

// GetOficinaBySiglas busca una oficina por su código corto.
func (r *OficinaRepository) GetOficinaBySiglas(ctx context.Context, siglas string) (domain.Oficina, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + oficinaColumns + ` FROM oficinas WHERE siglas = $1`

	oficina, err := scanOficina(r.DB.QueryRowContext(ctxTimeout, query, siglas))
	if err == sql.ErrNoRows {
		return domain.Oficina{}, errors.NewNotFoundError(fmt.Sprintf("Oficina con siglas %q no encontrada.", siglas))
	}
	if err != nil {
		r.logger.Error("Falla al buscar oficina por siglas en la DB.", err)
		return domain.Oficina{}, errors.NewDBError("Falla al buscar oficina por siglas", err)
	}

	return oficina, nil
}

// GetAllOficinas lista las oficinas activas ordenadas por nombre.
func (r *OficinaRepository) GetAllOficinas(ctx context.Context) ([]domain.Oficina, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + oficinaColumns + ` FROM oficinas WHERE is_active = true ORDER BY nombre ASC`

	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falla al listar oficinas en la DB.", err)
		return nil, errors.NewDBError("Falla al listar oficinas", err)
	}
	defer rows.Close()

	oficinas := []domain.Oficina{}
	for rows.Next() {
		o, err := scanOficina(rows)
		if err != nil {
			return nil, errors.NewDBError("Falla al leer fila de oficina", err)
		}
		oficinas = append(oficinas, o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falla al iterar oficinas", err)
	}

	return oficinas, nil
}

// UpdateOficina actualiza los datos de una oficina existente. El cambio de
// padre se valida contra la formación de ciclos antes de escribir.
func (r *OficinaRepository) UpdateOficina(ctx context.Context, oficina domain.Oficina) (domain.Oficina, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if _, err := r.GetOficinaByID(ctxTimeout, oficina.ID); err != nil {
		return domain.Oficina{}, err
	}

	if oficina.ParentID != nil {
		if err := r.checkCiclo(ctxTimeout, oficina.ID, *oficina.ParentID); err != nil {
			return domain.Oficina{}, err
		}
	}

	oficina.UpdatedAt = time.Now()

	query := `
        UPDATE oficinas
        SET nombre = $1, siglas = $2, tipo = $3, parent_id = $4, updated_at = $5
        WHERE id = $6`

	_, err := r.DB.ExecContext(ctxTimeout, query,
		oficina.Nombre, oficina.Siglas, oficina.Tipo, oficina.ParentID, oficina.UpdatedAt, oficina.ID,
	)
	if err != nil {
		r.logger.Error("Falla al actualizar oficina en la DB.", err)
		return domain.Oficina{}, errors.NewDBError("Falla al actualizar oficina", err)
	}

	return r.GetOficinaByID(ctx, oficina.ID)
}

// DeactivateOficina realiza la eliminación lógica de una oficina.
func (r *OficinaRepository) DeactivateOficina(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if _, err := r.GetOficinaByID(ctxTimeout, id); err != nil {
		return err
	}

	query := `UPDATE oficinas SET is_active = false, updated_at = $1 WHERE id = $2`

	if _, err := r.DB.ExecContext(ctxTimeout, query, time.Now(), id); err != nil {
		r.logger.Error("Falla al desactivar oficina en la DB.", err)
		return errors.NewDBError("Falla al desactivar oficina", err)
	}

	r.logger.Info("Oficina desactivada.", map[string]interface{}{"id": id})
	return nil
}

// checkCiclo recorre la cadena de padres propuesta y rechaza la asignación
// si alcanza a la oficina que se está escribiendo. Como los datos existentes
// son acíclicos, el recorrido siempre termina.
func (r *OficinaRepository) checkCiclo(ctx context.Context, oficinaID, nuevoParentID string) error {
	actual := nuevoParentID
	for actual != "" {
		if actual == oficinaID {
			return errors.NewConflictError("La oficina padre indicada crearía un ciclo en la jerarquía.")
		}

		var parentID sql.NullString
		err := r.DB.QueryRowContext(ctx, `SELECT parent_id FROM oficinas WHERE id = $1`, actual).Scan(&parentID)
		if err == sql.ErrNoRows {
			return errors.NewNotFoundError(fmt.Sprintf("Oficina padre con ID %q no encontrada.", actual))
		}
		if err != nil {
			return errors.NewDBError("Falla al verificar jerarquía de oficinas", err)
		}

		if !parentID.Valid {
			return nil
		}
		actual = parentID.String
	}
	return nil
}
