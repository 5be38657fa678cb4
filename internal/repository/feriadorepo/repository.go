package feriadorepo

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

// FeriadoRepository implementa el acceso a datos de la entidad Feriado.
type FeriadoRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewFeriadoRepository crea y retorna una nueva instancia del Repositorio de Feriados.
func NewFeriadoRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *FeriadoRepository {
	return &FeriadoRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

const feriadoColumns = `id, fecha, descripcion, created_at, updated_at`

func scanFeriado(row interface{ Scan(...interface{}) error }) (domain.Feriado, error) {
	var f domain.Feriado
	err := row.Scan(&f.ID, &f.Fecha, &f.Descripcion, &f.CreatedAt, &f.UpdatedAt)
	return f, err
}

// CreateFeriado persiste un nuevo feriado.
func (r *FeriadoRepository) CreateFeriado(ctx context.Context, feriado domain.Feriado) (domain.Feriado, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if feriado.ID == "" {
		feriado.ID = uuid.New().String()
	}
	now := time.Now()
	feriado.CreatedAt = now
	feriado.UpdatedAt = now

	query := `INSERT INTO feriados (` + feriadoColumns + `) VALUES ($1, $2, $3, $4, $5)`

	_, err := r.DB.ExecContext(ctxTimeout, query,
		feriado.ID, feriado.Fecha, feriado.Descripcion, feriado.CreatedAt, feriado.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Falla al insertar feriado en la DB.", err)
		return domain.Feriado{}, errors.NewDBError("Falla al crear feriado", err)
	}

	r.logger.Info("Feriado creado.", map[string]interface{}{"id": feriado.ID, "fecha": feriado.FechaISO()})
	return feriado, nil
}

// GetFeriadoByID busca un feriado por su ID.
func (r *FeriadoRepository) GetFeriadoByID(ctx context.Context, id string) (domain.Feriado, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + feriadoColumns + ` FROM feriados WHERE id = $1`

	feriado, err := scanFeriado(r.DB.QueryRowContext(ctxTimeout, query, id))
	if err == sql.ErrNoRows {
		return domain.Feriado{}, errors.NewNotFoundError(fmt.Sprintf("Feriado con ID %q no encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falla al buscar feriado en la DB.", err)
		return domain.Feriado{}, errors.NewDBError("Falla al buscar feriado", err)
	}

	return feriado, nil
}

// GetAllFeriados lista los feriados ordenados por fecha.
func (r *FeriadoRepository) GetAllFeriados(ctx context.Context) ([]domain.Feriado, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + feriadoColumns + ` FROM feriados ORDER BY fecha ASC`

	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falla al listar feriados en la DB.", err)
		return nil, errors.NewDBError("Falla al listar feriados", err)
	}
	defer rows.Close()

	feriados := []domain.Feriado{}
	for rows.Next() {
		f, err := scanFeriado(rows)
		if err != nil {
			return nil, errors.NewDBError("Falla al leer fila de feriado", err)
		}
		feriados = append(feriados, f)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falla al iterar feriados", err)
	}

	return feriados, nil
}

// ListFechas retorna únicamente las fechas de todos los feriados, en formato
// ISO (YYYY-MM-DD). Es la consulta que alimenta el snapshot en memoria del
// calculador de días hábiles.
func (r *FeriadoRepository) ListFechas(ctx context.Context) ([]string, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT fecha FROM feriados`

	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falla al listar fechas de feriados en la DB.", err)
		return nil, errors.NewDBError("Falla al listar fechas de feriados", err)
	}
	defer rows.Close()

	fechas := []string{}
	for rows.Next() {
		var fecha time.Time
		if err := rows.Scan(&fecha); err != nil {
			return nil, errors.NewDBError("Falla al leer fecha de feriado", err)
		}
		fechas = append(fechas, fecha.Format("2006-01-02"))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falla al iterar fechas de feriados", err)
	}

	return fechas, nil
}

// UpdateFeriado actualiza un feriado existente.
func (r *FeriadoRepository) UpdateFeriado(ctx context.Context, feriado domain.Feriado) (domain.Feriado, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if _, err := r.GetFeriadoByID(ctxTimeout, feriado.ID); err != nil {
		return domain.Feriado{}, err
	}

	feriado.UpdatedAt = time.Now()

	query := `UPDATE feriados SET fecha = $1, descripcion = $2, updated_at = $3 WHERE id = $4`

	_, err := r.DB.ExecContext(ctxTimeout, query, feriado.Fecha, feriado.Descripcion, feriado.UpdatedAt, feriado.ID)
	if err != nil {
		r.logger.Error("Falla al actualizar feriado en la DB.", err)
		return domain.Feriado{}, errors.NewDBError("Falla al actualizar feriado", err)
	}

	return r.GetFeriadoByID(ctx, feriado.ID)
}

// DeleteFeriado elimina un feriado. A diferencia de trámites y movimientos,
// los feriados sí admiten eliminación física: son datos de calendario, no
// registros de auditoría.
func (r *FeriadoRepository) DeleteFeriado(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if _, err := r.GetFeriadoByID(ctxTimeout, id); err != nil {
		return err
	}

	query := `DELETE FROM feriados WHERE id = $1`

	if _, err := r.DB.ExecContext(ctxTimeout, query, id); err != nil {
		r.logger.Error("Falla al eliminar feriado en la DB.", err)
		return errors.NewDBError("Falla al eliminar feriado", err)
	}

	r.logger.Info("Feriado eliminado.", map[string]interface{}{"id": id})
	return nil
}
