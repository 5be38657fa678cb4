package tipodocrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gotramite/internal/domain"
	"gotramite/internal/errors"
	"gotramite/internal/pkg/cache"
	"gotramite/internal/pkg/logger"
)

// Clave de cache para tipos de documento.
const tipoDocCacheKey = "tipo-documento:%s"

// Expiración del cache: el catálogo de tipos cambia rara vez.
const tipoDocCacheTTL = 10 * time.Minute

// TipoDocumentoRepository implementa el acceso a datos del catálogo de tipos
// de documento. Las lecturas por ID usan la estrategia Cache-Aside: todo
// registro de trámite o movimiento numerado resuelve su tipo, así que es la
// consulta más caliente del sistema.
type TipoDocumentoRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewTipoDocumentoRepository crea y retorna una nueva instancia del Repositorio.
func NewTipoDocumentoRepository(db *sql.DB, cacheClient cache.Client, dbTimeout time.Duration, logger logger.Logger) *TipoDocumentoRepository {
	return &TipoDocumentoRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

const tipoDocColumns = `id, nombre, descripcion, is_active, created_at, updated_at`

func scanTipoDoc(row interface{ Scan(...interface{}) error }) (domain.TipoDocumento, error) {
	var td domain.TipoDocumento
	err := row.Scan(&td.ID, &td.Nombre, &td.Descripcion, &td.IsActive, &td.CreatedAt, &td.UpdatedAt)
	return td, err
}

// CreateTipoDocumento persiste un nuevo tipo de documento.
func (r *TipoDocumentoRepository) CreateTipoDocumento(ctx context.Context, tipoDoc domain.TipoDocumento) (domain.TipoDocumento, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if tipoDoc.ID == "" {
		tipoDoc.ID = uuid.New().String()
	}
	now := time.Now()
	tipoDoc.CreatedAt = now
	tipoDoc.UpdatedAt = now
	tipoDoc.IsActive = true

	query := `INSERT INTO tipos_documento (` + tipoDocColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.DB.ExecContext(ctxTimeout, query,
		tipoDoc.ID, tipoDoc.Nombre, tipoDoc.Descripcion, tipoDoc.IsActive, tipoDoc.CreatedAt, tipoDoc.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Falla al insertar tipo de documento en la DB.", err)
		return domain.TipoDocumento{}, errors.NewDBError("Falla al crear tipo de documento", err)
	}

	r.logger.Info("Tipo de documento creado.", map[string]interface{}{"id": tipoDoc.ID, "nombre": tipoDoc.Nombre})
	return tipoDoc, nil
}

// GetTipoDocumentoByID busca un tipo de documento por su ID (Cache-Aside).
func (r *TipoDocumentoRepository) GetTipoDocumentoByID(ctx context.Context, id string) (domain.TipoDocumento, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(tipoDocCacheKey, id)

	// 1. Intentar el cache (Cache HIT)
	if cachedData, err := r.Cache.Get(ctxTimeout, key); err == nil {
		var tipoDoc domain.TipoDocumento
		if json.Unmarshal([]byte(cachedData), &tipoDoc) == nil {
			return tipoDoc, nil
		}
	}

	// 2. Cache MISS: leer de la DB
	query := `SELECT ` + tipoDocColumns + ` FROM tipos_documento WHERE id = $1`

	tipoDoc, err := scanTipoDoc(r.DB.QueryRowContext(ctxTimeout, query, id))
	if err == sql.ErrNoRows {
		return domain.TipoDocumento{}, errors.NewNotFoundError(fmt.Sprintf("Tipo de documento con ID %q no encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falla al buscar tipo de documento en la DB.", err)
		return domain.TipoDocumento{}, errors.NewDBError("Falla al buscar tipo de documento", err)
	}

	// 3. Poblar el cache para la próxima lectura. La falla del cache no es
	// crítica: se registra y se sigue.
	if jsonBytes, jsonErr := json.Marshal(tipoDoc); jsonErr == nil {
		if cacheErr := r.Cache.Set(ctxTimeout, key, string(jsonBytes), tipoDocCacheTTL); cacheErr != nil {
			r.logger.Warn("Falla al poblar cache de tipo de documento.", map[string]interface{}{"id": id, "error": cacheErr.Error()})
		}
	}

	return tipoDoc, nil
}

// GetAllTiposDocumento lista los tipos de documento activos.
func (r *TipoDocumentoRepository) GetAllTiposDocumento(ctx context.Context) ([]domain.TipoDocumento, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + tipoDocColumns + ` FROM tipos_documento WHERE is_active = true ORDER BY nombre ASC`

	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falla al listar tipos de documento en la DB.", err)
		return nil, errors.NewDBError("Falla al listar tipos de documento", err)
	}
	defer rows.Close()

	tipos := []domain.TipoDocumento{}
	for rows.Next() {
		td, err := scanTipoDoc(rows)
		if err != nil {
			return nil, errors.NewDBError("Falla al leer fila de tipo de documento", err)
		}
		tipos = append(tipos, td)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falla al iterar tipos de documento", err)
	}

	return tipos, nil
}

// UpdateTipoDocumento actualiza un tipo de documento e invalida su entrada de cache.
func (r *TipoDocumentoRepository) UpdateTipoDocumento(ctx context.Context, tipoDoc domain.TipoDocumento) (domain.TipoDocumento, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if _, err := r.GetTipoDocumentoByID(ctxTimeout, tipoDoc.ID); err != nil {
		return domain.TipoDocumento{}, err
	}

	tipoDoc.UpdatedAt = time.Now()

	query := `UPDATE tipos_documento SET nombre = $1, descripcion = $2, updated_at = $3 WHERE id = $4`

	_, err := r.DB.ExecContext(ctxTimeout, query, tipoDoc.Nombre, tipoDoc.Descripcion, tipoDoc.UpdatedAt, tipoDoc.ID)
	if err != nil {
		r.logger.Error("Falla al actualizar tipo de documento en la DB.", err)
		return domain.TipoDocumento{}, errors.NewDBError("Falla al actualizar tipo de documento", err)
	}

	// Invalidación: la próxima lectura repobla el cache desde la DB.
	if cacheErr := r.Cache.Delete(ctxTimeout, fmt.Sprintf(tipoDocCacheKey, tipoDoc.ID)); cacheErr != nil {
		r.logger.Warn("Falla al invalidar cache de tipo de documento.", map[string]interface{}{"id": tipoDoc.ID, "error": cacheErr.Error()})
	}

	return r.GetTipoDocumentoByID(ctx, tipoDoc.ID)
}

// DeactivateTipoDocumento realiza la eliminación lógica de un tipo de documento.
func (r *TipoDocumentoRepository) DeactivateTipoDocumento(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if _, err := r.GetTipoDocumentoByID(ctxTimeout, id); err != nil {
		return err
	}

	query := `UPDATE tipos_documento SET is_active = false, updated_at = $1 WHERE id = $2`

	if _, err := r.DB.ExecContext(ctxTimeout, query, time.Now(), id); err != nil {
		r.logger.Error("Falla al desactivar tipo de documento en la DB.", err)
		return errors.NewDBError("Falla al desactivar tipo de documento", err)
	}

	if cacheErr := r.Cache.Delete(ctxTimeout, fmt.Sprintf(tipoDocCacheKey, id)); cacheErr != nil {
		r.logger.Warn("Falla al invalidar cache de tipo de documento.", map[string]interface{}{"id": id, "error": cacheErr.Error()})
	}

	return nil
}
