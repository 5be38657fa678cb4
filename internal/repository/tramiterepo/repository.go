package tramiterepo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"gotramite/internal/domain"
	"gotramite/internal/errors"
	"gotramite/internal/pkg/logger"
)

// TramiteRepository implementa la persistencia de trámites y de su cadena de
// movimientos. Los movimientos son append-only: no existe ninguna operación
// de borrado ni de actualización sobre ellos en este repositorio.
type TramiteRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewTramiteRepository crea y retorna una nueva instancia del Repositorio de Trámites.
func NewTramiteRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *TramiteRepository {
	return &TramiteRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

const tramiteColumns = `id, asunto, estado, prioridad, numero_documento, numero_documento_completo,
        tipo_documento_id, oficina_remitente_id, usuario_asignado_id, observaciones,
        fecha_documento, fecha_recepcion, fecha_cierre, created_at, updated_at`

const movimientoColumns = `id, tramite_id, tipo_accion, usuario_creador_id, oficina_origen_id,
        oficina_destino_id, numero_documento, numero_documento_completo, tipo_documento_id,
        notas, observaciones, fecha_documento, created_at`

func scanTramite(row interface{ Scan(...interface{}) error }) (domain.Tramite, error) {
	var t domain.Tramite
	err := row.Scan(
		&t.ID, &t.Asunto, &t.Estado, &t.Prioridad, &t.NumeroDocumento, &t.NumeroDocumentoCompleto,
		&t.TipoDocumentoID, &t.OficinaRemitenteID, &t.UsuarioAsignadoID, &t.Observaciones,
		&t.FechaDocumento, &t.FechaRecepcion, &t.FechaCierre, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

func scanMovimiento(row interface{ Scan(...interface{}) error }) (domain.Movimiento, error) {
	var m domain.Movimiento
	err := row.Scan(
		&m.ID, &m.TramiteID, &m.TipoAccion, &m.UsuarioCreadorID, &m.OficinaOrigenID,
		&m.OficinaDestinoID, &m.NumeroDocumento, &m.NumeroDocumentoCompleto, &m.TipoDocumentoID,
		&m.Notas, &m.Observaciones, &m.FechaDocumento, &m.CreatedAt,
	)
	return m, err
}

const insertTramiteSQL = `
        INSERT INTO tramites (` + tramiteColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

const insertMovimientoSQL = `
        INSERT INTO movimientos (` + movimientoColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

// CreateTramite persiste un trámite sin movimiento inicial (flujo RECEPCION:
// el documento simplemente existe en la bandeja de la oficina receptora
// hasta que alguien actúe sobre él).
func (r *TramiteRepository) CreateTramite(ctx context.Context, tramite domain.Tramite) (domain.Tramite, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tramite = r.prepararTramite(tramite)

	_, err := r.DB.ExecContext(ctxTimeout, insertTramiteSQL, tramiteArgs(tramite)...)
	if err != nil {
		r.logger.Error("Falla al insertar trámite en la DB.", err)
		return domain.Tramite{}, errors.NewDBError("Falla al crear trámite", err)
	}

	r.logger.Info("Trámite creado (recepción).", map[string]interface{}{"id": tramite.ID, "numero": tramite.NumeroDocumentoCompleto})
	return tramite, nil
}

// CreateTramiteConMovimiento persiste un trámite junto con su primer
// movimiento en UNA transacción (flujo ENVIO). Ambos registros se vuelven
// visibles juntos o ninguno: una falla después de insertar el trámite
// revierte también esa inserción, nunca queda un trámite huérfano sin su
// movimiento inicial.
func (r *TramiteRepository) CreateTramiteConMovimiento(ctx context.Context, tramite domain.Tramite, movimiento domain.Movimiento) (domain.Tramite, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tramite = r.prepararTramite(tramite)

	if movimiento.ID == "" {
		movimiento.ID = uuid.New().String()
	}
	movimiento.TramiteID = tramite.ID
	movimiento.CreatedAt = time.Now()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.Tramite{}, errors.NewDBError("Falla al iniciar transacción", err)
	}
	defer tx.Rollback() // Rollback en caso de error; no-op después del Commit

	if _, err = tx.ExecContext(ctxTimeout, insertTramiteSQL, tramiteArgs(tramite)...); err != nil {
		r.logger.Error("Falla al insertar trámite dentro de la transacción.", err)
		return domain.Tramite{}, errors.NewDBError("Falla al crear trámite", err)
	}

	if _, err = tx.ExecContext(ctxTimeout, insertMovimientoSQL, movimientoArgs(movimiento)...); err != nil {
		r.logger.Error("Falla al insertar primer movimiento; se revierte el trámite.", err)
		return domain.Tramite{}, errors.NewDBError("Falla al crear el primer movimiento del trámite", err)
	}

	if err = tx.Commit(); err != nil {
		return domain.Tramite{}, errors.NewDBError("Falla al confirmar transacción", err)
	}

	tramite.Movimientos = []domain.Movimiento{movimiento}
	r.logger.Info("Trámite creado con movimiento inicial (envío).", map[string]interface{}{
		"id": tramite.ID, "numero": tramite.NumeroDocumentoCompleto, "movimiento_id": movimiento.ID,
	})
	return tramite, nil
}

// GetTramiteByID busca un trámite con su cadena de movimientos ordenada por
// fecha de creación ascendente.
func (r *TramiteRepository) GetTramiteByID(ctx context.Context, id string) (domain.Tramite, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + tramiteColumns + ` FROM tramites WHERE id = $1`

	tramite, err := scanTramite(r.DB.QueryRowContext(ctxTimeout, query, id))
	if err == sql.ErrNoRows {
		return domain.Tramite{}, errors.NewNotFoundError(fmt.Sprintf("Trámite con ID %q no encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falla al buscar trámite en la DB.", err)
		return domain.Tramite{}, errors.NewDBError("Falla al buscar trámite", err)
	}

	movimientos, err := r.movimientosDeTramite(ctxTimeout, id)
	if err != nil {
		return domain.Tramite{}, err
	}
	tramite.Movimientos = movimientos

	return tramite, nil
}

// AppendMovimiento registra un movimiento sobre un trámite existente como
// unidad atómica: bloquea la fila del trámite (FOR UPDATE) para serializar
// appends concurrentes sobre el mismo caso, deriva la oficina de origen de
// la cadena de custodia (destino del último movimiento, o la oficina
// remitente si no hay ninguno) e inserta el registro. La oficina de origen
// del parámetro se ignora: nunca la decide el llamador.
//
// Si la acción es final (ARCHIVO/CIERRE), la misma transacción actualiza el
// estado del trámite y fija la fecha de cierre.
//
// numerar, si no es nil, genera el número de documento completo del
// movimiento a partir de la oficina de origen derivada; se invoca dentro
// de la transacción, después de resolver la cadena de custodia.
func (r *TramiteRepository) AppendMovimiento(ctx context.Context, movimiento domain.Movimiento, nuevoEstado domain.EstadoTramite, numerar func(ctx context.Context, oficinaOrigenID string) (string, error)) (domain.Movimiento, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.Movimiento{}, errors.NewDBError("Falla al iniciar transacción", err)
	}
	defer tx.Rollback()

	// 1. Bloquear el trámite y verificar que siga abierto.
	var estado domain.EstadoTramite
	var oficinaRemitenteID string
	err = tx.QueryRowContext(ctxTimeout,
		`SELECT estado, oficina_remitente_id FROM tramites WHERE id = $1 FOR UPDATE`,
		movimiento.TramiteID,
	).Scan(&estado, &oficinaRemitenteID)
	if err == sql.ErrNoRows {
		return domain.Movimiento{}, errors.NewNotFoundError(fmt.Sprintf("Trámite con ID %q no encontrado.", movimiento.TramiteID))
	}
	if err != nil {
		return domain.Movimiento{}, errors.NewDBError("Falla al bloquear trámite", err)
	}

	if estado.EsTerminal() {
		return domain.Movimiento{}, errors.NewConflictError(fmt.Sprintf("El trámite está en estado %s y no admite más movimientos.", estado))
	}

	// 2. Derivar el origen de la cadena de custodia.
	var origen string
	err = tx.QueryRowContext(ctxTimeout,
		`SELECT COALESCE(oficina_destino_id, oficina_origen_id)
         FROM movimientos WHERE tramite_id = $1
         ORDER BY created_at DESC, id DESC LIMIT 1`,
		movimiento.TramiteID,
	).Scan(&origen)
	if err == sql.ErrNoRows {
		origen = oficinaRemitenteID
	} else if err != nil {
		return domain.Movimiento{}, errors.NewDBError("Falla al derivar origen del movimiento", err)
	}
	movimiento.OficinaOrigenID = origen

	// 3. Numeración opcional, con la jerarquía del origen recién derivado.
	if numerar != nil {
		completo, numErr := numerar(ctxTimeout, origen)
		if numErr != nil {
			return domain.Movimiento{}, numErr
		}
		movimiento.NumeroDocumentoCompleto = &completo
	}

	if movimiento.ID == "" {
		movimiento.ID = uuid.New().String()
	}
	movimiento.CreatedAt = time.Now()

	// 4. Insertar el movimiento.
	if _, err = tx.ExecContext(ctxTimeout, insertMovimientoSQL, movimientoArgs(movimiento)...); err != nil {
		r.logger.Error("Falla al insertar movimiento en la DB.", err)
		return domain.Movimiento{}, errors.NewDBError("Falla al registrar movimiento", err)
	}

	// 5. Transición terminal en la misma transacción.
	if movimiento.TipoAccion.EsFinal() {
		_, err = tx.ExecContext(ctxTimeout,
			`UPDATE tramites SET estado = $1, fecha_cierre = $2, updated_at = $2 WHERE id = $3`,
			nuevoEstado, movimiento.CreatedAt, movimiento.TramiteID,
		)
		if err != nil {
			r.logger.Error("Falla al actualizar estado del trámite; se revierte el movimiento.", err)
			return domain.Movimiento{}, errors.NewDBError("Falla al cerrar trámite", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return domain.Movimiento{}, errors.NewDBError("Falla al confirmar transacción", err)
	}

	r.logger.Info("Movimiento registrado.", map[string]interface{}{
		"id": movimiento.ID, "tramite_id": movimiento.TramiteID,
		"tipo_accion": string(movimiento.TipoAccion), "origen": origen,
	})
	return movimiento, nil
}

// FindAll lista trámites según el filtro, con paginación y la marca de
// tiempo del último movimiento de cada fila.
func (r *TramiteRepository) FindAll(ctx context.Context, filter domain.TramiteFilter) ([]domain.TramiteResumen, int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	where, args := buildWhere(filter)

	countQuery := `SELECT COUNT(*) FROM tramites t` + where
	var total int
	if err := r.DB.QueryRowContext(ctxTimeout, countQuery, args...).Scan(&total); err != nil {
		r.logger.Error("Falla al contar trámites en la DB.", err)
		return nil, 0, errors.NewDBError("Falla al contar trámites", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}

	query := `
        SELECT t.id, t.asunto, t.estado, t.prioridad, t.numero_documento, t.numero_documento_completo,
               t.tipo_documento_id, t.oficina_remitente_id, t.usuario_asignado_id, t.observaciones,
               t.fecha_documento, t.fecha_recepcion, t.fecha_cierre, t.created_at, t.updated_at,
               (SELECT MAX(m.created_at) FROM movimientos m WHERE m.tramite_id = t.id) AS ultimo_movimiento
        FROM tramites t` + where +
		` ORDER BY ` + buildOrderBy(filter.SortBy) +
		fmt.Sprintf(` LIMIT %d OFFSET %d`, limit, (page-1)*limit)

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falla al listar trámites en la DB.", err)
		return nil, 0, errors.NewDBError("Falla al listar trámites", err)
	}
	defer rows.Close()

	resultados := []domain.TramiteResumen{}
	for rows.Next() {
		var fila domain.TramiteResumen
		err := rows.Scan(
			&fila.ID, &fila.Asunto, &fila.Estado, &fila.Prioridad, &fila.NumeroDocumento, &fila.NumeroDocumentoCompleto,
			&fila.TipoDocumentoID, &fila.OficinaRemitenteID, &fila.UsuarioAsignadoID, &fila.Observaciones,
			&fila.FechaDocumento, &fila.FechaRecepcion, &fila.FechaCierre, &fila.CreatedAt, &fila.UpdatedAt,
			&fila.UltimoMovimiento,
		)
		if err != nil {
			return nil, 0, errors.NewDBError("Falla al leer fila de trámite", err)
		}
		resultados = append(resultados, fila)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewDBError("Falla al iterar trámites", err)
	}

	return resultados, total, nil
}

// --- Consultas del dashboard ---

// CountByEstado cuenta trámites en un estado dado.
func (r *TramiteRepository) CountByEstado(ctx context.Context, estado domain.EstadoTramite) (int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var total int
	err := r.DB.QueryRowContext(ctxTimeout, `SELECT COUNT(*) FROM tramites WHERE estado = $1`, estado).Scan(&total)
	if err != nil {
		return 0, errors.NewDBError("Falla al contar trámites por estado", err)
	}
	return total, nil
}

// CountCerradosDesde cuenta trámites que alcanzaron un estado terminal a
// partir del instante dado.
func (r *TramiteRepository) CountCerradosDesde(ctx context.Context, estado domain.EstadoTramite, desde time.Time) (int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var total int
	err := r.DB.QueryRowContext(ctxTimeout,
		`SELECT COUNT(*) FROM tramites WHERE estado = $1 AND fecha_cierre >= $2`,
		estado, desde,
	).Scan(&total)
	if err != nil {
		return 0, errors.NewDBError("Falla al contar trámites cerrados", err)
	}
	return total, nil
}

// CountRecibidosDesde cuenta trámites recibidos a partir del instante dado.
func (r *TramiteRepository) CountRecibidosDesde(ctx context.Context, desde time.Time) (int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var total int
	err := r.DB.QueryRowContext(ctxTimeout,
		`SELECT COUNT(*) FROM tramites WHERE fecha_recepcion >= $1`, desde,
	).Scan(&total)
	if err != nil {
		return 0, errors.NewDBError("Falla al contar trámites recibidos", err)
	}
	return total, nil
}

// RecentMovimientos retorna los últimos movimientos registrados en el sistema.
func (r *TramiteRepository) RecentMovimientos(ctx context.Context, limit int) ([]domain.Movimiento, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + movimientoColumns + ` FROM movimientos ORDER BY created_at DESC LIMIT $1`

	rows, err := r.DB.QueryContext(ctxTimeout, query, limit)
	if err != nil {
		return nil, errors.NewDBError("Falla al listar movimientos recientes", err)
	}
	defer rows.Close()

	movimientos := []domain.Movimiento{}
	for rows.Next() {
		m, err := scanMovimiento(rows)
		if err != nil {
			return nil, errors.NewDBError("Falla al leer fila de movimiento", err)
		}
		movimientos = append(movimientos, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falla al iterar movimientos", err)
	}

	return movimientos, nil
}

// --- Helpers internos ---

func (r *TramiteRepository) prepararTramite(tramite domain.Tramite) domain.Tramite {
	if tramite.ID == "" {
		tramite.ID = uuid.New().String()
	}
	now := time.Now()
	tramite.CreatedAt = now
	tramite.UpdatedAt = now
	if tramite.Estado == "" {
		tramite.Estado = domain.EstadoEnProceso
	}
	if tramite.Prioridad == "" {
		tramite.Prioridad = domain.PrioridadNormal
	}
	if tramite.FechaRecepcion.IsZero() {
		tramite.FechaRecepcion = now
	}
	return tramite
}

func tramiteArgs(t domain.Tramite) []interface{} {
	return []interface{}{
		t.ID, t.Asunto, t.Estado, t.Prioridad, t.NumeroDocumento, t.NumeroDocumentoCompleto,
		t.TipoDocumentoID, t.OficinaRemitenteID, t.UsuarioAsignadoID, t.Observaciones,
		t.FechaDocumento, t.FechaRecepcion, t.FechaCierre, t.CreatedAt, t.UpdatedAt,
	}
}

func movimientoArgs(m domain.Movimiento) []interface{} {
	return []interface{}{
		m.ID, m.TramiteID, m.TipoAccion, m.UsuarioCreadorID, m.OficinaOrigenID,
		m.OficinaDestinoID, m.NumeroDocumento, m.NumeroDocumentoCompleto, m.TipoDocumentoID,
		m.Notas, m.Observaciones, m.FechaDocumento, m.CreatedAt,
	}
}

func (r *TramiteRepository) movimientosDeTramite(ctx context.Context, tramiteID string) ([]domain.Movimiento, error) {
	query := `SELECT ` + movimientoColumns + ` FROM movimientos WHERE tramite_id = $1 ORDER BY created_at ASC, id ASC`

	rows, err := r.DB.QueryContext(ctx, query, tramiteID)
	if err != nil {
		return nil, errors.NewDBError("Falla al listar movimientos del trámite", err)
	}
	defer rows.Close()

	movimientos := []domain.Movimiento{}
	for rows.Next() {
		m, err := scanMovimiento(rows)
		if err != nil {
			return nil, errors.NewDBError("Falla al leer fila de movimiento", err)
		}
		movimientos = append(movimientos, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falla al iterar movimientos", err)
	}

	return movimientos, nil
}

// buildWhere arma la cláusula WHERE parametrizada del listado.
func buildWhere(filter domain.TramiteFilter) (string, []interface{}) {
	clauses := []string{}
	args := []interface{}{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Q != "" {
		p := arg("%" + filter.Q + "%")
		clauses = append(clauses, fmt.Sprintf("(t.asunto ILIKE %s OR t.numero_documento_completo ILIKE %s)", p, p))
	}
	if len(filter.Estados) > 0 {
		estados := make([]string, len(filter.Estados))
		for i, e := range filter.Estados {
			estados[i] = string(e)
		}
		clauses = append(clauses, fmt.Sprintf("t.estado = ANY(%s)", arg(pq.Array(estados))))
	}
	if len(filter.Prioridades) > 0 {
		prioridades := make([]string, len(filter.Prioridades))
		for i, p := range filter.Prioridades {
			prioridades[i] = string(p)
		}
		clauses = append(clauses, fmt.Sprintf("t.prioridad = ANY(%s)", arg(pq.Array(prioridades))))
	}
	if len(filter.OficinaIDs) > 0 {
		clauses = append(clauses, fmt.Sprintf("t.oficina_remitente_id = ANY(%s)", arg(pq.Array(filter.OficinaIDs))))
	}
	if len(filter.TipoDocumentoIDs) > 0 {
		clauses = append(clauses, fmt.Sprintf("t.tipo_documento_id = ANY(%s)", arg(pq.Array(filter.TipoDocumentoIDs))))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// buildOrderBy traduce "campo:direccion" a SQL sobre una lista blanca de
// campos, para impedir inyección por el parámetro de ordenamiento.
func buildOrderBy(sortBy string) string {
	validFields := map[string]string{
		"fechaIngreso":    "t.fecha_recepcion",
		"fechaDocumento":  "t.fecha_documento",
		"prioridad":       "t.prioridad",
		"estado":          "t.estado",
		"numeroDocumento": "t.numero_documento",
	}

	if sortBy != "" {
		parts := strings.SplitN(sortBy, ":", 2)
		if col, ok := validFields[parts[0]]; ok {
			direction := "ASC"
			if len(parts) == 2 && strings.EqualFold(parts[1], "desc") {
				direction = "DESC"
			}
			return col + " " + direction
		}
	}

	return "t.fecha_recepcion DESC"
}
