package tramiterepo_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"gotramite/internal/domain"
	apperror "gotramite/internal/errors"
	"gotramite/internal/pkg/logger"
	"gotramite/internal/repository/tramiterepo"
)

func nuevoRepo(t *testing.T) (*tramiterepo.TramiteRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("falla al crear sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return tramiterepo.NewTramiteRepository(db, 2*time.Second, logger.NewLogger("error")), mock
}

func tramiteDePrueba() domain.Tramite {
	return domain.Tramite{
		Asunto:             "Solicitud de constancia",
		NumeroDocumento:    "001",
		TipoDocumentoID:    "td-1",
		OficinaRemitenteID: "of-rem",
		FechaDocumento:     time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateTramiteConMovimiento_ConfirmaAmbosInserts(t *testing.T) {
	repo, mock := nuevoRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO tramites").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO movimientos").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	destino := "of-dest"
	created, err := repo.CreateTramiteConMovimiento(context.Background(), tramiteDePrueba(), domain.Movimiento{
		TipoAccion:       domain.AccionEnvio,
		UsuarioCreadorID: "u1",
		OficinaOrigenID:  "of-rem",
		OficinaDestinoID: &destino,
	})

	assert.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	if assert.Len(t, created.Movimientos, 1) {
		assert.Equal(t, created.ID, created.Movimientos[0].TramiteID)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTramiteConMovimiento_RevierteSiFallaElMovimiento(t *testing.T) {
	repo, mock := nuevoRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO tramites").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO movimientos").WillReturnError(errors.New("conexión perdida"))
	mock.ExpectRollback()

	destino := "of-dest"
	_, err := repo.CreateTramiteConMovimiento(context.Background(), tramiteDePrueba(), domain.Movimiento{
		TipoAccion:       domain.AccionEnvio,
		UsuarioCreadorID: "u1",
		OficinaOrigenID:  "of-rem",
		OficinaDestinoID: &destino,
	})

	assert.Error(t, err)
	var internal *apperror.InternalError
	assert.ErrorAs(t, err, &internal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendMovimiento_RechazaTramiteTerminal(t *testing.T) {
	repo, mock := nuevoRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT estado, oficina_remitente_id FROM tramites").
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"estado", "oficina_remitente_id"}).
			AddRow("FINALIZADO", "of-rem"))
	mock.ExpectRollback()

	destino := "of-dest"
	_, err := repo.AppendMovimiento(context.Background(), domain.Movimiento{
		TramiteID:        "t1",
		TipoAccion:       domain.AccionDerivacion,
		UsuarioCreadorID: "u1",
		OficinaDestinoID: &destino,
	}, domain.EstadoEnProceso, nil)

	assert.Error(t, err)
	var conflict *apperror.ConflictError
	assert.ErrorAs(t, err, &conflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendMovimiento_DerivaElOrigenDelUltimoMovimiento(t *testing.T) {
	repo, mock := nuevoRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT estado, oficina_remitente_id FROM tramites").
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"estado", "oficina_remitente_id"}).
			AddRow("EN_PROCESO", "of-rem"))
	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("of-actual"))
	mock.ExpectExec("INSERT INTO movimientos").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	destino := "of-dest"
	mov, err := repo.AppendMovimiento(context.Background(), domain.Movimiento{
		TramiteID:        "t1",
		TipoAccion:       domain.AccionDerivacion,
		UsuarioCreadorID: "u1",
		OficinaDestinoID: &destino,
	}, domain.EstadoEnProceso, nil)

	assert.NoError(t, err)
	assert.Equal(t, "of-actual", mov.OficinaOrigenID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendMovimiento_SinMovimientosUsaLaRemitente(t *testing.T) {
	repo, mock := nuevoRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT estado, oficina_remitente_id FROM tramites").
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"estado", "oficina_remitente_id"}).
			AddRow("EN_PROCESO", "of-rem"))
	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("t1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO movimientos").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	destino := "of-dest"
	mov, err := repo.AppendMovimiento(context.Background(), domain.Movimiento{
		TramiteID:        "t1",
		TipoAccion:       domain.AccionDerivacion,
		UsuarioCreadorID: "u1",
		OficinaDestinoID: &destino,
	}, domain.EstadoEnProceso, nil)

	assert.NoError(t, err)
	assert.Equal(t, "of-rem", mov.OficinaOrigenID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendMovimiento_AccionFinalCierraElTramite(t *testing.T) {
	repo, mock := nuevoRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT estado, oficina_remitente_id FROM tramites").
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"estado", "oficina_remitente_id"}).
			AddRow("EN_PROCESO", "of-rem"))
	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("of-actual"))
	mock.ExpectExec("INSERT INTO movimientos").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE tramites SET estado").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mov, err := repo.AppendMovimiento(context.Background(), domain.Movimiento{
		TramiteID:        "t1",
		TipoAccion:       domain.AccionArchivo,
		UsuarioCreadorID: "u1",
	}, domain.EstadoArchivado, nil)

	assert.NoError(t, err)
	assert.Equal(t, "of-actual", mov.OficinaOrigenID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendMovimiento_NumeraConElOrigenDerivado(t *testing.T) {
	repo, mock := nuevoRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT estado, oficina_remitente_id FROM tramites").
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"estado", "oficina_remitente_id"}).
			AddRow("EN_PROCESO", "of-rem"))
	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("of-actual"))
	mock.ExpectExec("INSERT INTO movimientos").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	var origenRecibido string
	numerar := func(ctx context.Context, oficinaOrigenID string) (string, error) {
		origenRecibido = oficinaOrigenID
		return "INFORME-N°-007", nil
	}

	destino := "of-dest"
	mov, err := repo.AppendMovimiento(context.Background(), domain.Movimiento{
		TramiteID:        "t1",
		TipoAccion:       domain.AccionDerivacion,
		UsuarioCreadorID: "u1",
		OficinaDestinoID: &destino,
	}, domain.EstadoEnProceso, numerar)

	assert.NoError(t, err)
	assert.Equal(t, "of-actual", origenRecibido)
	if assert.NotNil(t, mov.NumeroDocumentoCompleto) {
		assert.Equal(t, "INFORME-N°-007", *mov.NumeroDocumentoCompleto)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}
