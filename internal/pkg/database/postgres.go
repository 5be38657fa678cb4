package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	// Driver pq para PostgreSQL
	_ "github.com/lib/pq"
)

// NewPostgresDB inicializa y configura el pool de conexiones con PostgreSQL.
// Retorna la conexión *sql.DB lista para usar.
func NewPostgresDB(dataSourceName string) (*sql.DB, error) {

	// 1. Abrir la Conexión
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("falla al abrir la conexión con la DB: %w", err)
	}

	// 2. Probar la Conexión inmediatamente
	// Garantiza que las credenciales y el servidor son correctos
	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("falla en el ping inicial a la DB: %w", err)
	}

	// 3. Configuración del Connection Pool

	// MaxOpenConns: número máximo de conexiones abiertas con la base de datos.
	db.SetMaxOpenConns(25)

	// MaxIdleConns: número máximo de conexiones ociosas en el pool.
	db.SetMaxIdleConns(10)

	// ConnMaxLifetime: vida máxima de una conexión (evita problemas de red/firewall).
	db.SetConnMaxLifetime(5 * time.Minute)

	// ConnMaxIdleTime: tiempo máximo que una conexión puede quedar ociosa.
	db.SetConnMaxIdleTime(2 * time.Minute)

	log.Println("✅ Pool de Conexiones PostgreSQL configurado y listo.")

	return db, nil
}
