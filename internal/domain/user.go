package domain

import "time"

// User representa la entidad del usuario en el sistema.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Oculta el hash de la contraseña en el JSON de respuesta
	Role         UserRole  `json:"role"`
	// OficinaID es la oficina de pertenencia del usuario. Es requerida para
	// los flujos de recepción, envío y movimientos: un actor sin oficina no
	// puede operar sobre trámites.
	OficinaID *string   `json:"oficina_id,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserRole es un tipo string para representar el rol del usuario en el sistema.
type UserRole string

const (
	RoleAdmin       UserRole = "admin"
	RoleMesaPartes  UserRole = "mesa_partes"
	RoleFuncionario UserRole = "funcionario"
)

// UserRegistration representa el payload de entrada para el registro.
type UserRegistration struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	OficinaID string `json:"oficina_id,omitempty"`
}

// Actor es el contexto del usuario autenticado que ejecuta una operación,
// tal como lo entrega el middleware de autenticación.
type Actor struct {
	UserID    string
	Role      UserRole
	OficinaID string // Vacío si el usuario no tiene oficina asignada
}
