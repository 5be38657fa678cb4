package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config almacena toda la configuración del servicio GoTramite.
// Los campos se definen según los requisitos del sistema (DB, Cache,
// Seguridad, Plazos y reglas de negocio de mesa de partes).
type Config struct {
	// General
	Port        string
	Environment string
	LogLevel    string

	// Base de Datos (PostgreSQL)
	DatabaseURL string
	DBTimeout   time.Duration

	// Cache (Redis)
	RedisAddr    string
	CacheTimeout time.Duration

	// Seguridad (JWT)
	JWTSecretKey string
	TokenExpiry  time.Duration

	// Rate Limiting
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration

	// Reglas de negocio
	// RootOfficeSiglas identifica la única oficina autorizada a ejecutar
	// acciones finales (ARCHIVO / CIERRE) sobre un trámite.
	RootOfficeSiglas string
	// FeriadosReload define cada cuánto se refresca el snapshot de feriados
	// en memoria usado por el cálculo de días hábiles.
	FeriadosReload time.Duration
}

// LoadConfig carga la configuración a partir de las variables de entorno.
func LoadConfig() *Config {
	cfg := &Config{
		// 1. General
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// 2. Base de Datos (PostgreSQL)
		// mustGetEnv garantiza que la aplicación no arranque sin credenciales de DB
		DatabaseURL: mustGetEnv("DATABASE_URL"),
		DBTimeout:   getDurationEnv("DB_TIMEOUT_SEC", 5) * time.Second,

		// 3. Cache (Redis)
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		CacheTimeout: getDurationEnv("CACHE_TIMEOUT_SEC", 10) * time.Second,

		// 4. Seguridad (JWT)
		JWTSecretKey: mustGetEnv("JWT_SECRET_KEY"),
		TokenExpiry:  getDurationEnv("JWT_EXPIRY_MIN", 60) * time.Minute,

		// 5. Rate Limiting
		RateLimitMaxRequests: getIntEnv("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitPeriod:      getDurationEnv("RATE_LIMIT_PERIOD_MIN", 1) * time.Minute,

		// 6. Reglas de negocio
		// Sin oficina raíz configurada no hay autoridad de cierre: es fatal.
		RootOfficeSiglas: mustGetEnv("ROOT_OFFICE_SIGLAS"),
		FeriadosReload:   getDurationEnv("FERIADOS_RELOAD_MIN", 60) * time.Minute,
	}

	return cfg
}

// Funciones Helpers (Auxiliares)

// getEnv lee la variable de entorno o retorna un valor por defecto.
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// mustGetEnv lee la variable de entorno, fatal si no está presente.
func mustGetEnv(key string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Fatalf("❌ Error de Configuración: la variable de entorno %s debe estar definida.", key)
	return ""
}

// getDurationEnv lee una variable de entorno numérica y la retorna como time.Duration.
func getDurationEnv(key string, defaultValue int) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return time.Duration(defaultValue)
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("⚠️ Aviso: el valor de %s ('%s') no es un entero válido. Usando el valor por defecto (%d).", key, valueStr, defaultValue)
		return time.Duration(defaultValue)
	}
	return time.Duration(value)
}

// getIntEnv lee una variable de entorno numérica y la retorna como int.
func getIntEnv(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("⚠️ Aviso: el valor de %s ('%s') no es un entero válido. Usando el valor por defecto (%d).", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}
