package logger

import (
	"encoding/json"
	"log"
	"os"
	"time"
)

// Logger define la interfaz para logging estructurado.
// La aplicación (Handler, Service, Repository) debe depender solo de esta interfaz.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error)
	Fatal(msg string, err error)
}

// LogEntry define la estructura de un log para garantizar el formato JSON.
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// SimpleLogger es una implementación concreta de la interfaz Logger
// que usa el paquete log nativo, pero con salida JSON estructurada.
type SimpleLogger struct {
	logLevel string // e.g., "debug", "info", "error"
}

// NewLogger crea y retorna una nueva instancia del Logger.
// Esta función se llama en main.go.
func NewLogger(level string) Logger {
	// Configura el logger estándar de Go para no incluir prefijos duplicados.
	log.SetFlags(0)
	return &SimpleLogger{logLevel: level}
}

// logf formatea la entrada como JSON y la escribe en la salida estándar.
func (l *SimpleLogger) logf(level, msg string, fields map[string]interface{}, err error) {
	if !l.shouldLog(level) {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().Format(time.RFC3339),
		Level:     level,
		Message:   msg,
	}

	if fields != nil {
		entry.Fields = fields
	}

	if err != nil {
		entry.Error = err.Error()
	}

	jsonBytes, _ := json.Marshal(entry)
	log.Println(string(jsonBytes))

	// Si es Fatal, el programa debe terminar
	if level == "FATAL" {
		os.Exit(1)
	}
}

// shouldLog implementa una lógica básica de nivel de log.
func (l *SimpleLogger) shouldLog(level string) bool {
	levels := map[string]int{
		"debug": 0,
		"info":  1,
		"warn":  2,
		"error": 3,
		"fatal": 4,
	}

	currentLevel, ok := levels[l.logLevel]
	if !ok {
		currentLevel = 1 // Default: info
	}

	targetLevels := map[string]int{
		"DEBUG": 0,
		"INFO":  1,
		"WARN":  2,
		"ERROR": 3,
		"FATAL": 4,
	}

	targetLevel, ok := targetLevels[level]
	if !ok {
		return false
	}

	return targetLevel >= currentLevel
}

// Implementaciones de la Interfaz Logger

func (l *SimpleLogger) Debug(msg string, fields map[string]interface{}) {
	l.logf("DEBUG", msg, fields, nil)
}

func (l *SimpleLogger) Info(msg string, fields map[string]interface{}) {
	l.logf("INFO", msg, fields, nil)
}

func (l *SimpleLogger) Warn(msg string, fields map[string]interface{}) {
	l.logf("WARN", msg, fields, nil)
}

func (l *SimpleLogger) Error(msg string, err error) {
	l.logf("ERROR", msg, nil, err)
}

func (l *SimpleLogger) Fatal(msg string, err error) {
	l.logf("FATAL", msg, nil, err)
}
