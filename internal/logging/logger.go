// Package logging decouples the ingestion and review components from the
// concrete logging backend. Every component receives a Logger through its
// constructor and never reaches for a package-level logger.
package logging

// Logger is the structured logger used across the application. It never
// exits the process; failures travel back to the command as errors.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	WithError(err error) Logger
	WithField(key string, value interface{}) Logger
	WithFields(fields ...Field) Logger
}

// Field is a key/value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// F is shorthand for building a Field inline.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}
