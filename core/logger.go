package core

// Logger is any service that can record diagnostics for operators.
// Implementations decide where entries end up (stdout, an error tracker, both).
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
