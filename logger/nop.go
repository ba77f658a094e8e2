package logger

import "context"

type nopLogger struct{}

// Nop returns a logger that discards everything. Library components use
// it as the default when the caller passes no logger.
func Nop() Logger {
	return nopLogger{}
}

func (nopLogger) Debug(ctx context.Context, msg string, fields map[string]interface{}) {}
func (nopLogger) Info(ctx context.Context, msg string, fields map[string]interface{})  {}
func (nopLogger) Warn(ctx context.Context, msg string, fields map[string]interface{})  {}
func (nopLogger) Error(ctx context.Context, msg string, fields map[string]interface{}) {}
func (nopLogger) WithField(key string, value interface{}) Logger                       { return nopLogger{} }
func (nopLogger) WithFields(fields map[string]interface{}) Logger                      { return nopLogger{} }
