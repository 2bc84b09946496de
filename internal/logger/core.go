package logger

import (
	"go.uber.org/zap/zapcore"
)

// DBCore is a custom Zap Core that intercepts logs
type DBCore struct {
	zapcore.Core
	writer *DBLogWriter
}

// NewDBCore wraps an existing core (like console logger) and adds DB logging
func NewDBCore(baseCore zapcore.Core, writer *DBLogWriter) zapcore.Core {
	return &DBCore{
		Core:   baseCore,
		writer: writer,
	}
}

// Write is called for every log entry
func (c *DBCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	// Pull out the user id if a handler attached one
	var userID string

	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
		if f.Key == "user_id" {
			userID = f.String
		}
	}

	// entry.Caller.Function is populated because the logger is built with AddCaller()
	c.writer.AddLog(LogEntry{
		Level:   entry.Level,
		Message: entry.Message,
		UserID:  userID,
		Caller:  entry.Caller.Function,
	})

	// Call the underlying core (so it still prints to Console/File)
	return c.Core.Write(entry, fields)
}

// Check decides if we should log this level
func (c *DBCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}
