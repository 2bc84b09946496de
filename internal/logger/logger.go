package logger

import (
	"go-lms/internal/config"
	"go-lms/internal/database"

	"go.uber.org/zap"
)

// NewLogger builds the zap logger and tees every entry into the logs collection.
func NewLogger(cfg *config.Config, mongodb *database.MongodbDB) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.Environment == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	// Important: Enable Caller to get Function Name
	zapConfig.EncoderConfig.FunctionKey = "func"

	baseLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	dbWriter := NewDBLogWriter(mongodb, cfg)

	// Replace the logger's core with the Tee core (console + DB)
	finalCore := NewDBCore(baseLogger.Core(), dbWriter)

	return zap.New(finalCore, zap.AddCaller()), nil
}
