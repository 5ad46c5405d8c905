package logger

import (
	"go.uber.org/zap"
)

// New builds the process logger: human-readable in development,
// JSON in production.
func New(production bool) (*zap.Logger, error) {
	if production {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
