package app

import (
	"go.uber.org/zap"

	"github.com/nadfun/trading-mcp/internal/config"
)

// NewLogger builds the process logger. Output goes to stderr so stdout stays
// free for the MCP protocol.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.Level == "debug" {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
		if cfg.Level != "" {
			level, err := zap.ParseAtomicLevel(cfg.Level)
			if err != nil {
				return nil, err
			}
			zapConfig.Level = level
		}
	}

	zapConfig.OutputPaths = []string{"stderr"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}
	if cfg.File != "" {
		zapConfig.OutputPaths = append(zapConfig.OutputPaths, cfg.File)
		zapConfig.ErrorOutputPaths = append(zapConfig.ErrorOutputPaths, cfg.File)
	}

	return zapConfig.Build()
}
