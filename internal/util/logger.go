package util

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewZapLogger logs to stdout at LOG_LEVEL (info by default). Production
// deployments get JSON lines, everything else the coloured console format.
func NewZapLogger() *zap.SugaredLogger {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		if parsed, err := zapcore.ParseLevel(lvl); err == nil {
			level.SetLevel(parsed)
		}
	}

	var encoder zapcore.Encoder
	if IsProduction() {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(cfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level)
	return zap.New(core, zap.AddCaller()).Sugar()
}
