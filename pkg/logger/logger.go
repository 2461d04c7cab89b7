// Package logger wraps a process-wide zap logger. It is the only log sink in
// the system; callers must mask sensitive fields before passing them in.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Log *zap.Logger = zap.NewNop()

// Init builds the global JSON logger. level is one of debug/info/warn/error.
func Init(serviceName, level string) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zap.InfoLevel
	}
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.MessageKey = "msg"

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(os.Stdout),
		zapLevel,
	)
	Log = zap.New(core, zap.AddCaller()).With(zap.String("service", serviceName))
}

// Sync flushes buffered entries; call from main's defer.
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}
