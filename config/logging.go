package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Debug = false

// DebugLog is the process-wide debug sink. It discards everything until
// InitDebugLog enables it.
var DebugLog = zap.NewNop()

func CheckDebug() bool {
	debug := os.Getenv("ORBY_DEBUG")
	return debug == "true" || debug == "1"
}

// InitDebugLog points DebugLog at <dataDir>/debug.log when ORBY_DEBUG is set.
// The returned function flushes the logger.
func InitDebugLog(dataDir string) func() {
	if !CheckDebug() {
		return func() {}
	}

	logPath := filepath.Join(dataDir, "debug.log")

	// debug.log may contain prompts and command output
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return func() {}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), zapcore.DebugLevel)

	Debug = true
	DebugLog = zap.New(core, zap.AddCaller())
	DebugLog.Info("debug logging started", zap.String("ORBY_DEBUG", os.Getenv("ORBY_DEBUG")), zap.String("path", logPath))

	return func() {
		_ = DebugLog.Sync()
		_ = f.Close()
	}
}
