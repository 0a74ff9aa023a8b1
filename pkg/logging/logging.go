// Package logging sets up structured logging for a run: human-readable
// console output plus a processing.log file in the output directory, so a
// finished run leaves its per-chunk and per-record failure summaries next
// to its data.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogFileName is the run log written into the output directory.
const LogFileName = "processing.log"

// New creates a logger writing to stdout and to processing.log inside
// outputDir. The returned closer flushes buffered entries.
func New(outputDir string, verbose bool) (*zap.Logger, func(), error) {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	consoleCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	fileCfg := zap.NewProductionEncoderConfig()
	fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	logPath := filepath.Join(outputDir, LogFileName)
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file %q: %w", logPath, err)
	}

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stdout), level),
		zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(logFile), level),
	)

	log := zap.New(core)
	closer := func() {
		_ = log.Sync()
		_ = logFile.Close()
	}
	return log, closer, nil
}
