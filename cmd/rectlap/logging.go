package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	logDir      = "logs"
	logFileName = "rectlap.log"
	maxLogSize  = 10 * 1024 * 1024 // 10 MiB
)

// setupLogging opens logs/rectlap.log when debug is set and returns a logger writing to it
// Without debug every log line is discarded; the terminal UI never receives log output
func setupLogging(debug bool, verbosity int) (logr.Logger, *os.File) {
	if !debug {
		log.SetOutput(io.Discard)
		return logr.Discard(), nil
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.SetOutput(io.Discard)
		return logr.Discard(), nil
	}

	logPath := filepath.Join(logDir, logFileName)
	if info, err := os.Stat(logPath); err == nil && info.Size() > maxLogSize {
		rotated := filepath.Join(logDir, fmt.Sprintf("rectlap-%s.log", time.Now().Format("20060102-150405")))
		_ = os.Rename(logPath, rotated)
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.SetOutput(io.Discard)
		return logr.Discard(), nil
	}

	// Stray standard library logging lands in the same file
	log.SetOutput(file)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(file), zapLevel(verbosity))
	return zapr.NewLogger(zap.New(core, zap.AddCaller())), file
}

// setupStderrLogging is used in headless mode, where stdout carries the result
func setupStderrLogging(verbosity int) logr.Logger {
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.EncodeTime = zapcore.TimeEncoderOfLayout(time.TimeOnly)
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.Lock(os.Stderr), zapLevel(verbosity))
	return zapr.NewLogger(zap.New(core))
}

// zapLevel maps logr verbosity onto zap levels: V(n) is zap level -n
func zapLevel(verbosity int) zap.AtomicLevel {
	return zap.NewAtomicLevelAt(zapcore.Level(-int8(min(verbosity, 127))))
}
