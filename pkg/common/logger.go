package common

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger   *zap.Logger
	loggerMu sync.RWMutex
	once     sync.Once
)

func getLogger() *zap.Logger {
	once.Do(initLogger)

	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

func setLogger(l *zap.Logger) {
	once.Do(initLogger)

	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

func GetLogger() *zap.Logger {
	return getLogger().Named("default")
}

func GetLoggerWith(name string, fields ...zap.Field) *zap.Logger {
	return getLogger().Named(name).With(fields...)
}

func initLogger() {
	logsDir, found := os.LookupEnv(EnvKeyIOTLogDir)
	if !found || logsDir == "" {
		dir, err := os.Getwd()
		if err != nil {
			log.Fatalf("Error getting current directory: %v", err)
		}
		logsDir = fmt.Sprintf("%s/logs", dir)
	}
	logsFile := fmt.Sprintf("%s/telemetry.log", logsDir)

	if err := os.MkdirAll(logsDir, os.ModePerm); err != nil {
		log.Fatalf("Error find/create logs directory: %v", err)
	}

	logFile := &lumberjack.Logger{
		Filename:   logsFile,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     28,   // days
		Compress:   true, // gzip
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(logFile),
		zap.InfoLevel,
	)

	if IsProduction() {
		logger = zap.New(fileCore, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
		return
	}

	consoleEncoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	consoleCore := zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), zap.DebugLevel)

	combinedCore := zapcore.NewTee(fileCore, consoleCore)
	logger = zap.New(combinedCore, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

// SetTestCaptureLogger routes every logger handed out afterwards into buf as
// JSON lines. Loggers obtained before the call keep their old core.
func SetTestCaptureLogger(buf *bytes.Buffer, level zapcore.Level) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	core := zapcore.NewCore(encoder, zapcore.AddSync(&lockedBuffer{buf: buf}), level)
	setLogger(zap.New(core))
}

func SetTestLoggerNop() {
	setLogger(zap.NewNop())
}

// lockedBuffer lets concurrent ingestions log into one test buffer.
type lockedBuffer struct {
	mu  sync.Mutex
	buf *bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}
