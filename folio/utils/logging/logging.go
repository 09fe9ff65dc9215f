package logging

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Loggers are no-ops until InitLogger runs, so packages can log from tests
// without any setup.
var (
	AppLogger     = zap.NewNop()
	RequestLogger = zap.NewNop()
	TimerLogger   = zap.NewNop()
	ErrorLogger   = zap.NewNop()
)

type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout or file
	Dir    string // log directory when Output is file
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func newEncoder(format string) zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if format == "console" {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(encoderConfig)
	}
	return zapcore.NewJSONEncoder(encoderConfig)
}

// sink returns stdout, or a rotating file under dir when output is "file".
func sink(cfg Config, name string, maxSize, maxAge int) zapcore.WriteSyncer {
	if cfg.Output != "file" {
		return zapcore.Lock(os.Stdout)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename: filepath.Join(cfg.Dir, name),
		MaxSize:  maxSize,
		MaxAge:   maxAge,
		Compress: true,
	})
}

func InitLogger(cfg Config) error {
	if cfg.Output == "file" {
		if cfg.Dir == "" {
			cfg.Dir = "./logs"
		}
		if err := os.MkdirAll(cfg.Dir, os.ModePerm); err != nil {
			return err
		}
	}
	encoder := newEncoder(cfg.Format)
	level := parseLevel(cfg.Level)

	AppLogger = zap.New(zapcore.NewCore(encoder, sink(cfg, "app.log", 100, 28), level), zap.AddCaller())
	RequestLogger = zap.New(zapcore.NewCore(encoder, sink(cfg, "request.log", 50, 7), zap.InfoLevel))
	TimerLogger = zap.New(zapcore.NewCore(encoder, sink(cfg, "timer.log", 50, 7), zap.InfoLevel))
	ErrorLogger = zap.New(zapcore.NewCore(encoder, sink(cfg, "error.log", 100, 30), zap.ErrorLevel),
		zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return nil
}

// Sync flushes every logger. Call it on shutdown.
func Sync() {
	for _, l := range []*zap.Logger{AppLogger, RequestLogger, TimerLogger, ErrorLogger} {
		_ = l.Sync()
	}
}

// LogDuration lets you do: defer logging.LogDuration(ctx, "FuncName")()
func LogDuration(ctx context.Context, name string) func() {
	start := time.Now()
	requestID := middleware.GetReqID(ctx)

	return func() {
		fields := []zap.Field{
			zap.String("func", name),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		}
		if requestID != "" {
			fields = append(fields, zap.String("request_id", requestID))
		}
		TimerLogger.Info("Function timed", fields...)
	}
}
