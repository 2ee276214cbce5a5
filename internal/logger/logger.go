package logger

import (
	"os"
	"strings"

	"github.com/jmehdipour/sms-panel/internal/config"
	glog "github.com/labstack/gommon/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var Log = zap.NewNop()

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zap.DebugLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// New builds a logger writing to stdout and, when cfg.File is set, to a
// size-rotated file as well.
func New(cfg config.LogConfig) *zap.Logger {
	lvl := zap.NewAtomicLevelAt(parseLevel(cfg.Level))

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if cfg.Encoding == "console" {
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	cores := []zapcore.Core{zapcore.NewCore(enc, zapcore.Lock(os.Stdout), lvl)}
	if cfg.File != "" {
		rotated := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), rotated, lvl))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}

// Init replaces the global logger.
func Init(cfg config.LogConfig) *zap.Logger {
	Log = New(cfg)
	return Log
}

// EchoLevel maps the configured level onto echo's logger.
func EchoLevel(level string) glog.Lvl {
	switch parseLevel(level) {
	case zap.DebugLevel:
		return glog.DEBUG
	case zap.WarnLevel:
		return glog.WARN
	case zap.ErrorLevel:
		return glog.ERROR
	default:
		return glog.INFO
	}
}
