package logger

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log/global"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LoggerConfig struct {
	ServiceName   string
	IsInternal    bool
	IsDevelopment bool
	IsDebug       bool
	InitialFields []zap.Field

	Cores []zapcore.Core
}

// NewLogger builds a JSON logger on stdout. Internal deployments also ship
// every entry through the global OpenTelemetry log provider, and extra cores
// from the config are teed in alongside.
func NewLogger(_ context.Context, loggerConfig LoggerConfig) (*zap.Logger, error) {
	level := zap.InfoLevel
	if loggerConfig.IsDebug {
		level = zap.DebugLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      loggerConfig.IsDevelopment,
		Encoding:         "json",
		EncoderConfig:    GetEncoderConfig(zapcore.DefaultLineEnding),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	var extra []zapcore.Core
	if loggerConfig.IsInternal {
		extra = append(extra, otelzap.NewCore(loggerConfig.ServiceName,
			otelzap.WithLoggerProvider(global.GetLoggerProvider())))
	}
	extra = append(extra, loggerConfig.Cores...)

	fields := append([]zap.Field{
		zap.String("service", loggerConfig.ServiceName),
		zap.Int("pid", os.Getpid()),
	}, loggerConfig.InitialFields...)

	logger, err := config.Build(
		zap.WrapCore(func(stdout zapcore.Core) zapcore.Core {
			if len(extra) == 0 {
				return stdout
			}
			return zapcore.NewTee(append(extra, stdout)...)
		}),
		zap.Fields(fields...),
	)
	if err != nil {
		return nil, fmt.Errorf("error building logger: %w", err)
	}

	return logger, nil
}

func GetEncoderConfig(lineEnding string) zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:       "timestamp",
		MessageKey:    "message",
		LevelKey:      "level",
		EncodeLevel:   zapcore.LowercaseLevelEncoder,
		NameKey:       "logger",
		StacktraceKey: "stacktrace",
		EncodeTime:    zapcore.RFC3339TimeEncoder,
		LineEnding:    lineEnding,
	}
}
