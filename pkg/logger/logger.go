// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

// Package logger configures zap for module runs. Module output owns stdout,
// so logs go to stderr and optionally to a JSON log file.
package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const logFilePermissions = 0600

// Options selects where and how much a run logs.
type Options struct {
	Level     string
	Verbosity int
	Path      string
	Stderr    io.Writer
}

// level resolves the zap level from an explicit level name or, failing that,
// from the Ansible verbosity.
func (o Options) level() zapcore.Level {
	if o.Level != "" {
		var l zapcore.Level
		if err := l.UnmarshalText([]byte(strings.ToLower(o.Level))); err == nil {
			return l
		}
	}
	switch {
	case o.Verbosity >= 3:
		return zapcore.DebugLevel
	case o.Verbosity >= 1:
		return zapcore.InfoLevel
	default:
		return zapcore.WarnLevel
	}
}

// New builds the run logger. Each run is tagged with a KSUID so lines from
// concurrent module runs on one host can be told apart.
func New(module string, opts Options) (*zap.Logger, func(), error) {
	level := zap.NewAtomicLevelAt(opts.level())

	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(stderr), level),
	}

	cleanup := func() {}
	if opts.Path != "" {
		f, err := os.OpenFile(opts.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, logFilePermissions)
		if err != nil {
			return nil, cleanup, err
		}
		cleanup = func() { _ = f.Close() }
		fileConfig := zap.NewProductionEncoderConfig()
		fileConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileConfig), zapcore.AddSync(f), level))
	}

	l := zap.New(zapcore.NewTee(cores...)).
		Named("azure-rm").
		With(zap.String("module", module), zap.String("run", ksuid.New().String()))
	return l, func() {
		_ = l.Sync()
		cleanup()
	}, nil
}

type contextKey struct{}

// WithLogger attaches l to ctx.
func WithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the logger attached to ctx, or a no-op logger.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if l, ok := ctx.Value(contextKey{}).(*zap.Logger); ok {
		return l.Sugar()
	}
	return zap.NewNop().Sugar()
}
