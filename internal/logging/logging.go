// Package logging builds the zap logger used by the CLI and passed down to
// the transport, store and façade.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Modes.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// Options control logger construction.
type Options struct {
	Mode  string // development or production; anything else is production
	Level string // zap level name; empty means warn
	// File, when set, receives log output through a rotating writer instead
	// of stderr.
	File string
	// Output overrides stderr; used by tests.
	Output io.Writer
}

// New builds a logger. Development mode uses the console encoder at debug
// level by default; production uses JSON at warn.
func New(opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	if opts.Mode == ModeDevelopment {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.DisableCaller = true
		cfg.Level.SetLevel(zapcore.WarnLevel)
	}
	if opts.Level != "" {
		if err := cfg.Level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, fmt.Errorf("log level %q: %w", opts.Level, err)
		}
	}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if cfg.Encoding == "console" {
		enc = zapcore.NewConsoleEncoder(cfg.EncoderConfig)
	} else {
		enc = zapcore.NewJSONEncoder(cfg.EncoderConfig)
	}

	core := zapcore.NewCore(enc, writeSyncer(opts), cfg.Level)
	zopts := []zap.Option{}
	if !cfg.DisableCaller {
		zopts = append(zopts, zap.AddCaller())
	}
	return zap.New(core, zopts...), nil
}

func writeSyncer(opts Options) zapcore.WriteSyncer {
	switch {
	case opts.Output != nil:
		return zapcore.AddSync(opts.Output)
	case opts.File != "":
		return zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     28, // days
		})
	default:
		return zapcore.Lock(os.Stderr)
	}
}
