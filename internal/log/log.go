// Package log writes structured application events through a shared zap logger.
package log

import (
	"sync/atomic"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var current atomic.Pointer[zap.Logger]

func init() { current.Store(zap.NewNop()) }

// Init builds a production JSON logger writing to stdout and, when set, to file.
func Init(level, file string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	if file != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, file)
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	current.Store(l)
	return l, nil
}

// Set replaces the logger and returns a func restoring the previous one.
func Set(l *zap.Logger) (restore func()) {
	prev := current.Swap(l)
	return func() { current.Store(prev) }
}

func write(level zapcore.Level, c *fiber.Ctx, action string, err error, fields map[string]any) {
	l := current.Load()
	ce := l.Check(level, action)
	if ce == nil {
		return
	}
	fs := make([]zap.Field, 0, 8)
	fs = append(fs, zap.String("action", action))
	if c != nil {
		fs = append(fs,
			zap.String("ip", c.IP()),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
		)
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			fs = append(fs, zap.String("req_id", rid))
		}
		if sid, ok := c.Locals("shopper").(string); ok && sid != "" {
			fs = append(fs, zap.String("shopper", sid))
		}
	}
	if err != nil {
		fs = append(fs, zap.Error(err))
	}
	if len(fields) > 0 {
		fs = append(fs, zap.Any("fields", fields))
	}
	ce.Write(fs...)
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	write(zapcore.InfoLevel, c, action, nil, fields)
}

func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	write(zapcore.InfoLevel, c, action, nil, withKind(fields, "audit"))
}

func Security(c *fiber.Ctx, action string, fields map[string]any) {
	write(zapcore.WarnLevel, c, action, nil, fields)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write(zapcore.ErrorLevel, c, action, err, fields)
}

func withKind(fields map[string]any, kind string) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["kind"] = kind
	return out
}
