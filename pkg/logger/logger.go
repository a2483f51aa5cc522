package logger

import (
	"admin-service/pkg/config"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "admin-service"

var log *zap.Logger

// InitLogger builds the process logger from cfg and installs it as the zap
// global. Production writes JSON with an ISO8601 "timestamp"; every other
// profile writes coloured console lines.
func InitLogger(cfg *config.Config) *zap.Logger {
	zc := zapConfig(cfg.IsProduction())
	level := parseLevel(cfg.Log.Level)
	zc.Level = zap.NewAtomicLevelAt(level)

	built, err := zc.Build(zap.Fields(
		zap.String("service", serviceName),
		zap.String("environment", cfg.Server.Env),
	))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	log = built
	zap.ReplaceGlobals(log)
	log.Info("Logger initialized", zap.Stringer("level", level))
	return log
}

func zapConfig(production bool) zap.Config {
	if !production {
		zc := zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zc
	}
	zc := zap.NewProductionConfig()
	zc.EncoderConfig.TimeKey = "timestamp"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zc
}

// parseLevel falls back to info for unknown names
func parseLevel(name string) zapcore.Level {
	level, err := zapcore.ParseLevel(name)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// GetLogger returns the process logger, or a production logger when
// InitLogger was never called
func GetLogger() *zap.Logger {
	if log != nil {
		return log
	}
	fallback, err := zap.NewProduction()
	if err != nil {
		panic("Failed to create fallback logger: " + err.Error())
	}
	log = fallback
	return log
}

// Middleware attaches a request scoped logger to the echo context and
// writes one access log entry per request. A handler error is rendered
// through the echo error handler before logging so the entry carries the
// final status.
func Middleware(base *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			reqLog := base.With(zap.String("request_id", requestID(c)))
			c.Set(ContextKey, reqLog)

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := accessFields(c, time.Since(start))
			switch {
			case err == nil:
				reqLog.Info("HTTP request completed", fields...)
			case c.Response().Status >= http.StatusInternalServerError:
				reqLog.Error("HTTP request failed", append(fields, zap.Error(err))...)
			default:
				reqLog.Warn("HTTP request rejected", append(fields, zap.Error(err))...)
			}
			return nil
		}
	}
}

func requestID(c echo.Context) string {
	if id, ok := c.Get(RequestIDKey).(string); ok && id != "" {
		return id
	}
	return c.Response().Header().Get(RequestIDKey)
}

func accessFields(c echo.Context, latency time.Duration) []zap.Field {
	req := c.Request()
	return []zap.Field{
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", c.Response().Status),
		zap.Duration("latency", latency),
		zap.String("ip", c.RealIP()),
		zap.String("user_agent", req.UserAgent()),
	}
}
