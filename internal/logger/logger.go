package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log  *zap.SugaredLogger
	once sync.Once
	mu   sync.RWMutex
)

// Init builds the global logger.
// env: "development" gives a console encoder at debug level, anything else JSON at info.
func Init(env string) {
	var cfg zap.Config
	if env == "development" || env == "" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	if env == "test" {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}

	base, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		base = zap.NewNop()
	}

	mu.Lock()
	log = base.Sugar()
	mu.Unlock()
}

// Replace swaps the global logger, used by tests to capture output.
func Replace(l *zap.Logger) {
	mu.Lock()
	log = l.Sugar()
	mu.Unlock()
}

func GetLogger() *zap.SugaredLogger {
	once.Do(func() {
		mu.RLock()
		ready := log != nil
		mu.RUnlock()
		if !ready {
			Init(os.Getenv("SERVER_ENV"))
		}
	})
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func Debug(msg string, kv ...any) { GetLogger().Debugw(msg, redact(kv)...) }
func Info(msg string, kv ...any)  { GetLogger().Infow(msg, redact(kv)...) }
func Warn(msg string, kv ...any)  { GetLogger().Warnw(msg, redact(kv)...) }
func Error(msg string, kv ...any) { GetLogger().Errorw(msg, redact(kv)...) }

// Fatal logs and exits with status 1.
func Fatal(msg string, kv ...any) {
	GetLogger().Errorw(msg, redact(kv)...)
	_ = GetLogger().Sync()
	os.Exit(1)
}

// With returns a child logger carrying kv on every entry.
// Example: logger.With("review_id", id).Info("review updated")
func With(kv ...any) *zap.SugaredLogger {
	return GetLogger().With(redact(kv)...)
}

func WithError(err error) *zap.SugaredLogger {
	return GetLogger().With("error", err.Error())
}

func Sync() {
	_ = GetLogger().Sync()
}

var sensitiveKeys = []string{"password", "token", "secret", "cookie", "api_key", "apikey", "authorization"}

// redact hides values of sensitive keys and masks email addresses.
func redact(kv []any) []any {
	if len(kv) == 0 {
		return kv
	}
	out := make([]any, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		key, ok := out[i].(string)
		if !ok {
			continue
		}
		lk := strings.ToLower(key)
		for _, s := range sensitiveKeys {
			if strings.Contains(lk, s) {
				out[i+1] = "[REDACTED]"
				break
			}
		}
		if strings.Contains(lk, "email") {
			if v, ok := out[i+1].(string); ok {
				out[i+1] = MaskEmail(v)
			}
		}
	}
	return out
}

// MaskEmail keeps the first character of the local part and the domain.
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		if email == "" {
			return ""
		}
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
