// Package observe forwards error-level log entries to Sentry.
package observe

import (
	"encoding/json"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap/zapcore"
)

const (
	_sentryMaxErrorDepth = 9
	_sentryFlushTimeout  = 5 * time.Second
)

// SentryHook is an io.Writer that parses the JSON log stream and captures
// error-level entries as Sentry events. Attach it as an extra writer on the
// zap logger.
type SentryHook struct {
	env     string
	appName string
	enabled bool
}

// NewSentryHook initializes the Sentry client. With an empty DSN the hook
// stays inert so local runs work without a Sentry project.
func NewSentryHook(env, appName, dsn string, debug bool) *SentryHook {
	h := &SentryHook{env: env, appName: appName}

	if dsn == "" {
		log.Println("sentry hook disabled: no DSN configured")
		return h
	}

	if err := sentry.Init(sentry.ClientOptions{
		AttachStacktrace: true,
		Debug:            debug,
		Dsn:              dsn,
		Environment:      env,
		MaxErrorDepth:    _sentryMaxErrorDepth,
		ServerName:       appName,
	}); err != nil {
		log.Println("sentry init error:", err.Error())
		return h
	}

	h.enabled = true
	return h
}

// Flush blocks until buffered events are delivered or the timeout elapses.
func (h *SentryHook) Flush() {
	if h.enabled {
		sentry.Flush(_sentryFlushTimeout)
	}
}

// Write implements io.Writer over the zap JSON stream.
func (h *SentryHook) Write(p []byte) (int, error) {
	if !h.enabled {
		return len(p), nil
	}

	var entry struct {
		Level      string `json:"level"`
		Message    string `json:"msg"`
		Error      string `json:"error"`
		CallerFile string `json:"caller_file"`
		CallerLine int    `json:"caller_line"`
		CallerFunc string `json:"caller_func"`
	}
	if err := json.Unmarshal(p, &entry); err != nil {
		return len(p), nil
	}

	level, err := zapcore.ParseLevel(entry.Level)
	if err != nil || entry.Message == "" {
		return len(p), nil
	}

	switch level {
	case zapcore.ErrorLevel, zapcore.FatalLevel, zapcore.PanicLevel:
		event := sentry.NewEvent()
		event.Environment = h.env
		event.Level = mapLevel(level)
		event.Message = entry.Message
		event.Extra = map[string]any{
			"AppName":    h.appName,
			"Error":      entry.Error,
			"CallerFile": entry.CallerFile,
			"CallerLine": entry.CallerLine,
			"CallerFunc": entry.CallerFunc,
		}
		event.Exception = append(event.Exception, sentry.Exception{
			Type:       entry.Message,
			Value:      entry.Error,
			Stacktrace: sentry.NewStacktrace(),
		})
		sentry.CaptureEvent(event)
	}

	return len(p), nil
}

func mapLevel(zl zapcore.Level) sentry.Level {
	switch zl {
	case zapcore.WarnLevel:
		return sentry.LevelWarning
	case zapcore.ErrorLevel:
		return sentry.LevelError
	case zapcore.FatalLevel, zapcore.PanicLevel:
		return sentry.LevelFatal
	default:
		return sentry.LevelInfo
	}
}
