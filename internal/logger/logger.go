// Package logger provides structured logging using zerolog, grounded on
// the teacher's internal/logger package (global-logger init, console vs.
// JSON writer by mode, caller field), adapted from per-HTTP-request
// context keys to per-match ones since this core has no HTTP request path.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/orla-games/meeplecore/pkg/plugin"
)

type contextKey string

const matchIDKey contextKey = "match_id"

const milliTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Init configures the global zerolog logger based on LOG_LEVEL and DEV.
func Init() {
	zerolog.TimeFieldFormat = milliTimeFormat
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }

	const callerWidth = 30
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		path := fmt.Sprintf("%s:%d", filepath.Base(file), line)
		if len(path) >= callerWidth {
			return path[len(path)-callerWidth:]
		}
		return path + strings.Repeat(" ", callerWidth-len(path))
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	dev := isDevelopmentMode()
	var output io.Writer = os.Stdout
	if dev {
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: milliTimeFormat, NoColor: false}
	}

	log.Logger = log.Output(output).With().Caller().Logger()

	log.Info().Str("level", level.String()).Bool("dev", dev).Msg("logger initialized")
}

func isDevelopmentMode() bool {
	return os.Getenv("DEV") == "true" || os.Getenv("DEV_MODE") == "true"
}

// Get returns the global logger instance.
func Get() zerolog.Logger {
	return log.Logger
}

// WithMatchID returns a new context carrying matchId for downstream
// ForMatch calls.
func WithMatchID(ctx context.Context, matchId plugin.MatchId) context.Context {
	return context.WithValue(ctx, matchIDKey, matchId)
}

// MatchIDFromContext extracts the match id stashed by WithMatchID, if any.
func MatchIDFromContext(ctx context.Context) plugin.MatchId {
	id, _ := ctx.Value(matchIDKey).(plugin.MatchId)
	return id
}

// ForMatch returns a logger enriched with match_id from ctx, falling back
// to the bare global logger when ctx carries none.
func ForMatch(ctx context.Context) zerolog.Logger {
	id := MatchIDFromContext(ctx)
	if id == "" {
		return log.Logger
	}
	return log.Logger.With().Str("match_id", id).Logger()
}
