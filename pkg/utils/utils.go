package utils

import (
	"context"
	"runtime/debug"
	"strings"

	"golang-etf-dashboard/pkg/logger"
)

// GoSafe runs fn in a goroutine and recovers from panics so a single
// misbehaving task cannot take the process down.
func GoSafe(log *logger.Logger, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("recovered from panic",
					logger.Field("panic", r),
					logger.StringField("stack", string(debug.Stack())),
				)
			}
		}()
		fn()
	}()
}

// ShouldContinue reports whether the context is still alive, logging once
// when it is not.
func ShouldContinue(ctx context.Context, log *logger.Logger) bool {
	if err := ctx.Err(); err != nil {
		log.Warn("context cancelled, stopping work", logger.ErrorField(err))
		return false
	}
	return true
}

// ContainsString reports whether items contains target, case-insensitively.
func ContainsString(items []string, target string) bool {
	for _, item := range items {
		if strings.EqualFold(item, target) {
			return true
		}
	}
	return false
}

// CleanToValidUTF8 strips invalid UTF-8 sequences and NUL bytes, which
// Postgres text columns reject.
func CleanToValidUTF8(s string) string {
	s = strings.ToValidUTF8(s, "")
	return strings.ReplaceAll(s, "\x00", "")
}
