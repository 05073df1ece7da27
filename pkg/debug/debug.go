// Package debug provides category-gated debug logging for stackauth.
//
// Two orthogonal controls:
//   - Categories (WHAT to debug): STACKAUTH_DEBUG env or logging.debug config
//   - Levels (HOW MUCH detail): STACKAUTH_LOG_LEVEL env or logging.level config
//
// Usage:
//
//	debug.Log("auth", "decision", "path", "anonymous")
//	if debug.Enabled("storage") { /* expensive formatting */ }
//
// Categories: auth, transport, storage, config, all.
// Levels: ERROR, WARN, INFO, DEBUG, TRACE.
package debug

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"strings"
)

// LevelTrace is below slog.LevelDebug for maximum verbosity.
const LevelTrace = slog.LevelDebug - 4

// Debug categories.
const (
	CategoryAuth      = "auth"
	CategoryTransport = "transport"
	CategoryStorage   = "storage"
	CategoryConfig    = "config"
)

// categories holds the set of enabled debug categories.
// Read-only after Init.
var categories map[string]bool

func init() {
	categories = parseCategories(os.Getenv("STACKAUTH_DEBUG"))
}

// Init configures categories and installs a text slog handler at the
// requested level as the default logger. Environment overrides config.
func Init(configCategories string, configLevel string) {
	cats := os.Getenv("STACKAUTH_DEBUG")
	if cats == "" {
		cats = configCategories
	}
	categories = parseCategories(cats)

	level := os.Getenv("STACKAUTH_LOG_LEVEL")
	if level == "" {
		level = configLevel
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})))
}

// Enabled reports whether debug output is active for the given category.
func Enabled(category string) bool {
	return categories["all"] || categories[category]
}

// Log emits a debug message for the given category.
// If the category is not enabled, this is a no-op.
func Log(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Debug(msg, append([]any{"debug", category}, args...)...)
}

// Trace emits a trace-level message for the given category.
// Only visible when STACKAUTH_LOG_LEVEL=TRACE.
func Trace(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Log(context.Background(), LevelTrace, msg, append([]any{"debug", category}, args...)...)
}

// ParseLevel converts a level string to a slog.Level.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return slog.LevelDebug
	case "INFO", "":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Categories returns the enabled categories in sorted order.
func Categories() []string {
	result := make([]string, 0, len(categories))
	for k := range categories {
		result = append(result, k)
	}
	sort.Strings(result)
	return result
}

// Redact shortens a credential for logging, keeping at most the first
// four characters.
func Redact(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + "..."
}

func parseCategories(s string) map[string]bool {
	m := make(map[string]bool)
	for _, cat := range strings.Split(s, ",") {
		cat = strings.TrimSpace(strings.ToLower(cat))
		if cat != "" {
			m[cat] = true
		}
	}
	return m
}
