// Package logger provides the reader's leveled logging helpers. The
// retrieved corpus never reaches for a third-party logging library —
// every example that logs at all uses the standard "log" package — so
// this wraps it rather than inventing a dependency nothing in the corpus
// grounds.
package logger

import "log"

// Logger is a leveled façade over the standard library logger, letting
// call sites say what kind of event they're recording without sprinkling
// string prefixes by hand.
type Logger struct {
	prefix string
}

// New returns a Logger that tags every line with prefix, e.g. the
// component name ("reader", "evdevsource").
func New(prefix string) *Logger {
	return &Logger{prefix: prefix}
}

func (l *Logger) Debugf(format string, args ...any) {
	log.Printf("[%s] DEBUG "+format, prepend(l.prefix, args)...)
}

func (l *Logger) Infof(format string, args ...any) {
	log.Printf("[%s] INFO "+format, prepend(l.prefix, args)...)
}

func (l *Logger) Warnf(format string, args ...any) {
	log.Printf("[%s] WARN "+format, prepend(l.prefix, args)...)
}

func (l *Logger) Errorf(format string, args ...any) {
	log.Printf("[%s] ERROR "+format, prepend(l.prefix, args)...)
}

func prepend(prefix string, args []any) []any {
	out := make([]any, 0, len(args)+1)
	out = append(out, prefix)
	out = append(out, args...)
	return out
}
