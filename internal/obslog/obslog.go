// Package obslog is the auditor's logging wrapper: a package level sugared
// logger set up once at process start, plus a small Logger interface
// individual components hold so they can be unit tested with a no-op
// implementation.
package obslog

import (
	"sync"

	"go.uber.org/zap"
)

// Logger is the scoped logging handle components are constructed with.
// It mirrors the subset of *zap.SugaredLogger call sites actually used
// across this repository.
type Logger interface {
	Debugw(msg string, kv ...any)
	Infow(msg string, kv ...any)
	Warnw(msg string, kv ...any)
	Errorw(msg string, kv ...any)
	With(kv ...any) Logger
}

type sugared struct {
	l *zap.SugaredLogger
}

func (s sugared) Debugw(msg string, kv ...any) { s.l.Debugw(msg, kv...) }
func (s sugared) Infow(msg string, kv ...any)  { s.l.Infow(msg, kv...) }
func (s sugared) Warnw(msg string, kv ...any)  { s.l.Warnw(msg, kv...) }
func (s sugared) Errorw(msg string, kv ...any) { s.l.Errorw(msg, kv...) }
func (s sugared) With(kv ...any) Logger        { return sugared{l: s.l.With(kv...)} }

var (
	mu    sync.Mutex
	root  *zap.Logger
	Sugar Logger = Noop{}
)

// New initializes the package level Sugar logger, tagged with service, for
// the lifetime of the process. Safe to call once at startup; repeated calls
// replace the previous logger.
func New(service string) Logger {
	mu.Lock()
	defer mu.Unlock()

	cfg := zap.NewProductionConfig()
	l, err := cfg.Build()
	if err != nil {
		// Fall back to a development logger rather than leaving the
		// process without any observability; only if that also fails is
		// a no-op logger used.
		if l, err = zap.NewDevelopment(); err != nil {
			l = zap.NewNop()
		}
	}
	root = l
	Sugar = sugared{l: l.Sugar().With("service", service)}
	return Sugar
}

// Sync flushes any buffered log entries. Callers should defer this from
// main after New.
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	if root != nil {
		_ = root.Sync()
	}
}

// Noop is a Logger that discards everything. Useful in tests that don't
// care about log output.
type Noop struct{}

func (Noop) Debugw(string, ...any) {}
func (Noop) Infow(string, ...any)  {}
func (Noop) Warnw(string, ...any)  {}
func (Noop) Errorw(string, ...any) {}
func (n Noop) With(...any) Logger  { return n }
