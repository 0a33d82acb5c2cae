package logger

type LevelWrapper struct {
	Base
}

func WrapLogger(l Base) Logger {
	if w, ok := l.(*LevelWrapper); ok {
		return w
	}
	return &LevelWrapper{l}
}

func (w *LevelWrapper) Debug(msg string, kv ...any) {
	w.Log(DebugLevel, msg, kv...)
}

func (w *LevelWrapper) Info(msg string, kv ...any) {
	w.Log(InfoLevel, msg, kv...)
}

func (w *LevelWrapper) Warn(msg string, kv ...any) {
	w.Log(WarnLevel, msg, kv...)
}

func (w *LevelWrapper) Error(msg string, kv ...any) {
	w.Log(ErrorLevel, msg, kv...)
}

// WithFields returns a child logger that attaches kv to every entry.
func (w *LevelWrapper) WithFields(kv ...any) Logger {
	return WrapLogger(w.Base.With(kv...))
}
