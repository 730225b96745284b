package diag

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
	loggerLock sync.Mutex
)

// Logger returns the decoder's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		loggerLock.Lock()
		defer loggerLock.Unlock()
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	loggerLock.Lock()
	defer loggerLock.Unlock()
	return logger
}

// SetLogger replaces the logger. Collectors created earlier keep the old one.
func SetLogger(l *zap.Logger) {
	loggerLock.Lock()
	defer loggerLock.Unlock()
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}
