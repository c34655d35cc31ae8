package server

import (
	"log"
	"time"
)

// ApplyObserver observes layout applications going through the server.
type ApplyObserver interface {
	ObserveApply(screenCount int, duration time.Duration, err error)
}

// ApplyLogger logs layout applications to the provided logger.
type ApplyLogger struct {
	logger *log.Logger
}

// NewApplyLogger creates an observer that logs layout applications.
func NewApplyLogger(l *log.Logger) *ApplyLogger {
	if l == nil {
		l = log.Default()
	}
	return &ApplyLogger{logger: l}
}

func (a *ApplyLogger) ObserveApply(screenCount int, duration time.Duration, err error) {
	if a == nil || a.logger == nil {
		return
	}
	if err != nil {
		a.logger.Printf("apply_layout failed duration=%s err=%q", duration, err)
		return
	}
	a.logger.Printf("apply_layout screens=%d duration=%s", screenCount, duration)
}
