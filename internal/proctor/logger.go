package proctor

import (
	"context"
	"sync"
	"time"

	"github.com/fadilmartias/interview-proctor/internal/metrics"
	"github.com/sirupsen/logrus"
)

const (
	DefaultCooldown     = 20 * time.Second
	DefaultWriteTimeout = 10 * time.Second
)

// Sink persists a violation. Implementations may be slow or fail; the
// Logger never waits on them from the caller's goroutine.
type Sink interface {
	LogViolation(ctx context.Context, v Violation) error
}

type LoggerConfig struct {
	// Cooldowns holds the suppression window per type. Types without an
	// entry are written on every occurrence.
	Cooldowns    map[ViolationType]time.Duration
	WriteTimeout time.Duration
	Now          func() time.Time
}

// DefaultCooldowns rate-limits the polled signals only; visibility and
// focus events are user-triggered and pass straight through.
func DefaultCooldowns(d time.Duration) map[ViolationType]time.Duration {
	if d <= 0 {
		d = DefaultCooldown
	}
	return map[ViolationType]time.Duration{
		NoFaceVisible:         d,
		MultipleFacesDetected: d,
	}
}

// Logger debounces and persists the violations of one session.
type Logger struct {
	sessionID string
	sink      Sink
	logger    *logrus.Logger
	cooldowns map[ViolationType]time.Duration
	timeout   time.Duration
	now       func() time.Time

	mu       sync.Mutex
	lastSent map[ViolationType]time.Time
	inflight sync.WaitGroup
}

func NewLogger(sessionID string, sink Sink, cfg LoggerConfig, logger *logrus.Logger) *Logger {
	if cfg.Cooldowns == nil {
		cfg.Cooldowns = DefaultCooldowns(DefaultCooldown)
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Logger{
		sessionID: sessionID,
		sink:      sink,
		logger:    logger,
		cooldowns: cfg.Cooldowns,
		timeout:   cfg.WriteTimeout,
		now:       cfg.Now,
		lastSent:  make(map[ViolationType]time.Time),
	}
}

// Log dispatches a write for t unless the same type was dispatched within
// its cooldown. It reports whether a write was dispatched and never blocks
// on the sink.
func (l *Logger) Log(t ViolationType) bool {
	now := l.now()

	l.mu.Lock()
	if cd := l.cooldowns[t]; cd > 0 {
		if last, ok := l.lastSent[t]; ok && now.Sub(last) < cd {
			l.mu.Unlock()
			metrics.ViolationsSuppressed.WithLabelValues(string(t)).Inc()
			l.logger.WithFields(logrus.Fields{
				"session_id":     l.sessionID,
				"violation_type": t,
			}).Debug("Violation suppressed by cooldown")
			return false
		}
	}
	l.lastSent[t] = now
	l.mu.Unlock()

	v := Violation{SessionID: l.sessionID, Type: t, Timestamp: now}
	metrics.ViolationsDispatched.WithLabelValues(string(t)).Inc()

	l.inflight.Add(1)
	go func() {
		defer l.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
		defer cancel()
		if err := l.sink.LogViolation(ctx, v); err != nil {
			metrics.ViolationWriteErrors.WithLabelValues(string(t)).Inc()
			l.logger.WithError(err).WithFields(logrus.Fields{
				"session_id":     l.sessionID,
				"violation_type": t,
			}).Warn("Violation write dropped")
		}
	}()
	return true
}

// Wait blocks until every dispatched write has returned.
func (l *Logger) Wait() {
	l.inflight.Wait()
}
