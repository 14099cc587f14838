package reminder

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/habitpulse/internal/habit"
	"github.com/roach88/habitpulse/internal/metrics"
)

// ErrDisabled is returned by SendTest when notifications are off or not
// permitted.
var ErrDisabled = errors.New("notifications are disabled")

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Service applies the reminder policy with the user's settings and delivers
// the resulting notifications.
//
// Thread-safety: all methods are safe for concurrent use.
type Service struct {
	notifier    Notifier
	permission  Permission
	clock       Clock
	logger      *slog.Logger
	warningHour int

	mu       sync.Mutex
	settings Settings
}

// Option configures a Service.
type Option func(*Service)

// WithSettings sets the initial settings. Defaults to DefaultSettings().
func WithSettings(s Settings) Option {
	return func(svc *Service) { svc.settings = s }
}

// WithClock sets the clock used for streak warnings.
func WithClock(c Clock) Option {
	return func(svc *Service) { svc.clock = c }
}

// WithLogger sets the logger for delivery failures.
func WithLogger(l *slog.Logger) Option {
	return func(svc *Service) { svc.logger = l }
}

// WithWarningHour sets the local hour from which streak warnings are sent.
func WithWarningHour(hour int) Option {
	return func(svc *Service) { svc.warningHour = hour }
}

// NewService creates a Service delivering through n when p grants permission.
func NewService(n Notifier, p Permission, opts ...Option) *Service {
	svc := &Service{
		notifier:    n,
		permission:  p,
		clock:       systemClock{},
		logger:      slog.Default(),
		warningHour: DefaultWarningHour,
		settings:    DefaultSettings(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Settings returns the current settings.
func (s *Service) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// UpdateSettings replaces the settings. Invalid settings are rejected and the
// previous ones kept.
func (s *Service) UpdateSettings(next Settings) error {
	if err := next.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.settings = next
	s.mu.Unlock()
	s.logger.Debug("reminder settings updated",
		"enabled", next.Enabled,
		"reminder_time", next.ReminderTime,
	)
	return nil
}

// Enabled reports whether notifications are switched on and permitted.
func (s *Service) Enabled() bool {
	return s.Settings().Enabled && s.permission.Granted()
}

// Show delivers n if notifications are enabled and reports whether it was
// delivered. Failures are logged, not returned.
func (s *Service) Show(ctx context.Context, n Notification) bool {
	if !s.Enabled() {
		metrics.RecordNotification(string(n.Kind), "suppressed")
		return false
	}
	return s.deliver(ctx, n) == nil
}

// SendDailyReminder delivers the daily summary for habits. It does nothing when
// daily reminders are off or the collection is empty.
func (s *Service) SendDailyReminder(ctx context.Context, habits []habit.Habit) bool {
	if !s.Settings().DailyReminder {
		return false
	}
	n, ok := DailySummary(habits)
	if !ok {
		return false
	}
	return s.Show(ctx, n)
}

// CheckStreakWarnings warns about every habit whose streak is at risk and
// returns the number of warnings delivered.
func (s *Service) CheckStreakWarnings(ctx context.Context, habits []habit.Habit) int {
	if !s.Settings().StreakWarning {
		return 0
	}
	sent := 0
	for _, n := range StreakWarnings(habits, s.clock.Now(), s.warningHour) {
		if s.Show(ctx, n) {
			sent++
		}
	}
	return sent
}

// SendTest delivers TestNotification. Unlike the other senders it reports
// why nothing was shown.
func (s *Service) SendTest(ctx context.Context) error {
	if !s.Enabled() {
		metrics.RecordNotification(string(TestNotification.Kind), "suppressed")
		return ErrDisabled
	}
	return s.deliver(ctx, TestNotification)
}

// NextReminder returns when the next daily reminder is due. It reports false
// when daily reminders are off.
func (s *Service) NextReminder(now time.Time) (time.Time, bool) {
	settings := s.Settings()
	if !settings.Enabled || !settings.DailyReminder {
		return time.Time{}, false
	}
	next, err := NextReminder(now, settings.ReminderTime)
	if err != nil {
		s.logger.Warn("invalid reminder time", "error", err)
		return time.Time{}, false
	}
	return next, true
}

func (s *Service) deliver(ctx context.Context, n Notification) error {
	n.Silent = !s.Settings().Sound
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.Warn("notification failed", "kind", string(n.Kind), "title", n.Title, "error", err)
		metrics.RecordNotification(string(n.Kind), "failed")
		return err
	}
	metrics.RecordNotification(string(n.Kind), "sent")
	return nil
}
