package scheduler

import (
	"context"
	"time"

	"go-lms/internal/features/user"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Students who have not logged in for this long get a reminder.
const inactivityWindow = 7 * 24 * time.Hour

// reminderSchedule fires the sweep every morning at 09:00 server time.
const reminderSchedule = "0 9 * * *"

// Broadcaster is the slice of the realtime gateway the sweep needs.
type Broadcaster interface {
	BroadcastToUser(userID, event string, payload any)
}

// Scheduler runs the fixed background jobs. Jobs are defined in code; there
// is no user-managed scheduling.
type Scheduler struct {
	cron        *cron.Cron
	users       user.UserRepository
	broadcaster Broadcaster
	log         *zap.Logger
}

func NewScheduler(users user.UserRepository, broadcaster Broadcaster, log *zap.Logger) *Scheduler {
	return &Scheduler{
		users:       users,
		broadcaster: broadcaster,
		log:         log,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.cron = cron.New()

	if _, err := s.cron.AddFunc(reminderSchedule, s.runReminderSweep); err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info("scheduler started", zap.String("reminder_schedule", reminderSchedule))
	return nil
}

func (s *Scheduler) Stop() error {
	if s.cron != nil {
		s.cron.Stop()
	}
	return nil
}

// runReminderSweep nudges students who have gone quiet. Reminders are only
// seen by students currently connected; that is fine, delivery is best
// effort by design.
func (s *Scheduler) runReminderSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-inactivityWindow)
	students, err := s.users.FindStudentsInactiveSince(ctx, cutoff)
	if err != nil {
		s.log.Error("reminder sweep query failed", zap.Error(err))
		return
	}

	for _, student := range students {
		s.broadcaster.BroadcastToUser(student.ID.Hex(), "study-reminder", map[string]any{
			"message":    "You have not studied in a while. Your learning path is waiting!",
			"last_login": student.LastLogin,
		})
	}

	s.log.Info("reminder sweep finished", zap.Int("students", len(students)))
}
