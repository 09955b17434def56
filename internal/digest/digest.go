package digest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/focusloop/focusbot/internal/db"
	"github.com/focusloop/focusbot/internal/logging"
)

// Generate builds the status summary text: in-progress tasks when there are
// any, otherwise the highest-priority pending work, plus today's focus stats.
func Generate(ctx context.Context, store *db.Store) (string, error) {
	var sb strings.Builder

	inProgress, err := store.ListTasksByStatus(ctx, db.TaskStatusInProgress)
	if err != nil {
		return "", fmt.Errorf("list in-progress tasks: %w", err)
	}

	if len(inProgress) > 0 {
		sb.WriteString("*In progress*\n")
		for _, t := range inProgress {
			fmt.Fprintf(&sb, "• %s (%d min)\n", t.Title, t.EstimatedMinutes)
		}
	} else {
		priority, err := store.ListPriorityTasks(ctx, 5)
		if err != nil {
			return "", fmt.Errorf("list priority tasks: %w", err)
		}
		if len(priority) == 0 {
			sb.WriteString("Nothing on the board. Add some tasks to get started.\n")
		} else {
			sb.WriteString("*Up next*\n")
			for _, t := range priority {
				line := fmt.Sprintf("• %s (%d min)", t.Title, t.EstimatedMinutes)
				if t.Deadline != "" {
					line += " - due " + t.Deadline
				}
				sb.WriteString(line + "\n")
			}
		}
	}

	today := time.Now().Format("2006-01-02")
	stats, err := store.GetDailyStats(ctx, today)
	if err != nil {
		return "", fmt.Errorf("daily stats: %w", err)
	}
	fmt.Fprintf(&sb, "\n*Today*: %d sessions, %d minutes of focused work",
		stats.CompletedSessions, stats.TotalWorkMinutes)

	return sb.String(), nil
}

// Notifier posts digest text to a chat channel
type Notifier interface {
	Send(ctx context.Context, channelID, text string) error
}

// Scheduler posts the morning and evening digests on a cron schedule
type Scheduler struct {
	store     *db.Store
	notifier  Notifier
	channelID string
	cron      *cron.Cron
}

// NewScheduler creates a digest scheduler targeting one channel
func NewScheduler(store *db.Store, notifier Notifier, channelID string) *Scheduler {
	return &Scheduler{
		store:     store,
		notifier:  notifier,
		channelID: channelID,
		cron:      cron.New(),
	}
}

// Start registers the digest jobs and starts the cron loop. Specs are
// standard five-field cron expressions; empty specs skip that digest.
func (s *Scheduler) Start(morningSpec, eveningSpec string) error {
	if morningSpec != "" {
		if _, err := s.cron.AddFunc(morningSpec, func() {
			s.post("☀️ *Good morning! Here's your day:*")
		}); err != nil {
			return fmt.Errorf("schedule morning digest: %w", err)
		}
	}
	if eveningSpec != "" {
		if _, err := s.cron.AddFunc(eveningSpec, func() {
			s.post("🌙 *Wrapping up. Today's recap:*")
		}); err != nil {
			return fmt.Errorf("schedule evening digest: %w", err)
		}
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron loop; running jobs finish first
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) post(header string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	summary, err := Generate(ctx, s.store)
	if err != nil {
		logging.Errorf("Digest generation failed: %v", err)
		return
	}
	if err := s.notifier.Send(ctx, s.channelID, header+"\n\n"+summary); err != nil {
		logging.Errorf("Digest delivery failed: %v", err)
	}
}
