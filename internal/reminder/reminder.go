// Package reminder announces the matches scheduled for the current day.
package reminder

import (
	"context"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/Martig3/valorant-matchbot/internal/ledger"
)

type Config struct {
	// At is the daily announcement time as HH:MM. Empty disables reminders.
	At       string `yaml:"at" env:"AT"`
	Timezone string `yaml:"timezone" env:"TIMEZONE"`
}

func (c Config) Enabled() bool { return c.At != "" }

type Source interface {
	MatchesOn(date string) []ledger.Match
}

type Announcer interface {
	Announce(ctx context.Context, text string) error
}

type Reminder struct {
	src Source
	out Announcer
	loc *time.Location
	at  time.Time
	now func() time.Time
	log *zap.Logger
}

func New(cfg Config, src Source, out Announcer, log *zap.Logger) (*Reminder, error) {
	at, err := time.Parse("15:04", cfg.At)
	if err != nil {
		return nil, fmt.Errorf("reminder time %q: %w", cfg.At, err)
	}
	tz := cfg.Timezone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("reminder timezone %q: %w", tz, err)
	}
	return &Reminder{src: src, out: out, loc: loc, at: at, now: time.Now, log: log}, nil
}

// Text renders the reminder for date, or "" when nothing is scheduled.
func Text(date string, matches []ledger.Match) string {
	if len(matches) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**Matches scheduled for today (%s):**\n", date)
	for _, m := range matches {
		fmt.Fprintf(&b, "- <@&%s> vs <@&%s>", m.TeamOne.ID, m.TeamTwo.ID)
		if m.Schedule != nil && m.Schedule.Time != "" {
			fmt.Fprintf(&b, " at %s", m.Schedule.Time)
		}
		if m.Note != "" {
			fmt.Fprintf(&b, " `%s`", m.Note)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Announce posts today's matches. It reports whether anything was sent.
func (r *Reminder) Announce(ctx context.Context) (bool, error) {
	date := r.now().In(r.loc).Format(ledger.DateLayout)
	text := Text(date, r.src.MatchesOn(date))
	if text == "" {
		r.log.Debug("no matches today", zap.String("date", date))
		return false, nil
	}
	if err := r.out.Announce(ctx, text); err != nil {
		return false, fmt.Errorf("announce matches for %s: %w", date, err)
	}
	r.log.Info("announced matches", zap.String("date", date))
	return true, nil
}

// Run fires Announce once a day until ctx is done.
func (r *Reminder) Run(ctx context.Context) error {
	sched, err := gocron.NewScheduler(gocron.WithLocation(r.loc))
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	_, err = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(uint(r.at.Hour()), uint(r.at.Minute()), 0))),
		gocron.NewTask(func() {
			if _, err := r.Announce(ctx); err != nil {
				r.log.Error("daily reminder", zap.Error(err))
			}
		}),
		gocron.WithName("daily-match-reminder"),
	)
	if err != nil {
		return fmt.Errorf("schedule reminder: %w", err)
	}
	sched.Start()
	r.log.Info("reminder scheduled", zap.String("at", r.at.Format("15:04")), zap.String("timezone", r.loc.String()))

	<-ctx.Done()
	return sched.Shutdown()
}
