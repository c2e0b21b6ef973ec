package engine

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"spinsim/internal/lane"
	"spinsim/internal/lib/logger/sl"
	"spinsim/internal/model"
	"spinsim/internal/wheel"
)

// BatchRunner repeats a run N times sequentially, never concurrently: lane
// runtime state and the shared random source are owned by one run at a time.
type BatchRunner struct {
	log      *slog.Logger
	lanes    []*lane.Lane
	settings model.Settings
	label    string
	control  *Controller
	flush    FlushFunc
}

func NewBatchRunner(
	log *slog.Logger,
	lanes []*lane.Lane,
	settings model.Settings,
	label string,
	control *Controller,
	flush FlushFunc,
) *BatchRunner {
	if control == nil {
		control = NewController()
	}

	return &BatchRunner{
		log:      log,
		lanes:    lanes,
		settings: settings,
		label:    label,
		control:  control,
		flush:    flush,
	}
}

// Run executes the Monte-Carlo batch. A faulted run returns the error
// together with the session holding every previously completed run; an early
// cancellation simply truncates the batch. Stats cover however many runs
// completed.
func (b *BatchRunner) Run(ctx context.Context) (*model.BatchSession, error) {
	const op = "engine.BatchRunner.Run"

	for _, l := range b.lanes {
		if err := l.Normalize(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	var src rand.Source
	if b.settings.Seed != 0 {
		src = rand.NewSource(b.settings.Seed)
	}

	w := wheel.New(src)

	runs := b.settings.Runs

	// replaying the same literal outcome sequence adds no information, so
	// fixed-outcome mode always executes exactly one run
	if len(b.settings.FixedOutcomes) > 0 {
		runs = 1
	}

	session := &model.BatchSession{
		ID:        uuid.New(),
		Label:     b.label,
		CreatedAt: time.Now(),
		Settings:  b.settings,
	}

	b.log.Info("batch started",
		sl.String("session_id", session.ID.String()),
		sl.Int("runs", runs))

	for i := 0; i < runs; i++ {
		runner := NewRunner(b.log, w, b.lanes, b.settings, b.control, b.flush)

		res, err := runner.Run(ctx)
		if err != nil {
			session.Stats = ComputeStats(session.Runs, b.settings.StartingBankroll)

			return session, fmt.Errorf("%s: run %d: %w", op, i+1, err)
		}

		session.Runs = append(session.Runs, *res)

		if res.StopReason == model.StopCancelled {
			break
		}
	}

	session.Stats = ComputeStats(session.Runs, b.settings.StartingBankroll)

	b.log.Info("batch finished",
		sl.String("session_id", session.ID.String()),
		sl.Int("completed_runs", len(session.Runs)),
		sl.Any("stats", session.Stats))

	return session, nil
}

func (b *BatchRunner) Control() *Controller {
	return b.control
}
