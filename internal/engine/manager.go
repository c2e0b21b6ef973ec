package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"spinsim/internal/lane"
	"spinsim/internal/lib/logger/sl"
	"spinsim/internal/model"
)

// Publisher receives flushed step batches for live consumers; the websocket
// hub implements it. Channel is the batch id.
type Publisher interface {
	PublishSteps(channel string, steps []model.SimulationStep)
}

type ControlAction string

const (
	ControlPause  ControlAction = "pause"
	ControlResume ControlAction = "resume"
	ControlStep   ControlAction = "step"
	ControlSpeed  ControlAction = "speed"
	ControlCancel ControlAction = "cancel"
)

var ErrUnknownBatch = fmt.Errorf("unknown batch id")

type activeBatch struct {
	control *Controller
	cancel  context.CancelFunc
	done    chan struct{}

	mu      sync.Mutex
	session *model.BatchSession
	err     error
}

// Manager launches batches in the background and routes control actions to
// the owning run's controller.
type Manager struct {
	log *slog.Logger

	mu      sync.Mutex
	batches map[uuid.UUID]*activeBatch
}

func NewManager(log *slog.Logger) *Manager {
	return &Manager{
		log:     log,
		batches: make(map[uuid.UUID]*activeBatch),
	}
}

// Start launches one batch in a background goroutine and returns its id
// immediately. The publisher, if any, receives live step batches on the
// id's channel.
func (m *Manager) Start(
	lanes []*lane.Lane,
	settings model.Settings,
	label string,
	pub Publisher,
) uuid.UUID {
	id := uuid.New()

	ctx, cancel := context.WithCancel(context.Background())

	var flush FlushFunc
	if pub != nil {
		channel := id.String()
		flush = func(steps []model.SimulationStep) {
			pub.PublishSteps(channel, steps)
		}
	}

	control := NewController()
	batch := &activeBatch{
		control: control,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	m.mu.Lock()
	m.batches[id] = batch
	m.mu.Unlock()

	runner := NewBatchRunner(m.log, lanes, settings, label, control, flush)

	go func() {
		defer cancel()

		session, err := runner.Run(ctx)

		batch.mu.Lock()
		batch.session = session
		batch.err = err
		batch.mu.Unlock()

		close(batch.done)

		if err != nil {
			m.log.Error("batch faulted", sl.String("batch_id", id.String()), sl.Err(err))
		}
	}()

	return id
}

// Control applies a control action to an active batch.
func (m *Manager) Control(id uuid.UUID, action ControlAction, delay time.Duration) error {
	const op = "engine.Manager.Control"

	m.mu.Lock()
	batch, ok := m.batches[id]
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%s: %w", op, ErrUnknownBatch)
	}

	switch action {
	case ControlPause:
		batch.control.Pause()
	case ControlResume:
		batch.control.SetStepMode(false)
		batch.control.Advance()
		batch.control.Resume()
	case ControlStep:
		batch.control.SetStepMode(true)
		batch.control.Resume()
		batch.control.Advance()
	case ControlSpeed:
		batch.control.SetDelay(delay)
	case ControlCancel:
		batch.cancel()
	default:
		return fmt.Errorf("%s: unknown action %q", op, action)
	}

	return nil
}

// Status reports the controller state of an active batch.
func (m *Manager) Status(id uuid.UUID) (Status, error) {
	const op = "engine.Manager.Status"

	m.mu.Lock()
	batch, ok := m.batches[id]
	m.mu.Unlock()

	if !ok {
		return StatusIdle, fmt.Errorf("%s: %w", op, ErrUnknownBatch)
	}

	return batch.control.Status(), nil
}

// Result returns the finished batch session, or done=false while the batch
// is still running. Fetching a finished result evicts the entry, so a
// long-lived process does not accumulate completed batches; later fetches
// answer ErrUnknownBatch and callers fall back to the persisted history.
func (m *Manager) Result(id uuid.UUID) (*model.BatchSession, bool, error) {
	const op = "engine.Manager.Result"

	m.mu.Lock()
	batch, ok := m.batches[id]
	m.mu.Unlock()

	if !ok {
		return nil, false, fmt.Errorf("%s: %w", op, ErrUnknownBatch)
	}

	select {
	case <-batch.done:
	default:
		return nil, false, nil
	}

	m.mu.Lock()
	delete(m.batches, id)
	m.mu.Unlock()

	batch.mu.Lock()
	defer batch.mu.Unlock()

	return batch.session, true, batch.err
}

// Wait blocks until the batch finishes and returns its session.
func (m *Manager) Wait(id uuid.UUID) (*model.BatchSession, error) {
	const op = "engine.Manager.Wait"

	m.mu.Lock()
	batch, ok := m.batches[id]
	m.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrUnknownBatch)
	}

	<-batch.done

	batch.mu.Lock()
	defer batch.mu.Unlock()

	return batch.session, batch.err
}
