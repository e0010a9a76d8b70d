package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/andrescamacho/reliefops-go/internal/application/events"
	"github.com/andrescamacho/reliefops-go/internal/application/logging"
	"github.com/andrescamacho/reliefops-go/internal/domain/facility"
	"github.com/andrescamacho/reliefops-go/internal/domain/ledger"
	"github.com/andrescamacho/reliefops-go/internal/domain/shared"
	"github.com/andrescamacho/reliefops-go/internal/domain/task"
)

// DefaultDeliveryFailurePenalty is the satisfaction lost when a task's delivery fails
const DefaultDeliveryFailurePenalty = 10

// Options tunes the manager
type Options struct {
	// nil selects DefaultDeliveryFailurePenalty; zero disables the penalty
	DeliveryFailurePenalty *int

	// Fleet carries out vehicle repairs chosen by the player; optional
	Fleet FleetRepairer
}

// Manager owns every task instance of the session, live and finished.
//
// Thread-Safety:
// mu guards the task index; each task additionally has its own mutex so only one
// transition runs per task at a time. Lock order is always index, then task, and
// the index lock is never held while a task lock is taken.
type Manager struct {
	mu    sync.RWMutex
	tasks map[string]*task.Task
	order []string
	locks map[string]*sync.Mutex

	deliveries DeliveryService
	scoreboard *ledger.Scoreboard
	entries    ledger.EntryRepository
	publisher  events.Publisher
	clock      shared.Clock
	rounds     RoundSource
	fleet      FleetRepairer

	failurePenalty int
}

// NewManager creates a task manager.
// deliveries, entries and rounds may be nil; clock defaults to RealClock.
func NewManager(
	deliveries DeliveryService,
	scoreboard *ledger.Scoreboard,
	entries ledger.EntryRepository,
	publisher events.Publisher,
	clock shared.Clock,
	rounds RoundSource,
	opts Options,
) *Manager {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if scoreboard == nil {
		scoreboard = ledger.NewScoreboard(clock)
	}
	penalty := DefaultDeliveryFailurePenalty
	if opts.DeliveryFailurePenalty != nil && *opts.DeliveryFailurePenalty >= 0 {
		penalty = *opts.DeliveryFailurePenalty
	}
	return &Manager{
		tasks:          make(map[string]*task.Task),
		locks:          make(map[string]*sync.Mutex),
		deliveries:     deliveries,
		scoreboard:     scoreboard,
		entries:        entries,
		publisher:      publisher,
		clock:          clock,
		rounds:         rounds,
		fleet:          opts.Fleet,
		failurePenalty: penalty,
	}
}

// Scoreboard exposes the counters penalties and rewards are applied to
func (m *Manager) Scoreboard() *ledger.Scoreboard {
	return m.scoreboard
}

// CreateFromTemplate instantiates a template for a facility (nil for global tasks)
func (m *Manager) CreateFromTemplate(ctx context.Context, tpl *task.Template, target facility.Facility) (*task.Task, error) {
	if tpl == nil {
		return nil, fmt.Errorf("cannot create task: template is nil")
	}

	t := task.NewTask(tpl, target, m.currentRound(), m.clock.Now())
	t.SetFailurePenaltyIfUnset(m.failurePenalty)

	id := t.ID().String()
	m.mu.Lock()
	m.tasks[id] = t
	m.order = append(m.order, id)
	m.locks[id] = &sync.Mutex{}
	m.mu.Unlock()

	logging.LoggerFromContext(ctx).Log("INFO", "Task created", map[string]interface{}{
		"task_id":     id,
		"template_id": tpl.ID,
		"title":       tpl.Title,
		"type":        string(tpl.Type),
		"facility":    t.FacilityName(),
	})
	m.publishTask(events.TaskCreated, t, "")
	return t, nil
}

// AdHocTask describes a task raised outside the catalog (scripted events, debug tools)
type AdHocTask struct {
	Title       string
	Type        task.Type
	Description string
	Facility    facility.Facility
	Impacts     []task.Impact
	Messages    []task.Message
	Choices     []task.Choice
}

// CreateAdHoc creates a task with the default timing of its type
func (m *Manager) CreateAdHoc(ctx context.Context, spec AdHocTask) (*task.Task, error) {
	timing := task.DefaultTiming(spec.Type)
	tpl := &task.Template{
		ID:               "adhoc",
		Title:            spec.Title,
		Type:             spec.Type,
		Description:      spec.Description,
		Global:           spec.Facility == nil,
		RoundsRemaining:  timing.Rounds,
		RealTimeLimit:    timing.RealTimeLimit,
		HasRealTimeLimit: timing.HasRealTimeLimit,
		Impacts:          spec.Impacts,
		Messages:         spec.Messages,
		Choices:          spec.Choices,
	}
	if spec.Facility != nil {
		tpl.SpecificFacilityID = spec.Facility.ID()
	}
	if err := tpl.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ad-hoc task: %w", err)
	}
	return m.CreateFromTemplate(ctx, tpl, spec.Facility)
}

// HasLive reports whether a non-terminal task with the title exists for the facility
func (m *Manager) HasLive(title string, facilityID facility.ID) bool {
	for _, t := range m.Active() {
		if t.Title() == title && t.FacilityID() == facilityID {
			return true
		}
	}
	return false
}

// Get returns a task by ID
func (m *Manager) Get(id string) (*task.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, &task.ErrTaskNotFound{ID: id}
	}
	return t, nil
}

// All returns every task in creation order
func (m *Manager) All() []*task.Task {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*task.Task, 0, len(m.order))
	for _, id := range m.order {
		result = append(result, m.tasks[id])
	}
	return result
}

// Active returns every non-terminal task in creation order
func (m *Manager) Active() []*task.Task {
	return m.filter(func(t *task.Task) bool { return !t.IsTerminal() })
}

// Archived returns every finished task in creation order
func (m *Manager) Archived() []*task.Task {
	return m.filter(func(t *task.Task) bool { return t.IsTerminal() })
}

// ByType returns tasks of a type
func (m *Manager) ByType(kind task.Type) []*task.Task {
	return m.filter(func(t *task.Task) bool { return t.Type() == kind })
}

// ByStatus returns tasks in a status
func (m *Manager) ByStatus(status task.Status) []*task.Task {
	return m.filter(func(t *task.Task) bool { return t.Status() == status })
}

func (m *Manager) filter(keep func(t *task.Task) bool) []*task.Task {
	var result []*task.Task
	for _, t := range m.All() {
		if m.read(t, keep) {
			result = append(result, t)
		}
	}
	return result
}

// Stats counts tasks by type and status
type Stats struct {
	Total    int
	ByType   map[task.Type]int
	ByStatus map[task.Status]int
}

// Stats summarises the task book
func (m *Manager) Stats() Stats {
	s := Stats{
		ByType:   make(map[task.Type]int),
		ByStatus: make(map[task.Status]int),
	}
	for _, t := range m.All() {
		m.read(t, func(t *task.Task) bool {
			s.Total++
			s.ByType[t.Type()]++
			s.ByStatus[t.Status()]++
			return true
		})
	}
	return s
}

// OnRoundAdvanced consumes one round of budget from every live task
func (m *Manager) OnRoundAdvanced(ctx context.Context) {
	for _, t := range m.Active() {
		m.withTask(t, func(t *task.Task) error {
			t.DecrementRound()
			return nil
		})
	}
}

// AdvanceRealTime consumes real-time budget. Nothing elapses while the simulation is paused.
func (m *Manager) AdvanceRealTime(ctx context.Context, delta time.Duration, running bool) {
	if !running || delta <= 0 {
		return
	}
	for _, t := range m.Active() {
		m.withTask(t, func(t *task.Task) error {
			t.ElapseRealTime(delta)
			return nil
		})
	}
}

// ExpireDue finishes every live task that ran out of time and returns them.
//
// Business Rules:
//  1. Emergency/Demand tasks and tasks already in progress become INCOMPLETE
//  2. Other types become EXPIRED
//  3. Task impacts are applied as penalties exactly once
//  4. Linked deliveries still pending are cancelled, releasing their reservations
func (m *Manager) ExpireDue(ctx context.Context) []*task.Task {
	logger := logging.LoggerFromContext(ctx)

	var expired []*task.Task
	for _, t := range m.Active() {
		var outcome task.Status
		err := m.withTask(t, func(t *task.Task) error {
			if t.IsTerminal() || !t.IsOutOfTime() {
				return errSkip
			}
			inProgress := t.Status() == task.StatusInProgress

			status, err := t.Expire(m.clock.Now())
			if err != nil {
				return err
			}
			outcome = status
			if inProgress {
				m.cancelLinked(ctx, t, "task ran out of time")
			}
			m.applyImpacts(ctx, t, t.Impacts(), ledger.SourcePenalty)
			return nil
		})
		if err == errSkip {
			continue
		}
		if err != nil {
			logger.Log("ERROR", "Failed to expire task", map[string]interface{}{
				"task_id": t.ID().String(),
				"error":   err.Error(),
			})
			continue
		}

		logger.Log("INFO", "Task ran out of time", map[string]interface{}{
			"task_id": t.ID().String(),
			"title":   t.Title(),
			"status":  string(outcome),
		})
		m.publishTask(events.TaskExpired, t, "")
		expired = append(expired, t)
	}
	return expired
}

// SelectionResult reports what selecting a choice did
type SelectionResult struct {
	Status     task.Status
	Deliveries int
	Requested  int
	Allocated  int
	Delivered  int
	Partial    bool
	Covered    bool
}

// Confirm completes an active task that needs no delivery, without applying any impact
func (m *Manager) Confirm(ctx context.Context, taskID string) error {
	t, err := m.Get(taskID)
	if err != nil {
		return err
	}
	err = m.withTask(t, func(t *task.Task) error {
		for _, c := range t.Choices() {
			if c.RequestsDelivery() {
				return &ErrChoiceRequired{TaskID: t.ID()}
			}
		}
		return t.Complete(m.clock.Now())
	})
	if err != nil {
		return err
	}
	m.publishTask(events.TaskCompleted, t, "")
	return nil
}

// Ignore dismisses an advisory without penalty
func (m *Manager) Ignore(ctx context.Context, taskID string) error {
	t, err := m.Get(taskID)
	if err != nil {
		return err
	}
	err = m.withTask(t, func(t *task.Task) error {
		if t.Type() != task.TypeAdvisory {
			return &ErrNotIgnorable{TaskID: t.ID(), Type: t.Type()}
		}
		return t.MarkExpired(m.clock.Now())
	})
	if err != nil {
		return err
	}
	logging.LoggerFromContext(ctx).Log("INFO", "Advisory ignored", map[string]interface{}{
		"task_id": taskID,
		"title":   t.Title(),
	})
	m.publishTask(events.TaskExpired, t, "ignored")
	return nil
}

// SetNumericInput stores a player-entered number, clamped to the input's range
func (m *Manager) SetNumericInput(ctx context.Context, taskID string, inputID, value int) (int, error) {
	t, err := m.Get(taskID)
	if err != nil {
		return 0, err
	}
	var stored int
	err = m.withTask(t, func(t *task.Task) error {
		if t.IsTerminal() {
			return &task.ErrInvalidTransition{TaskID: t.ID(), From: t.Status(), To: t.Status()}
		}
		v, err := t.SetNumericInput(inputID, value)
		stored = v
		return err
	})
	return stored, err
}

// withTask runs fn holding the task's mutex
func (m *Manager) withTask(t *task.Task, fn func(t *task.Task) error) error {
	lock := m.lockFor(t.ID().String())
	lock.Lock()
	defer lock.Unlock()
	return fn(t)
}

func (m *Manager) read(t *task.Task, fn func(t *task.Task) bool) bool {
	lock := m.lockFor(t.ID().String())
	lock.Lock()
	defer lock.Unlock()
	return fn(t)
}

func (m *Manager) lockFor(id string) *sync.Mutex {
	m.mu.RLock()
	lock, ok := m.locks[id]
	m.mu.RUnlock()
	if ok {
		return lock
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if lock, ok = m.locks[id]; !ok {
		lock = &sync.Mutex{}
		m.locks[id] = lock
	}
	return lock
}

func (m *Manager) currentRound() int {
	if m.rounds == nil {
		return 0
	}
	return m.rounds.CurrentRound()
}

func (m *Manager) publishTask(kind events.Type, t *task.Task, message string) {
	if m.publisher == nil {
		return
	}
	snap := m.Snapshot(t)
	m.publisher.Publish(events.Event{
		Type:      kind,
		Timestamp: m.clock.Now(),
		Task:      &snap,
		Message:   message,
	})
}

// Snapshot copies a task under its lock
func (m *Manager) Snapshot(t *task.Task) task.Snapshot {
	var snap task.Snapshot
	m.read(t, func(t *task.Task) bool {
		snap = t.Snapshot()
		return true
	})
	return snap
}

func (m *Manager) notice(t *task.Task, message string) {
	if m.publisher == nil {
		return
	}
	snap := m.Snapshot(t)
	m.publisher.Publish(events.Event{
		Type:      events.TaskNotice,
		Timestamp: m.clock.Now(),
		Task:      &snap,
		Message:   message,
	})
}

// sentinel used inside withTask callbacks to skip a task without logging
var errSkip = errors.New("skip")
